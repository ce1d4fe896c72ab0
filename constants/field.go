package constants

// FieldType is the expected typed value of an extracted field.
type FieldType string

const (
	FieldTypeDate       FieldType = "DATE"       // day-first, normalized to ISO
	FieldTypeAmount     FieldType = "AMOUNT"     // locale-aware decimal
	FieldTypeIdentifier FieldType = "IDENTIFIER" // invoice number, KID, account number
	FieldTypeText       FieldType = "TEXT"       // free text, kept verbatim
)

// SelectPolicy decides which match wins when a pattern hits more than once.
type SelectPolicy string

const (
	SelectFirst   SelectPolicy = "FIRST"   // stable identifiers
	SelectLast    SelectPolicy = "LAST"    // restated totals; later figures supersede earlier ones
	SelectHighest SelectPolicy = "HIGHEST" // interim vs final sums
)

// Well-known field names. The validator and exporters key on these, so they
// are part of the stable output contract.
const (
	FieldSupplierName  = "supplier_name"
	FieldOrgNumber     = "org_number"
	FieldInvoiceNumber = "invoice_number"
	FieldInvoiceDate   = "invoice_date"
	FieldDueDate       = "due_date"
	FieldPeriodFrom    = "period_from"
	FieldPeriodTo      = "period_to"
	FieldNetAmount     = "net_amount"
	FieldVATAmount     = "vat_amount"
	FieldTotalAmount   = "total_amount"
	FieldKID           = "kid"
	FieldAccountNumber = "account_number"
)

// Flag codes raised by the validator. Stable strings.
const (
	FlagTotalMismatch = "TOTAL_MISMATCH"
	FlagDateOrder     = "DATE_ORDER"
	FlagLowMatchRate  = "LOW_MATCH_RATE"
	FlagNoSupplier    = "NO_SUPPLIER"
	FlagAmbiguous     = "AMBIGUOUS_SUPPLIER"
)
