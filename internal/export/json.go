package export

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// The output document layout is a stable contract: downstream accounting
// consumers bind to these keys positionally, so renaming or removing any of
// them is a breaking change.

type OutputDocument struct {
	Supplier        SupplierBlock   `json:"supplier"`
	InvoiceMetadata MetadataBlock   `json:"invoice_metadata"`
	AmountSummary   AmountBlock     `json:"amount_summary"`
	LineRecords     []LineBlock     `json:"line_records"`
	QualityControl  QualityBlock    `json:"quality_control"`
	SourceFile      string          `json:"source_file,omitempty"`
	ProcessedAt     time.Time       `json:"processed_at"`
}

type SupplierBlock struct {
	Key        string  `json:"key"`
	Name       string  `json:"name,omitempty"`
	OrgNumber  string  `json:"org_number,omitempty"`
	Confidence float64 `json:"confidence"`
}

type MetadataBlock struct {
	InvoiceNumber string `json:"invoice_number,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	PeriodFrom    string `json:"period_from,omitempty"`
	PeriodTo      string `json:"period_to,omitempty"`
	KID           string `json:"kid,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

type AmountBlock struct {
	Net      decimal.Decimal `json:"net"`
	VAT      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`
	LineSum  decimal.Decimal `json:"line_sum"`
	Currency string          `json:"currency,omitempty"`
}

type LineBlock struct {
	RawName     string          `json:"raw_name"`
	FirstName   string          `json:"matched_first_name,omitempty"`
	LastName    string          `json:"matched_last_name,omitempty"`
	CostCenter  string          `json:"cost_center,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Correction  bool            `json:"correction,omitempty"`
	Page        int             `json:"page"`
	Line        int             `json:"line"`
	MatchStatus string          `json:"match_status"`
	MatchScore  float64         `json:"match_score"`
	Note        string          `json:"note,omitempty"`
}

type QualityBlock struct {
	Status       string   `json:"status"`
	Confidence   float64  `json:"confidence"`
	LinesFound   int      `json:"lines_found"`
	LinesMatched int      `json:"lines_matched"`
	MatchRate    float64  `json:"match_rate"`
	FieldErrors  []string `json:"field_errors,omitempty"`
	Flags        []entity.Flag `json:"flags,omitempty"`
}

// BuildDocument maps an extraction result onto the stable output layout.
func BuildDocument(res *entity.ExtractionResult) OutputDocument {
	doc := OutputDocument{
		Supplier: SupplierBlock{
			Key:        res.SupplierKey,
			Name:       fieldText(res, constants.FieldSupplierName),
			OrgNumber:  fieldText(res, constants.FieldOrgNumber),
			Confidence: res.Confidence,
		},
		InvoiceMetadata: MetadataBlock{
			InvoiceNumber: fieldText(res, constants.FieldInvoiceNumber),
			InvoiceDate:   fieldDate(res, constants.FieldInvoiceDate),
			DueDate:       fieldDate(res, constants.FieldDueDate),
			PeriodFrom:    fieldDate(res, constants.FieldPeriodFrom),
			PeriodTo:      fieldDate(res, constants.FieldPeriodTo),
			KID:           fieldText(res, constants.FieldKID),
			AccountNumber: fieldText(res, constants.FieldAccountNumber),
		},
		AmountSummary: AmountBlock{
			Net:   fieldAmount(res, constants.FieldNetAmount),
			VAT:   fieldAmount(res, constants.FieldVATAmount),
			Total: fieldAmount(res, constants.FieldTotalAmount),
		},
		SourceFile:  res.SourceFile,
		ProcessedAt: res.ProcessedAt,
	}

	matched := 0
	lineSum := decimal.Zero
	for _, line := range res.Lines {
		lb := LineBlock{
			RawName:     line.RawName,
			Phone:       line.Phone,
			Amount:      line.Amount,
			Currency:    line.Currency,
			Correction:  line.Correction,
			Page:        line.Page,
			Line:        line.Line,
			MatchStatus: string(line.Status),
			MatchScore:  line.MatchScore,
			Note:        line.Note,
		}
		if line.Resolved != nil {
			lb.FirstName = line.Resolved.FirstName
			lb.LastName = line.Resolved.LastName
			lb.CostCenter = line.Resolved.CostCenter
		}
		if line.Status == constants.MatchStatusMatched {
			matched++
		}
		if doc.AmountSummary.Currency == "" {
			doc.AmountSummary.Currency = line.Currency
		}
		lineSum = lineSum.Add(line.Amount)
		doc.LineRecords = append(doc.LineRecords, lb)
	}
	doc.AmountSummary.LineSum = lineSum

	qc := QualityBlock{
		Status:       string(res.Status),
		Confidence:   res.Confidence,
		LinesFound:   len(res.Lines),
		LinesMatched: matched,
		Flags:        res.Flags,
	}
	if len(res.Lines) > 0 {
		qc.MatchRate = float64(matched) / float64(len(res.Lines))
	}
	for _, fe := range res.FieldErrors {
		qc.FieldErrors = append(qc.FieldErrors, fe.Field+": "+fe.Reason)
	}
	doc.QualityControl = qc
	return doc
}

// WriteJSON renders the stable output document for one result.
func WriteJSON(res *entity.ExtractionResult) ([]byte, error) {
	return json.MarshalIndent(BuildDocument(res), "", "  ")
}

func fieldText(res *entity.ExtractionResult, name string) string {
	if v, ok := res.Fields[name]; ok {
		if v.Text != "" {
			return v.Text
		}
		return v.Raw
	}
	return ""
}

func fieldDate(res *entity.ExtractionResult, name string) string {
	if v, ok := res.Fields[name]; ok && !v.Date.IsZero() {
		return v.Date.Format("2006-01-02")
	}
	return ""
}

func fieldAmount(res *entity.ExtractionResult, name string) decimal.Decimal {
	if v, ok := res.Fields[name]; ok {
		return v.Amount
	}
	return decimal.Zero
}
