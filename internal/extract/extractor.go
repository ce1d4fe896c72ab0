package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Confidence per fallback depth: the primary pattern scores 1.0, each
// fallback costs a step, floored so a hit is never reported as zero.
const (
	fallbackPenalty = 0.2
	minConfidence   = 0.2
)

// Extractor applies a compiled template to classified text. Extraction never
// aborts on a single missing or malformed field: partial results are always
// returned, with failures recorded per field.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs every field rule in template order, then the recurring-block
// scan. The supplier is already known; classification fields on the result
// are filled in by the caller.
func (e *Extractor) Extract(doc entity.Document, tmpl *Template) *entity.ExtractionResult {
	text := doc.Text()
	loc := NewLocator(text)

	res := &entity.ExtractionResult{
		ID:          doc.ID,
		SourceFile:  doc.SourcePath,
		Fields:      make(map[string]entity.FieldValue, len(tmpl.rules)),
		ProcessedAt: time.Now().UTC(),
	}

	for _, rule := range tmpl.rules {
		e.applyRule(text, rule, res)
	}

	switch {
	case tmpl.blockFn != nil:
		res.Lines = tmpl.blockFn(text, loc)
	case tmpl.block != nil:
		res.Lines = e.scanBlocks(text, tmpl.block, loc)
	}

	e.logger.Debug("extract.ok",
		"template", tmpl.Key,
		"fields", len(res.Fields),
		"lines", len(res.Lines),
		"field_errors", len(res.FieldErrors),
	)
	return res
}

func (e *Extractor) applyRule(text string, rule compiledRule, res *entity.ExtractionResult) {
	var raws []string
	confidence := 0.0
	for i, re := range rule.patterns {
		raws = captures(re, text, rule.group)
		if len(raws) > 0 {
			confidence = 1 - fallbackPenalty*float64(i)
			if confidence < minConfidence {
				confidence = minConfidence
			}
			break
		}
	}

	if len(raws) == 0 {
		if rule.def.Required {
			res.FieldErrors = append(res.FieldErrors, entity.FieldError{
				Field:  rule.def.Name,
				Reason: "required field not found",
			})
		}
		return
	}

	value, err := selectValue(raws, rule)
	if err != nil {
		res.FieldErrors = append(res.FieldErrors, entity.FieldError{
			Field:  rule.def.Name,
			Reason: err.Error(),
		})
		return
	}
	value.Confidence = confidence
	res.Fields[rule.def.Name] = value
}

// selectValue applies the rule's selection policy to the ordered matches and
// parses the winner into its typed form.
func selectValue(raws []string, rule compiledRule) (entity.FieldValue, error) {
	raw := raws[0]
	switch rule.policy {
	case constants.SelectLast:
		raw = raws[len(raws)-1]
	case constants.SelectHighest:
		best := decimal.Decimal{}
		found := false
		for _, r := range raws {
			d, err := ParseAmount(r)
			if err != nil {
				continue
			}
			if !found || d.GreaterThan(best) {
				best, raw, found = d, r, true
			}
		}
		if !found {
			return entity.FieldValue{}, fmt.Errorf("no parseable amount among %d matches", len(raws))
		}
	}
	return typedValue(raw, rule.def.Type)
}

func typedValue(raw string, kind constants.FieldType) (entity.FieldValue, error) {
	v := entity.FieldValue{Raw: raw, Kind: kind}
	switch kind {
	case constants.FieldTypeAmount:
		d, err := ParseAmount(raw)
		if err != nil {
			return entity.FieldValue{}, err
		}
		v.Amount = d
	case constants.FieldTypeDate:
		t, err := ParseDate(raw)
		if err != nil {
			return entity.FieldValue{}, err
		}
		v.Date = t
	default:
		v.Text = strings.TrimSpace(raw)
	}
	return v, nil
}

// scanBlocks finds every anchor occurrence and applies the block's amount
// rule to the bounded span between one anchor and the next (or end of text).
// Each block yields one line record; a block with no parseable amount still
// yields a record, with a note, so nothing silently disappears.
func (e *Extractor) scanBlocks(text string, block *compiledBlock, loc *Locator) []entity.LineRecord {
	anchors := block.anchor.FindAllStringSubmatchIndex(text, -1)
	if len(anchors) == 0 {
		return nil
	}

	lines := make([]entity.LineRecord, 0, len(anchors))
	for i, m := range anchors {
		spanStart := m[1]
		spanEnd := len(text)
		if i+1 < len(anchors) {
			spanEnd = anchors[i+1][0]
		}
		span := text[spanStart:spanEnd]

		page, line := loc.Locate(m[0])
		rec := entity.LineRecord{
			RawName:  strings.TrimSpace(group(text, m, block.nameIdx)),
			Currency: block.def.Currency,
			Page:     page,
			Line:     line,
			Status:   constants.MatchStatusUnmatched,
		}
		if block.phoneIdx > 0 {
			rec.Phone = strings.ReplaceAll(group(text, m, block.phoneIdx), " ", "")
		}

		amounts := captures(block.amount, span, 1)
		if len(amounts) == 0 {
			rec.Note = "no amount found in block"
			lines = append(lines, rec)
			continue
		}
		raw := amounts[0]
		switch block.amountPolicy {
		case constants.SelectLast:
			raw = amounts[len(amounts)-1]
		case constants.SelectHighest:
			best := decimal.Decimal{}
			found := false
			for _, r := range amounts {
				if d, err := ParseAmount(r); err == nil && (!found || d.GreaterThan(best)) {
					best, raw, found = d, r, true
				}
			}
		}
		d, err := ParseAmount(raw)
		if err != nil {
			rec.Note = fmt.Sprintf("unparseable amount %q", raw)
			lines = append(lines, rec)
			continue
		}
		if d.IsNegative() {
			// Negative charges are corrections, kept as-is and marked.
			rec.Correction = true
		}
		rec.Amount = d
		lines = append(lines, rec)
	}
	return lines
}

// captures returns the requested capture group of every match, in order.
func captures(re *regexp.Regexp, text string, grp int) []string {
	ms := re.FindAllStringSubmatchIndex(text, -1)
	if len(ms) == 0 {
		return nil
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, group(text, m, grp))
	}
	return out
}

func group(text string, m []int, grp int) string {
	lo, hi := m[2*grp], m[2*grp+1]
	if lo < 0 || hi < 0 {
		return ""
	}
	return text[lo:hi]
}
