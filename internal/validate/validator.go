package validate

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Validator cross-checks an extraction result and reports discrepancies.
// Every check runs independently, no short-circuiting, and validation only
// reports: it never corrects a value or discards data.
type Validator struct {
	epsilon      decimal.Decimal
	minMatchRate float64
	logger       *slog.Logger
}

func NewValidator(cfg common.ValidationConfig, logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	eps := decimal.NewFromFloat(0.01)
	if cfg.AmountEpsilon != "" {
		parsed, err := decimal.NewFromString(cfg.AmountEpsilon)
		if err != nil {
			return nil, common.NewAppError("CONFIG_ERROR",
				fmt.Sprintf("invalid amount epsilon %q", cfg.AmountEpsilon), common.ErrInvalidInput)
		}
		eps = parsed
	}
	minRate := cfg.MinMatchRate
	if minRate <= 0 {
		minRate = 0.80
	}
	return &Validator{epsilon: eps, minMatchRate: minRate, logger: logger}, nil
}

// Validate returns the discrepancy flags for one result.
func (v *Validator) Validate(res *entity.ExtractionResult) []entity.Flag {
	var flags []entity.Flag
	flags = append(flags, v.checkTotal(res)...)
	flags = append(flags, v.checkDates(res)...)
	flags = append(flags, v.checkMatchRate(res)...)
	if len(flags) > 0 {
		v.logger.Info("validate.flags", "result_id", res.ID, "count", len(flags))
	}
	return flags
}

// checkTotal compares the stated document total against the sum of line
// amounts, within epsilon.
func (v *Validator) checkTotal(res *entity.ExtractionResult) []entity.Flag {
	total, ok := res.Fields[constants.FieldTotalAmount]
	if !ok || len(res.Lines) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, line := range res.Lines {
		sum = sum.Add(line.Amount)
	}
	diff := total.Amount.Sub(sum).Abs()
	if diff.GreaterThan(v.epsilon) {
		return []entity.Flag{{
			Code:    constants.FlagTotalMismatch,
			Message: fmt.Sprintf("document total %s differs from line sum %s by %s", total.Amount, sum, diff),
		}}
	}
	return nil
}

// checkDates verifies chronological sanity of paired date fields.
func (v *Validator) checkDates(res *entity.ExtractionResult) []entity.Flag {
	pairs := [][2]string{
		{constants.FieldInvoiceDate, constants.FieldDueDate},
		{constants.FieldPeriodFrom, constants.FieldPeriodTo},
	}
	var flags []entity.Flag
	for _, pair := range pairs {
		from, okFrom := res.Fields[pair[0]]
		to, okTo := res.Fields[pair[1]]
		if !okFrom || !okTo || from.Date.IsZero() || to.Date.IsZero() {
			continue
		}
		if from.Date.After(to.Date) {
			flags = append(flags, entity.Flag{
				Code:    constants.FlagDateOrder,
				Message: fmt.Sprintf("%s (%s) is after %s (%s)", pair[0], from.Date.Format("2006-01-02"), pair[1], to.Date.Format("2006-01-02")),
			})
		}
	}
	return flags
}

// checkMatchRate flags the whole result as low-confidence when too few lines
// resolved; the result is still returned in full.
func (v *Validator) checkMatchRate(res *entity.ExtractionResult) []entity.Flag {
	if len(res.Lines) == 0 {
		return nil
	}
	matched := 0
	for _, line := range res.Lines {
		if line.Status == constants.MatchStatusMatched {
			matched++
		}
	}
	rate := float64(matched) / float64(len(res.Lines))
	if rate < v.minMatchRate {
		return []entity.Flag{{
			Code:    constants.FlagLowMatchRate,
			Message: fmt.Sprintf("only %d of %d lines resolved (%.0f%%, minimum %.0f%%)", matched, len(res.Lines), rate*100, v.minMatchRate*100),
		}}
	}
	return nil
}
