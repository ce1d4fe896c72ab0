package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/classify"
	"github.com/haakon-okland/invoice-core/internal/entity"
	"github.com/haakon-okland/invoice-core/internal/extract"
	"github.com/haakon-okland/invoice-core/internal/resolve"
	"github.com/haakon-okland/invoice-core/internal/validate"
)

// Processor coordinates detection, extraction, resolution, and validation
// for one document. It holds no per-document state and takes the pattern
// store and roster as read-only snapshots, so independent documents can be
// processed concurrently.
type Processor struct {
	logger    *slog.Logger
	detector  *classify.Detector
	store     *classify.Store
	templates *extract.Registry
	extractor *extract.Extractor
	resolver  *resolve.Resolver
	validator *validate.Validator
	roster    []entity.RosterEntry
}

func NewProcessor(
	logger *slog.Logger,
	detector *classify.Detector,
	store *classify.Store,
	templates *extract.Registry,
	extractor *extract.Extractor,
	resolver *resolve.Resolver,
	validator *validate.Validator,
	roster []entity.RosterEntry,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		detector:  detector,
		store:     store,
		templates: templates,
		extractor: extractor,
		resolver:  resolver,
		validator: validator,
		roster:    roster,
	}
}

// ProcessDocument runs the full flow. Every document produces exactly one
// result; classification failure and field problems are outcomes on the
// result, not errors. The error return is reserved for programmer-level
// wiring problems (a classified supplier whose template is not registered).
func (p *Processor) ProcessDocument(ctx context.Context, doc entity.Document) (*entity.ExtractionResult, error) {
	start := time.Now()
	text := doc.Text()
	p.logger.Info("process.start", "doc_id", doc.ID, "source", doc.SourcePath, "bytes", len(text))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detection := p.detector.Detect(text)
	if detection.Status != constants.DocumentStatusClassified {
		res := &entity.ExtractionResult{
			ID:          doc.ID,
			SourceFile:  doc.SourcePath,
			Status:      detection.Status,
			Confidence:  detection.Confidence,
			Scores:      detection.Scores,
			Fields:      map[string]entity.FieldValue{},
			ProcessedAt: time.Now().UTC(),
		}
		code := constants.FlagNoSupplier
		msg := "no supplier detected"
		if detection.Status == constants.DocumentStatusAmbiguous {
			code = constants.FlagAmbiguous
			msg = "multiple suppliers scored within the tie margin; manual classification required"
		}
		res.Flags = append(res.Flags, entity.Flag{Code: code, Message: msg})
		p.logger.Info("process.unclassified", "doc_id", doc.ID, "status", detection.Status)
		return res, nil
	}

	profile, err := p.store.Get(detection.SupplierKey)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", detection.SupplierKey, err)
	}
	tmpl, err := p.templates.Get(profile.TemplateKey)
	if err != nil {
		return nil, fmt.Errorf("template for supplier %q: %w", detection.SupplierKey, err)
	}

	res := p.extractor.Extract(doc, tmpl)
	res.Status = constants.DocumentStatusClassified
	res.SupplierKey = detection.SupplierKey
	res.Confidence = detection.Confidence
	res.Scores = detection.Scores

	for i := range res.Lines {
		match := p.resolver.Resolve(res.Lines[i].RawName, p.roster)
		res.Lines[i].Resolved = match.Entry
		res.Lines[i].MatchScore = match.Score
		res.Lines[i].Status = match.Status
	}

	res.Flags = append(res.Flags, p.validator.Validate(res)...)

	p.logger.Info("process.ok",
		"doc_id", doc.ID,
		"supplier", res.SupplierKey,
		"confidence", res.Confidence,
		"lines", len(res.Lines),
		"flags", len(res.Flags),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
