package classify

import (
	"log/slog"
	"strings"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Detection is the outcome of classifying one document. A document that
// matches nothing is DocumentStatusNoSupplier with all-zero scores; top-two
// scores within the tie margin are reported ambiguous and left for the
// caller to resolve, never silently picked.
type Detection struct {
	Status      constants.DocumentStatus
	SupplierKey string
	Confidence  float64
	Scores      map[string]float64
}

// Detector scores a document against every registered supplier profile.
// Detect is a pure function over the profile data; training is a separate
// explicit operation on the Store.
type Detector struct {
	store  *Store
	cfg    common.DetectionConfig
	logger *slog.Logger
}

func NewDetector(store *Store, cfg common.DetectionConfig, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.70
	}
	if cfg.TieMargin <= 0 {
		cfg.TieMargin = 0.05
	}
	if cfg.PatternWeight == 0 && cfg.SignatureWeight == 0 {
		cfg.PatternWeight, cfg.SignatureWeight = 0.7, 0.3
	}
	return &Detector{store: store, cfg: cfg, logger: logger}
}

// Detect computes, per supplier,
//
//	score = patternWeight*patternScore + signatureWeight*signatureScore
//
// where patternScore is the fraction of the profile's identification
// patterns found in the text and signatureScore is the best similarity
// against any stored signature. The highest score wins only when it clears
// the configured threshold.
func (d *Detector) Detect(text string) Detection {
	profiles := d.store.Snapshot()
	scores := make(map[string]float64, len(profiles))

	if strings.TrimSpace(text) == "" {
		for _, p := range profiles {
			scores[p.Key] = 0
		}
		return Detection{Status: constants.DocumentStatusNoSupplier, Scores: scores}
	}

	candidate := NewSignature(text)
	var best, second float64
	bestKey := ""
	for _, p := range profiles {
		score := d.cfg.PatternWeight*d.patternScore(p.Key, text) +
			d.cfg.SignatureWeight*signatureScore(candidate, p.Signatures)
		scores[p.Key] = score
		switch {
		case score > best:
			second = best
			best = score
			bestKey = p.Key
		case score > second:
			second = score
		}
	}

	if bestKey == "" || best < d.cfg.Threshold {
		d.logger.Debug("detect.no_supplier", "best", best, "threshold", d.cfg.Threshold)
		return Detection{Status: constants.DocumentStatusNoSupplier, Scores: scores}
	}
	if best-second < d.cfg.TieMargin && second >= d.cfg.Threshold {
		d.logger.Info("detect.ambiguous", "best", best, "second", second, "margin", d.cfg.TieMargin)
		return Detection{Status: constants.DocumentStatusAmbiguous, Confidence: best, Scores: scores}
	}

	d.logger.Debug("detect.ok", "supplier", bestKey, "confidence", best)
	return Detection{
		Status:      constants.DocumentStatusClassified,
		SupplierKey: bestKey,
		Confidence:  best,
		Scores:      scores,
	}
}

func (d *Detector) patternScore(key, text string) float64 {
	patterns := d.store.patternsFor(key)
	if len(patterns) == 0 {
		return 0
	}
	hits := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			hits++
		}
	}
	return float64(hits) / float64(len(patterns))
}

func signatureScore(candidate entity.Signature, stored []entity.Signature) float64 {
	best := 0.0
	for _, sig := range stored {
		if s := similarity(candidate, sig); s > best {
			best = s
		}
	}
	return best
}
