package resolve

import (
	"log/slog"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/haakon-okland/invoice-core/constants"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Match is the outcome of resolving one raw name against the roster. Entry
// is bound only for MATCHED; near-ties are AMBIGUOUS and left to the caller,
// never guessed.
type Match struct {
	Entry  *entity.RosterEntry
	Score  float64
	Status constants.MatchStatus
}

// Resolver fuzzy-matches extracted names against the cost-center roster.
// Resolution is deterministic: identical input always yields identical
// output, with ties broken by roster order, never map iteration.
type Resolver struct {
	cfg    common.ResolutionConfig
	logger *slog.Logger
}

func NewResolver(cfg common.ResolutionConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.80
	}
	if cfg.TieMargin <= 0 {
		cfg.TieMargin = 0.05
	}
	if cfg.FirstNameWeight <= 0 {
		cfg.FirstNameWeight = 0.90
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// Resolve cleans the raw name (phone tail, honorifics, diacritics) and
// scores it against every roster entry. Candidates at or above the threshold
// are collected; exactly one clear winner is MATCHED, a near-tie is
// AMBIGUOUS, nothing above threshold is UNMATCHED.
func (r *Resolver) Resolve(rawName string, roster []entity.RosterEntry) Match {
	cleaned, _ := CleanName(rawName)
	folded := Fold(cleaned)
	if folded == "" {
		return Match{Status: constants.MatchStatusUnmatched}
	}

	type candidate struct {
		idx   int
		score float64
	}
	var candidates []candidate
	for i := range roster {
		s := r.score(folded, roster[i])
		if s >= r.cfg.Threshold {
			candidates = append(candidates, candidate{idx: i, score: s})
		}
	}

	if len(candidates) == 0 {
		r.logger.Debug("resolve.unmatched", "name", cleaned)
		return Match{Status: constants.MatchStatusUnmatched}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	best := candidates[0]
	if len(candidates) > 1 && best.score-candidates[1].score < r.cfg.TieMargin {
		r.logger.Info("resolve.ambiguous", "name", cleaned,
			"best", roster[best.idx].FullName(), "best_score", best.score,
			"second", roster[candidates[1].idx].FullName(), "second_score", candidates[1].score,
		)
		return Match{Score: best.score, Status: constants.MatchStatusAmbiguous}
	}

	entry := roster[best.idx]
	r.logger.Debug("resolve.matched", "name", cleaned, "entry", entry.FullName(), "score", best.score)
	return Match{Entry: &entry, Score: best.score, Status: constants.MatchStatusMatched}
}

// score compares the folded candidate name against the roster entry's full
// name, falling back to a discounted first-name-only comparison so invoices
// that carry only a given name still surface candidates (and near-ties among
// shared first names come out ambiguous instead of arbitrary).
func (r *Resolver) score(folded string, e entity.RosterEntry) float64 {
	full := editSimilarity(folded, Fold(e.FullName()))
	first := r.cfg.FirstNameWeight * editSimilarity(folded, Fold(e.FirstName))
	if first > full {
		return first
	}
	return full
}

func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}
