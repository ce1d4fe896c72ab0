package classify

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/haakon-okland/invoice-core/internal/entity"
)

const (
	// fingerprintTokens caps how many distinct tokens a fingerprint keeps.
	fingerprintTokens = 32
	// excerptRunes bounds the raw excerpt stored for fallback comparison.
	excerptRunes = 600
	// minTokenLen filters short noise tokens (page numbers, units).
	minTokenLen = 4
)

// NewSignature computes the stored form of one labeled example document: a
// token fingerprint of its most frequent terms plus a bounded excerpt of the
// normalized text. Deterministic for identical input.
func NewSignature(text string) entity.Signature {
	norm := normalizeText(text)
	return entity.Signature{
		Fingerprint: fingerprint(norm),
		Excerpt:     excerpt(norm),
		AddedAt:     time.Now().UTC(),
	}
}

// similarity scores a candidate signature against a stored one, in [0, 1].
// Token-set overlap carries half the weight, normalized edit similarity of
// the excerpts the other half; byte-identical documents score exactly 1.
func similarity(candidate, stored entity.Signature) float64 {
	cs := splitFingerprint(candidate.Fingerprint)
	ss := splitFingerprint(stored.Fingerprint)
	e := editSimilarity(candidate.Excerpt, stored.Excerpt)
	if len(cs) == 0 && len(ss) == 0 {
		// Neither text produced fingerprint tokens (all tokens shorter than
		// minTokenLen), so the excerpt is the only signal. Averaging in a
		// zero overlap here would cap identical documents at 0.5.
		return e
	}
	return 0.5*jaccard(cs, ss) + 0.5*e
}

func normalizeText(text string) string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func fingerprint(norm string) string {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(norm) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if len([]rune(tok)) < minTokenLen {
			continue
		}
		counts[tok]++
	}
	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	// Most frequent first; ties broken alphabetically so the result is
	// independent of map iteration order.
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > fingerprintTokens {
		tokens = tokens[:fingerprintTokens]
	}
	sort.Strings(tokens)
	return strings.Join(tokens, "|")
}

func excerpt(norm string) string {
	r := []rune(norm)
	if len(r) > excerptRunes {
		r = r[:excerptRunes]
	}
	return string(r)
}

func splitFingerprint(fp string) map[string]struct{} {
	set := make(map[string]struct{})
	if fp == "" {
		return set
	}
	for _, tok := range strings.Split(fp, "|") {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
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
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
