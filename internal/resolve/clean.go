package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Honorific and title tokens stripped before matching. Lowercase, compared
// after trailing-dot removal ("Ks", "Dr.", "Frk").
var honorifics = map[string]struct{}{
	"ks": {}, "dr": {}, "prof": {}, "mr": {}, "mrs": {}, "ms": {}, "frk": {}, "fr": {},
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CleanName strips a trailing phone-number token, honorific prefixes, and
// stray punctuation from a raw invoice name.
//
//	"Annlaug Amundsen - 918 54 560" -> ("Annlaug Amundsen", "91854560")
//	"Ks Andreas . - 920 78 335"     -> ("Andreas", "92078335")
func CleanName(raw string) (name, phone string) {
	name = strings.TrimSpace(raw)

	// Everything after the last dash-like separator is a trailing
	// identifier (phone number) if it is digits-only.
	for _, sep := range []string{" - ", " – ", " — "} {
		if idx := strings.LastIndex(name, sep); idx >= 0 {
			tail := strings.TrimSpace(name[idx+len(sep):])
			if isPhoneLike(tail) {
				phone = strings.ReplaceAll(tail, " ", "")
				name = strings.TrimSpace(name[:idx])
				break
			}
		}
	}

	words := strings.Fields(name)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".")
		if w == "" {
			continue
		}
		if _, ok := honorifics[strings.ToLower(w)]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " "), phone
}

// Fold lowercases and removes diacritics so "Lindström" and "Lindstrom"
// compare equal. Deterministic.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func isPhoneLike(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ':
		default:
			return false
		}
	}
	return digits >= 5
}
