// internal/match/similarity.go
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity scores a against b in [0,1] using the Ratcliff/Obershelp
// ratio (2*matches / total runes). Case-insensitive. No IO.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	// Longest-block matching is order sensitive; a fixed pair order keeps
	// the score symmetric.
	if b < a {
		a, b = b, a
	}

	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

// runes splits s into one element per code point.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
