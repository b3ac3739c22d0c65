// Package textkit provides the small text metrics the response checker
// builds on: token-set similarity, punctuation splitting, and detection
// of degenerate repetition in model output.
package textkit

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// degenerationRepeats is the minimum number of consecutive extra copies
// of a short unit for the text to count as degenerated output.
const degenerationRepeats = 16

// maxDegenerationUnit is the longest repeated unit considered, in
// grapheme clusters.
const maxDegenerationUnit = 3

// graphemes splits s into grapheme clusters, dropping whitespace-only
// clusters.
func graphemes(s string) []string {
	var out []string
	state := -1
	var cluster string
	for len(s) > 0 {
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		if strings.TrimSpace(cluster) == "" {
			continue
		}
		out = append(out, cluster)
	}
	return out
}

// tokens produces the token set basis for Jaccard similarity.
// Whitespace-delimited words are used when the string has them;
// otherwise the string is tokenized by grapheme cluster, which is the
// only sensible unit for scripts without word boundaries.
func tokens(s string) []string {
	fields := strings.Fields(s)
	if len(fields) > 1 {
		return fields
	}
	return graphemes(s)
}

// JaccardSimilarity computes intersection-over-union of the token sets
// of a and b. Two empty strings are not similar (0).
func JaccardSimilarity(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, t := range tokens(a) {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, t := range tokens(b) {
		setB[t] = struct{}{}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// HasDegeneration reports whether text contains a run of 1 to 3 grapheme
// clusters repeated at least degenerationRepeats times beyond the first
// occurrence. The scan is case-insensitive.
//
// This used to be the backreference pattern (.{1,3})\1{16,} in a prior
// incarnation; Go's RE2 engine has no backreferences, so it is a manual
// scan over grapheme clusters.
func HasDegeneration(text string) bool {
	gs := graphemesWithSpace(strings.ToLower(text))
	n := len(gs)
	for unit := 1; unit <= maxDegenerationUnit; unit++ {
		if n < unit*(degenerationRepeats+1) {
			continue
		}
		for start := 0; start+unit*(degenerationRepeats+1) <= n; start++ {
			repeats := 0
			for pos := start + unit; pos+unit <= n; pos += unit {
				if !equalRun(gs, start, pos, unit) {
					break
				}
				repeats++
			}
			if repeats >= degenerationRepeats {
				return true
			}
		}
	}
	return false
}

func graphemesWithSpace(s string) []string {
	var out []string
	state := -1
	var cluster string
	for len(s) > 0 {
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, cluster)
	}
	return out
}

func equalRun(gs []string, a, b, n int) bool {
	for i := 0; i < n; i++ {
		if gs[a+i] != gs[b+i] {
			return false
		}
	}
	return true
}

// punctuation reported by unicode plus full-width marks that IsPunct
// misses in practice for CJK dialogue.
func isPunctuation(r rune) bool {
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return true
	}
	switch r {
	case '、', '。', '，', '．', '・', '：', '；', '？', '！', '…', '「', '」', '『', '』':
		return true
	}
	return false
}

// SplitByPunctuation splits s on punctuation marks, and on whitespace
// when splitBySpace is set, returning the non-empty trimmed parts.
func SplitByPunctuation(s string, splitBySpace bool) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		if isPunctuation(r) {
			return true
		}
		return splitBySpace && unicode.IsSpace(r)
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
