// Package filter decides which source lines carry nothing translatable.
// Lines caught here are accepted as-is by the checker instead of being
// flagged against the model.
package filter

import (
	"unicode"

	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/script"
)

// Structural reports whether src is structural content that needs no
// translation: empty text, or text made solely of punctuation, symbols,
// digits, and whitespace (markup fragments, separators, counters).
func Structural(src string) bool {
	for _, r := range src {
		if unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsDigit(r) &&
			!unicode.IsSpace(r) && !unicode.IsControl(r) && !unicode.IsMark(r) {
			return false
		}
	}
	return true
}

// Translatable reports whether src contains content written in the
// given source language. A line with none of the source language's
// script has nothing for the model to translate and is accepted as-is.
func Translatable(src string, lang language.Language) bool {
	switch {
	case lang.IsJapanese():
		// Japanese text may be all-kanji, all-kana, or mixed.
		return script.ContainsKana(src) || script.ContainsHan(src)
	case lang.Script != script.None:
		return script.Contains(src, lang.Script)
	default:
		// Latin-alphabet languages: any letter counts.
		for _, r := range src {
			if unicode.IsLetter(r) {
				return true
			}
		}
		return false
	}
}
