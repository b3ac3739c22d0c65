// Package script detects writing-system membership of text.
// The checks are intentionally coarse: a single character of a block is
// enough to count, which is exactly what residue detection needs.
package script

// Script identifies a writing system relevant to residue detection.
type Script int

const (
	None Script = iota
	Han
	Kana
	Hangul
	Cyrillic
	Arabic
	Thai
)

type runeRange struct {
	lo, hi rune
}

var ranges = map[Script][]runeRange{
	Han: {
		{0x4E00, 0x9FFF},   // CJK Unified Ideographs
		{0x3400, 0x4DBF},   // Extension A
		{0xF900, 0xFAFF},   // Compatibility Ideographs
		{0x20000, 0x2A6DF}, // Extension B
	},
	Kana: {
		{0x3040, 0x309F}, // Hiragana
		{0x30A0, 0x30FF}, // Katakana
		{0x31F0, 0x31FF}, // Katakana Phonetic Extensions
	},
	Hangul: {
		{0xAC00, 0xD7AF}, // Hangul Syllables
		{0x1100, 0x11FF}, // Hangul Jamo
	},
	Cyrillic: {
		{0x0400, 0x04FF},
	},
	Arabic: {
		{0x0600, 0x06FF},
		{0x0750, 0x077F}, // Arabic Supplement
	},
	Thai: {
		{0x0E00, 0x0E7F},
	},
}

func in(r rune, rs []runeRange) bool {
	for _, rr := range rs {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

// Is reports whether r belongs to the given script.
func Is(r rune, s Script) bool {
	return in(r, ranges[s])
}

// Contains reports whether text contains at least one character of the script.
func Contains(text string, s Script) bool {
	if s == None {
		return false
	}
	for _, r := range text {
		if in(r, ranges[s]) {
			return true
		}
	}
	return false
}

// ContainsHan reports whether text contains a CJK ideograph.
func ContainsHan(text string) bool { return Contains(text, Han) }

// ContainsKana reports whether text contains Hiragana or Katakana.
func ContainsKana(text string) bool { return Contains(text, Kana) }

// ContainsHangul reports whether text contains a Hangul syllable or jamo.
func ContainsHangul(text string) bool { return Contains(text, Hangul) }

// ContainsCyrillic reports whether text contains a Cyrillic letter.
func ContainsCyrillic(text string) bool { return Contains(text, Cyrillic) }

// ContainsArabic reports whether text contains an Arabic letter.
func ContainsArabic(text string) bool { return Contains(text, Arabic) }

// ContainsThai reports whether text contains a Thai character.
func ContainsThai(text string) bool { return Contains(text, Thai) }

// Runs returns the maximal runs of characters of the script in text,
// in order of appearance. Characters outside the script break runs.
func Runs(text string, s Script) []string {
	if s == None {
		return nil
	}
	var runs []string
	var current []rune
	for _, r := range text {
		if in(r, ranges[s]) {
			current = append(current, r)
			continue
		}
		if len(current) > 0 {
			runs = append(runs, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		runs = append(runs, string(current))
	}
	return runs
}
