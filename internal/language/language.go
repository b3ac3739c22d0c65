package language

import (
	"sort"

	"github.com/oukeidos/tlqc/internal/script"
)

// Language represents a supported language with its configuration.
type Language struct {
	Code   string
	Name   string
	Script script.Script // dominant script for residue detection; None when undetectable
	Spaced bool          // words separated by whitespace
}

// Languages is a map of supported language code -> Language.
// Residue detection only makes sense for languages with a distinctive
// script; Latin-alphabet languages carry script.None and are skipped.
var Languages = map[string]Language{
	"zh": {Code: "zh", Name: "Chinese", Script: script.Han},
	"ja": {Code: "ja", Name: "Japanese", Script: script.Kana},
	"ko": {Code: "ko", Name: "Korean", Script: script.Hangul},
	"ru": {Code: "ru", Name: "Russian", Script: script.Cyrillic, Spaced: true},
	"ar": {Code: "ar", Name: "Arabic", Script: script.Arabic, Spaced: true},
	"th": {Code: "th", Name: "Thai", Script: script.Thai},
	"en": {Code: "en", Name: "English", Spaced: true},
	"de": {Code: "de", Name: "German", Spaced: true},
	"es": {Code: "es", Name: "Spanish", Spaced: true},
	"fr": {Code: "fr", Name: "French", Spaced: true},
	"id": {Code: "id", Name: "Indonesian", Spaced: true},
	"it": {Code: "it", Name: "Italian", Spaced: true},
	"pl": {Code: "pl", Name: "Polish", Spaced: true},
	"pt": {Code: "pt", Name: "Portuguese", Spaced: true},
	"vi": {Code: "vi", Name: "Vietnamese", Spaced: true},
}

// GetLanguage looks up a language by code.
func GetLanguage(code string) (Language, bool) {
	lang, ok := Languages[code]
	return lang, ok
}

// SupportedCodes returns all supported language codes, sorted.
func SupportedCodes() []string {
	codes := make([]string, 0, len(Languages))
	for code := range Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsChinese reports whether the language is the Chinese family.
func (l Language) IsChinese() bool { return l.Code == "zh" }

// IsJapanese reports whether the language is Japanese.
func (l Language) IsJapanese() bool { return l.Code == "ja" }

// IsKorean reports whether the language is Korean.
func (l Language) IsKorean() bool { return l.Code == "ko" }
