// Package residue extracts source-script fragments left untranslated in
// model output. The extracted words feed the escalated retry prompt.
package residue

import (
	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/script"
)

// Extract returns the distinct maximal runs of source-script characters
// found across dsts, in first-seen order. Languages without a
// distinctive script yield nil: Latin residue cannot be told apart from
// legitimate target text.
func Extract(dsts []string, lang language.Language) []string {
	if lang.Script == script.None || len(dsts) == 0 {
		return nil
	}
	var words []string
	seen := make(map[string]struct{})
	for _, dst := range dsts {
		for _, run := range script.Runs(dst, lang.Script) {
			if _, ok := seen[run]; ok {
				continue
			}
			seen[run] = struct{}{}
			words = append(words, run)
		}
	}
	return words
}
