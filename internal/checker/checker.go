// Package checker classifies a model response against its source batch.
// Each source/destination pair receives exactly one Outcome; the first
// matching rule wins.
package checker

import (
	"strings"

	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/filter"
	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/script"
	"github.com/oukeidos/tlqc/internal/textkit"
	"github.com/oukeidos/tlqc/internal/textproc"
)

// Outcome classifies one source/destination pair.
type Outcome string

const (
	OutcomeNone          Outcome = "NONE"
	OutcomeUnknown       Outcome = "UNKNOWN"
	OutcomeFailData      Outcome = "FAIL_DATA"
	OutcomeFailLineCount Outcome = "FAIL_LINE_COUNT"
	OutcomeEmptyLine     Outcome = "EMPTY_LINE"
	OutcomeKana          Outcome = "KANA"
	OutcomeHangul        Outcome = "HANGEUL"
	OutcomeSourceResidue Outcome = "SOURCE_RESIDUE"
	OutcomeSimilarity    Outcome = "SIMILARITY"
	OutcomeDegradation   Outcome = "DEGRADATION"

	// Reserved outcomes: part of the taxonomy consumed by reporting,
	// not yet produced by the per-line rules.
	OutcomeFakeReply         Outcome = "FAKE_REPLY"
	OutcomeGlossaryViolation Outcome = "GLOSSARY_VIOLATION"
)

// lineErrors are the per-line quality failures, as opposed to the
// batch-level FAIL_DATA / FAIL_LINE_COUNT outcomes.
var lineErrors = map[Outcome]bool{
	OutcomeEmptyLine:         true,
	OutcomeKana:              true,
	OutcomeHangul:            true,
	OutcomeSourceResidue:     true,
	OutcomeSimilarity:        true,
	OutcomeDegradation:       true,
	OutcomeFakeReply:         true,
	OutcomeGlossaryViolation: true,
}

// IsLineError reports whether o is a per-line quality failure.
func IsLineError(o Outcome) bool { return lineErrors[o] }

// RetryCountThreshold is the per-unit retry count at which a single-unit
// batch is accepted unconditionally to stop a retry storm.
const RetryCountThreshold = 2

// similarityThreshold is the strict lower bound for the Jaccard check.
const similarityThreshold = 0.80

// Checker validates responses for one batch.
type Checker struct {
	src      language.Language
	tgt      language.Language
	preserve bool
	units    []*document.Unit
}

// New creates a Checker for the given batch.
func New(src, tgt language.Language, preserve bool, units []*document.Unit) *Checker {
	return &Checker{src: src, tgt: tgt, preserve: preserve, units: units}
}

// Check classifies a response. The returned slice always has one entry
// per source line.
func (c *Checker) Check(srcs, dsts []string, textType document.TextType) []Outcome {
	// No usable content at all.
	if allEmpty(dsts) {
		return uniform(OutcomeFailData, len(srcs))
	}

	// A single-unit batch that keeps failing on its own is accepted
	// as-is; further retries would loop forever.
	if len(c.units) == 1 && c.units[0].RetryCount >= RetryCountThreshold {
		return uniform(OutcomeNone, len(srcs))
	}

	if len(srcs) != len(dsts) {
		return uniform(OutcomeFailLineCount, len(srcs))
	}

	return c.checkLines(srcs, dsts, textType)
}

func (c *Checker) checkLines(srcs, dsts []string, textType document.TextType) []Outcome {
	outcomes := make([]Outcome, 0, len(srcs))
	rule := textproc.PreserveRule(textType, c.preserve)
	for i := range srcs {
		src := strings.TrimSpace(srcs[i])
		dst := strings.TrimSpace(dsts[i])

		if src != "" && dst == "" {
			outcomes = append(outcomes, OutcomeEmptyLine)
			continue
		}
		if filter.Structural(src) {
			outcomes = append(outcomes, OutcomeNone)
			continue
		}
		if !filter.Translatable(src, c.src) {
			outcomes = append(outcomes, OutcomeNone)
			continue
		}
		if !textkit.HasDegeneration(src) && textkit.HasDegeneration(dst) {
			outcomes = append(outcomes, OutcomeDegradation)
			continue
		}

		// Protected spans are allowed to carry source-script characters;
		// drop them before the script checks.
		if rule != nil {
			src = rule.ReplaceAllString(src, "")
			dst = rule.ReplaceAllString(dst, "")
		}

		if c.src.IsJapanese() && script.ContainsKana(dst) {
			outcomes = append(outcomes, OutcomeKana)
			continue
		}
		if c.src.IsKorean() && script.ContainsHangul(dst) {
			outcomes = append(outcomes, OutcomeHangul)
			continue
		}
		if !c.src.IsJapanese() && !c.src.IsKorean() && c.src.Script != script.None &&
			script.Contains(dst, c.src.Script) {
			outcomes = append(outcomes, OutcomeSourceResidue)
			continue
		}

		if similar(src, dst) {
			if o, ok := c.confirmSimilarity(dst); ok {
				outcomes = append(outcomes, o)
				continue
			}
		}

		outcomes = append(outcomes, OutcomeNone)
	}
	return outcomes
}

func similar(src, dst string) bool {
	if src == "" || dst == "" {
		return false
	}
	if strings.Contains(dst, src) || strings.Contains(src, dst) {
		return true
	}
	return textkit.JaccardSimilarity(src, dst) > similarityThreshold
}

// confirmSimilarity applies the script-pair overrides. Translating
// Japanese or Korean into Chinese legitimately shares Han characters
// with the source, so similarity alone proves nothing there: a telltale
// Kana or Hangul character must remain in the destination.
func (c *Checker) confirmSimilarity(dst string) (Outcome, bool) {
	switch {
	case c.src.IsJapanese() && c.tgt.IsChinese():
		if script.ContainsKana(dst) {
			return OutcomeSimilarity, true
		}
		return OutcomeNone, false
	case c.src.IsKorean() && c.tgt.IsChinese():
		if script.ContainsHangul(dst) {
			return OutcomeSimilarity, true
		}
		return OutcomeNone, false
	default:
		return OutcomeSimilarity, true
	}
}

func allEmpty(dsts []string) bool {
	for _, d := range dsts {
		if d != "" {
			return false
		}
	}
	return true
}

func uniform(o Outcome, n int) []Outcome {
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		outcomes[i] = o
	}
	return outcomes
}

// HasError reports whether any outcome is not a pass.
func HasError(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o != OutcomeNone {
			return true
		}
	}
	return false
}

// AnyPassed reports whether at least one outcome is a pass.
func AnyPassed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o == OutcomeNone {
			return true
		}
	}
	return false
}

// Text returns the display string for an outcome. The mapping is a
// static table; there is nothing worth caching here.
func Text(o Outcome) string {
	switch o {
	case OutcomeFailData:
		return "response contained no usable data"
	case OutcomeFailLineCount:
		return "line count mismatch"
	case OutcomeEmptyLine:
		return "translated line is empty"
	case OutcomeKana:
		return "kana left in translation"
	case OutcomeHangul:
		return "hangul left in translation"
	case OutcomeSourceResidue:
		return "source characters left in translation"
	case OutcomeSimilarity:
		return "translation too similar to source"
	case OutcomeDegradation:
		return "degenerate repetition in translation"
	case OutcomeFakeReply:
		return "model echoed the instructions"
	case OutcomeGlossaryViolation:
		return "translation contradicts glossary"
	default:
		return "unclassified failure"
	}
}
