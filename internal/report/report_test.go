package report

import (
	"strings"
	"testing"

	"github.com/oukeidos/tlqc/internal/checker"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []checker.Outcome
		want     Severity
	}{
		{"all clean", []checker.Outcome{checker.OutcomeNone, checker.OutcomeNone}, SeveritySuccess},
		{"all unknown", []checker.Outcome{checker.OutcomeUnknown, checker.OutcomeUnknown}, SeverityHardFail},
		{"all fail data", []checker.Outcome{checker.OutcomeFailData}, SeverityHardFail},
		{"all line count", []checker.Outcome{checker.OutcomeFailLineCount, checker.OutcomeFailLineCount}, SeverityHardFail},
		{"every line failed", []checker.Outcome{checker.OutcomeKana, checker.OutcomeSimilarity}, SeverityHardFail},
		{"some lines failed", []checker.Outcome{checker.OutcomeNone, checker.OutcomeKana}, SeverityPartial},
		{"empty", nil, SeveritySuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.outcomes); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.outcomes, got, tt.want)
			}
		})
	}
}

func TestReasonsDeduplicates(t *testing.T) {
	got := Reasons([]checker.Outcome{
		checker.OutcomeKana,
		checker.OutcomeKana,
		checker.OutcomeNone,
		checker.OutcomeEmptyLine,
	})
	if strings.Count(got, "kana") != 1 {
		t.Errorf("duplicate reason in %q", got)
	}
	if !strings.Contains(got, "empty") {
		t.Errorf("missing empty-line reason in %q", got)
	}
}

func TestRenderTableMarksFailures(t *testing.T) {
	r := Record{
		Outcomes: []checker.Outcome{checker.OutcomeNone, checker.OutcomeKana},
		Srcs:     []string{"おはよう", "こんにちは"},
		Dsts:     []string{"早上好", "你好です"},
	}
	out := renderTable(r, "header")
	if !strings.Contains(out, "header") {
		t.Errorf("table missing header: %q", out)
	}
	if !strings.Contains(out, "[KANA]") {
		t.Errorf("table missing outcome mark: %q", out)
	}
	if strings.Contains(out, "おはよう --> 早上好 [") {
		t.Errorf("clean line should have no mark: %q", out)
	}
}
