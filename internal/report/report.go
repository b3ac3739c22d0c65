// Package report turns a completed attempt's line outcomes into a
// severity tier and a rendered log table. Severity is informational: it
// selects the log channel and message, never the accept decision.
package report

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/oukeidos/tlqc/internal/checker"
	"github.com/oukeidos/tlqc/internal/logger"
)

// Severity classifies a completed attempt for reporting.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityPartial
	SeverityHardFail
)

// Classify derives the severity tier from a full outcome list.
func Classify(outcomes []checker.Outcome) Severity {
	switch {
	case all(outcomes, checker.OutcomeUnknown),
		all(outcomes, checker.OutcomeFailData),
		all(outcomes, checker.OutcomeFailLineCount):
		return SeverityHardFail
	case allLineErrors(outcomes):
		return SeverityHardFail
	case anyLineError(outcomes):
		return SeverityPartial
	default:
		return SeveritySuccess
	}
}

func all(outcomes []checker.Outcome, want checker.Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if o != want {
			return false
		}
	}
	return true
}

func allLineErrors(outcomes []checker.Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !checker.IsLineError(o) {
			return false
		}
	}
	return true
}

func anyLineError(outcomes []checker.Outcome) bool {
	for _, o := range outcomes {
		if checker.IsLineError(o) {
			return true
		}
	}
	return false
}

// Reasons joins the distinct display texts of the failing outcomes.
func Reasons(outcomes []checker.Outcome) string {
	seen := make(map[string]struct{})
	var texts []string
	for _, o := range outcomes {
		if o == checker.OutcomeNone {
			continue
		}
		t := checker.Text(o)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		texts = append(texts, t)
	}
	sort.Strings(texts)
	return strings.Join(texts, ", ")
}

// Record is everything one attempt report needs.
type Record struct {
	Outcomes     []checker.Outcome
	Srcs         []string
	Dsts         []string
	Extra        []string // prompt log lines, reasoning, raw result
	Elapsed      time.Duration
	InputTokens  int
	OutputTokens int

	// SuppressTable drops the rendered table and keeps only the
	// summary line, for runs with many concurrent workers.
	SuppressTable bool
}

// Emit logs the attempt on the channel matching its severity.
func Emit(r Record) {
	sev := Classify(r.Outcomes)

	var message string
	logFunc := logger.Info
	switch sev {
	case SeverityHardFail:
		message = "Translation check failed (" + Reasons(r.Outcomes) + ")"
		logFunc = logger.Error
	case SeverityPartial:
		message = "Translation check partially failed (" + Reasons(r.Outcomes) + ")"
		logFunc = logger.Warn
	default:
		message = fmt.Sprintf("Translation finished in %.2fs: %d lines, %d input tokens, %d output tokens",
			r.Elapsed.Seconds(), len(r.Srcs), r.InputTokens, r.OutputTokens)
	}

	logFunc(message,
		"lines", len(r.Srcs),
		"input_tokens", r.InputTokens,
		"output_tokens", r.OutputTokens,
		"elapsed", r.Elapsed.Round(10*time.Millisecond).String(),
	)

	if r.SuppressTable {
		return
	}
	logger.Raw(severityLevel(sev), renderTable(r, message))
}

func severityLevel(sev Severity) slog.Level {
	switch sev {
	case SeverityHardFail:
		return logger.LevelError
	case SeverityPartial:
		return logger.LevelWarn
	default:
		return logger.LevelInfo
	}
}

func renderTable(r Record, message string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Color.Border = severityColors(Classify(r.Outcomes))
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 100},
	})

	tw.AppendRow(table.Row{message})
	for _, extra := range r.Extra {
		if strings.TrimSpace(extra) == "" {
			continue
		}
		tw.AppendRow(table.Row{strings.TrimSpace(extra)})
	}

	var pairs []string
	for i := range r.Srcs {
		dst := ""
		if i < len(r.Dsts) {
			dst = r.Dsts[i]
		}
		mark := ""
		if i < len(r.Outcomes) && r.Outcomes[i] != checker.OutcomeNone {
			mark = " [" + string(r.Outcomes[i]) + "]"
		}
		pairs = append(pairs, fmt.Sprintf("%s --> %s%s", strings.TrimSpace(r.Srcs[i]), strings.TrimSpace(dst), mark))
	}
	tw.AppendRow(table.Row{strings.Join(pairs, "\n")})

	return tw.Render()
}

func severityColors(sev Severity) text.Colors {
	switch sev {
	case SeverityHardFail:
		return text.Colors{text.FgRed}
	case SeverityPartial:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgGreen}
	}
}
