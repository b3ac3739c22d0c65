// Package task runs the bounded retry loop for one batch: up to three
// attempts with escalating mitigation, then a terminal policy. The
// caller always receives a Disposition; quality failures never surface
// as errors.
package task

import (
	"context"
	"time"

	"github.com/oukeidos/tlqc/internal/checker"
	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/glossary"
	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/llm"
	"github.com/oukeidos/tlqc/internal/logger"
	"github.com/oukeidos/tlqc/internal/prompt"
	"github.com/oukeidos/tlqc/internal/report"
	"github.com/oukeidos/tlqc/internal/residue"
	"github.com/oukeidos/tlqc/internal/textproc"
)

// attemptState is the escalation ladder. Each state applies one
// mitigation strategy on top of the base request.
type attemptState int

const (
	stateInitial attemptState = iota
	stateEscalated
	stateLowTemperature
	stateExhausted
)

func (s attemptState) next() attemptState {
	if s >= stateExhausted {
		return stateExhausted
	}
	return s + 1
}

// minTemperature is the floor applied by the low-temperature strategy.
const minTemperature = 0.1

// Disposition is the terminal result of one batch.
type Disposition struct {
	AcceptedCount int
	InputTokens   int
	OutputTokens  int
}

// Deps are the collaborators a Task needs.
type Deps struct {
	Requester llm.Requester
	Builder   *prompt.Builder
	Merger    *glossary.Merger
	Params    llm.Params
	Src       language.Language
	Tgt       language.Language

	// Preserve enables placeholder-preservation rules in pre-processing
	// and validation.
	Preserve bool
	// SuppressTable drops per-line log tables (many concurrent workers).
	SuppressTable bool
}

// Task drives one batch through the retry loop.
type Task struct {
	deps       Deps
	batch      *document.Batch
	processors []*textproc.Processor
	check      *checker.Checker

	// lastDsts keeps the previous attempt's destinations for residue
	// extraction in the escalated attempt.
	lastDsts []string
}

// New creates a Task for a batch.
func New(deps Deps, batch *document.Batch) *Task {
	processors := make([]*textproc.Processor, len(batch.Units))
	for i, u := range batch.Units {
		processors[i] = textproc.New(u, deps.Preserve)
	}
	return &Task{
		deps:       deps,
		batch:      batch,
		processors: processors,
		check:      checker.New(deps.Src, deps.Tgt, deps.Preserve, batch.Units),
	}
}

// Run executes up to three attempts and returns the batch disposition.
// The final attempt accepts whatever lines came back (forced
// acceptance), so only transport failures on every attempt can leave
// units untranslated.
func (t *Task) Run(ctx context.Context, round int) Disposition {
	for state := stateInitial; state != stateExhausted; state = state.next() {
		disp, ok := t.attempt(ctx, state, round)
		if ok {
			return disp
		}
	}
	// Every attempt was a transport-level skip. Units stay untranslated
	// for the next round.
	return Disposition{}
}

// attempt runs one request/validate/accept cycle. ok is true when at
// least one unit was accepted.
func (t *Task) attempt(ctx context.Context, state attemptState, round int) (Disposition, bool) {
	start := time.Now()

	var srcs, samples []string
	for _, p := range t.processors {
		p.PreProcess()
		srcs = append(srcs, p.Srcs()...)
		samples = append(samples, p.Samples()...)
	}

	// Nothing translatable: complete the batch by copying source text.
	if len(srcs) == 0 {
		for _, u := range t.batch.Units {
			u.SetTranslated(u.Src)
		}
		return Disposition{AcceptedCount: len(t.batch.Units)}, true
	}

	messages, consoleLog := t.deps.Builder.Build(srcs, samples, t.batch.Precedings, t.batch.Local)
	params := t.deps.Params.Clone()

	switch state {
	case stateEscalated:
		words := residue.Extract(t.lastDsts, t.deps.Src)
		messages = prompt.ApplyEscalation(messages, prompt.EscalationSuffix(words, t.deps.Tgt))
		logger.Debug("Escalating retry prompt", "round", round, "residue_words", len(words))
	case stateLowTemperature:
		params.Temperature = max(minTemperature, params.Temperature*0.3)
		logger.Debug("Lowering temperature for final attempt", "round", round, "temperature", params.Temperature)
	}

	reply, err := t.deps.Requester.Send(ctx, messages, params)
	if err != nil {
		logger.Warn("Attempt aborted by transport failure", "round", round, "error", err)
		return Disposition{}, false
	}
	if reply.Skip {
		logger.Warn("Attempt skipped by provider", "round", round)
		return Disposition{}, false
	}

	dsts, candidates := llm.Decode(reply.Result)
	t.lastDsts = append([]string(nil), dsts...)

	// Units never span documents, so the batch shares one text type.
	outcomes := t.check.Check(srcs, dsts, t.batch.Units[0].Type)

	if checker.HasError(outcomes) && len(t.batch.Units) == 1 {
		t.batch.Units[0].RetryCount++
	}

	forceAccept := state == stateLowTemperature
	updated := t.acceptResults(dsts, outcomes, forceAccept, candidates)

	if reply.Reasoning != "" {
		logger.Debug("Model reasoning", "round", round, "reasoning", reply.Reasoning)
	}
	report.Emit(report.Record{
		Outcomes:      outcomes,
		Srcs:          srcs,
		Dsts:          dsts,
		Extra:         consoleLog,
		Elapsed:       time.Since(start),
		InputTokens:   reply.InputTokens,
		OutputTokens:  reply.OutputTokens,
		SuppressTable: t.deps.SuppressTable,
	})

	if updated == 0 {
		return Disposition{}, false
	}
	return Disposition{
		AcceptedCount: updated,
		InputTokens:   reply.InputTokens,
		OutputTokens:  reply.OutputTokens,
	}, true
}

// acceptResults distributes destinations across units and accepts every
// unit whose full line range passed (or all units under forced
// acceptance). Glossary merging only happens when something passed:
// terms discovered in an all-failed response are not trustworthy.
func (t *Task) acceptResults(dsts []string, outcomes []checker.Outcome, forceAccept bool, candidates []glossary.Entry) int {
	if !checker.AnyPassed(outcomes) && !forceAccept {
		return 0
	}

	if checker.AnyPassed(outcomes) && t.deps.Merger != nil {
		t.deps.Merger.Merge(candidates)
	}

	total := 0
	for _, p := range t.processors {
		total += len(p.Srcs())
	}
	dsts = padStrings(dsts, total)
	outcomes = padOutcomes(outcomes, total)

	updated := 0
	offset := 0
	for i, u := range t.batch.Units {
		p := t.processors[i]
		n := len(p.Srcs())
		unitDsts := dsts[offset : offset+n]
		unitOutcomes := outcomes[offset : offset+n]
		offset += n

		if !forceAccept && checker.HasError(unitOutcomes) {
			continue
		}
		name, dst := p.PostProcess(unitDsts)
		u.SetTranslated(dst)
		if name != "" {
			u.FirstNameDst = name
		}
		updated++
	}
	return updated
}

func padStrings(in []string, n int) []string {
	for len(in) < n {
		in = append(in, "")
	}
	return in
}

func padOutcomes(in []checker.Outcome, n int) []checker.Outcome {
	for len(in) < n {
		in = append(in, checker.OutcomeNone)
	}
	return in
}
