package task

import (
	"context"
	"strings"
	"testing"

	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/llm"
	"github.com/oukeidos/tlqc/internal/prompt"
)

func testDeps(t *testing.T, mock *llm.MockRequester) Deps {
	t.Helper()
	src, ok := language.GetLanguage("ja")
	if !ok {
		t.Fatal("ja not registered")
	}
	tgt, ok := language.GetLanguage("zh")
	if !ok {
		t.Fatal("zh not registered")
	}
	return Deps{
		Requester:     mock,
		Builder:       prompt.NewBuilder(src, tgt),
		Params:        llm.Params{Model: "test-model", Temperature: 1.0},
		Src:           src,
		Tgt:           tgt,
		SuppressTable: true,
	}
}

func batchOf(srcs ...string) *document.Batch {
	units := make([]*document.Unit, len(srcs))
	for i, s := range srcs {
		units[i] = &document.Unit{ID: i + 1, Src: s}
	}
	return &document.Batch{Units: units}
}

func reply(result string) llm.Reply {
	return llm.Reply{Result: result, InputTokens: 10, OutputTokens: 20}
}

func TestRunAcceptsCleanResponse(t *testing.T) {
	mock := &llm.MockRequester{Replies: []llm.Reply{
		reply(`{"lines": ["你好", "再见"]}`),
	}}
	b := batchOf("こんにちは", "さようなら")

	disp := New(testDeps(t, mock), b).Run(context.Background(), 1)

	if mock.Calls != 1 {
		t.Fatalf("expected 1 request, got %d", mock.Calls)
	}
	if disp.AcceptedCount != 2 || disp.InputTokens != 10 || disp.OutputTokens != 20 {
		t.Errorf("disposition = %+v", disp)
	}
	if b.Units[0].Dst != "你好" || b.Units[0].Status != document.Translated {
		t.Errorf("unit 0 not accepted: %+v", b.Units[0])
	}
	if b.Units[1].Dst != "再见" {
		t.Errorf("unit 1 dst = %q", b.Units[1].Dst)
	}
}

func TestRunEscalatesWithResidueWords(t *testing.T) {
	mock := &llm.MockRequester{Replies: []llm.Reply{
		reply(`{"lines": ["喝コーヒー"]}`), // kana residue: rejected
		reply(`{"lines": ["喝咖啡"]}`),
	}}
	b := batchOf("コーヒーを飲む")

	disp := New(testDeps(t, mock), b).Run(context.Background(), 1)

	if mock.Calls != 2 {
		t.Fatalf("expected 2 requests, got %d", mock.Calls)
	}
	// The second request carries the escalated instructions naming the
	// fragment that leaked through on the first attempt.
	user := mock.LastMsgs[len(mock.LastMsgs)-1].Content
	if !strings.Contains(user, "コーヒー") || !strings.Contains(user, "残留") {
		t.Errorf("escalated prompt missing residue callout: %q", user)
	}
	if disp.AcceptedCount != 1 {
		t.Errorf("disposition = %+v", disp)
	}
	if b.Units[0].Dst != "喝咖啡" {
		t.Errorf("dst = %q", b.Units[0].Dst)
	}
}

func TestRunForcesAcceptanceOnFinalAttempt(t *testing.T) {
	// Every attempt returns mixed-script garbage for both units; the
	// final attempt accepts it anyway rather than looping forever.
	mock := &llm.MockRequester{Replies: []llm.Reply{
		reply(`{"lines": ["你好です", "再见です"]}`),
	}}
	b := batchOf("こんにちは", "さようなら")

	disp := New(testDeps(t, mock), b).Run(context.Background(), 1)

	if mock.Calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", mock.Calls)
	}
	if mock.LastParams.Temperature != 0.3 {
		t.Errorf("final attempt temperature = %v, want 0.3", mock.LastParams.Temperature)
	}
	if disp.AcceptedCount != 2 {
		t.Errorf("disposition = %+v", disp)
	}
	if b.Units[0].Status != document.Translated || b.Units[0].Dst != "你好です" {
		t.Errorf("unit 0 not force-accepted: %+v", b.Units[0])
	}
}

func TestLowTemperatureFloor(t *testing.T) {
	mock := &llm.MockRequester{Replies: []llm.Reply{
		reply(`{"lines": ["你好です"]}`),
	}}
	deps := testDeps(t, mock)
	deps.Params.Temperature = 0.2
	b := batchOf("こんにちは", "さようなら") // line count mismatch keeps failing

	New(deps, b).Run(context.Background(), 1)

	if mock.LastParams.Temperature != minTemperature {
		t.Errorf("temperature = %v, want floor %v", mock.LastParams.Temperature, minTemperature)
	}
	// The base configuration must stay untouched for other batches.
	if deps.Params.Temperature != 0.2 {
		t.Errorf("shared params mutated: %v", deps.Params.Temperature)
	}
}

func TestRunAllTransportSkips(t *testing.T) {
	mock := &llm.MockRequester{} // no replies configured: every call skips
	b := batchOf("こんにちは")

	disp := New(testDeps(t, mock), b).Run(context.Background(), 1)

	if mock.Calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", mock.Calls)
	}
	if disp != (Disposition{}) {
		t.Errorf("expected zero disposition, got %+v", disp)
	}
	if b.Units[0].Status != document.Untranslated {
		t.Errorf("unit must stay untranslated for the next round: %+v", b.Units[0])
	}
}

func TestRetryCountOnlyForSingleUnitBatches(t *testing.T) {
	bad := reply(`{"lines": ["你好です"]}`)
	mock := &llm.MockRequester{Replies: []llm.Reply{bad}}
	b := batchOf("こんにちは")

	New(testDeps(t, mock), b).Run(context.Background(), 1)

	// Two failed attempts bump the count; the third short-circuits on
	// the threshold and accepts the result without another failure.
	if b.Units[0].RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", b.Units[0].RetryCount)
	}
	if b.Units[0].Status != document.Translated {
		t.Errorf("unit should end accepted: %+v", b.Units[0])
	}

	badMulti := reply(`{"lines": ["你好です", "再见です"]}`)
	mockMulti := &llm.MockRequester{Replies: []llm.Reply{badMulti}}
	bm := batchOf("こんにちは", "さようなら")

	New(testDeps(t, mockMulti), bm).Run(context.Background(), 1)

	if bm.Units[0].RetryCount != 0 || bm.Units[1].RetryCount != 0 {
		t.Errorf("multi-unit batches must not touch RetryCount: %d, %d",
			bm.Units[0].RetryCount, bm.Units[1].RetryCount)
	}
}

func TestRunSkipsRequestForEmptyBatch(t *testing.T) {
	mock := &llm.MockRequester{}
	b := batchOf("   ")

	disp := New(testDeps(t, mock), b).Run(context.Background(), 1)

	if mock.Calls != 0 {
		t.Errorf("expected no requests for empty content, got %d", mock.Calls)
	}
	if disp.AcceptedCount != 1 {
		t.Errorf("disposition = %+v", disp)
	}
	if b.Units[0].Status != document.Translated || b.Units[0].Dst != "   " {
		t.Errorf("unit should carry its source through: %+v", b.Units[0])
	}
}
