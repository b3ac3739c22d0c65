package checker

import (
	"reflect"
	"strings"
	"testing"

	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/language"
)

func langs(t *testing.T, src, tgt string) (language.Language, language.Language) {
	t.Helper()
	s, ok := language.GetLanguage(src)
	if !ok {
		t.Fatalf("language %q not registered", src)
	}
	d, ok := language.GetLanguage(tgt)
	if !ok {
		t.Fatalf("language %q not registered", tgt)
	}
	return s, d
}

func units(n int) []*document.Unit {
	out := make([]*document.Unit, n)
	for i := range out {
		out[i] = &document.Unit{ID: i + 1}
	}
	return out
}

func TestCheckFailData(t *testing.T) {
	src, tgt := langs(t, "ja", "zh")
	c := New(src, tgt, false, units(1))

	outcomes := c.Check([]string{"こんにちは", "さようなら"}, []string{"", ""}, document.TextPlain)
	want := []Outcome{OutcomeFailData, OutcomeFailData}
	if !reflect.DeepEqual(outcomes, want) {
		t.Errorf("got %v, want %v", outcomes, want)
	}
}

func TestCheckLineCountMismatch(t *testing.T) {
	src, tgt := langs(t, "ja", "zh")
	c := New(src, tgt, false, units(2))

	outcomes := c.Check([]string{"一行目", "二行目"}, []string{"只有一行"}, document.TextPlain)
	want := []Outcome{OutcomeFailLineCount, OutcomeFailLineCount}
	if !reflect.DeepEqual(outcomes, want) {
		t.Errorf("got %v, want %v", outcomes, want)
	}
}

func TestCheckRetryStormShortCircuit(t *testing.T) {
	src, tgt := langs(t, "ja", "zh")
	u := units(1)
	u[0].RetryCount = RetryCountThreshold
	c := New(src, tgt, false, u)

	// A response that would normally fail the kana check.
	outcomes := c.Check([]string{"こんにちは"}, []string{"你好です"}, document.TextPlain)
	want := []Outcome{OutcomeNone}
	if !reflect.DeepEqual(outcomes, want) {
		t.Errorf("got %v, want %v", outcomes, want)
	}
}

func TestCheckRetryStormIgnoredForMultiUnit(t *testing.T) {
	src, tgt := langs(t, "ja", "zh")
	u := units(2)
	u[0].RetryCount = RetryCountThreshold + 1
	c := New(src, tgt, false, u)

	outcomes := c.Check([]string{"こんにちは", "さようなら"}, []string{"你好です", "再见"}, document.TextPlain)
	if outcomes[0] != OutcomeKana {
		t.Errorf("expected kana failure for line 0, got %v", outcomes[0])
	}
	if outcomes[1] != OutcomeNone {
		t.Errorf("expected pass for line 1, got %v", outcomes[1])
	}
}

func TestCheckLineRules(t *testing.T) {
	tests := []struct {
		name     string
		srcLang  string
		tgtLang  string
		src      string
		dst      string
		textType document.TextType
		want     Outcome
	}{
		{"clean translation", "ja", "zh", "こんにちは", "你好", document.TextPlain, OutcomeNone},
		{"empty destination", "ja", "zh", "こんにちは", "", document.TextPlain, OutcomeEmptyLine},
		{"structural source passes any dst", "ja", "zh", "...", "...", document.TextPlain, OutcomeNone},
		{"untranslatable source passes", "ja", "zh", "OK!", "OK!", document.TextPlain, OutcomeNone},
		{"kana residue", "ja", "zh", "コーヒーを飲む", "喝コーヒー", document.TextPlain, OutcomeKana},
		{"hangul residue", "ko", "zh", "커피 마셔", "喝커피", document.TextPlain, OutcomeHangul},
		{"cyrillic residue", "ru", "en", "Привет мир", "Hello Привет", document.TextPlain, OutcomeSourceResidue},
		{"han residue from chinese source", "zh", "en", "你好世界", "Hello 你好", document.TextPlain, OutcomeSourceResidue},
		{"chinese identical echo is residue first", "zh", "en", "你好", "你好", document.TextPlain, OutcomeSourceResidue},
		{"degeneration", "ja", "zh", "とても長い話", strings.Repeat("哈", 40), document.TextPlain, OutcomeDegradation},
		{"similarity latin pair", "en", "de", "the cat sat there", "the cat sat there", document.TextPlain, OutcomeSimilarity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, tgt := langs(t, tt.srcLang, tt.tgtLang)
			c := New(src, tgt, false, units(1))
			outcomes := c.Check([]string{tt.src}, []string{tt.dst}, tt.textType)
			if len(outcomes) != 1 || outcomes[0] != tt.want {
				t.Errorf("got %v, want [%v]", outcomes, tt.want)
			}
		})
	}
}

// Japanese and Korean sources translated into Chinese legitimately share
// Han characters, so similarity only counts when source-script
// characters remain.
func TestSimilarityOverrideForChineseTarget(t *testing.T) {
	src, tgt := langs(t, "ja", "zh")
	c := New(src, tgt, false, units(1))

	// All-kanji source identical to an all-Han destination: allowed.
	outcomes := c.Check([]string{"東京大学"}, []string{"東京大学"}, document.TextPlain)
	if outcomes[0] != OutcomeNone {
		t.Errorf("expected kanji-identical ja->zh to pass, got %v", outcomes[0])
	}

	// Destination echoing the source including kana: flagged.
	outcomes = c.Check([]string{"東京の大学"}, []string{"東京の大学"}, document.TextPlain)
	if outcomes[0] != OutcomeSimilarity {
		t.Errorf("expected kana-bearing echo to fail, got %v", outcomes[0])
	}
}

func TestDialogueSpeakerNameIgnoredByScriptChecks(t *testing.T) {
	src, tgt := langs(t, "ja", "zh")
	c := New(src, tgt, false, units(1))

	// The bracketed speaker prefix may stay in the source script.
	outcomes := c.Check([]string{"【さくら】こんにちは"}, []string{"【さくら】你好"}, document.TextDialogue)
	if outcomes[0] != OutcomeNone {
		t.Errorf("expected protected speaker name to pass, got %v", outcomes[0])
	}
}

func TestHasErrorAndAnyPassed(t *testing.T) {
	mixed := []Outcome{OutcomeNone, OutcomeKana}
	if !HasError(mixed) {
		t.Error("expected HasError for mixed outcomes")
	}
	if !AnyPassed(mixed) {
		t.Error("expected AnyPassed for mixed outcomes")
	}

	clean := []Outcome{OutcomeNone, OutcomeNone}
	if HasError(clean) {
		t.Error("expected no error for clean outcomes")
	}

	failed := []Outcome{OutcomeKana, OutcomeHangul}
	if AnyPassed(failed) {
		t.Error("expected no pass for all-failed outcomes")
	}
}

func TestIsLineError(t *testing.T) {
	if IsLineError(OutcomeFailData) {
		t.Error("FAIL_DATA is a batch-level outcome, not a line error")
	}
	if IsLineError(OutcomeNone) {
		t.Error("NONE is not an error")
	}
	if !IsLineError(OutcomeKana) || !IsLineError(OutcomeSimilarity) {
		t.Error("expected quality outcomes to count as line errors")
	}
}
