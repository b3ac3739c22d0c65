package llm

import (
	"reflect"
	"testing"
)

func TestDecodeStructuredPayload(t *testing.T) {
	raw := `{"lines": ["你好", "再见"], "glossary": [{"src": "さくら", "dst": "小樱", "info": "女性"}]}`
	dsts, candidates := Decode(raw)

	if !reflect.DeepEqual(dsts, []string{"你好", "再见"}) {
		t.Errorf("dsts = %v", dsts)
	}
	if len(candidates) != 1 || candidates[0].Src != "さくら" {
		t.Errorf("candidates = %+v", candidates)
	}
}

func TestDecodeBareArray(t *testing.T) {
	dsts, candidates := Decode(`["一", "二"]`)
	if !reflect.DeepEqual(dsts, []string{"一", "二"}) {
		t.Errorf("dsts = %v", dsts)
	}
	if candidates != nil {
		t.Errorf("expected no candidates, got %+v", candidates)
	}
}

func TestDecodeCodeFence(t *testing.T) {
	raw := "```json\n{\"lines\": [\"你好\"]}\n```"
	dsts, _ := Decode(raw)
	if !reflect.DeepEqual(dsts, []string{"你好"}) {
		t.Errorf("dsts = %v", dsts)
	}
}

func TestDecodePlainTextFallback(t *testing.T) {
	dsts, candidates := Decode("第一行\n第二行")
	if !reflect.DeepEqual(dsts, []string{"第一行", "第二行"}) {
		t.Errorf("dsts = %v", dsts)
	}
	if candidates != nil {
		t.Errorf("expected no candidates, got %+v", candidates)
	}
}

func TestDecodeEmpty(t *testing.T) {
	dsts, candidates := Decode("   ")
	if dsts != nil || candidates != nil {
		t.Errorf("expected nil results, got %v, %v", dsts, candidates)
	}
}

func TestParamsCloneIsIndependent(t *testing.T) {
	p := Params{Model: "m", Temperature: 1.0}
	q := p.Clone()
	q.Temperature = 0.1
	if p.Temperature != 1.0 {
		t.Errorf("Clone must not share state, got %v", p.Temperature)
	}
}
