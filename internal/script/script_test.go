package script

import (
	"reflect"
	"testing"
)

func TestContains(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		script Script
		want   bool
	}{
		{"han in chinese", "你好世界", Han, true},
		{"han in japanese mix", "私は学生です", Han, true},
		{"kana hiragana", "これはペンです", Kana, true},
		{"kana katakana only", "コーヒー", Kana, true},
		{"no kana in chinese", "你好世界", Kana, false},
		{"hangul", "안녕하세요", Hangul, true},
		{"no hangul in latin", "hello", Hangul, false},
		{"cyrillic", "Привет", Cyrillic, true},
		{"arabic", "مرحبا", Arabic, true},
		{"thai", "สวัสดี", Thai, true},
		{"none script never matches", "anything 何か", None, false},
		{"single char is enough", "abc火def", Han, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.text, tt.script); got != tt.want {
				t.Errorf("Contains(%q, %v) = %v, want %v", tt.text, tt.script, got, tt.want)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		script Script
		want   []string
	}{
		{"single run", "abcコーヒーdef", Kana, []string{"コーヒー"}},
		{"two runs", "飲むcoffeeを買う", Han, []string{"飲", "買"}},
		{"run at end", "hello世界", Han, []string{"世界"}},
		{"no runs", "hello world", Han, nil},
		{"whole string", "안녕하세요", Hangul, []string{"안녕하세요"}},
		{"none script", "何か", None, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Runs(tt.text, tt.script)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Runs(%q, %v) = %v, want %v", tt.text, tt.script, got, tt.want)
			}
		})
	}
}
