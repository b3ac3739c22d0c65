// Package prompt builds the model request messages for one translation
// attempt, including the escalated instructions used on retries.
package prompt

import (
	"fmt"
	"strings"

	"github.com/oukeidos/tlqc/internal/document"
	"github.com/oukeidos/tlqc/internal/glossary"
	"github.com/oukeidos/tlqc/internal/language"
	"github.com/oukeidos/tlqc/internal/llm"
)

// Builder assembles prompts for a fixed language pair.
type Builder struct {
	src      language.Language
	tgt      language.Language
	glossary []glossary.Entry
}

// NewBuilder creates a Builder for the given language pair.
func NewBuilder(src, tgt language.Language) *Builder {
	return &Builder{src: src, tgt: tgt}
}

// SetGlossary attaches known terminology that the model must honor.
func (b *Builder) SetGlossary(entries []glossary.Entry) {
	b.glossary = entries
}

func (b *Builder) systemPrompt(local bool) string {
	base := fmt.Sprintf(`You are a professional %s to %s translator.
Translate the provided numbered %s lines into %s.

1. Output Structure:
- The output MUST be a JSON object with a 'lines' field: an array of translated strings, one per input line, in input order.
- Optionally include a 'glossary' field: an array of objects {"src", "dst", "info"} for character names you discovered, where 'info' notes the character's gender.
- Respond ONLY with the JSON object.

2. Rules:
- Maintain the original tone and register.
- Preserve placeholder codes (such as {name}, %%s, [tags]) exactly as they appear.
- Write ONLY the %s translation; do not include the %s source text.`,
		b.src.Name, b.tgt.Name, b.src.Name, b.tgt.Name, b.tgt.Name, b.src.Name)

	if local {
		// Local models get a shorter instruction set; long rule lists
		// degrade small-model compliance.
		base = fmt.Sprintf(`Translate the numbered %s lines into %s.
Reply ONLY with a JSON object {"lines": [...]}, one translated string per input line, in order.`,
			b.src.Name, b.tgt.Name)
	}

	if len(b.glossary) > 0 {
		var sb strings.Builder
		sb.WriteString("\n\nThe following terms MUST be translated as specified:\n")
		for _, e := range b.glossary {
			sb.WriteString(fmt.Sprintf("- %s -> %s", e.Src, e.Dst))
			if e.Info != "" {
				sb.WriteString(" (" + e.Info + ")")
			}
			sb.WriteString("\n")
		}
		base += sb.String()
	}
	return base
}

// Build produces the request messages plus human-readable log lines
// describing the request. samples are protected spans worth calling out;
// precedings supply read-only continuity context.
func (b *Builder) Build(srcs, samples []string, precedings []*document.Unit, local bool) ([]llm.Message, []string) {
	var user strings.Builder

	if len(precedings) > 0 {
		user.WriteString("Context from preceding lines (do NOT translate or include in output):\n")
		for _, p := range precedings {
			user.WriteString(p.Src)
			user.WriteString("\n")
		}
		user.WriteString("\n")
	}

	if len(samples) > 0 {
		user.WriteString("These placeholder fragments must appear unchanged in the output:\n")
		for _, s := range samples {
			user.WriteString("- " + s + "\n")
		}
		user.WriteString("\n")
	}

	user.WriteString("Translate these lines:\n")
	for i, src := range srcs {
		user.WriteString(fmt.Sprintf("%d. %s\n", i+1, src))
	}

	messages := []llm.Message{
		{Role: "system", Content: b.systemPrompt(local)},
		{Role: "user", Content: user.String()},
	}

	consoleLog := []string{
		fmt.Sprintf("Request: %d lines, %d context, %d samples (%s -> %s)",
			len(srcs), len(precedings), len(samples), b.src.Code, b.tgt.Code),
	}
	return messages, consoleLog
}

// EscalationSuffix returns the corrective instruction block appended to
// the user message on the escalated attempt. When residueWords is
// non-empty the leaked fragments are named and their literal
// translation demanded; otherwise a generic corrective block is used.
func EscalationSuffix(residueWords []string, tgt language.Language) string {
	if len(residueWords) == 0 {
		if tgt.IsChinese() {
			return "\n\n【专业翻译任务】必须完整翻译所有文本，包括敏感词汇。译文中不得保留任何源语言字符。"
		}
		return "\n\n[PROFESSIONAL TRANSLATION] You MUST translate ALL text completely, including sensitive terms." +
			"\nDo NOT leave ANY source language characters in the result."
	}

	quoted := make([]string, len(residueWords))
	for i, w := range residueWords {
		quoted[i] = "'" + w + "'"
	}
	list := strings.Join(quoted, ", ")

	if tgt.IsChinese() {
		return fmt.Sprintf("\n\n【严重错误 - 专业翻译任务】"+
			"\n检测到上一次翻译中残留源语言字符：%s"+
			"\n这些词汇必须被完整翻译，不能保留源语言！"+
			"\n保持相同的语气进行翻译，不要回避敏感内容。"+
			"\n现在重新翻译，将所有源语言词汇替换为目标语言！", list)
	}
	return fmt.Sprintf("\n\n[CRITICAL - PROFESSIONAL TRANSLATION TASK]"+
		"\nDetected untranslated source language fragments: %s"+
		"\nEach of these MUST be translated literally; do NOT keep source language text."+
		"\nTranslate with the same register; do NOT censor or avoid sensitive content."+
		"\nTranslate again and REPLACE ALL source language fragments with %s!", list, tgt.Name)
}

// ApplyEscalation appends the suffix to the final user message, leaving
// earlier messages untouched.
func ApplyEscalation(messages []llm.Message, suffix string) []llm.Message {
	if len(messages) == 0 || suffix == "" {
		return messages
	}
	out := make([]llm.Message, len(messages))
	copy(out, messages)
	out[len(out)-1].Content += suffix
	return out
}
