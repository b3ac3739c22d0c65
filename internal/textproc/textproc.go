// Package textproc prepares unit text for the model and reassembles the
// model's output. It also owns the placeholder-preservation patterns
// that the response checker strips before script analysis.
package textproc

import (
	"regexp"
	"strings"

	"github.com/oukeidos/tlqc/internal/document"
)

var (
	// Inline codes that must survive translation untouched.
	markupRule = regexp.MustCompile(`\{[^{}]*\}|<[^<>]*>|%%|%[A-Za-z]|\\[nrt]|\[[^\[\]]*\]`)
	// Generic placeholder tokens enabled by the preserve flag.
	customRule = regexp.MustCompile(`\{[^{}]*\}|%[A-Za-z]|@\d+|\$\w+`)
	// Bracketed speaker name at the start of a dialogue line.
	speakerRe = regexp.MustCompile(`^【([^】]*)】`)
)

// PreserveRule returns the pattern covering protected spans for a text
// type, or nil when nothing is protected. custom corresponds to the
// text-preserve configuration flag and adds the generic placeholder
// pattern for plain text.
func PreserveRule(t document.TextType, custom bool) *regexp.Regexp {
	switch t {
	case document.TextMarkup:
		return markupRule
	case document.TextDialogue:
		return speakerRe
	default:
		if custom {
			return customRule
		}
		return nil
	}
}

// Processor handles one unit's text through a single attempt: splitting
// into request lines, collecting protected samples, and re-joining the
// model's destinations.
type Processor struct {
	unit     *document.Unit
	preserve bool
	srcs     []string
	samples  []string
}

// New creates a Processor for a unit. preserve enables the custom
// placeholder-preservation rule for plain text.
func New(unit *document.Unit, preserve bool) *Processor {
	return &Processor{unit: unit, preserve: preserve}
}

// PreProcess splits the unit source into request lines and collects the
// protected spans found in them as prompt samples. Lines that are empty
// after trimming are dropped from the request.
func (p *Processor) PreProcess() {
	p.srcs = p.srcs[:0]
	p.samples = p.samples[:0]
	rule := PreserveRule(p.unit.Type, p.preserve)
	seen := make(map[string]struct{})
	for _, line := range strings.Split(p.unit.Src, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.srcs = append(p.srcs, line)
		if rule == nil {
			continue
		}
		for _, m := range rule.FindAllString(line, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			p.samples = append(p.samples, m)
		}
	}
}

// Srcs returns the request lines produced by PreProcess.
func (p *Processor) Srcs() []string { return p.srcs }

// Samples returns the protected spans produced by PreProcess.
func (p *Processor) Samples() []string { return p.samples }

// PostProcess joins the destinations for this unit back into one text.
// For dialogue units a leading bracketed speaker name, when present in
// the first destination, is returned separately as well.
func (p *Processor) PostProcess(dsts []string) (name string, dst string) {
	trimmed := make([]string, len(dsts))
	for i, d := range dsts {
		trimmed[i] = strings.TrimSpace(d)
	}
	dst = strings.Join(trimmed, "\n")
	if p.unit.Type == document.TextDialogue && len(trimmed) > 0 {
		if m := speakerRe.FindStringSubmatch(trimmed[0]); m != nil {
			name = m[1]
		}
	}
	return name, dst
}
