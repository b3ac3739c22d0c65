package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"

	"github.com/oukeidos/tlqc/internal/files"
)

var subtitleExts = map[string]bool{
	".srt": true,
	".vtt": true,
	".ssa": true,
	".ass": true,
}

// Load reads a document and returns one unit per text line. Subtitle
// containers are parsed with astisub; anything else is treated as plain
// text, one unit per non-empty line.
func Load(path string) ([]*Unit, error) {
	if subtitleExts[strings.ToLower(filepath.Ext(path))] {
		return loadSubtitles(path)
	}
	return loadPlainText(path)
}

func loadSubtitles(path string) ([]*Unit, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	var units []*Unit
	for _, item := range subs.Items {
		var lines []string
		for _, l := range item.Lines {
			if text := strings.TrimSpace(l.String()); text != "" {
				lines = append(lines, text)
			}
		}
		if len(lines) == 0 {
			continue
		}
		units = append(units, &Unit{
			ID:   len(units) + 1,
			Src:  strings.Join(lines, "\n"),
			Type: TextDialogue,
		})
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no dialogue text found in %s", path)
	}
	return units, nil
}

func loadPlainText(path string) ([]*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var units []*Unit
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		units = append(units, &Unit{
			ID:  len(units) + 1,
			Src: line,
		})
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no text found in %s", path)
	}
	return units, nil
}

// Save writes translated units back out. Subtitle outputs preserve the
// timing of the input file; plain text gets one destination per line.
func Save(path, inputPath string, units []*Unit) error {
	if subtitleExts[strings.ToLower(filepath.Ext(path))] {
		return saveSubtitles(path, inputPath, units)
	}
	lines := make([]string, len(units))
	for i, u := range units {
		lines[i] = outputText(u)
	}
	return files.AtomicWrite(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

func saveSubtitles(path, inputPath string, units []*Unit) error {
	subs, err := astisub.OpenFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to re-open input for timing: %w", err)
	}
	// Re-walk the items the same way the loader did so unit order lines
	// up with non-empty items.
	idx := 0
	for _, item := range subs.Items {
		hasText := false
		for _, l := range item.Lines {
			if strings.TrimSpace(l.String()) != "" {
				hasText = true
				break
			}
		}
		if !hasText || idx >= len(units) {
			continue
		}
		item.Lines = toAstisubLines(outputText(units[idx]))
		idx++
	}
	if idx != len(units) {
		return fmt.Errorf("unit count mismatch while saving: placed %d of %d", idx, len(units))
	}
	return writeSubtitles(path, subs)
}

func writeSubtitles(path string, subs *astisub.Subtitles) error {
	if err := files.RejectSymlinkPath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return subs.WriteToWebVTT(f)
	case ".ssa", ".ass":
		return subs.WriteToSSA(f)
	default:
		return subs.WriteToSRT(f)
	}
}

func toAstisubLines(text string) []astisub.Line {
	var out []astisub.Line
	for _, line := range strings.Split(text, "\n") {
		out = append(out, astisub.Line{Items: []astisub.LineItem{{Text: line}}})
	}
	return out
}

func outputText(u *Unit) string {
	if u.Status == Translated {
		return u.Dst
	}
	return u.Src
}

// BuildBatches groups untranslated units into batches of at most size,
// attaching up to contextSize already-processed units as preceding
// context for continuity.
func BuildBatches(units []*Unit, size, contextSize int, local bool) []*Batch {
	if size <= 0 {
		size = 1
	}
	var batches []*Batch
	var current []*Unit
	flush := func(end int) {
		if len(current) == 0 {
			return
		}
		start := end - len(current)
		ctxStart := start - contextSize
		if ctxStart < 0 {
			ctxStart = 0
		}
		batches = append(batches, &Batch{
			Units:      current,
			Precedings: units[ctxStart:start],
			Local:      local,
		})
		current = nil
	}
	for i, u := range units {
		if u.Status != Untranslated {
			flush(i)
			continue
		}
		current = append(current, u)
		if len(current) == size {
			flush(i + 1)
		}
	}
	flush(len(units))
	return batches
}
