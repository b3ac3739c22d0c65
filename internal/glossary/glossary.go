// Package glossary maintains the shared terminology collection that
// batches append newly discovered terms into. All mutation runs under a
// single gate so concurrent batches cannot race on the collection or on
// the persistence debounce.
package glossary

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/oukeidos/tlqc/internal/files"
	"github.com/oukeidos/tlqc/internal/logger"
	"github.com/oukeidos/tlqc/internal/textkit"
)

// SaveInterval is the minimum spacing between persisted writes.
const SaveInterval = 15 * time.Second

// Entry is one terminology pair with its descriptive info string.
type Entry struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Info string `json:"info"`
}

// Gate serializes glossary merges across batches and tracks the
// persistence debounce. Construct one per process (or per test) and
// share it; it is deliberately not a package-level singleton.
type Gate struct {
	mu       sync.Mutex
	lastSave time.Time
	interval time.Duration
	now      func() time.Time
}

// NewGate creates a Gate with the given debounce interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		lastSave: time.Now(),
		interval: interval,
		now:      time.Now,
	}
}

// Store is the shared glossary collection plus its persistence target.
// Access is guarded by the Gate owned by the caller.
type Store struct {
	entries   []Entry
	keys      map[string]struct{}
	path      string
	onRefresh func()
}

// NewStore creates a Store seeded with existing entries. path may be
// empty to disable persistence; onRefresh may be nil.
func NewStore(path string, entries []Entry, onRefresh func()) *Store {
	s := &Store{path: path, onRefresh: onRefresh}
	for _, e := range entries {
		if _, ok := s.keys[e.Src]; ok {
			continue
		}
		s.append(e)
	}
	return s
}

// Load reads a persisted glossary file. A missing file yields an empty
// store.
func Load(path string, onRefresh func()) (*Store, error) {
	data, err := files.ReadIfExists(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}
	return NewStore(path, entries, onRefresh), nil
}

func (s *Store) append(e Entry) {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	s.keys[e.Src] = struct{}{}
	s.entries = append(s.entries, e)
}

func (s *Store) contains(src string) bool {
	_, ok := s.keys[src]
	return ok
}

// Entries returns a copy of the current entries.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int { return len(s.entries) }

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return files.AtomicWrite(s.path, data, 0600)
}

// Merger appends discovered terminology into a Store under a Gate.
type Merger struct {
	store   *Store
	gate    *Gate
	enabled bool
}

// NewMerger wires a merger. enabled reflects the glossary and
// auto-glossary configuration flags together.
func NewMerger(store *Store, gate *Gate, enabled bool) *Merger {
	return &Merger{store: store, gate: gate, enabled: enabled}
}

// genderMarkers filter candidate entries: only character terms whose
// info mentions a gender survive. Cheap but effective against the
// model's tendency to emit random phrase pairs as "glossary".
var genderMarkers = []string{"男", "女", "male", "female"}

func relevant(info string) bool {
	info = strings.ToLower(info)
	for _, marker := range genderMarkers {
		if strings.Contains(info, marker) {
			return true
		}
	}
	return false
}

// Merge deduplicates candidates into the store and persists the result
// at most once per debounce interval. The whole call holds the gate.
func (m *Merger) Merge(candidates []Entry) {
	if !m.enabled || len(candidates) == 0 {
		return
	}
	m.gate.mu.Lock()
	defer m.gate.mu.Unlock()
	m.gate.lastSave = m.mergeLocked(candidates, m.gate.lastSave)
}

// mergeLocked applies the merge under an already-held gate and returns
// the new last-save timestamp (unchanged when nothing was persisted).
func (m *Merger) mergeLocked(candidates []Entry, lastSave time.Time) time.Time {
	changed := false
	for _, cand := range candidates {
		src := strings.TrimSpace(cand.Src)
		dst := strings.TrimSpace(cand.Dst)
		info := strings.TrimSpace(cand.Info)

		if !relevant(info) {
			continue
		}

		// A candidate may pack several aligned terms into one pair;
		// split both sides and only use the split when it lines up.
		srcs := textkit.SplitByPunctuation(src, true)
		dsts := textkit.SplitByPunctuation(dst, true)
		if len(srcs) != len(dsts) {
			srcs = []string{src}
			dsts = []string{dst}
		}

		for i := range srcs {
			s := strings.TrimSpace(srcs[i])
			d := strings.TrimSpace(dsts[i])
			if s == "" || d == "" || s == d {
				continue
			}
			if m.store.contains(s) {
				continue
			}
			m.store.append(Entry{Src: s, Dst: d, Info: info})
			changed = true
		}
	}

	if changed && m.gate.now().Sub(lastSave) > m.gate.interval {
		if err := m.store.save(); err != nil {
			logger.Warn("Failed to persist glossary", "error", err)
			return lastSave
		}
		if m.store.onRefresh != nil {
			m.store.onRefresh()
		}
		return m.gate.now()
	}
	return lastSave
}
