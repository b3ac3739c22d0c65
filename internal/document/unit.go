// Package document holds the translation units flowing through the
// pipeline and the loaders that produce them from input files.
package document

// Status tracks whether a unit has an accepted translation.
type Status int

const (
	Untranslated Status = iota
	Translated
)

// TextType selects the placeholder-protection rules applied to a unit
// before validation.
type TextType int

const (
	TextPlain    TextType = iota
	TextDialogue          // speaker-name prefixed lines
	TextMarkup            // lines carrying inline tags or placeholder codes
)

// Unit is one item to translate. The retry core mutates Dst, Status and
// RetryCount in place; it never creates or destroys units.
type Unit struct {
	ID           int
	Src          string
	Dst          string
	Status       Status
	Type         TextType
	FirstNameDst string

	// RetryCount increments only when the unit fails as a single-unit
	// batch. Multi-unit batches never touch it.
	RetryCount int
}

// SetTranslated records an accepted destination text.
func (u *Unit) SetTranslated(dst string) {
	u.Dst = dst
	u.Status = Translated
}

// Batch is an ordered group of units translated in one model request,
// plus read-only preceding units supplied for continuity.
type Batch struct {
	Units      []*Unit
	Precedings []*Unit
	Local      bool
}

// Srcs returns the source texts of the batch's units in order.
func (b *Batch) Srcs() []string {
	srcs := make([]string, len(b.Units))
	for i, u := range b.Units {
		srcs[i] = u.Src
	}
	return srcs
}

// Untranslated reports whether any unit still needs translation.
func (b *Batch) Untranslated() bool {
	for _, u := range b.Units {
		if u.Status == Untranslated {
			return true
		}
	}
	return false
}
