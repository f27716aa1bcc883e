package kit

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Pad describes one drum pad: the key that triggers it, the name shown on
// the display, and where its sample lives.
type Pad struct {
	Key    string `json:"key" yaml:"key" toml:"key"`
	Name   string `json:"name" yaml:"name" toml:"name"`
	Source string `json:"source" yaml:"source" toml:"source"`
	Note   uint8  `json:"note,omitempty" yaml:"note,omitempty" toml:"note,omitempty"` // MIDI note, 0 = not mapped
}

// Kit is an ordered set of pads. Order is display order (row-major, 3 wide).
type Kit struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Pads []Pad  `json:"pads" yaml:"pads" toml:"pads"`
}

// Columns is the width of the pad grid
const Columns = 3

var (
	ErrNoPads        = errors.New("kit has no pads")
	ErrMissingKey    = errors.New("pad has no trigger key")
	ErrKeyLength     = errors.New("trigger key must be a single character")
	ErrDuplicateKey  = errors.New("duplicate trigger key")
	ErrMissingSource = errors.New("pad has no sample source")
	ErrDuplicateNote = errors.New("duplicate midi note")
)

// ConfigError reports an invalid kit definition
type ConfigError struct {
	Kit string
	Pad int // -1 when not pad specific
	Err error
}

func (e *ConfigError) Error() string {
	if e.Pad < 0 {
		return fmt.Sprintf("kit %q: %v", e.Kit, e.Err)
	}
	return fmt.Sprintf("kit %q pad %d: %v", e.Kit, e.Pad+1, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate checks that every pad has a unique single-character key and a
// source. It returns the first problem found.
func (k Kit) Validate() error {
	if len(k.Pads) == 0 {
		return &ConfigError{Kit: k.Name, Pad: -1, Err: ErrNoPads}
	}

	keys := make(map[string]int, len(k.Pads))
	notes := make(map[uint8]int, len(k.Pads))

	for i, p := range k.Pads {
		if p.Key == "" {
			return &ConfigError{Kit: k.Name, Pad: i, Err: ErrMissingKey}
		}
		if utf8.RuneCountInString(p.Key) != 1 {
			return &ConfigError{Kit: k.Name, Pad: i, Err: fmt.Errorf("%w: %q", ErrKeyLength, p.Key)}
		}
		if prev, ok := keys[p.Key]; ok {
			return &ConfigError{Kit: k.Name, Pad: i, Err: fmt.Errorf("%w %q (also pad %d)", ErrDuplicateKey, p.Key, prev+1)}
		}
		keys[p.Key] = i

		if p.Source == "" {
			return &ConfigError{Kit: k.Name, Pad: i, Err: ErrMissingSource}
		}

		if p.Note != 0 {
			if prev, ok := notes[p.Note]; ok {
				return &ConfigError{Kit: k.Name, Pad: i, Err: fmt.Errorf("%w %d (also pad %d)", ErrDuplicateNote, p.Note, prev+1)}
			}
			notes[p.Note] = i
		}
	}

	return nil
}

// Clone returns a copy that does not share the pad slice
func (k Kit) Clone() Kit {
	pads := make([]Pad, len(k.Pads))
	copy(pads, k.Pads)
	return Kit{Name: k.Name, Pads: pads}
}

// Index maps trigger key to pad position
func (k Kit) Index() map[string]int {
	idx := make(map[string]int, len(k.Pads))
	for i, p := range k.Pads {
		idx[p.Key] = i
	}
	return idx
}

// NoteIndex maps MIDI note to trigger key for pads that have a note
func (k Kit) NoteIndex() map[uint8]string {
	idx := make(map[uint8]string)
	for _, p := range k.Pads {
		if p.Note != 0 {
			idx[p.Note] = p.Key
		}
	}
	return idx
}

// Keys returns the trigger keys in display order
func (k Kit) Keys() []string {
	keys := make([]string, len(k.Pads))
	for i, p := range k.Pads {
		keys[i] = p.Key
	}
	return keys
}

// Position returns the grid row and column of pad i (row 0 at top)
func Position(i int) (row, col int) {
	return i / Columns, i % Columns
}
