// Package selection holds the ordered list of captured selections for one
// page load, together with the redo history.
//
// The store keeps two sequences. Records are live: each may own a marker in
// the document. The redo stack holds only the durable projection (text plus
// reference); markers for undone records are destroyed immediately. Every
// change to the persisted projection is reported to the configured Saver.
//
// A Store is not safe for concurrent use. Sessions drive it from their loop.
package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/highlight"
	"github.com/chrisuehlinger/multiselect/locator"
)

var (
	// ErrEmptySelection is returned by Capture for collapsed or empty ranges.
	ErrEmptySelection = errors.New("empty selection")
	// ErrNothingToRedo is returned by Redo when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Saved is the durable projection of a record. Its JSON form is
// {"text", "xpath", "startOffset", "endOffset"}.
type Saved struct {
	Text              string `json:"text" yaml:"text"`
	locator.Reference `yaml:",inline"`
}

func (s Saved) String() string {
	return fmt.Sprintf("%q at %s", s.Text, s.Reference)
}

// Record is one captured selection.
type Record struct {
	Text   string
	Ref    locator.Reference
	Marker highlight.Handle
}

// Saved returns the durable projection of r.
func (r Record) Saved() Saved {
	return Saved{Text: r.Text, Reference: r.Ref}
}

// Highlighted reports whether r currently owns a marker.
func (r Record) Highlighted() bool {
	return r.Marker.Valid()
}

// Codec converts between ranges and references.
type Codec interface {
	Derive(r *dom.Range) (locator.Reference, error)
	Resolve(ref locator.Reference) (*dom.Range, error)
}

// Marker creates and destroys visual markers.
type Marker interface {
	Mark(r *dom.Range) (highlight.Handle, error)
	Unmark(h highlight.Handle)
	ClearAll() int
}

// Saver receives the persisted projection after every change to it.
type Saver func([]Saved)

// Store is the selection list plus redo stack.
type Store struct {
	codec   Codec
	marker  Marker
	saver   Saver
	logger  *slog.Logger
	records []Record
	redo    []Saved
}

// NewStore creates an empty store. A nil logger uses slog.Default().
func NewStore(codec Codec, marker Marker, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		codec:  codec,
		marker: marker,
		logger: logger.With("component", "selection"),
	}
}

// SetSaver installs fn as the store's Saver.
func (s *Store) SetSaver(fn Saver) {
	s.saver = fn
}

// Capture records the selection r: it derives a reference, marks the range,
// appends the record and clears the redo stack. Whitespace-only selections
// are rejected. If either step fails the
// store and the document are left unchanged.
func (s *Store) Capture(r *dom.Range) (Record, error) {
	if r == nil || r.Collapsed() {
		return Record{}, ErrEmptySelection
	}
	text := r.ToString()
	if strings.TrimSpace(text) == "" {
		return Record{}, ErrEmptySelection
	}

	ref, err := s.codec.Derive(r)
	if err != nil {
		return Record{}, fmt.Errorf("capture: %w", err)
	}
	h, err := s.marker.Mark(r)
	if err != nil {
		return Record{}, fmt.Errorf("capture: %w", err)
	}

	rec := Record{Text: text, Ref: ref, Marker: h}
	s.records = append(s.records, rec)
	s.redo = nil
	s.logger.Debug("captured selection", "ref", ref, "text", text)
	s.save()
	return rec, nil
}

// Undo removes the most recent record, destroys its marker and pushes its
// durable projection onto the redo stack. It reports false if the store was
// empty.
func (s *Store) Undo() (Saved, bool) {
	if len(s.records) == 0 {
		return Saved{}, false
	}
	last := s.records[len(s.records)-1]
	s.records = s.records[:len(s.records)-1]
	if last.Marker.Valid() {
		s.marker.Unmark(last.Marker)
	}

	saved := last.Saved()
	s.redo = append(s.redo, saved)
	s.save()
	return saved, true
}

// Redo pops the most recent redo entry, resolves and re-marks it, and appends
// it to the store. On failure the entry goes back onto the redo stack so the
// caller can retry later.
func (s *Store) Redo() (Record, error) {
	if len(s.redo) == 0 {
		return Record{}, ErrNothingToRedo
	}
	entry := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	r, err := s.codec.Resolve(entry.Reference)
	if err != nil {
		s.redo = append(s.redo, entry)
		return Record{}, fmt.Errorf("redo: %w", err)
	}
	if !locator.CheckText(r, entry.Text) {
		s.logger.Warn("redo text mismatch", "ref", entry.Reference, "want", entry.Text, "got", r.ToString())
	}
	h, err := s.marker.Mark(r)
	if err != nil {
		s.redo = append(s.redo, entry)
		return Record{}, fmt.Errorf("redo: %w", err)
	}

	rec := Record{Text: entry.Text, Ref: entry.Reference, Marker: h}
	s.records = append(s.records, rec)
	s.save()
	return rec, nil
}

// ClearAll destroys every marker, including ones no record owns, and empties
// both the store and the redo stack.
func (s *Store) ClearAll() {
	for _, rec := range s.records {
		if rec.Marker.Valid() {
			s.marker.Unmark(rec.Marker)
		}
	}
	s.marker.ClearAll()
	s.records = nil
	s.redo = nil
	s.save()
}

// Adopt replaces the store's records with records, as rebuilt by
// restoration, and resets the redo stack. It does not trigger a save.
func (s *Store) Adopt(records []Record) {
	s.records = append([]Record(nil), records...)
	s.redo = nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a copy of the records in capture order.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Texts returns each record's text in capture order.
func (s *Store) Texts() []string {
	texts := make([]string, len(s.records))
	for i, rec := range s.records {
		texts[i] = rec.Text
	}
	return texts
}

// Redoable returns a copy of the redo stack, oldest first.
func (s *Store) Redoable() []Saved {
	return append([]Saved(nil), s.redo...)
}

// Snapshot returns the persisted projection of the store.
func (s *Store) Snapshot() []Saved {
	saved := make([]Saved, len(s.records))
	for i, rec := range s.records {
		saved[i] = rec.Saved()
	}
	return saved
}

func (s *Store) save() {
	if s.saver != nil {
		s.saver(s.Snapshot())
	}
}
