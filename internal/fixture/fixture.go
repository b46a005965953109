// Package fixture reads and writes match timelines as YAML documents.
//
// JSON is a subset of YAML, so Decode accepts either. Every decoded document
// is validated through timeline.Builder.
package fixture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
)

// ErrDecode wraps any failure to parse a fixture document.
var ErrDecode = errors.New("decode fixture")

// Document is the on-disk shape of a fixture.
type Document struct {
	Name   string      `yaml:"name,omitempty" json:"name,omitempty"`
	Stamps []StampLine `yaml:"stamps" json:"stamps"`
}

// StampLine is one stamp in a fixture document.
type StampLine struct {
	Offset int `yaml:"offset" json:"offset"`
	Home   int `yaml:"home" json:"home"`
	Away   int `yaml:"away" json:"away"`
}

// ToStamps converts the document lines to model stamps in document order.
func (d Document) ToStamps() []model.Stamp {
	out := make([]model.Stamp, len(d.Stamps))
	for i, l := range d.Stamps {
		out[i] = model.Stamp{Offset: l.Offset, Score: model.Score{Home: l.Home, Away: l.Away}}
	}
	return out
}

// FromTimeline builds a document from tl.
func FromTimeline(name string, tl *timeline.Timeline) Document {
	d := Document{Name: name, Stamps: make([]StampLine, tl.Len())}
	for i := 0; i < tl.Len(); i++ {
		s := tl.At(i)
		d.Stamps[i] = StampLine{Offset: s.Offset, Home: s.Score.Home, Away: s.Score.Away}
	}
	return d
}

// Decode parses a YAML or JSON fixture from r and validates it.
func Decode(r io.Reader) (string, *timeline.Timeline, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	tl, err := timeline.FromStamps(doc.ToStamps())
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return doc.Name, tl, nil
}

// Load reads the fixture file at path.
func Load(path string) (string, *timeline.Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Encode writes tl to w as a YAML fixture.
func Encode(w io.Writer, name string, tl *timeline.Timeline) error {
	out, err := yaml.Marshal(FromTimeline(name, tl))
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// Save writes tl to the file at path, replacing it if it exists.
func Save(path, name string, tl *timeline.Timeline) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fixture: %w", err)
	}
	if err := Encode(f, name, tl); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
