// Package trace records the human-readable steps of a tax computation.
//
// A Trace is an ordered set of sections, each holding line items and,
// optionally, nested sections. Section keys are stable strings so reporting
// collaborators can render them without parsing line text. A Trace is built
// by a single computation and handed to the caller when it returns; it is not
// safe for concurrent use.
package trace

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/taxreform/simulator/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Section is one keyed group of trace lines
type Section struct {
	Key      string     `json:"key"`
	Lines    []string   `json:"lines"`
	Sections []*Section `json:"sections,omitempty"`
}

// Add appends a formatted line to the section
func (s *Section) Add(format string, args ...any) {
	s.Lines = append(s.Lines, fmt.Sprintf(format, args...))
}

// Sub returns the nested section key, creating it when missing
func (s *Section) Sub(key string) *Section {
	if sub, ok := lo.Find(s.Sections, func(sub *Section) bool { return sub.Key == key }); ok {
		return sub
	}
	sub := &Section{Key: key, Lines: []string{}}
	s.Sections = append(s.Sections, sub)
	return sub
}

// Trace is an ordered, append-only computation trace
type Trace struct {
	root Section
}

// New returns a trace with the given sections pre-created in order
func New(keys ...types.TraceSection) *Trace {
	t := &Trace{}
	for _, key := range keys {
		t.root.Sub(key.String())
	}
	return t
}

// Section returns the section key, creating it when missing
func (t *Trace) Section(key types.TraceSection) *Section {
	return t.root.Sub(key.String())
}

// Add appends a formatted line to section key
func (t *Trace) Add(key types.TraceSection, format string, args ...any) {
	t.Section(key).Add(format, args...)
}

// Attach nests the sections of child under section key
func (t *Trace) Attach(key types.TraceSection, child *Trace) {
	if child == nil {
		return
	}
	section := t.Section(key)
	section.Sections = append(section.Sections, child.root.Sections...)
}

// Keys returns the top-level section keys in order
func (t *Trace) Keys() []string {
	return lo.Map(t.root.Sections, func(s *Section, _ int) string { return s.Key })
}

// Lines returns the lines of section key, or nil when absent
func (t *Trace) Lines(key types.TraceSection) []string {
	section, ok := t.Lookup(key.String())
	if !ok {
		return nil
	}
	return section.Lines
}

// Lookup finds a section by path, ex Lookup("legacy taxes", "ICMS")
func (t *Trace) Lookup(path ...string) (*Section, bool) {
	current := &t.root
	for _, key := range path {
		next, ok := lo.Find(current.Sections, func(s *Section) bool { return s.Key == key })
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Sections returns the top-level sections in order
func (t *Trace) Sections() []*Section {
	return t.root.Sections
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.root.Sections)
}

func (t *Trace) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.root.Sections)
}
