// Package form tracks the values a user has entered for the fields of the
// selected template.
package form

import "github.com/joestump/joe-writer/internal/catalog"

// Entry is a single field value.
type Entry struct {
	Name  string
	Value string
}

// Data is an immutable snapshot of form values in insertion order.
type Data struct {
	entries []Entry
}

// NewData builds a Data from entries, keeping the first position of any
// repeated name and the last value written to it.
func NewData(entries ...Entry) Data {
	var s State
	for _, e := range entries {
		s.Set(e.Name, e.Value)
	}
	return s.Snapshot()
}

// Entries returns the values in insertion order.
func (d Data) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Get returns the value recorded for name.
func (d Data) Get(name string) (string, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Len reports the number of recorded fields.
func (d Data) Len() int { return len(d.entries) }

// Map returns the values keyed by name.
func (d Data) Map() map[string]string {
	m := make(map[string]string, len(d.entries))
	for _, e := range d.entries {
		m[e.Name] = e.Value
	}
	return m
}

// State is the mutable form for the current template. The zero value is an
// empty form. It is not safe for concurrent use.
type State struct {
	entries []Entry
	index   map[string]int
}

// Set records value for name. Other fields are untouched and an existing
// field keeps its position.
func (s *State) Set(name, value string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.entries[i].Value = value
		return
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, Entry{Name: name, Value: value})
}

// Reset empties the form.
func (s *State) Reset() {
	s.entries = nil
	s.index = nil
}

// Get returns the current value for name.
func (s *State) Get(name string) (string, bool) {
	if i, ok := s.index[name]; ok {
		return s.entries[i].Value, true
	}
	return "", false
}

// Len reports the number of recorded fields.
func (s *State) Len() int { return len(s.entries) }

// Snapshot returns an independent copy of the current values.
func (s *State) Snapshot() Data {
	d := Data{entries: make([]Entry, len(s.entries))}
	copy(d.entries, s.entries)
	return d
}

// MissingRequired lists the names of required fields with no value or an
// empty one. It is advisory; nothing prevents generating with gaps.
func MissingRequired(fields []catalog.FormField, d Data) []string {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if v, ok := d.Get(f.Name); !ok || v == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
