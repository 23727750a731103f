// Package tabular provides the ordered column-to-sequence Source type that the
// aggregation layer publishes and the rendering surface consumes.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Source is an ordered mapping from column name to an equal-length sequence of
// values. Column order is fixed at construction and preserved through JSON
// marshalling. A freshly constructed Source has every column present with zero
// rows, which is the well-formed "empty" shape required for degenerate subsets.
type Source struct {
	names []string
	cols  map[string][]any
}

// New returns a Source with the given column set and zero rows.
func New(names ...string) *Source {
	s := &Source{
		names: append([]string(nil), names...),
		cols:  make(map[string][]any, len(names)),
	}
	for _, n := range s.names {
		s.cols[n] = []any{}
	}
	return s
}

// SetColumn replaces the values of a declared column. It panics on an
// undeclared column name; that is always a programming error in an
// aggregation, not a data condition.
func (s *Source) SetColumn(name string, values []any) {
	if _, ok := s.cols[name]; !ok {
		panic(fmt.Sprintf("tabular: column %q not declared", name))
	}
	if values == nil {
		values = []any{}
	}
	s.cols[name] = values
}

// Names returns the ordered column names.
func (s *Source) Names() []string {
	return append([]string(nil), s.names...)
}

// Column returns the values of the named column, or nil if it does not exist.
func (s *Source) Column(name string) []any {
	return s.cols[name]
}

// Len returns the row count of the first column.
func (s *Source) Len() int {
	if len(s.names) == 0 {
		return 0
	}
	return len(s.cols[s.names[0]])
}

// Validate reports an error if any column length differs from the first.
func (s *Source) Validate() error {
	n := s.Len()
	for _, name := range s.names {
		if got := len(s.cols[name]); got != n {
			return fmt.Errorf("tabular: column %q has %d rows, want %d", name, got, n)
		}
	}
	return nil
}

// MarshalJSON renders the source as a JSON object with columns in declared
// order.
func (s *Source) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		vals, err := json.Marshal(s.cols[name])
		if err != nil {
			return nil, err
		}
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Strings converts a string slice to a column value sequence.
func Strings(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Ints converts an int slice to a column value sequence.
func Ints(vals []int) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Floats converts a float64 slice to a column value sequence.
func Floats(vals []float64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
