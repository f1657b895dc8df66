package params

import (
	"fmt"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/zclconf/go-cty/cty"
)

// Set is the resolved parameter set of one unit. It is immutable.
type Set struct {
	unit    string
	names   []string
	values  map[string]cty.Value
	sources map[string]string
}

var _ catalog.Params = (*Set)(nil)

// Unit returns the name of the unit the set belongs to.
func (s *Set) Unit() string { return s.unit }

// Get returns the value of a parameter. Optional parameters that were never
// set are reported as absent.
func (s *Set) Get(name string) (cty.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Value returns the parameter as a native Go value, or nil.
func (s *Set) Value(name string) any {
	v, ok := s.values[name]
	if !ok {
		return nil
	}
	native, err := ctyconv.ToNative(v)
	if err != nil {
		return nil
	}
	return native
}

// Names returns the names of the set parameters in schema order.
func (s *Set) Names() []string { return append([]string(nil), s.names...) }

// Len returns the number of set parameters.
func (s *Set) Len() int { return len(s.names) }

// Source reports where a value came from: the override key that matched,
// "ref:<unit>" for referenced values, or "default".
func (s *Set) Source(name string) string { return s.sources[name] }

// Native returns all values as native Go values.
func (s *Set) Native() (map[string]any, error) {
	out := make(map[string]any, len(s.values))
	for _, name := range s.names {
		v, err := ctyconv.ToNative(s.values[name])
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Decode copies the parameters into the struct pointed to by target using
// its `algo` tags.
func (s *Set) Decode(target any) error {
	native, err := s.Native()
	if err != nil {
		return fmt.Errorf("unit '%s': %w", s.unit, err)
	}
	if err := catalog.Decode(native, target); err != nil {
		return fmt.Errorf("unit '%s': %w", s.unit, err)
	}
	return nil
}
