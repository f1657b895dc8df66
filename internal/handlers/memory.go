package handlers

import (
	"sort"
	"sync"

	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/element"
)

// Memory is an in-process container. It is safe for concurrent use.
type Memory struct {
	values sync.Map // element name -> value
}

// NewMemory returns a memory container holding a copy of values.
func NewMemory(values map[string]any) *Memory {
	m := &Memory{}
	for k, v := range values {
		m.values.Store(k, v)
	}
	return m
}

// MemoryFactory returns a factory that always opens the same container.
// Registering it under a pseudo extension lets inline documents be routed
// like files.
func MemoryFactory(m *Memory) Factory {
	return func(datastore.Location) (datastore.Handler, error) { return m, nil }
}

func (m *Memory) Elements() ([]element.Descriptor, error) {
	values := make(map[string]any)
	m.values.Range(func(k, v any) bool {
		values[k.(string)] = v
		return true
	})
	return describe(values), nil
}

func (m *Memory) Get(name string) (any, error) {
	v, ok := m.values.Load(name)
	if !ok {
		return nil, &datastore.Error{Element: name, Container: "memory", Err: datastore.ErrElementNotFound}
	}
	return v, nil
}

func (m *Memory) Set(name string, value any) error {
	m.values.Store(name, value)
	return nil
}

func (m *Memory) Query(name string, spec map[string]any) (any, error) {
	v, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	return Query(v, spec)
}

// Snapshot returns a copy of the stored values.
func (m *Memory) Snapshot() map[string]any {
	out := make(map[string]any)
	m.values.Range(func(k, v any) bool {
		out[k.(string)] = v
		return true
	})
	return out
}

// describe returns one descriptor per value, sorted by name, with the
// type inferred from the value. Values without a cty equivalent are
// described as dynamic.
func describe(values map[string]any) []element.Descriptor {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]element.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, element.New(name, inferType(values[name])))
	}
	return out
}
