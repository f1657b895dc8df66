package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/element"
)

// entry is a cached element value. dirty entries have not been written to
// their container yet.
type entry struct {
	value any
	dirty bool
}

// Store is the cached, write-back element store of one pipeline run.
type Store struct {
	mu         sync.Mutex
	containers []*Container
	byPath     map[string]*Container
	routes     map[string]*Container
	elements   map[string]element.Descriptor
	cache      map[string]*entry
	cacheOrder []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byPath:   make(map[string]*Container),
		routes:   make(map[string]*Container),
		elements: make(map[string]element.Descriptor),
		cache:    make(map[string]*entry),
	}
}

// AddContainer registers a container and routes the given elements to it.
// Nothing is registered if the container's path is already known or one
// of the elements is already routed elsewhere.
func (s *Store) AddContainer(c *Container, elements []element.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := c.Location.Path
	if _, exists := s.byPath[path]; exists {
		return &Error{Container: path, Err: ErrDuplicateContainer}
	}
	for _, e := range elements {
		if other, exists := s.routes[e.Name]; exists {
			return &Error{
				Element:   e.Name,
				Container: path,
				Err:       ErrAmbiguousElementRoute,
				Detail:    fmt.Sprintf("already served by '%s'", other.Location.Path),
			}
		}
	}

	s.byPath[path] = c
	s.containers = append(s.containers, c)
	for _, e := range elements {
		s.routes[e.Name] = c
		s.elements[e.Name] = e
	}
	return nil
}

// Get returns an element's value, reading it from its container on the
// first access.
func (s *Store) Get(ctx context.Context, name string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cache[name]; ok {
		return e.value, nil
	}

	c, ok := s.routes[name]
	if !ok {
		return nil, &Error{Element: name, Err: ErrElementNotFound}
	}
	value, err := c.Handler.Get(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read element '%s' from '%s': %w", name, c.Location.Path, err)
	}
	s.put(name, value, false)
	ctxlog.FromContext(ctx).Debug("Element loaded into cache.", "element", name, "container", c.Location.Path)
	return value, nil
}

// Set caches a value and marks it for the next Flush.
func (s *Store) Set(ctx context.Context, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(name, value, true)
	return nil
}

// SetMulti sets several values. Keys are applied in sorted order so that
// flush order does not depend on map iteration.
func (s *Store) SetMulti(ctx context.Context, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.put(name, values[name], true)
	}
	return nil
}

func (s *Store) put(name string, value any, dirty bool) {
	if e, ok := s.cache[name]; ok {
		e.value = value
		e.dirty = e.dirty || dirty
		return
	}
	s.cache[name] = &entry{value: value, dirty: dirty}
	s.cacheOrder = append(s.cacheOrder, name)
}

// Flush writes every dirty entry to its container, once, in first-write
// order. Entries without a container are kept in memory only.
//
// Every write is checked against its container's mode before the first
// one is made, so a flush into an input container writes nothing. Writes
// are not transactional across containers: if a handler fails part way,
// the entries already written stay written and the rest stay dirty.
func (s *Store) Flush(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	type write struct {
		entry     *entry
		name      string
		container *Container
	}
	var plan []write
	for _, name := range s.cacheOrder {
		e := s.cache[name]
		if !e.dirty {
			continue
		}
		c, ok := s.routes[name]
		if !ok {
			logger.Debug("Element has no container, keeping it in memory.", "element", name)
			e.dirty = false
			continue
		}
		if c.Location.Mode == ModeInput {
			return &Error{Element: name, Container: c.Location.Path, Err: ErrReadOnlyContainer}
		}
		plan = append(plan, write{entry: e, name: name, container: c})
	}

	for i, w := range plan {
		if err := w.container.Handler.Set(w.name, w.entry.value); err != nil {
			return fmt.Errorf("failed to write element '%s' to '%s' (%d of %d written): %w", w.name, w.container.Location.Path, i, len(plan), err)
		}
		w.entry.dirty = false
	}
	logger.Debug("Store flushed.", "written", len(plan))
	return nil
}

// Query reads part of an element straight from its container, bypassing
// the cache. Units only see their inputs map; Query serves callers that
// embed the store directly.
func (s *Store) Query(ctx context.Context, name string, spec map[string]any) (any, error) {
	s.mu.Lock()
	c, ok := s.routes[name]
	s.mu.Unlock()
	if !ok {
		return nil, &Error{Element: name, Err: ErrElementNotFound}
	}
	return c.Handler.Query(name, spec)
}

// Element returns the descriptor an element was routed with.
func (s *Store) Element(name string) (element.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.elements[name]
	return d, ok
}

// Route returns the container serving an element.
func (s *Store) Route(name string) (*Container, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.routes[name]
	return c, ok
}

// Containers returns the registered containers in registration order.
func (s *Store) Containers() []*Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Container(nil), s.containers...)
}

// Dirty returns the names of the entries waiting for a flush.
func (s *Store) Dirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, name := range s.cacheOrder {
		if s.cache[name].dirty {
			out = append(out, name)
		}
	}
	return out
}

// Close closes every handler that holds resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range s.containers {
		if closer, ok := c.Handler.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close '%s': %w", c.Location.Path, err))
			}
		}
	}
	return errors.Join(errs...)
}
