package datastore

import (
	"fmt"

	"github.com/specialistvlad/algogrid/internal/element"
)

// Mode is the role of a container in a pipeline.
type Mode string

const (
	ModeInput  Mode = "input"
	ModeOutput Mode = "output"
	ModeParam  Mode = "param"
)

// Location addresses a container.
type Location struct {
	Path  string
	Mode  Mode
	Scope string
}

func (l Location) String() string {
	if l.Scope == "" {
		return fmt.Sprintf("%s (%s)", l.Path, l.Mode)
	}
	return fmt.Sprintf("%s#%s (%s)", l.Path, l.Scope, l.Mode)
}

// Handler reads and writes the elements of one container.
type Handler interface {
	// Elements lists the elements the container can serve.
	Elements() ([]element.Descriptor, error)
	Get(name string) (any, error)
	Set(name string, value any) error
	// Query returns part of an element, as described by spec.
	Query(name string, spec map[string]any) (any, error)
}

// Container binds a handler to its location.
type Container struct {
	Location    Location
	ContentType string
	Handler     Handler
}

// NewContainer returns a container for the given handler.
func NewContainer(loc Location, contentType string, h Handler) *Container {
	return &Container{Location: loc, ContentType: contentType, Handler: h}
}
