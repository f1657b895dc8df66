package catalog

import (
	"context"

	"github.com/specialistvlad/algogrid/internal/element"
	"github.com/specialistvlad/algogrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Params is the read-only view of a unit's resolved parameter set.
type Params interface {
	Unit() string
	Get(name string) (cty.Value, bool)
	Value(name string) any
	Decode(target any) error
}

// Unit is a runnable computation. Inputs and outputs are keyed by element
// name.
type Unit interface {
	Run(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// UnitFunc adapts a plain function to the Unit interface.
type UnitFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// Run calls f.
func (f UnitFunc) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return f(ctx, inputs)
}

// Constructor builds a unit instance from its resolved parameters.
type Constructor func(p Params) (Unit, error)

// Descriptor describes a registrable unit. It must not be modified after
// registration.
type Descriptor struct {
	Schema *schema.Schema
	New    Constructor

	// Params optionally holds a zero value of the struct the unit decodes its
	// parameters into. When set, Register checks that the struct's `algo`
	// tags and field types match the schema.
	Params any
}

// Name returns the unit name.
func (d *Descriptor) Name() string {
	if d == nil || d.Schema == nil {
		return ""
	}
	return d.Schema.Unit()
}

// Inputs returns the element descriptors of the unit's inputs.
func (d *Descriptor) Inputs() []element.Descriptor {
	return elements(d.Schema.Inputs())
}

// Outputs returns the element descriptors of the unit's outputs.
func (d *Descriptor) Outputs() []element.Descriptor {
	return elements(d.Schema.Outputs())
}

// Output returns the descriptor of one of the unit's outputs.
func (d *Descriptor) Output(name string) (element.Descriptor, bool) {
	f, ok := d.Schema.Output(name)
	if !ok {
		return element.Descriptor{}, false
	}
	return f.Element(), true
}

func elements(fields []schema.Field) []element.Descriptor {
	out := make([]element.Descriptor, len(fields))
	for i, f := range fields {
		out[i] = f.Element()
	}
	return out
}
