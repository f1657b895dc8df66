// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Builder accumulates field declarations for one unit.
type Builder struct {
	unit        string
	description string
	parents     []*Schema
	inputs      []Field
	outputs     []Field
	params      []Field
	errs        []string
}

// New starts the schema of the named unit.
func New(unit string) *Builder {
	return &Builder{unit: unit}
}

// Extends adds parent schemas. Their fields are flattened into this schema
// in order; later parents and the unit's own fields override same-named
// fields declared earlier.
func (b *Builder) Extends(parents ...*Schema) *Builder {
	b.parents = append(b.parents, parents...)
	return b
}

// Describe sets the unit's description.
func (b *Builder) Describe(s string) *Builder {
	b.description = s
	return b
}

// Input declares an input element. Inputs are optional unless Required is
// given; the option only documents intent, the store decides availability.
func (b *Builder) Input(name string, ty cty.Type, opts ...Option) *Builder {
	b.inputs = append(b.inputs, b.field("input", name, ty, false, opts))
	return b
}

// Output declares an output element. Outputs are required by default.
func (b *Builder) Output(name string, ty cty.Type, opts ...Option) *Builder {
	b.outputs = append(b.outputs, b.field("output", name, ty, true, opts))
	return b
}

// Param declares a parameter field.
func (b *Builder) Param(name string, ty cty.Type, opts ...Option) *Builder {
	b.params = append(b.params, b.field("param", name, ty, false, opts))
	return b
}

func (b *Builder) field(kind, name string, ty cty.Type, required bool, opts []Option) Field {
	if ty == cty.NilType {
		ty = cty.DynamicPseudoType
	}
	f := Field{Name: name, Type: ty, Required: required}
	for _, opt := range opts {
		if err := opt(&f); err != nil {
			b.errs = append(b.errs, fmt.Sprintf("%s '%s': %v", kind, name, err))
		}
	}
	return f
}

// Build flattens the parents, validates the result and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	errs := append([]string(nil), b.errs...)
	if b.unit == "" {
		errs = append(errs, "unit name must not be empty")
	}

	s := &Schema{unit: b.unit, description: b.description}
	for _, p := range b.parents {
		if p == nil {
			errs = append(errs, "nil parent schema")
			continue
		}
		s.inputs = overlay(s.inputs, p.inputs)
		s.outputs = overlay(s.outputs, p.outputs)
		s.params = overlay(s.params, p.params)
		if s.description == "" {
			s.description = p.description
		}
	}

	errs = append(errs, duplicates("input", b.inputs)...)
	errs = append(errs, duplicates("output", b.outputs)...)
	errs = append(errs, duplicates("param", b.params)...)

	s.inputs = overlay(s.inputs, b.inputs)
	s.outputs = overlay(s.outputs, b.outputs)
	s.params = overlay(s.params, b.params)

	errs = append(errs, validateFields("input", s.inputs)...)
	errs = append(errs, validateFields("output", s.outputs)...)
	errs = append(errs, validateParams(b.unit, s.params)...)

	if len(errs) > 0 {
		return nil, &Error{
			Unit:   b.unit,
			Err:    ErrInvalidSchema,
			Detail: "\n- " + strings.Join(errs, "\n- "),
		}
	}
	return s, nil
}

// MustBuild is Build for static declarations. It panics on error.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// overlay returns base with fields replaced or appended by name.
func overlay(base, fields []Field) []Field {
	out := cloneFields(base)
	for _, f := range fields {
		replaced := false
		for i := range out {
			if out[i].Name == f.Name {
				out[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

func duplicates(kind string, fields []Field) []string {
	var errs []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			errs = append(errs, fmt.Sprintf("%s '%s' is declared more than once", kind, f.Name))
		}
		seen[f.Name] = true
	}
	return errs
}

func validateFields(kind string, fields []Field) []string {
	var errs []string
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			errs = append(errs, fmt.Sprintf("%s with empty name", kind))
			continue
		}
		if f.HasDefault() {
			v, err := convert.Convert(f.Default, f.Type)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s '%s': default is not compatible with type %s: %v", kind, f.Name, f.Type.FriendlyName(), err))
				continue
			}
			f.Default = v
		}
	}
	return errs
}

func validateParams(unit string, params []Field) []string {
	errs := validateFields("param", params)

	owner := make(map[string]string)
	for _, f := range params {
		owner[f.Name] = f.Name
	}
	for _, f := range params {
		if f.Referenced() {
			if f.Reference == unit {
				errs = append(errs, fmt.Sprintf("param '%s' references its own unit", f.Name))
			}
			if f.HasDefault() {
				errs = append(errs, fmt.Sprintf("param '%s' is referenced and cannot declare a default", f.Name))
			}
			if len(f.Aliases) > 0 {
				errs = append(errs, fmt.Sprintf("param '%s' is referenced and cannot declare aliases", f.Name))
			}
			if f.Deprecated {
				errs = append(errs, fmt.Sprintf("param '%s' is referenced and cannot be deprecated", f.Name))
			}
		}
		for _, alias := range f.Aliases {
			if alias == "" {
				errs = append(errs, fmt.Sprintf("param '%s' declares an empty alias", f.Name))
				continue
			}
			if other, ok := owner[alias]; ok {
				errs = append(errs, fmt.Sprintf("alias '%s' of param '%s' collides with param '%s'", alias, f.Name, other))
				continue
			}
			owner[alias] = f.Name
		}
	}
	return errs
}
