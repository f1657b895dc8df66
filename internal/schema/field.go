// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/element"
	"github.com/zclconf/go-cty/cty"
)

// Field is a single declared input, output or parameter.
type Field struct {
	// Name is the canonical name. For input and output fields it is also
	// the element name.
	Name string

	// Type is the declared type. cty.DynamicPseudoType accepts any value.
	Type cty.Type

	// Required fields must end up with a value, either supplied or from
	// Default.
	Required bool

	// Default is used when no value is supplied. cty.NilVal means none.
	Default cty.Value

	// Aliases are alternative override keys, consulted in order after Name.
	Aliases []string

	// Reference names the unit whose same-named defined parameter supplies
	// this field's value. Empty for defined fields.
	Reference string

	// Deprecated fields may not be set through overrides.
	Deprecated bool

	Description string

	// Element metadata for input and output fields.
	Layout element.Layout
	DType  string
	Shape  []int
}

// Referenced reports whether the field takes its value from another unit.
func (f Field) Referenced() bool { return f.Reference != "" }

// HasDefault reports whether the field declares a default value.
func (f Field) HasDefault() bool { return f.Default != cty.NilVal }

// Names returns the canonical name followed by the aliases.
func (f Field) Names() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// Element returns the element descriptor for an input or output field.
func (f Field) Element() element.Descriptor {
	d := element.New(f.Name, f.Type)
	d.Layout = f.Layout
	d.DType = f.DType
	d.Shape = append([]int(nil), f.Shape...)
	return d
}

// Option configures a Field while it is being declared.
type Option func(*Field) error

// Required marks the field as required.
func Required() Option {
	return func(f *Field) error { f.Required = true; return nil }
}

// Optional marks the field as optional. Output fields are required unless
// declared optional.
func Optional() Option {
	return func(f *Field) error { f.Required = false; return nil }
}

// Default sets the default value. v may be a cty.Value or a native Go value.
func Default(v any) Option {
	return func(f *Field) error {
		val, err := ctyconv.FromNative(v)
		if err != nil {
			return err
		}
		f.Default = val
		return nil
	}
}

// Alias adds alternative override keys.
func Alias(names ...string) Option {
	return func(f *Field) error { f.Aliases = append(f.Aliases, names...); return nil }
}

// Ref makes the field take its value from the same-named parameter of unit.
func Ref(unit string) Option {
	return func(f *Field) error { f.Reference = unit; return nil }
}

// Deprecated forbids setting the field through overrides.
func Deprecated() Option {
	return func(f *Field) error { f.Deprecated = true; return nil }
}

// Describe sets the human readable description.
func Describe(s string) Option {
	return func(f *Field) error { f.Description = s; return nil }
}

// WithLayout sets the element layout.
func WithLayout(l element.Layout) Option {
	return func(f *Field) error { f.Layout = l; return nil }
}

// WithDType sets the element's storage data type.
func WithDType(dtype string) Option {
	return func(f *Field) error { f.DType = dtype; return nil }
}

// WithShape sets the element's shape.
func WithShape(dims ...int) Option {
	return func(f *Field) error { f.Shape = dims; return nil }
}
