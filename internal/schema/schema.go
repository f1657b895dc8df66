// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package schema

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Schema is the flattened, validated declaration of one unit. It is
// immutable once built.
type Schema struct {
	unit        string
	description string
	inputs      []Field
	outputs     []Field
	params      []Field
}

// Unit returns the name of the unit the schema was built for.
func (s *Schema) Unit() string { return s.unit }

// Description returns the unit's description, if any.
func (s *Schema) Description() string { return s.description }

// Inputs returns the input fields in declaration order.
func (s *Schema) Inputs() []Field { return cloneFields(s.inputs) }

// Outputs returns the output fields in declaration order.
func (s *Schema) Outputs() []Field { return cloneFields(s.outputs) }

// Params returns all parameter fields in declaration order.
func (s *Schema) Params() []Field { return cloneFields(s.params) }

// Defined returns the parameter fields without a reference.
func (s *Schema) Defined() []Field {
	var out []Field
	for _, f := range s.params {
		if !f.Referenced() {
			out = append(out, f)
		}
	}
	return out
}

// Referenced returns the parameter fields that reference another unit.
func (s *Schema) Referenced() []Field {
	var out []Field
	for _, f := range s.params {
		if f.Referenced() {
			out = append(out, f)
		}
	}
	return out
}

// Param looks up a parameter field by canonical name.
func (s *Schema) Param(name string) (Field, bool) { return find(s.params, name) }

// Input looks up an input field by name.
func (s *Schema) Input(name string) (Field, bool) { return find(s.inputs, name) }

// Output looks up an output field by name.
func (s *Schema) Output(name string) (Field, bool) { return find(s.outputs, name) }

// Instantiate turns the supplied parameter values into the complete value
// map for this schema: values are converted to their declared types,
// defaults fill the gaps and every required field must end up set.
// Optional fields without a value are left out of the result.
func (s *Schema) Instantiate(values map[string]cty.Value) (map[string]cty.Value, error) {
	for name := range values {
		if _, ok := s.Param(name); !ok {
			return nil, &Error{Unit: s.unit, Field: name, Err: ErrInvalidParameterValue, Detail: "no such parameter"}
		}
	}

	out := make(map[string]cty.Value, len(s.params))
	var missing []string
	for _, f := range s.params {
		v, ok := values[f.Name]
		if !ok || v == cty.NilVal || v.IsNull() {
			switch {
			case f.HasDefault():
				out[f.Name] = f.Default
			case f.Required:
				missing = append(missing, f.Name)
			}
			continue
		}

		converted, err := convert.Convert(v, f.Type)
		if err != nil {
			return nil, &Error{
				Unit:   s.unit,
				Field:  f.Name,
				Err:    ErrInvalidParameterValue,
				Detail: fmt.Sprintf("cannot use %s as %s: %s", v.Type().FriendlyName(), f.Type.FriendlyName(), err),
			}
		}
		out[f.Name] = converted
	}

	if len(missing) > 0 {
		return nil, &Error{Unit: s.unit, Field: strings.Join(missing, ", "), Err: ErrMissingRequiredParameter}
	}
	return out, nil
}

func find(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func cloneFields(fields []Field) []Field {
	return append([]Field(nil), fields...)
}
