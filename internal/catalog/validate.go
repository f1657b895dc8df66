package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TagName is the struct tag used to map parameter and input names onto Go
// struct fields.
const TagName = "algo"

// validateParams performs a strict parity check between a unit's parameter
// schema and the Go struct it decodes its parameters into. It checks both
// the presence of parameters and the compatibility of their types.
func validateParams(d *Descriptor) error {
	if d.Params == nil {
		return nil
	}

	paramsType := reflect.TypeOf(d.Params)
	for paramsType.Kind() == reflect.Pointer {
		paramsType = paramsType.Elem()
	}
	if paramsType.Kind() != reflect.Struct {
		return &Error{Algorithm: d.Name(), Err: ErrInvalidDescriptor, Detail: fmt.Sprintf("params type %s is not a struct", paramsType)}
	}

	var errs []string

	goFields := make(map[string]reflect.StructField)
	for i := 0; i < paramsType.NumField(); i++ {
		field := paramsType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get(TagName), ",")[0]
		if tagName != "" && tagName != "-" {
			goFields[tagName] = field
		}
	}

	// Check for presence mismatches
	for name := range goFields {
		if _, ok := d.Schema.Param(name); !ok {
			errs = append(errs, fmt.Sprintf("Go struct has field for param '%s' which is not declared in the schema", name))
		}
	}
	for _, f := range d.Schema.Params() {
		goField, ok := goFields[f.Name]
		if !ok {
			errs = append(errs, fmt.Sprintf("schema declares param '%s' which is not found in Go struct", f.Name))
			continue
		}

		if f.Type.Equals(cty.DynamicPseudoType) {
			continue
		}

		// Infer type from the Go field
		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("param '%s': could not imply cty type from Go field type %s: %v", f.Name, goField.Type, err))
			continue
		}

		if !f.Type.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("param '%s': type mismatch. Schema requires '%s' but Go struct field '%s' provides '%s'",
				f.Name, f.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
		}
	}

	if len(errs) > 0 {
		return &Error{
			Algorithm: d.Name(),
			Err:       ErrInvalidDescriptor,
			Detail:    "params struct validation failed:\n- " + strings.Join(errs, "\n- "),
		}
	}
	return nil
}
