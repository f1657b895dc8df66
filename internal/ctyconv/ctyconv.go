// Package ctyconv converts between native Go values and cty values.
//
// Units and data handlers deal in plain Go values (float64, string, []any,
// map[string]any, ...) while parameter schemas, type tags and override
// files are expressed in cty. This package is the bridge.
package ctyconv

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToNative recursively converts a cty.Value to its most natural Go
// counterpart. Whole numbers that fit become int64, the rest float64.
func ToNative(v cty.Value) (any, error) {
	// A nil or unknown value becomes a nil interface{}.
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type for native conversion: %s", ty.FriendlyName())
	}
}

// FromNative converts a native Go value into a cty.Value, inferring the
// type. Slices become tuples and maps become objects so that heterogeneous
// data decoded from JSON or YAML survives; convert them to a concrete type
// with Convert.
func FromNative(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int8:
		return cty.NumberIntVal(int64(x)), nil
	case int16:
		return cty.NumberIntVal(int64(x)), nil
	case int32:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case uint:
		return cty.NumberUIntVal(uint64(x)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(x)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(x)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(x)), nil
	case uint64:
		return cty.NumberUIntVal(x), nil
	case float32:
		return cty.NumberFloatVal(float64(x)), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []any:
		return tupleOf(len(x), func(i int) any { return x[i] })
	case map[string]any:
		return objectOf(keysOf(x), func(k string) any { return x[k] })
	case map[any]any:
		// gopkg.in/yaml.v2 decodes nested mappings this way.
		strMap := make(map[string]any, len(x))
		for k, val := range x {
			strMap[fmt.Sprint(k)] = val
		}
		return objectOf(keysOf(strMap), func(k string) any { return strMap[k] })
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return tupleOf(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			strMap := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				strMap[iter.Key().String()] = iter.Value().Interface()
			}
			return objectOf(keysOf(strMap), func(k string) any { return strMap[k] })
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return FromNative(rv.Elem().Interface())
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

// Convert converts a native Go value into a cty.Value of the given type.
func Convert(v any, ty cty.Type) (cty.Value, error) {
	if v == nil && ty != cty.NilType {
		return cty.NullVal(ty), nil
	}
	val, err := FromNative(v)
	if err != nil {
		return cty.NilVal, err
	}
	if ty == cty.NilType {
		return val, nil
	}
	out, err := convert.Convert(val, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot use %s as %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return out, nil
}

// TypeOf infers the cty type of a native Go value.
func TypeOf(v any) (cty.Type, error) {
	val, err := FromNative(v)
	if err != nil {
		return cty.NilType, err
	}
	return val.Type(), nil
}

func tupleOf(n int, at func(int) any) (cty.Value, error) {
	if n == 0 {
		return cty.EmptyTupleVal, nil
	}
	vals := make([]cty.Value, n)
	for i := range vals {
		val, err := FromNative(at(i))
		if err != nil {
			return cty.NilVal, fmt.Errorf("at index %d: %w", i, err)
		}
		vals[i] = val
	}
	return cty.TupleVal(vals), nil
}

func objectOf(keys []string, at func(string) any) (cty.Value, error) {
	if len(keys) == 0 {
		return cty.EmptyObjectVal, nil
	}
	attrs := make(map[string]cty.Value, len(keys))
	for _, k := range keys {
		val, err := FromNative(at(k))
		if err != nil {
			return cty.NilVal, fmt.Errorf("in attribute '%s': %w", k, err)
		}
		attrs[k] = val
	}
	return cty.ObjectVal(attrs), nil
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize recursively converts map[any]any values, as produced by
// gopkg.in/yaml.v2, into map[string]any. Other values are returned as is.
func Normalize(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = Normalize(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = Normalize(val)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = Normalize(val)
		}
		return s
	default:
		return v
	}
}
