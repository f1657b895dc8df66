package handlers

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Query applies a query spec to a value. Recognised keys are applied in
// this order: "key" selects a map entry, "index" selects a list element
// (negative indexes count from the end) and "slice" takes a [from, to)
// range of a list. An empty spec returns the value unchanged.
func Query(value any, spec map[string]any) (any, error) {
	var unknown []string
	for k := range spec {
		switch k {
		case "key", "index", "slice":
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown keys: %s", ErrInvalidQuery, strings.Join(unknown, ", "))
	}

	var err error
	if raw, ok := spec["key"]; ok {
		key, isString := raw.(string)
		if !isString {
			return nil, fmt.Errorf("%w: key must be a string, got %T", ErrInvalidQuery, raw)
		}
		if value, err = mapEntry(value, key); err != nil {
			return nil, err
		}
	}
	if raw, ok := spec["index"]; ok {
		i, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: index: %v", ErrInvalidQuery, err)
		}
		if value, err = listElement(value, i); err != nil {
			return nil, err
		}
	}
	if raw, ok := spec["slice"]; ok {
		bounds := reflect.ValueOf(raw)
		if (bounds.Kind() != reflect.Slice && bounds.Kind() != reflect.Array) || bounds.Len() != 2 {
			return nil, fmt.Errorf("%w: slice must be a [from, to] pair", ErrInvalidQuery)
		}
		from, err := toInt(bounds.Index(0).Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: slice: %v", ErrInvalidQuery, err)
		}
		to, err := toInt(bounds.Index(1).Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: slice: %v", ErrInvalidQuery, err)
		}
		if value, err = listSlice(value, from, to); err != nil {
			return nil, err
		}
	}
	return value, nil
}

func mapEntry(value any, key string) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: key '%s' on non-map value %T", ErrInvalidQuery, key, value)
	}
	v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: key '%s' not found", ErrInvalidQuery, key)
	}
	return v.Interface(), nil
}

func listElement(value any, i int) (any, error) {
	rv, err := list(value)
	if err != nil {
		return nil, err
	}
	if i < 0 {
		i += rv.Len()
	}
	if i < 0 || i >= rv.Len() {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidQuery, i, rv.Len())
	}
	return rv.Index(i).Interface(), nil
}

func listSlice(value any, from, to int) (any, error) {
	rv, err := list(value)
	if err != nil {
		return nil, err
	}
	n := rv.Len()
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	from = max(0, min(from, n))
	to = max(from, min(to, n))
	return rv.Slice(from, to).Interface(), nil
}

func list(value any) (reflect.Value, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		return rv, nil
	case reflect.Array:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		return cp.Slice(0, cp.Len()), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot index %T", ErrInvalidQuery, value)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
