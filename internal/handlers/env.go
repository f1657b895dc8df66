package handlers

import (
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/element"
)

// Env is a read-only container over environment variables. For the
// location "env://ALGO_", the variable ALGO_THRESHOLD becomes the element
// "threshold". Values are parsed as YAML flow scalars, so "3" is a number
// and "[1, 2]" a list; anything unparsable stays a string.
type Env struct {
	loc    datastore.Location
	values map[string]any
}

// OpenEnv snapshots the environment for loc.
func OpenEnv(loc datastore.Location) (datastore.Handler, error) {
	if loc.Mode != datastore.ModeInput {
		return nil, ErrReadOnly
	}
	_, prefix, _ := strings.Cut(loc.Path, "://")
	e := &Env{loc: loc, values: make(map[string]any)}
	for _, kv := range os.Environ() {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) || key == prefix {
			continue
		}
		e.values[strings.ToLower(strings.TrimPrefix(key, prefix))] = parseEnvValue(raw)
	}
	return e, nil
}

func parseEnvValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	return ctyconv.Normalize(v)
}

func (e *Env) Elements() ([]element.Descriptor, error) {
	return describe(e.values), nil
}

func (e *Env) Get(name string) (any, error) {
	v, ok := e.values[name]
	if !ok {
		return nil, &datastore.Error{Element: name, Container: e.loc.Path, Err: datastore.ErrElementNotFound}
	}
	return v, nil
}

func (e *Env) Set(name string, _ any) error {
	return &datastore.Error{Element: name, Container: e.loc.Path, Err: ErrReadOnly}
}

func (e *Env) Query(name string, spec map[string]any) (any, error) {
	v, err := e.Get(name)
	if err != nil {
		return nil, err
	}
	return Query(v, spec)
}
