package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"

	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/datastore"
	"github.com/specialistvlad/algogrid/internal/element"
)

type codec struct {
	contentType string
	marshal     func(any) ([]byte, error)
	unmarshal   func([]byte, any) error
}

var (
	jsonCodec = codec{
		contentType: ContentTypeJSON,
		marshal: func(v any) ([]byte, error) {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return nil, err
			}
			return append(b, '\n'), nil
		},
		unmarshal: json.Unmarshal,
	}
	yamlCodec = codec{contentType: ContentTypeYAML, marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
)

// File is a container backed by a single JSON or YAML document whose top
// level is a mapping of element names to values. With a scope, elements
// live under the mapping stored at that top-level key.
//
// The whole document is rewritten on every Set.
type File struct {
	mu    sync.Mutex
	loc   datastore.Location
	codec codec
	root  map[string]any

	// save replaces writing the encoded document to loc.Path.
	save func(data []byte) error
}

// NewJSONFile opens a JSON document container.
func NewJSONFile(loc datastore.Location) (datastore.Handler, error) {
	return openFile(loc, jsonCodec)
}

// NewYAMLFile opens a YAML document container.
func NewYAMLFile(loc datastore.Location) (datastore.Handler, error) {
	return openFile(loc, yamlCodec)
}

func openFile(loc datastore.Location, c codec) (*File, error) {
	f := &File{loc: loc, codec: c, root: make(map[string]any)}

	data, err := os.ReadFile(loc.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && loc.Mode != datastore.ModeInput:
		return f, nil
	case err != nil:
		return nil, err
	}
	if len(data) == 0 {
		return f, nil
	}

	root, err := decodeDocument(data, c)
	if err != nil {
		return nil, err
	}
	f.root = root
	return f, nil
}

// decodeDocument decodes a document whose top level is a mapping. An empty
// document decodes to an empty mapping.
func decodeDocument(data []byte, c codec) (map[string]any, error) {
	var raw any
	if err := c.unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if raw == nil {
		return make(map[string]any), nil
	}
	root, ok := ctyconv.Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document top level must be a mapping, got %T", raw)
	}
	return root, nil
}

// scope returns the mapping elements are read from. When create is set a
// missing scope is added to the document.
func (f *File) scope(create bool) (map[string]any, error) {
	if f.loc.Scope == "" {
		return f.root, nil
	}
	raw, ok := f.root[f.loc.Scope]
	if !ok {
		if !create {
			return nil, nil
		}
		m := make(map[string]any)
		f.root[f.loc.Scope] = m
		return m, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("scope '%s' is not a mapping", f.loc.Scope)
	}
	return m, nil
}

func (f *File) Elements() ([]element.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.scope(false)
	if err != nil {
		return nil, err
	}
	return describe(values), nil
}

func (f *File) Get(name string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.scope(false)
	if err != nil {
		return nil, err
	}
	v, ok := values[name]
	if !ok {
		return nil, &datastore.Error{Element: name, Container: f.loc.Path, Err: datastore.ErrElementNotFound}
	}
	return v, nil
}

func (f *File) Set(name string, value any) error {
	if f.loc.Mode == datastore.ModeInput {
		return &datastore.Error{Element: name, Container: f.loc.Path, Err: ErrReadOnly}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.scope(true)
	if err != nil {
		return err
	}
	values[name] = value
	return f.persist()
}

func (f *File) Query(name string, spec map[string]any) (any, error) {
	v, err := f.Get(name)
	if err != nil {
		return nil, err
	}
	return Query(v, spec)
}

// persist encodes the document and saves it. Local documents are written
// to a temporary file next to the target and renamed into place.
func (f *File) persist() error {
	data, err := f.codec.marshal(f.root)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if f.save != nil {
		return f.save(data)
	}

	dir := filepath.Dir(f.loc.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.loc.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.loc.Path)
}

func inferType(v any) cty.Type {
	ty, err := ctyconv.TypeOf(v)
	if err != nil {
		return cty.DynamicPseudoType
	}
	return ty
}
