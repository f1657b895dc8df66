package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v2"

	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"github.com/specialistvlad/algogrid/internal/handlers"
	"github.com/specialistvlad/algogrid/internal/params"
)

// ContainerSpec describes one container of a pipeline.
//
// Inputs with Values are served from memory and Path only names them.
// Outputs without a Path request their elements without persisting them.
type ContainerSpec struct {
	Path        string         `yaml:"path"`
	ContentType string         `yaml:"content_type"`
	Scope       string         `yaml:"scope"`
	Elements    []string       `yaml:"elements"`
	Values      map[string]any `yaml:"values"`
}

// Spec is a pipeline spec document.
type Spec struct {
	Inputs     []ContainerSpec `yaml:"inputs"`
	Outputs    []ContainerSpec `yaml:"outputs"`
	Params     map[string]any  `yaml:"params"`
	ParamsFile string          `yaml:"params_file"`

	// BaseDir anchors relative paths. LoadSpec sets it to the directory of
	// the document.
	BaseDir string `yaml:"-"`
}

// Requested returns the output elements in declaration order, without
// duplicates.
func (s *Spec) Requested() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range s.Outputs {
		for _, e := range o.Elements {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

// Validate checks the document's structure.
func (s *Spec) Validate() error {
	var problems []string
	if len(s.Requested()) == 0 {
		problems = append(problems, "no output elements requested")
	}
	paths := make(map[string]bool)
	for i, in := range s.Inputs {
		if in.Path == "" {
			problems = append(problems, fmt.Sprintf("input #%d has no path", i+1))
			continue
		}
		if paths[in.Path] {
			problems = append(problems, fmt.Sprintf("input '%s' is listed twice", in.Path))
		}
		paths[in.Path] = true
	}
	for i, out := range s.Outputs {
		if len(out.Elements) == 0 {
			problems = append(problems, fmt.Sprintf("output #%d lists no elements", i+1))
		}
		if out.Values != nil {
			problems = append(problems, fmt.Sprintf("output #%d cannot carry values", i+1))
		}
		if out.Path == "" {
			continue
		}
		if paths[out.Path] {
			problems = append(problems, fmt.Sprintf("container '%s' is listed twice", out.Path))
		}
		paths[out.Path] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(problems, "; "))
	}
	return nil
}

// Overrides returns the parameter overrides of the spec: the params file,
// if any, with the inline params merged over it.
func (s *Spec) Overrides() (params.Overrides, error) {
	base := params.Overrides{}
	if s.ParamsFile != "" {
		loaded, err := params.LoadOverrides(s.resolve(s.ParamsFile))
		if err != nil {
			return nil, err
		}
		base = loaded
	}
	return params.Merge(base, params.Normalize(s.Params)), nil
}

func (s *Spec) resolve(path string) string {
	if _, remote := handlers.Scheme(path); remote || s.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}

// FromArgs builds a spec from command line specifiers. Each input is a
// path, optionally followed by "#scope". Outputs are element names; they
// are written to outFile when it is set.
func FromArgs(inputs, outputs []string, outFile, paramsFile string) *Spec {
	s := &Spec{ParamsFile: paramsFile}
	for _, in := range inputs {
		path, scope, _ := strings.Cut(in, "#")
		s.Inputs = append(s.Inputs, ContainerSpec{Path: path, Scope: scope})
	}
	if len(outputs) > 0 {
		s.Outputs = append(s.Outputs, ContainerSpec{Path: outFile, Elements: outputs})
	}
	return s
}

// LoadSpec reads a spec document in YAML (.yaml, .yml) or HCL (.hcl).
func LoadSpec(path string) (*Spec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec: %w", err)
	}

	var s *Spec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		s, err = ParseYAML(src)
	case ".hcl":
		s, err = ParseHCL(src, path)
	default:
		return nil, fmt.Errorf("%w: unsupported format '%s'", ErrInvalidSpec, ext)
	}
	if err != nil {
		return nil, err
	}
	s.BaseDir = filepath.Dir(path)
	return s, nil
}

// ParseYAML parses a YAML spec document.
func ParseYAML(src []byte) (*Spec, error) {
	var s Spec
	if err := yaml.UnmarshalStrict(src, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	for i := range s.Inputs {
		if s.Inputs[i].Values != nil {
			s.Inputs[i].Values = ctyconv.Normalize(s.Inputs[i].Values).(map[string]any)
		}
	}
	if s.Params != nil {
		s.Params = ctyconv.Normalize(s.Params).(map[string]any)
	}
	return &s, nil
}

type hclSpec struct {
	Inputs     []hclContainer `hcl:"input,block"`
	Outputs    []hclContainer `hcl:"output,block"`
	ParamsFile *string        `hcl:"params_file,optional"`
	Params     *hclParams     `hcl:"params,block"`
}

type hclContainer struct {
	Path        string         `hcl:"path,label"`
	ContentType *string        `hcl:"content_type,optional"`
	Scope       *string        `hcl:"scope,optional"`
	Elements    []string       `hcl:"elements,optional"`
	Values      hcl.Expression `hcl:"values,optional"`
}

type hclParams struct {
	Body hcl.Body `hcl:",remain"`
}

// ParseHCL parses an HCL spec document:
//
//	input "data/values.json" {}
//	output "out/result.yaml" {
//	  elements = ["total"]
//	}
//	params {
//	  scale = 2
//	  algorithm "Clip" { threshold = 3 }
//	}
func ParseHCL(src []byte, filename string) (*Spec, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, diags)
	}

	var raw hclSpec
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, diags)
	}

	s := &Spec{}
	if raw.ParamsFile != nil {
		s.ParamsFile = *raw.ParamsFile
	}
	for _, c := range raw.Inputs {
		cs, err := c.spec()
		if err != nil {
			return nil, err
		}
		s.Inputs = append(s.Inputs, cs)
	}
	for _, c := range raw.Outputs {
		cs, err := c.spec()
		if err != nil {
			return nil, err
		}
		s.Outputs = append(s.Outputs, cs)
	}
	if raw.Params != nil {
		overrides, err := params.DecodeHCLBody(raw.Params.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}
		s.Params = overrides
	}
	return s, nil
}

func (c hclContainer) spec() (ContainerSpec, error) {
	cs := ContainerSpec{Path: c.Path, Elements: c.Elements}
	if c.ContentType != nil {
		cs.ContentType = *c.ContentType
	}
	if c.Scope != nil {
		cs.Scope = *c.Scope
	}
	if c.Values == nil {
		return cs, nil
	}
	val, diags := c.Values.Value(nil)
	if diags.HasErrors() {
		return cs, fmt.Errorf("%w: %w", ErrInvalidSpec, diags)
	}
	if val.IsNull() {
		return cs, nil
	}
	native, err := ctyconv.ToNative(val)
	if err != nil {
		return cs, fmt.Errorf("%w: values of '%s': %w", ErrInvalidSpec, c.Path, err)
	}
	values, ok := native.(map[string]any)
	if !ok {
		return cs, fmt.Errorf("%w: values of '%s' must be an object", ErrInvalidSpec, c.Path)
	}
	cs.Values = values
	return cs, nil
}
