package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/algogrid/internal/ctyconv"
	"gopkg.in/yaml.v2"
)

// Overrides maps parameter names, aliases or unit names to values.
type Overrides map[string]any

// LoadOverrides reads an overrides file. The format follows the extension:
// .yaml/.yml, .json or .hcl.
func LoadOverrides(path string) (Overrides, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(src)
	case ".json":
		return ParseJSON(src)
	case ".hcl":
		return ParseHCL(src, path)
	default:
		return nil, fmt.Errorf("unsupported overrides format '%s'", ext)
	}
}

// ParseYAML parses overrides from a YAML mapping.
func ParseYAML(src []byte) (Overrides, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML overrides: %w", err)
	}
	return Normalize(raw), nil
}

// ParseJSON parses overrides from a JSON object.
func ParseJSON(src []byte) (Overrides, error) {
	var raw map[string]any
	if err := json.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON overrides: %w", err)
	}
	return Normalize(raw), nil
}

var hclOverridesSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "algorithm", LabelNames: []string{"name"}},
	},
}

// ParseHCL parses overrides from HCL. Top-level attributes form the shared
// namespace; `algorithm "<name>" { ... }` blocks hold unit-scoped values.
func ParseHCL(src []byte, filename string) (Overrides, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL overrides: %w", diags)
	}
	return DecodeHCLBody(file.Body)
}

// DecodeHCLBody decodes overrides from an already parsed HCL body.
func DecodeHCLBody(body hcl.Body) (Overrides, error) {
	content, remain, diags := body.PartialContent(hclOverridesSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL overrides: %w", diags)
	}

	out, err := decodeAttributes(remain)
	if err != nil {
		return nil, err
	}
	for _, block := range content.Blocks {
		unit := block.Labels[0]
		if _, exists := out[unit]; exists {
			return nil, fmt.Errorf("failed to decode HCL overrides: duplicate overrides for unit '%s'", unit)
		}
		scoped, err := decodeAttributes(block.Body)
		if err != nil {
			return nil, fmt.Errorf("unit '%s': %w", unit, err)
		}
		out[unit] = map[string]any(scoped)
	}
	return out, nil
}

func decodeAttributes(body hcl.Body) (Overrides, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL overrides: %w", diags)
	}
	out := make(Overrides, len(attrs))
	for name, attr := range attrs {
		// A nil eval context is used because overrides must be literal values.
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL overrides: %w", valDiags)
		}
		native, err := ctyconv.ToNative(val)
		if err != nil {
			return nil, fmt.Errorf("override '%s': %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

// Normalize converts nested map[any]any values, as produced by
// gopkg.in/yaml.v2, into map[string]any.
func Normalize(raw map[string]any) Overrides {
	out := make(Overrides, len(raw))
	for k, v := range raw {
		if o, ok := v.(Overrides); ok {
			v = map[string]any(o)
		}
		out[k] = ctyconv.Normalize(v)
	}
	return out
}

// Merge returns base updated with over. Unit-scoped maps present in both
// are merged key by key; everything else in over replaces base.
func Merge(base, over Overrides) Overrides {
	out := make(Overrides, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if prev, ok := asStringMap(out[k]); ok {
			if next, ok := asStringMap(v); ok {
				merged := make(map[string]any, len(prev)+len(next))
				for pk, pv := range prev {
					merged[pk] = pv
				}
				for nk, nv := range next {
					merged[nk] = nv
				}
				out[k] = merged
				continue
			}
		}
		out[k] = v
	}
	return out
}

func asStringMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case Overrides:
		return x, true
	case map[any]any:
		return ctyconv.Normalize(x).(map[string]any), true
	default:
		return nil, false
	}
}
