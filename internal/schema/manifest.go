// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses unit schemas from HCL manifests:
//
//	schema "Windowed" {
//	  param "window" { type = number  default = 5 }
//	}
//
//	algorithm "Smooth" {
//	  extends     = ["Windowed"]
//	  description = "Moving average."
//	  input  "values"   { type = list(number) }
//	  output "smoothed" { type = list(number) }
//	  param  "threshold" {
//	    type    = number
//	    ref     = "Clip"
//	  }
//	}
//
// `schema` blocks are reusable fragments, `algorithm` blocks are units.
// A block may only extend blocks that appear before it in the same file.

package schema

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/algogrid/internal/element"
)

var manifestSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "schema", LabelNames: []string{"name"}},
		{Type: "algorithm", LabelNames: []string{"name"}},
	},
}

var unitBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "extends"},
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
		{Type: "param", LabelNames: []string{"name"}},
	},
}

// fieldBodySchema is the HCL schema for the body of an input, output or
// param block.
var fieldBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "description"},
		{Name: "default"},
		{Name: "required"},
		{Name: "aliases"},
		{Name: "ref"},
		{Name: "deprecated"},
		{Name: "layout"},
		{Name: "dtype"},
		{Name: "shape"},
	},
}

// LoadManifest reads and parses an HCL manifest file.
func LoadManifest(path string) ([]*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(src, path)
}

// ParseManifest parses the algorithm schemas declared in an HCL manifest,
// in file order.
func ParseManifest(src []byte, filename string) ([]*Schema, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest: %w", diags)
	}

	content, diags := file.Body.Content(manifestSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest: %w", diags)
	}

	known := make(map[string]*Schema)
	var algorithms []*Schema
	for _, block := range content.Blocks {
		name := block.Labels[0]
		if _, exists := known[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate schema definition",
				Detail:   fmt.Sprintf("A schema named '%s' has already been defined.", name),
				Subject:  &block.DefRange,
			})
			continue
		}

		s, blockDiags := decodeUnitBlock(name, block.Body, known)
		diags = append(diags, blockDiags...)
		if blockDiags.HasErrors() {
			continue
		}
		known[name] = s
		if block.Type == "algorithm" {
			algorithms = append(algorithms, s)
		}
	}

	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest: %w", diags)
	}
	return algorithms, nil
}

func decodeUnitBlock(name string, body hcl.Body, known map[string]*Schema) (*Schema, hcl.Diagnostics) {
	content, diags := body.Content(unitBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	b := New(name)
	if attr, ok := content.Attributes["extends"]; ok {
		var parents []string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &parents)...)
		for _, p := range parents {
			parent, ok := known[p]
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown parent schema",
					Detail:   fmt.Sprintf("'%s' extends '%s', which is not defined earlier in this file.", name, p),
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			b.Extends(parent)
		}
	}
	if attr, ok := content.Attributes["description"]; ok {
		var description string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &description)...)
		b.Describe(description)
	}

	for _, block := range content.Blocks {
		f, fieldDiags := decodeFieldBlock(block)
		diags = append(diags, fieldDiags...)
		if fieldDiags.HasErrors() {
			continue
		}
		switch block.Type {
		case "input":
			b.inputs = append(b.inputs, f)
		case "output":
			b.outputs = append(b.outputs, f)
		case "param":
			b.params = append(b.params, f)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	s, err := b.Build()
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid schema",
			Detail:   err.Error(),
			Subject:  body.MissingItemRange().Ptr(),
		})
		return nil, diags
	}
	return s, diags
}

func decodeFieldBlock(block *hcl.Block) (Field, hcl.Diagnostics) {
	f := Field{Name: block.Labels[0], Required: block.Type == "output"}

	content, diags := block.Body.Content(fieldBodySchema)
	if diags.HasErrors() {
		return f, diags
	}

	typeAttr, exists := content.Attributes["type"]
	if !exists {
		missingItemRange := block.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'type' attribute",
			Detail:   fmt.Sprintf("The 'type' attribute is required for all %s blocks.", block.Type),
			Subject:  &missingItemRange,
		})
		return f, diags
	}
	ty, typeDiags := element.TypeFromExpr(typeAttr.Expr)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return f, diags
	}
	f.Type = ty

	decode := func(name string, target any) {
		if attr, ok := content.Attributes[name]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, target)...)
		}
	}
	decode("description", &f.Description)
	decode("required", &f.Required)
	decode("aliases", &f.Aliases)
	decode("ref", &f.Reference)
	decode("deprecated", &f.Deprecated)
	decode("dtype", &f.DType)
	decode("shape", &f.Shape)

	if attr, ok := content.Attributes["layout"]; ok {
		var layout string
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &layout)...)
		l, err := element.ParseLayout(layout)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid layout",
				Detail:   err.Error(),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
		f.Layout = l
	}

	if attr, ok := content.Attributes["default"]; ok {
		// A nil eval context is used because defaults must be literal values.
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			f.Default = val
		}
	}

	return f, diags
}
