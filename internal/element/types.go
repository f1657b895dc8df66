package element

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// TypeFromExpr converts an HCL expression that represents a type (e.g. the
// `string` keyword or `list(number)`) into its corresponding cty.Type.
func TypeFromExpr(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	// Keywords are the common case and give the friendliest diagnostics.
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if !diags.HasErrors() && len(traversal) == 1 {
		switch name := traversal.RootName(); name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		case "list", "map", "set", "object", "tuple":
			return cty.NilType, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Incomplete type specification",
				Detail:   fmt.Sprintf("The type '%s' requires an element type, e.g. '%s(string)'.", name, name),
				Subject:  expr.Range().Ptr(),
			}}
		default:
			return cty.NilType, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unsupported type",
				Detail:   fmt.Sprintf("The keyword '%s' is not a valid type. Supported types are: string, number, bool, any and collections of them.", name),
				Subject:  expr.Range().Ptr(),
			}}
		}
	}

	return typeexpr.TypeConstraint(expr)
}

// ParseType parses a type tag written in HCL type-constraint syntax.
// The empty string yields cty.DynamicPseudoType.
func ParseType(src string) (cty.Type, error) {
	if src == "" {
		return cty.DynamicPseudoType, nil
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<type>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("invalid type %q: %w", src, diags)
	}
	ty, diags := TypeFromExpr(expr)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("invalid type %q: %w", src, diags)
	}
	return ty, nil
}

// MustParseType is ParseType for static declarations; it panics on error.
func MustParseType(src string) cty.Type {
	ty, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return ty
}

// TypeString renders a type tag in the syntax accepted by ParseType.
func TypeString(ty cty.Type) string {
	if ty == cty.NilType {
		return "any"
	}
	return typeexpr.TypeString(ty)
}
