package element

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Layout is the physical arrangement of an element's data.
type Layout int

const (
	LayoutNormal Layout = iota
	LayoutChunked
	LayoutStreamed
)

func (l Layout) String() string {
	switch l {
	case LayoutNormal:
		return "normal"
	case LayoutChunked:
		return "chunked"
	case LayoutStreamed:
		return "streamed"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout is the inverse of Layout.String. The empty string is normal.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return LayoutNormal, nil
	case "chunked":
		return LayoutChunked, nil
	case "stream", "streamed":
		return LayoutStreamed, nil
	default:
		return LayoutNormal, fmt.Errorf("unknown element layout %q", s)
	}
}

// Descriptor identifies a data item by name and carries its type tag.
type Descriptor struct {
	Name   string
	Type   cty.Type
	DType  string
	Shape  []int
	Layout Layout
}

// New returns a normal-layout descriptor. A nil type becomes
// cty.DynamicPseudoType, i.e. untyped.
func New(name string, ty cty.Type) Descriptor {
	if ty == cty.NilType {
		ty = cty.DynamicPseudoType
	}
	return Descriptor{Name: name, Type: ty}
}

// Typed reports whether the descriptor carries a concrete type tag.
func (d Descriptor) Typed() bool {
	return d.Type != cty.NilType && !d.Type.Equals(cty.DynamicPseudoType)
}

// Accepts reports whether a value of type ty can be used where this
// descriptor is expected. Untyped descriptors accept anything.
func (d Descriptor) Accepts(ty cty.Type) bool {
	if !d.Typed() || ty == cty.NilType || ty.Equals(cty.DynamicPseudoType) {
		return true
	}
	return convert.GetConversion(ty, d.Type) != nil
}

func (d Descriptor) String() string {
	if !d.Typed() {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, TypeString(d.Type))
}
