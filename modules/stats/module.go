// Package stats provides descriptive statistics units. Their schemas are
// declared in the embedded stats.hcl manifest.
package stats

import (
	_ "embed"
	"fmt"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/schema"
)

//go:embed stats.hcl
var manifest []byte

// Module implements the catalog.Module interface for this package.
type Module struct{}

type unit struct {
	new    catalog.Constructor
	params any
}

var units = map[string]unit{
	"Summary":   {new: NewSummary, params: SummaryParams{}},
	"Normalize": {new: NewNormalize},
	"Clip":      {new: NewClip, params: ClipParams{}},
	"Outliers":  {new: NewOutliers, params: OutliersParams{}},
	"Smooth":    {new: NewSmooth, params: SmoothParams{}},
}

// Register adds the module's units to c.
func (m *Module) Register(c *catalog.Catalog) error {
	schemas, err := schema.ParseManifest(manifest, "stats.hcl")
	if err != nil {
		return err
	}

	descriptors := make([]*catalog.Descriptor, 0, len(schemas))
	for _, s := range schemas {
		u, ok := units[s.Unit()]
		if !ok {
			return fmt.Errorf("no implementation for unit '%s'", s.Unit())
		}
		descriptors = append(descriptors, &catalog.Descriptor{Schema: s, New: u.new, Params: u.params})
	}
	return catalog.Populate(c, descriptors...)
}
