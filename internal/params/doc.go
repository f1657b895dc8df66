// Package params resolves the parameter set of every unit in the catalog.
//
// Resolution walks the parameter graph in order. For each unit, values of
// referenced fields are copied from the already resolved set of the unit
// they reference, user overrides are matched by canonical name or alias,
// and schema defaults fill whatever is left.
//
// Overrides are a plain map. A key equal to a unit name scopes the nested
// map to that unit and every key in it must be recognized; otherwise the
// whole map is a flat namespace shared by all units and unknown keys are
// ignored.
package params
