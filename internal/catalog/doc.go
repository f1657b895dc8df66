// Package catalog is the registry of available units.
//
// A unit is described by a Descriptor: its schema (inputs, outputs and
// parameters) and a constructor that builds a runnable Unit from a resolved
// parameter set. The Catalog indexes descriptors by name and by the output
// elements they produce, which is all the graph builders need.
//
// There is no process-wide catalog. Each App builds its own and passes it
// down explicitly; Populate and Module exist to make that convenient.
package catalog
