// Package pipeline assembles and runs a pipeline from a spec document.
//
// A spec names the input containers to read, the output elements to
// compute and where to write them, plus parameter overrides. Assemble
// resolves parameters, builds the pipeline graph, opens the containers
// and checks that every external input is available with a usable type.
// Run executes the graph and flushes the store only when every unit
// succeeded.
package pipeline
