// Package executor runs the units of a pipeline graph.
//
// Execution is sequential and follows the graph's topological order. For
// each unit the executor reads the declared inputs from the data store,
// instantiates the unit with its resolved parameter set, runs it, checks
// its outputs against the schema and writes them back to the store. The
// first failure aborts the run; nothing is retried.
package executor
