// Package handlers turns container locations into datastore handlers.
//
// A Manager maps path specs (extension, optional file-stem pattern and
// content type) to factories. The built-in factories cover JSON and YAML
// documents and BoltDB files; Memory serves in-process values and is
// used for inline inputs and tests.
//
// Every handler shares the same query syntax, see Query.
package handlers
