// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package schema declares what a unit consumes, produces and is configured
// with.
//
// A Schema has three ordered sections: input fields, output fields and
// parameter fields. Input and output fields describe data elements; parameter
// fields describe configuration values, optionally with aliases, a
// deprecation marker or a reference to the same-named parameter of another
// unit.
//
// Schemas are declared explicitly, either in Go through a Builder or in an
// HCL manifest (see ParseManifest). Composition is expressed with Extends:
// parent fields are flattened into the child in declaration order when the
// schema is built, so nothing is looked up by inheritance at run time.
package schema
