// Package element describes the named, typed data items that flow between
// units and the data store.
//
// Type tags are cty types. The textual form used in spec documents and
// schema definitions is HCL type-constraint syntax: `string`, `number`,
// `bool`, `any`, `list(number)`, `map(string)`, `object({...})` and so on.
package element
