// Package model is the addressable view over a plain value tree.
//
// A Shape declares the structure of an entity (objects with ordered fields,
// arrays, primitives) together with metadata and declared constraints. A
// Tree materializes one Node per canonical path on demand and keeps it for
// the tree's lifetime, so node identity can be used as a key. Values are
// never stored in nodes: Resolve, Assoc, InsertIndex and RemoveIndex read and
// rewrite a root value immutably along a path.
package model
