// Package rules provides record-level validators for cross-field checks:
// equality between properties, collection cardinality and uniqueness, and
// conditional composition with If(...).Then(...).
//
// Paths given to the constructors are relative to the node the validator is
// attached to (usually the binder root) and may be dotted or bracketed.
// Findings are redirected to the offending property.
package rules
