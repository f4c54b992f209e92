// Package openapi imports entity shapes from OpenAPI v3 component schemas
// (JSON or YAML) into model.Shape.
//
// Supported keywords: type, properties (in declaration order), required,
// items, nullable, default, allOf, single-branch anyOf/oneOf, local $ref
// (#/components/schemas and #/$defs, cycles stop with a warning),
// minLength/maxLength, minItems/maxItems, pattern, format: email and
// minimum/maximum with their exclusive variants. The x-validation-constraints
// and x-annotations extensions map to model constraints and annotations.
// Anything else yields a warning in Diag.
package openapi
