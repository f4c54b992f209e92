package openapi

import (
	"strings"

	"github.com/reoring/formbind/model"
)

var refPrefixes = []string{"#/components/schemas/", "#/$defs/"}

// ref resolves a local $ref. Cycles stop at the repeated schema, which is
// imported as an empty object of the referenced type.
func (im *importer) ref(ref, at string) *model.Shape {
	var key string
	for _, p := range refPrefixes {
		if strings.HasPrefix(ref, p) {
			key = unescapePointer(strings.TrimPrefix(ref, p))
			break
		}
	}
	if key == "" {
		im.diag.warnf("$ref %q at %s not supported (local components only)", ref, display(at))
		return model.Any()
	}
	target := im.components().obj(key)
	if target == nil {
		im.diag.warnf("$ref to unknown schema %q at %s", key, display(at))
		return model.Any()
	}
	if im.visiting[key] {
		im.diag.warnf("cyclic $ref to %q at %s (not expanded)", key, display(at))
		return model.Object().Named(key)
	}
	im.visiting[key] = true
	defer delete(im.visiting, key)
	s := im.shape(target, at)
	if s.Kind == model.KindObject && s.Type == "" {
		s.Type = key
	}
	return s
}

// unescapePointer reverses RFC 6901 escaping in one reference token.
func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
