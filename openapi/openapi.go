package openapi

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formbind/model"
)

// ErrEntityNotFound is returned when Options.Entity names no component.
var ErrEntityNotFound = errors.New("openapi: entity not found")

// ImportYAML imports an entity shape from an OpenAPI v3 document (or a bare
// schema) written in YAML.
func ImportYAML(data []byte, opts Options) (*model.Shape, Diag, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("openapi: invalid YAML: %w", err)
	}
	doc, err := decodeNode(&root)
	if err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("openapi: %w", err)
	}
	return importDoc(doc, opts)
}

// ImportJSON imports an entity shape from an OpenAPI v3 document (or a bare
// schema) written in JSON.
func ImportJSON(data []byte, opts Options) (*model.Shape, Diag, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("openapi: invalid JSON: %w", err)
	}
	// compact JSON is valid flow-style YAML; decoding it through yaml.Node
	// keeps property order
	return ImportYAML(buf.Bytes(), opts)
}

// Import imports from an already decoded document (map[string]any). Go maps
// carry no key order, so properties are imported in lexical order.
func Import(doc map[string]any, opts Options) (*model.Shape, Diag, error) {
	if doc == nil {
		return nil, &simpleDiag{}, errors.New("openapi: nil document")
	}
	return importDoc(fromMap(doc), opts)
}

func fromMap(v any) any {
	switch t := v.(type) {
	case map[string]any:
		o := &object{vals: make(map[string]any, len(t))}
		for k := range t {
			o.keys = append(o.keys, k)
		}
		sort.Strings(o.keys)
		for _, k := range o.keys {
			o.vals[k] = fromMap(t[k])
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromMap(t[i])
		}
		return out
	}
	return v
}

func importDoc(v any, opts Options) (*model.Shape, Diag, error) {
	d := &simpleDiag{}
	root, ok := v.(*object)
	if !ok {
		return nil, d, errors.New("openapi: document root must be a mapping")
	}
	im := &importer{root: root, diag: d, visiting: map[string]bool{}}
	schema, name, err := im.entity(opts.Entity)
	if err != nil {
		return nil, d, err
	}
	if name != "" {
		im.visiting[name] = true
	}
	s := im.shape(schema, "")
	if name != "" && s.Kind == model.KindObject && s.Type == "" {
		s.Type = name
	}
	if opts.Strict && d.HasWarnings() {
		return nil, d, fmt.Errorf("openapi: strict import: %s", strings.Join(d.Warnings(), "; "))
	}
	return s, d, nil
}

type importer struct {
	root     *object
	diag     *simpleDiag
	visiting map[string]bool
}

// components returns the named schema section of the document.
func (im *importer) components() *object {
	if c := im.root.obj("components").obj("schemas"); c != nil {
		return c
	}
	return im.root.obj("$defs")
}

// entity picks the schema to import and its name.
func (im *importer) entity(name string) (*object, string, error) {
	comps := im.components()
	if name == "" {
		if isSchema(im.root) {
			return im.root, "", nil
		}
		if comps != nil && len(comps.keys) == 1 {
			k := comps.keys[0]
			return comps.obj(k), k, nil
		}
		return nil, "", fmt.Errorf("%w: document has %d components, set Options.Entity", ErrEntityNotFound, len(comps.keysOrNil()))
	}
	if comps == nil {
		return nil, "", fmt.Errorf("%w: %q (no components)", ErrEntityNotFound, name)
	}
	if s := comps.obj(name); s != nil {
		return s, name, nil
	}
	var match string
	for _, k := range comps.keys {
		if k == name || strings.HasSuffix(k, "."+name) {
			if match != "" {
				return nil, "", fmt.Errorf("%w: %q is ambiguous (%s, %s)", ErrEntityNotFound, name, match, k)
			}
			match = k
		}
	}
	if match == "" {
		return nil, "", fmt.Errorf("%w: %q", ErrEntityNotFound, name)
	}
	return comps.obj(match), match, nil
}

func (o *object) keysOrNil() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func isSchema(o *object) bool {
	for _, k := range []string{"type", "properties", "items", "$ref", "allOf", "anyOf", "oneOf"} {
		if _, ok := o.get(k); ok {
			return true
		}
	}
	return false
}

// shape converts one schema. at is the property path for diagnostics.
func (im *importer) shape(s *object, at string) *model.Shape {
	if s == nil {
		return model.Any()
	}
	if ref := s.str("$ref"); ref != "" {
		out := im.ref(ref, at)
		im.applyCommon(out, s, at)
		return out
	}
	if parts := s.list("allOf"); len(parts) > 0 {
		out := im.merge(parts, at)
		im.applyCommon(out, s, at)
		return out
	}
	for _, key := range []string{"anyOf", "oneOf"} {
		if parts := s.list(key); len(parts) > 0 {
			var out *model.Shape
			if len(parts) == 1 {
				p, _ := parts[0].(*object)
				out = im.shape(p, at)
			} else {
				im.diag.warnf("%s at %s with %d branches imported as any", key, display(at), len(parts))
				out = model.Any()
			}
			im.applyCommon(out, s, at)
			return out
		}
	}

	var out *model.Shape
	switch typ := s.str("type"); {
	case typ == "object" || (typ == "" && s.obj("properties") != nil):
		out = im.object(s, at)
	case typ == "array":
		out = model.Array(im.shape(s.obj("items"), model.Join(at, "0")))
		im.sizeConstraint(out, s, "minItems", "maxItems")
	case typ == "string":
		out = model.String()
		im.sizeConstraint(out, s, "minLength", "maxLength")
		if p := s.str("pattern"); p != "" {
			out.Constrain("Pattern", "regexp", p)
		}
		if s.str("format") == "email" {
			out.Constrain("Email")
		}
	case typ == "number" || typ == "integer":
		out = model.Number()
		im.rangeConstraints(out, s)
	case typ == "boolean":
		out = model.Boolean()
	case typ == "":
		out = model.Any()
	default:
		im.diag.warnf("unsupported type %q at %s imported as any", typ, display(at))
		out = model.Any()
	}
	im.applyCommon(out, s, at)
	return out
}

func (im *importer) object(s *object, at string) *model.Shape {
	out := model.Object()
	required := map[string]bool{}
	for _, r := range s.list("required") {
		if name, ok := r.(string); ok {
			required[name] = true
		}
	}
	props := s.obj("properties")
	for _, name := range props.keysOrNil() {
		ps, ok := props.vals[name].(*object)
		if !ok {
			im.diag.warnf("property %s is not a schema", display(model.Join(at, name)))
			continue
		}
		fs := im.shape(ps, model.Join(at, name))
		if required[name] && !hasConstraint(fs, "NotNull") {
			fs.Constrain("NotNull")
		}
		out.Fields = append(out.Fields, model.Prop(name, fs))
	}
	for _, r := range s.list("required") {
		name, _ := r.(string)
		if _, ok := out.Field(name); !ok {
			im.diag.warnf("required property %s is not declared", display(model.Join(at, name)))
		}
	}
	return out
}

// merge folds allOf parts into one object shape. Later fields replace
// earlier ones of the same name.
func (im *importer) merge(parts []any, at string) *model.Shape {
	out := model.Object()
	for _, raw := range parts {
		p, _ := raw.(*object)
		ps := im.shape(p, at)
		if ps.Kind != model.KindObject {
			im.diag.warnf("allOf at %s mixes a non-object part", display(at))
			continue
		}
		if ps.Type != "" {
			// the most specific type is the last named one
			out.Type = ps.Type
		}
		for _, f := range ps.Fields {
			replaced := false
			for i := range out.Fields {
				if out.Fields[i].Name == f.Name {
					out.Fields[i] = f
					replaced = true
					break
				}
			}
			if !replaced {
				out.Fields = append(out.Fields, f)
			}
		}
		out.Constraints = append(out.Constraints, ps.Constraints...)
		out.Annotations = append(out.Annotations, ps.Annotations...)
	}
	return out
}

// applyCommon handles keywords valid on any schema: nullable, default and
// the x-validation-constraints / x-annotations extensions.
func (im *importer) applyCommon(out *model.Shape, s *object, at string) {
	if s.boolean("nullable") {
		out.Optional = true
	}
	if v, ok := s.get("default"); ok {
		out.Default = plain(v)
	}
	if xs, ok := s.get("x-validation-constraints"); ok {
		// explicit constraints replace the ones derived from keywords
		out.Constraints = nil
		list, _ := xs.([]any)
		for _, raw := range list {
			c, ok := raw.(*object)
			if !ok || c.str("simpleName") == "" {
				im.diag.warnf("malformed x-validation-constraints entry at %s", display(at))
				continue
			}
			mc := model.Constraint{Name: c.str("simpleName")}
			if attrs := c.obj("attributes"); attrs != nil {
				mc.Params = plain(attrs).(map[string]any)
			}
			out.Constraints = append(out.Constraints, mc)
		}
	}
	for _, raw := range s.list("x-annotations") {
		switch a := raw.(type) {
		case string:
			out.Annotations = append(out.Annotations, model.Annotation{Name: a})
		case *object:
			ann := model.Annotation{Name: a.str("name")}
			if attrs := a.obj("attributes"); attrs != nil {
				ann.Attributes = plain(attrs).(map[string]any)
			}
			out.Annotations = append(out.Annotations, ann)
		}
	}
}

func (im *importer) sizeConstraint(out *model.Shape, s *object, minKey, maxKey string) {
	minV, hasMin := s.get(minKey)
	maxV, hasMax := s.get(maxKey)
	if !hasMin && !hasMax {
		return
	}
	c := model.Constraint{Name: "Size", Params: map[string]any{}}
	if hasMin {
		c.Params["min"] = minV
	}
	if hasMax {
		c.Params["max"] = maxV
	}
	out.Constraints = append(out.Constraints, c)
}

// rangeConstraints maps minimum/maximum. Integral inclusive bounds become
// Min/Max, everything else DecimalMin/DecimalMax. Both the OpenAPI 3.0
// boolean and the 3.1 numeric form of exclusiveMinimum/Maximum are handled.
func (im *importer) rangeConstraints(out *model.Shape, s *object) {
	bound := func(key, exclKey, intName, decName string) {
		v, ok := s.get(key)
		excl := false
		switch e := s.vals[exclKey].(type) {
		case bool:
			excl = e
		case int64, float64:
			v, ok, excl = e, true, true
		}
		if !ok {
			return
		}
		if _, isInt := v.(int64); isInt && !excl {
			out.Constrain(intName, "value", v)
			return
		}
		out.Constrain(decName, "value", v, "inclusive", !excl)
	}
	bound("minimum", "exclusiveMinimum", "Min", "DecimalMin")
	bound("maximum", "exclusiveMaximum", "Max", "DecimalMax")
}

func hasConstraint(s *model.Shape, name string) bool {
	for _, c := range s.Constraints {
		if c.Name == name {
			return true
		}
	}
	return false
}

func display(at string) string {
	if at == "" {
		return "<root>"
	}
	return at
}
