package model

import "fmt"

// Kind is the structural kind of a model node.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "primitive"
	}
}

// Primitive type names used in Shape.Type for primitive shapes.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeAny     = "any"
)

// Constraint is a declared validation rule attached to a shape, usually
// derived from a bean-validation annotation or an OpenAPI keyword (for
// example {Name: "Size", Params: {"max": 255}}). Constraints are turned into
// validators by the binder's constraint factory.
type Constraint struct {
	Name   string
	Params map[string]any
}

// Annotation is declarative metadata carried by a shape (for example
// "jakarta.persistence.Id"). The binder does not interpret annotations.
type Annotation struct {
	Name       string
	Attributes map[string]any
}

// Shape describes the declared structure of a value: an object with ordered
// fields, an array of items, or a primitive.
type Shape struct {
	Kind Kind
	// Type is the primitive type name for primitives, or the entity name for
	// objects when known.
	Type     string
	Fields   []Field
	Item     *Shape
	Optional bool
	// Default overrides the structural empty value when non-nil.
	Default     any
	Annotations []Annotation
	Constraints []Constraint
}

// Field is a named object property.
type Field struct {
	Name  string
	Shape *Shape
}

// Object returns an object shape with the given fields in declaration order.
func Object(fields ...Field) *Shape {
	return &Shape{Kind: KindObject, Fields: fields}
}

// Prop declares an object field.
func Prop(name string, s *Shape) Field { return Field{Name: name, Shape: s} }

// Array returns an array shape of the given item shape.
func Array(item *Shape) *Shape {
	return &Shape{Kind: KindArray, Item: item}
}

func String() *Shape  { return &Shape{Kind: KindPrimitive, Type: TypeString} }
func Number() *Shape  { return &Shape{Kind: KindPrimitive, Type: TypeNumber} }
func Boolean() *Shape { return &Shape{Kind: KindPrimitive, Type: TypeBoolean} }
func Any() *Shape     { return &Shape{Kind: KindPrimitive, Type: TypeAny} }

// Opt marks the shape optional: its empty value is nil and the field is left
// out of a parent's empty object.
func (s *Shape) Opt() *Shape {
	s.Optional = true
	return s
}

// Named sets the declared type name.
func (s *Shape) Named(name string) *Shape {
	s.Type = name
	return s
}

// WithDefault sets an explicit default value.
func (s *Shape) WithDefault(v any) *Shape {
	s.Default = v
	return s
}

// Constrain appends a declared constraint. kv holds alternating parameter
// names and values.
func (s *Shape) Constrain(name string, kv ...any) *Shape {
	c := Constraint{Name: name}
	if len(kv) > 0 {
		c.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			c.Params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	s.Constraints = append(s.Constraints, c)
	return s
}

// Annotate appends an annotation.
func (s *Shape) Annotate(name string) *Shape {
	s.Annotations = append(s.Annotations, Annotation{Name: name})
	return s
}

// HasAnnotation reports whether an annotation with the given name is present.
func (s *Shape) HasAnnotation(name string) bool {
	if s == nil {
		return false
	}
	for _, a := range s.Annotations {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Field returns the shape of the named field.
func (s *Shape) Field(name string) (*Shape, bool) {
	if s == nil || s.Kind != KindObject {
		return nil, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Shape, true
		}
	}
	return nil, false
}

// At returns the shape addressed by a canonical path below s. Array items are
// addressed by any decimal index.
func (s *Shape) At(path string) (*Shape, bool) {
	cur := s
	for _, seg := range Split(path) {
		if cur == nil {
			return nil, false
		}
		switch cur.Kind {
		case KindObject:
			f, ok := cur.Field(seg)
			if !ok {
				return nil, false
			}
			cur = f
		case KindArray:
			if _, ok := IndexOf(seg); !ok {
				return nil, false
			}
			cur = cur.Item
		default:
			return nil, false
		}
	}
	if cur == nil {
		cur = Any()
	}
	return cur, true
}

// Paths lists the canonical paths of every field reachable from s through
// objects only, in declaration order. Array items are not entered.
func (s *Shape) Paths() []string {
	var out []string
	var walk func(base string, sh *Shape)
	walk = func(base string, sh *Shape) {
		if sh == nil || sh.Kind != KindObject {
			return
		}
		for _, f := range sh.Fields {
			p := Join(base, f.Name)
			out = append(out, p)
			walk(p, f.Shape)
		}
	}
	walk("", s)
	return out
}
