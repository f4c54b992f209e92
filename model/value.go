package model

import "reflect"

// Values are plain Go trees: map[string]any for objects, []any for arrays,
// and scalars for primitives. The functions below never mutate their inputs;
// writes copy only the containers along the written path.

// Resolve returns the value at path. It reports false when an intermediate
// is missing or has the wrong kind; it never panics.
func Resolve(root any, path string) (any, bool) {
	cur := root
	for _, seg := range Split(path) {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := IndexOf(seg)
			if !ok || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Assoc returns a copy of root with v stored at path. Missing intermediates
// are created: arrays for index segments, objects otherwise. Existing arrays
// are never grown; a write past their end leaves root unchanged.
func Assoc(root any, path string, v any) any {
	return assoc(root, Split(path), v)
}

func assoc(cur any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	seg := segs[0]
	switch c := cur.(type) {
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		for k, vv := range c {
			out[k] = vv
		}
		out[seg] = assoc(c[seg], segs[1:], v)
		return out
	case []any:
		if i, ok := IndexOf(seg); ok {
			if i >= len(c) {
				return c
			}
			out := make([]any, len(c))
			copy(out, c)
			out[i] = assoc(c[i], segs[1:], v)
			return out
		}
	}
	if i, ok := IndexOf(seg); ok {
		out := make([]any, i+1)
		out[i] = assoc(nil, segs[1:], v)
		return out
	}
	return map[string]any{seg: assoc(nil, segs[1:], v)}
}

// InsertIndex returns a copy of root with item inserted into the array at
// arrayPath before index i. An index past the end appends.
func InsertIndex(root any, arrayPath string, i int, item any) any {
	cur, _ := Resolve(root, arrayPath)
	arr, _ := cur.([]any)
	if i < 0 {
		i = 0
	}
	if i > len(arr) {
		i = len(arr)
	}
	out := make([]any, 0, len(arr)+1)
	out = append(out, arr[:i]...)
	out = append(out, item)
	out = append(out, arr[i:]...)
	return Assoc(root, arrayPath, out)
}

// RemoveIndex returns a copy of root without the item at index i of the array
// at arrayPath. Out-of-range indices leave root unchanged.
func RemoveIndex(root any, arrayPath string, i int) any {
	cur, _ := Resolve(root, arrayPath)
	arr, ok := cur.([]any)
	if !ok || i < 0 || i >= len(arr) {
		return root
	}
	out := make([]any, 0, len(arr)-1)
	out = append(out, arr[:i]...)
	out = append(out, arr[i+1:]...)
	return Assoc(root, arrayPath, out)
}

// Len returns the length of the array at path, or 0.
func Len(root any, path string) int {
	v, _ := Resolve(root, path)
	arr, _ := v.([]any)
	return len(arr)
}

// Empty builds the structural default value of a shape: every non-optional
// field of an object is defaulted, arrays are empty, strings are "", numbers
// 0 and booleans false. An explicit Default wins. The Optional flag of s
// itself is ignored; it only applies when s is a field of an object.
func Empty(s *Shape) any {
	if s == nil {
		return nil
	}
	if s.Default != nil {
		return Clone(s.Default)
	}
	switch s.Kind {
	case KindObject:
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			if f.Shape == nil || (f.Shape.Optional && f.Shape.Default == nil) {
				continue
			}
			out[f.Name] = Empty(f.Shape)
		}
		return out
	case KindArray:
		return []any{}
	}
	switch s.Type {
	case TypeString:
		return ""
	case TypeNumber:
		return float64(0)
	case TypeBoolean:
		return false
	}
	return nil
}

// Clone deep-copies maps and slices of a plain value tree.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Clone(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Clone(t[i])
		}
		return out
	default:
		return v
	}
}

// Equal reports deep equality of two plain values.
func Equal(a, b any) bool { return reflect.DeepEqual(a, b) }
