package formbind

import "github.com/reoring/formbind/model"

// ParameterMapper maps a server-reported parameter name onto a canonical
// property path of shape. ok is false when the name cannot be placed; the
// binder then keeps the raw name.
type ParameterMapper func(shape *model.Shape, name string) (path string, ok bool)

// DefaultParameterMapper accepts dotted ("products.0.description"),
// bracketed ("products[0].description") and JSON Pointer names and tries, in
// order: the full path; the path without its first segment, since endpoint
// parameters are usually prefixed with the argument name ("entity.name");
// and finally a unique field with the same leaf name reachable through
// objects.
func DefaultParameterMapper(shape *model.Shape, name string) (string, bool) {
	p, err := model.ParsePath(name)
	if err != nil || p == "" {
		return "", false
	}
	if _, ok := shape.At(p); ok {
		return p, true
	}
	segs := model.Split(p)
	if len(segs) > 1 {
		rp := joinSegs(segs[1:])
		if _, ok := shape.At(rp); ok {
			return rp, true
		}
	}
	leaf := segs[len(segs)-1]
	match := ""
	for _, cand := range shape.Paths() {
		if _, last := model.Parent(cand); last == leaf {
			if match != "" {
				return "", false
			}
			match = cand
		}
	}
	return match, match != ""
}

func joinSegs(segs []string) string {
	p := ""
	for _, s := range segs {
		p = model.Join(p, s)
	}
	return p
}
