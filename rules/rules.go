package rules

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/model"
)

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// rule is a record-level validator. Paths are relative to the node the rule
// is attached to; findings are redirected to absolute paths.
type rule struct {
	name    string
	message string
	check   func(ctx context.Context, value any, base string) ([]formbind.Redirect, error)
}

func (r *rule) Name() string    { return r.name }
func (r *rule) Message() string { return r.message }

func (r *rule) Validate(ctx context.Context, value any, node *formbind.Node) (formbind.Result, error) {
	base := ""
	if node != nil {
		base = node.Path()
	}
	rs, err := r.check(ctx, value, base)
	if err != nil {
		return formbind.Result{}, err
	}
	return formbind.RedirectTo(rs...), nil
}

func at(base, rel string) formbind.Property {
	return formbind.Property(model.Join(base, rel))
}

// Equal fails when the values at a and b differ. The failure is reported on
// b.
func Equal(a, b, message string) formbind.Validator {
	if message == "" {
		message = "values must match"
	}
	return pair("Equal", a, b, message, func(x, y any) bool { return reflect.DeepEqual(x, y) })
}

// NotEqual fails when the values at a and b are equal. The failure is
// reported on b.
func NotEqual(a, b, message string) formbind.Validator {
	if message == "" {
		message = "values must differ"
	}
	return pair("NotEqual", a, b, message, func(x, y any) bool { return !reflect.DeepEqual(x, y) })
}

func pair(name, a, b, message string, ok func(x, y any) bool) formbind.Validator {
	pa, pb := mustPath(a), mustPath(b)
	return &rule{name: name, message: message, check: func(_ context.Context, v any, base string) ([]formbind.Redirect, error) {
		x, _ := model.Resolve(v, pa)
		y, _ := model.Resolve(v, pb)
		if ok(x, y) {
			return nil, nil
		}
		return []formbind.Redirect{{Property: at(base, pb), Message: message}}, nil
	}}
}

// AtLeastOne ensures the collection at collectionPath has at least 1
// element. A missing collection is not reported.
func AtLeastOne(collectionPath, message string) formbind.Validator {
	p := mustPath(collectionPath)
	if message == "" {
		message = "at least 1 item is required"
	}
	return &rule{name: "AtLeastOne", message: message, check: func(_ context.Context, v any, base string) ([]formbind.Redirect, error) {
		val, ok := model.Resolve(v, p)
		if !ok || val == nil {
			return nil, nil
		}
		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Len() == 0 {
				return []formbind.Redirect{{Property: at(base, p), Message: message}}, nil
			}
		}
		return nil, nil
	}}
}

// UniqueBy ensures elements in a collection have unique key values.
// keyPath is relative to each element. Every repeated occurrence is reported
// on its own key property.
// Note: keys are compared by their fmt.Sprint rendering, so mixed-type keys
// may collide.
func UniqueBy(collectionPath, keyPath, message string) formbind.Validator {
	cp, kp := mustPath(collectionPath), mustPath(keyPath)
	if message == "" {
		message = "duplicate value"
	}
	return &rule{name: "UniqueBy", message: message, check: func(_ context.Context, v any, base string) ([]formbind.Redirect, error) {
		val, _ := model.Resolve(v, cp)
		items, ok := val.([]any)
		if !ok {
			return nil, nil
		}
		seen := map[string]int{}
		var out []formbind.Redirect
		for i, elem := range items {
			kv, ok := model.Resolve(elem, kp)
			if !ok {
				continue
			}
			key := fmt.Sprint(kv)
			if _, dup := seen[key]; dup {
				out = append(out, formbind.Redirect{
					Property: at(base, model.Join(model.JoinIndex(cp, i), kp)),
					Message:  message,
				})
			} else {
				seen[key] = i
			}
		}
		return out, nil
	}}
}

// Conditional composes conditional execution of rules.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that evaluates a path against a value using an
// operator. The path is relative to the node the rule is attached to.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: mustPath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then runs validators only when the condition holds. Their findings are
// concatenated in order.
func (c Conditional) Then(validators ...formbind.Validator) formbind.Validator {
	inner := And(validators...).(*rule)
	return &rule{name: "If", message: inner.message, check: func(ctx context.Context, v any, base string) ([]formbind.Redirect, error) {
		if !c.eval(v) {
			return nil, nil
		}
		return inner.check(ctx, v, base)
	}}
}

func (c Conditional) eval(v any) bool {
	// composite AND
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(v) {
				return false
			}
		}
		return true
	}
	// composite OR
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.eval(v) {
				return true
			}
		}
		return false
	}
	cur, ok := model.Resolve(v, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// And runs every validator and concatenates their findings.
func And(validators ...formbind.Validator) formbind.Validator {
	return &rule{name: "And", message: firstMessage(validators), check: func(ctx context.Context, v any, base string) ([]formbind.Redirect, error) {
		var out []formbind.Redirect
		for _, val := range validators {
			if val == nil {
				continue
			}
			rs, err := run(ctx, val, v, base)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
		}
		return out, nil
	}}
}

// Or succeeds if any validator passes. When all fail, the branch with the
// fewest findings is reported.
func Or(validators ...formbind.Validator) formbind.Validator {
	return &rule{name: "Or", message: firstMessage(validators), check: func(ctx context.Context, v any, base string) ([]formbind.Redirect, error) {
		var best []formbind.Redirect
		bestSet := false
		for _, val := range validators {
			if val == nil {
				continue
			}
			rs, err := run(ctx, val, v, base)
			if err != nil {
				return nil, err
			}
			if len(rs) == 0 {
				return nil, nil
			}
			if !bestSet || len(rs) < len(best) {
				best = rs
				bestSet = true
			}
		}
		return best, nil
	}}
}

// run evaluates a nested validator against the same value and turns its
// result into absolute redirects.
func run(ctx context.Context, val formbind.Validator, v any, base string) ([]formbind.Redirect, error) {
	if r, ok := val.(*rule); ok {
		return r.check(ctx, v, base)
	}
	res, err := val.Validate(ctx, v, nil)
	if err != nil {
		return nil, err
	}
	var out []formbind.Redirect
	for _, t := range res.Expand(base, val.Message()) {
		out = append(out, formbind.Redirect{Property: formbind.Property(t.Path), Message: t.Message})
	}
	return out, nil
}

func firstMessage(vs []formbind.Validator) string {
	for _, v := range vs {
		if v != nil {
			return v.Message()
		}
	}
	return ""
}

func mustPath(p string) string {
	cp, err := model.ParsePath(p)
	if err != nil {
		panic(fmt.Sprintf("rules: %v", err))
	}
	return cp
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return equalValues(cur, want)
	case Ne:
		return !equalValues(cur, want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, want)
	default:
		return false
	}
}

// equalValues treats numbers of different Go types as equal when their
// values are, so If("qty", Eq, 1) matches a decoded float64(1).
func equalValues(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func compareOrdered(cur any, op Op, want any) bool {
	a, okA := toFloat(cur)
	b, okB := toFloat(want)
	if !okA || !okB {
		return false
	}
	switch op {
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
