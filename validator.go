package formbind

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/formbind/model"
)

// Validator is a unit of business rule attached to a node.
//
// Validate receives the node's value as captured at the start of the pass and
// must treat it as its only input; node gives access to the binder for
// cross-field rules. A non-nil error (or a panic) is recorded as a single
// failure of the validator and never aborts the pass.
type Validator interface {
	Message() string
	Validate(ctx context.Context, value any, node *Node) (Result, error)
}

// RequiredImplier is implemented by validators whose presence marks the node
// as mandatory.
type RequiredImplier interface {
	ImpliesRequired() bool
}

// Named lets a validator report a stable name for diagnostics.
type Named interface {
	Name() string
}

// PropertyRef addresses a node for redirected errors. *Node, *model.Node and
// Property all satisfy it.
type PropertyRef interface {
	Path() string
}

// Property is a PropertyRef written as a path string. Dotted, bracketed and
// JSON Pointer forms are accepted.
type Property string

// Path returns the canonical form, or the raw string if it does not parse.
func (p Property) Path() string {
	cp, err := model.ParsePath(string(p))
	if err != nil {
		return string(p)
	}
	return cp
}

// Redirect attributes a failure to another property. An empty Message falls
// back to the validator's message.
type Redirect struct {
	Property PropertyRef
	Message  string
}

// Result is the outcome of one validator call: a pass, a failure of the
// validator's own node, or failures redirected to one or more properties.
type Result struct {
	failed    bool
	redirects []Redirect
}

// Pass reports success.
func Pass() Result { return Result{} }

// Fail reports a failure attributed to the validator's own node.
func Fail() Result { return Result{failed: true} }

// Bool maps true to Pass and false to Fail.
func Bool(ok bool) Result {
	if ok {
		return Pass()
	}
	return Fail()
}

// RedirectTo reports failures against the given properties. No redirects
// means success.
func RedirectTo(rs ...Redirect) Result {
	return Result{redirects: append([]Redirect(nil), rs...)}
}

// Passed reports whether the result carries no failure.
func (r Result) Passed() bool { return !r.failed && len(r.redirects) == 0 }

// Redirects returns the redirected failures.
func (r Result) Redirects() []Redirect { return r.redirects }

// Target is one normalized failure: where it lands and with what message.
type Target struct {
	Path    string
	Message string
}

// Expand normalizes the result into zero or more targets. own is the path of
// the validator's node and message its default message.
func (r Result) Expand(own, message string) []Target {
	if r.failed {
		return []Target{{Path: own, Message: message}}
	}
	if len(r.redirects) == 0 {
		return nil
	}
	out := make([]Target, 0, len(r.redirects))
	for _, rd := range r.redirects {
		t := Target{Path: own, Message: rd.Message}
		if rd.Property != nil {
			t.Path = rd.Property.Path()
		}
		if t.Message == "" {
			t.Message = message
		}
		out = append(out, t)
	}
	return out
}

// FuncValidator adapts a function to Validator.
type FuncValidator struct {
	name     string
	message  string
	required bool
	fn       func(ctx context.Context, value any, node *Node) (Result, error)
}

// Check builds a validator from fn.
func Check(name, message string, fn func(ctx context.Context, value any, node *Node) (Result, error)) *FuncValidator {
	return &FuncValidator{name: name, message: message, fn: fn}
}

// Predicate builds a validator that fails its own node when ok returns false.
func Predicate(name, message string, ok func(value any) bool) *FuncValidator {
	return Check(name, message, func(_ context.Context, value any, _ *Node) (Result, error) {
		return Bool(ok(value)), nil
	})
}

// Required marks the validator as implying a mandatory field.
func (v *FuncValidator) Required() *FuncValidator {
	v.required = true
	return v
}

func (v *FuncValidator) Name() string          { return v.name }
func (v *FuncValidator) Message() string       { return v.message }
func (v *FuncValidator) ImpliesRequired() bool { return v.required }

func (v *FuncValidator) Validate(ctx context.Context, value any, node *Node) (Result, error) {
	return v.fn(ctx, value, node)
}

func validatorName(v Validator) string {
	if n, ok := v.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	s := fmt.Sprintf("%T", v)
	s = strings.TrimLeft(s, "*")
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func impliesRequired(v Validator) bool {
	r, ok := v.(RequiredImplier)
	return ok && r.ImpliesRequired()
}

// sameValidator compares validator identity without panicking on
// non-comparable dynamic types.
func sameValidator(a, b Validator) bool {
	if a == nil || b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
