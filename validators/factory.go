package validators

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/model"
)

// ErrUnknownConstraint is returned for constraints without a builder.
var ErrUnknownConstraint = errors.New("validators: unknown constraint")

// Builder turns a declared constraint into a validator.
type Builder func(c model.Constraint, shape *model.Shape) (formbind.Validator, error)

// Registry maps constraint names to builders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry holding the built-in constraints.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	for name, b := range builtins() {
		r.builders[name] = b
	}
	return r
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	r.builders[name] = b
	r.mu.Unlock()
}

// Build returns the validator for c.
func (r *Registry) Build(c model.Constraint, shape *model.Shape) (formbind.Validator, error) {
	r.mu.RLock()
	b, ok := r.builders[c.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConstraint, c.Name)
	}
	return b(c, shape)
}

// Factory adapts the registry to formbind.Options.Constraints.
func (r *Registry) Factory() formbind.ConstraintFactory { return r.Build }

var defaultRegistry = NewRegistry()

// Register adds a builder to the default registry.
func Register(name string, b Builder) { defaultRegistry.Register(name, b) }

// Factory returns the constraint factory of the default registry.
func Factory() formbind.ConstraintFactory { return defaultRegistry.Factory() }

// FromConstraint builds a validator from the default registry.
func FromConstraint(c model.Constraint) (formbind.Validator, error) {
	return defaultRegistry.Build(c, nil)
}

// messageOpts honours a "message" parameter on any constraint.
func messageOpts(c model.Constraint) []Option {
	if m, ok := c.Params["message"].(string); ok && m != "" {
		return []Option{WithMessage(m)}
	}
	return nil
}

func simple(ctor func(...Option) *Rule) Builder {
	return func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
		return ctor(messageOpts(c)...), nil
	}
}

func bound(name string, ctor func(float64, ...Option) *Rule) Builder {
	return func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
		v, ok := param(c.Params, "value")
		if !ok {
			return nil, fmt.Errorf("validators: %s requires a numeric value parameter", name)
		}
		return ctor(v, messageOpts(c)...), nil
	}
}

func decimalBound(name string, ctor func(float64, bool, ...Option) *Rule) Builder {
	return func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
		v, ok := param(c.Params, "value")
		if !ok {
			return nil, fmt.Errorf("validators: %s requires a numeric value parameter", name)
		}
		inclusive := true
		if b, ok := c.Params["inclusive"].(bool); ok {
			inclusive = b
		}
		return ctor(v, inclusive, messageOpts(c)...), nil
	}
}

func builtins() map[string]Builder {
	return map[string]Builder{
		"Required":        simple(Required),
		"NotNull":         simple(NotNull),
		"NotEmpty":        simple(NotEmpty),
		"NotBlank":        simple(NotBlank),
		"Null":            simple(Null),
		"AssertTrue":      simple(AssertTrue),
		"AssertFalse":     simple(AssertFalse),
		"Negative":        simple(Negative),
		"NegativeOrZero":  simple(NegativeOrZero),
		"Positive":        simple(Positive),
		"PositiveOrZero":  simple(PositiveOrZero),
		"Past":            simple(Past),
		"PastOrPresent":   simple(PastOrPresent),
		"Future":          simple(Future),
		"FutureOrPresent": simple(FutureOrPresent),
		"Email":           simple(Email),
		"Min":             bound("Min", Min),
		"Max":             bound("Max", Max),
		"DecimalMin":      decimalBound("DecimalMin", DecimalMin),
		"DecimalMax":      decimalBound("DecimalMax", DecimalMax),
		"Size": func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
			return Size(intParam(c.Params, "min", 0), intParam(c.Params, "max", Unbounded), messageOpts(c)...), nil
		},
		"Digits": func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
			i, okI := param(c.Params, "integer")
			f, okF := param(c.Params, "fraction")
			if !okI || !okF {
				return nil, errors.New("validators: Digits requires integer and fraction parameters")
			}
			return Digits(int(i), int(f), messageOpts(c)...), nil
		},
		"Pattern": func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
			expr, _ := c.Params["regexp"].(string)
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("validators: Pattern: %w", err)
			}
			return Pattern(re, messageOpts(c)...), nil
		},
		"IsNumber": func(c model.Constraint, shape *model.Shape) (formbind.Validator, error) {
			return IsNumber(shape != nil && shape.Optional, messageOpts(c)...), nil
		},
		"Tag": func(c model.Constraint, _ *model.Shape) (formbind.Validator, error) {
			tag, _ := c.Params["tag"].(string)
			if tag == "" {
				return nil, errors.New("validators: Tag requires a tag parameter")
			}
			return Tag(tag, messageOpts(c)...), nil
		},
	}
}
