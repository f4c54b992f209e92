package validators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reoring/formbind"
)

// Option customizes a built-in validator.
type Option func(*Rule)

// WithMessage replaces the default message. A custom message is not
// localized by the i18n interpolator.
func WithMessage(msg string) Option {
	return func(r *Rule) {
		r.message = msg
		r.key = ""
	}
}

// WithClock sets the time source of the date validators.
func WithClock(now func() time.Time) Option {
	return func(r *Rule) { r.now = now }
}

// Rule is a built-in validator. It fails its own node when its check does.
type Rule struct {
	name     string
	message  string
	key      string
	params   map[string]any
	required bool
	now      func() time.Time
	check    func(r *Rule, value any) bool
}

func newRule(name, key string, params map[string]any, check func(r *Rule, value any) bool, opts []Option) *Rule {
	r := &Rule{
		name:   name,
		key:    key,
		params: params,
		now:    time.Now,
		check:  check,
	}
	r.message = render(defaultMessages[key], params)
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Rule) Name() string          { return r.name }
func (r *Rule) Message() string       { return r.message }
func (r *Rule) ImpliesRequired() bool { return r.required }

// MessageKey identifies the default message for translation; it is empty
// once WithMessage was applied.
func (r *Rule) MessageKey() string { return r.key }

// MessageParams returns the parameters referenced by the message template.
func (r *Rule) MessageParams() map[string]any { return r.params }

func (r *Rule) Validate(_ context.Context, value any, _ *formbind.Node) (formbind.Result, error) {
	return formbind.Bool(r.check(r, value)), nil
}

// Message keys of the built-in validators.
const (
	KeyRequired        = "required"
	KeyNotNull         = "not_null"
	KeyNotEmpty        = "not_empty"
	KeyNotBlank        = "not_blank"
	KeyNull            = "null"
	KeyAssertTrue      = "assert_true"
	KeyAssertFalse     = "assert_false"
	KeyMin             = "min"
	KeyMax             = "max"
	KeyDecimalMin      = "decimal_min"
	KeyDecimalMinExcl  = "decimal_min_exclusive"
	KeyDecimalMax      = "decimal_max"
	KeyDecimalMaxExcl  = "decimal_max_exclusive"
	KeyNegative        = "negative"
	KeyNegativeOrZero  = "negative_or_zero"
	KeyPositive        = "positive"
	KeyPositiveOrZero  = "positive_or_zero"
	KeySize            = "size"
	KeyDigits          = "digits"
	KeyPast            = "past"
	KeyPastOrPresent   = "past_or_present"
	KeyFuture          = "future"
	KeyFutureOrPresent = "future_or_present"
	KeyPattern         = "pattern"
	KeyEmail           = "email"
	KeyNumber          = "number"
	KeyTag             = "tag"
)

var defaultMessages = map[string]string{
	KeyRequired:        "is required",
	KeyNotNull:         "must not be null",
	KeyNotEmpty:        "must not be empty",
	KeyNotBlank:        "must not be blank",
	KeyNull:            "must be null",
	KeyAssertTrue:      "must be true",
	KeyAssertFalse:     "must be false",
	KeyMin:             "must be greater than or equal to {value}",
	KeyMax:             "must be less than or equal to {value}",
	KeyDecimalMin:      "must be greater than or equal to {value}",
	KeyDecimalMinExcl:  "must be greater than {value}",
	KeyDecimalMax:      "must be less than or equal to {value}",
	KeyDecimalMaxExcl:  "must be less than {value}",
	KeyNegative:        "must be less than 0",
	KeyNegativeOrZero:  "must be less than or equal to 0",
	KeyPositive:        "must be greater than 0",
	KeyPositiveOrZero:  "must be greater than or equal to 0",
	KeySize:            "size must be between {min} and {max}",
	KeyDigits:          "numeric value out of bounds (<{integer} digits>.<{fraction} digits> expected)",
	KeyPast:            "must be a past date",
	KeyPastOrPresent:   "must be a date in the past or in the present",
	KeyFuture:          "must be a future date",
	KeyFutureOrPresent: "must be a date in the present or in the future",
	KeyPattern:         `must match "{regexp}"`,
	KeyEmail:           "must be a well-formed email address",
	KeyNumber:          "must be a number",
	KeyTag:             "must satisfy {tag}",
}

// DefaultMessages returns a copy of the English message templates by key.
func DefaultMessages() map[string]string {
	out := make(map[string]string, len(defaultMessages))
	for k, v := range defaultMessages {
		out[k] = v
	}
	return out
}

// render substitutes {name} placeholders with params.
func render(tmpl string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Render is the placeholder substitution used for the default messages. The
// i18n package reuses it for translated templates.
func Render(tmpl string, params map[string]any) string { return render(tmpl, params) }
