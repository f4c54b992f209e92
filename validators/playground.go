package validators

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var playground = sync.OnceValue(func() *validator.Validate { return validator.New() })

// Email requires a well-formed email address. nil and "" pass.
func Email(opts ...Option) *Rule {
	return newRule("Email", KeyEmail, nil, func(_ *Rule, v any) bool {
		if v == nil || v == "" {
			return true
		}
		s, ok := v.(string)
		return ok && playground().Var(s, "email") == nil
	}, opts)
}

// Tag checks the value against a go-playground validation tag such as
// "uuid4" or "gte=1,lte=10". nil passes unless the tag contains "required".
func Tag(tag string, opts ...Option) *Rule {
	return newRule("Tag", KeyTag, map[string]any{"tag": tag}, func(_ *Rule, v any) bool {
		if v == nil {
			return !strings.Contains(tag, "required")
		}
		return playground().Var(v, tag) == nil
	}, opts)
}
