package validators

import (
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// length returns the length of strings (in runes), slices and maps.
func length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}

// Required fails for nil, empty strings and empty arrays and marks the node
// as mandatory.
func Required(opts ...Option) *Rule {
	r := newRule("Required", KeyRequired, nil, func(_ *Rule, v any) bool {
		if v == nil {
			return false
		}
		if n, ok := length(v); ok {
			return n > 0
		}
		if f, ok := v.(float64); ok {
			return !math.IsNaN(f)
		}
		return true
	}, opts)
	r.required = true
	return r
}

// NotNull fails for nil.
func NotNull(opts ...Option) *Rule {
	r := newRule("NotNull", KeyNotNull, nil, func(_ *Rule, v any) bool { return v != nil }, opts)
	r.required = true
	return r
}

// NotEmpty fails for nil and for empty strings, arrays and objects.
func NotEmpty(opts ...Option) *Rule {
	r := newRule("NotEmpty", KeyNotEmpty, nil, func(_ *Rule, v any) bool {
		if v == nil {
			return false
		}
		n, ok := length(v)
		return !ok || n > 0
	}, opts)
	r.required = true
	return r
}

// NotBlank requires a string with at least one non-whitespace character.
func NotBlank(opts ...Option) *Rule {
	r := newRule("NotBlank", KeyNotBlank, nil, func(_ *Rule, v any) bool {
		s, ok := v.(string)
		return ok && strings.TrimSpace(s) != ""
	}, opts)
	r.required = true
	return r
}

// Null requires nil.
func Null(opts ...Option) *Rule {
	return newRule("Null", KeyNull, nil, func(_ *Rule, v any) bool { return v == nil }, opts)
}

// AssertTrue requires true. nil passes.
func AssertTrue(opts ...Option) *Rule {
	return newRule("AssertTrue", KeyAssertTrue, nil, func(_ *Rule, v any) bool {
		b, ok := v.(bool)
		return v == nil || (ok && b)
	}, opts)
}

// AssertFalse requires false. nil passes.
func AssertFalse(opts ...Option) *Rule {
	return newRule("AssertFalse", KeyAssertFalse, nil, func(_ *Rule, v any) bool {
		b, ok := v.(bool)
		return v == nil || (ok && !b)
	}, opts)
}

// compare builds a numeric rule; nil passes, non-numbers fail.
func compare(name, key string, params map[string]any, ok func(f float64) bool, opts []Option) *Rule {
	return newRule(name, key, params, func(_ *Rule, v any) bool {
		if v == nil {
			return true
		}
		f, isNum := number(v)
		return isNum && ok(f)
	}, opts)
}

// Min requires a number greater than or equal to min.
func Min(min float64, opts ...Option) *Rule {
	return compare("Min", KeyMin, map[string]any{"value": formatNumber(min)}, func(f float64) bool { return f >= min }, opts)
}

// Max requires a number less than or equal to max.
func Max(max float64, opts ...Option) *Rule {
	return compare("Max", KeyMax, map[string]any{"value": formatNumber(max)}, func(f float64) bool { return f <= max }, opts)
}

// DecimalMin requires a number above min (or equal when inclusive).
func DecimalMin(min float64, inclusive bool, opts ...Option) *Rule {
	key := KeyDecimalMin
	if !inclusive {
		key = KeyDecimalMinExcl
	}
	return compare("DecimalMin", key, map[string]any{"value": formatNumber(min)}, func(f float64) bool {
		return f > min || (inclusive && f == min)
	}, opts)
}

// DecimalMax requires a number below max (or equal when inclusive).
func DecimalMax(max float64, inclusive bool, opts ...Option) *Rule {
	key := KeyDecimalMax
	if !inclusive {
		key = KeyDecimalMaxExcl
	}
	return compare("DecimalMax", key, map[string]any{"value": formatNumber(max)}, func(f float64) bool {
		return f < max || (inclusive && f == max)
	}, opts)
}

func Negative(opts ...Option) *Rule {
	return compare("Negative", KeyNegative, nil, func(f float64) bool { return f < 0 }, opts)
}

func NegativeOrZero(opts ...Option) *Rule {
	return compare("NegativeOrZero", KeyNegativeOrZero, nil, func(f float64) bool { return f <= 0 }, opts)
}

func Positive(opts ...Option) *Rule {
	return compare("Positive", KeyPositive, nil, func(f float64) bool { return f > 0 }, opts)
}

func PositiveOrZero(opts ...Option) *Rule {
	return compare("PositiveOrZero", KeyPositiveOrZero, nil, func(f float64) bool { return f >= 0 }, opts)
}

// Unbounded is the max accepted by Size for no upper limit.
const Unbounded = math.MaxInt32

// Size bounds the length of a string, array or object. nil passes.
func Size(min, max int, opts ...Option) *Rule {
	if max < 0 {
		max = Unbounded
	}
	return newRule("Size", KeySize, map[string]any{"min": min, "max": max}, func(_ *Rule, v any) bool {
		if v == nil {
			return true
		}
		n, ok := length(v)
		return ok && n >= min && n <= max
	}, opts)
}

// Digits bounds the integer and fraction digits of a number. nil passes.
func Digits(integer, fraction int, opts ...Option) *Rule {
	return newRule("Digits", KeyDigits, map[string]any{"integer": integer, "fraction": fraction}, func(_ *Rule, v any) bool {
		if v == nil {
			return true
		}
		s, ok := decimal(v)
		if !ok {
			return false
		}
		i, f := digits(s)
		return i <= integer && f <= fraction
	}, opts)
}

// Pattern requires a string matching re in full. nil passes.
func Pattern(re *regexp.Regexp, opts ...Option) *Rule {
	full := regexp.MustCompile(`^(?:` + re.String() + `)$`)
	return newRule("Pattern", KeyPattern, map[string]any{"regexp": re.String()}, func(_ *Rule, v any) bool {
		if v == nil {
			return true
		}
		s, ok := v.(string)
		return ok && full.MatchString(s)
	}, opts)
}

// IsNumber requires a finite number. nil passes only when optional is set.
func IsNumber(optional bool, opts ...Option) *Rule {
	return newRule("IsNumber", KeyNumber, nil, func(_ *Rule, v any) bool {
		if v == nil {
			return optional
		}
		return isNumeric(v)
	}, opts)
}
