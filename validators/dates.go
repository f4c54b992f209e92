package validators

import "time"

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02T15:04:05"
)

// parseTemporal accepts time.Time, RFC 3339 timestamps, local date-times and
// plain dates. dateOnly is set for plain dates.
func parseTemporal(v any) (t time.Time, dateOnly bool, ok bool) {
	switch x := v.(type) {
	case time.Time:
		return x, false, true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t, false, true
		}
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t, false, true
		}
		if t, err := time.ParseInLocation(layoutDateTime, x, time.Local); err == nil {
			return t, false, true
		}
		if t, err := time.Parse(layoutDate, x); err == nil {
			return t, true, true
		}
	}
	return time.Time{}, false, false
}

// temporalCmp returns -1, 0 or 1 comparing v with now. Plain dates compare
// by calendar day in now's location.
func temporalCmp(v any, now time.Time) (int, bool) {
	t, dateOnly, ok := parseTemporal(v)
	if !ok {
		return 0, false
	}
	if dateOnly {
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return t.Compare(today), true
	}
	return t.Compare(now), true
}

func temporal(name, key string, accept func(cmp int) bool, opts []Option) *Rule {
	return newRule(name, key, nil, func(r *Rule, v any) bool {
		if v == nil {
			return true
		}
		c, ok := temporalCmp(v, r.now())
		return ok && accept(c)
	}, opts)
}

// Past requires a date or instant before now. nil passes.
func Past(opts ...Option) *Rule {
	return temporal("Past", KeyPast, func(c int) bool { return c < 0 }, opts)
}

func PastOrPresent(opts ...Option) *Rule {
	return temporal("PastOrPresent", KeyPastOrPresent, func(c int) bool { return c <= 0 }, opts)
}

// Future requires a date or instant after now. nil passes.
func Future(opts ...Option) *Rule {
	return temporal("Future", KeyFuture, func(c int) bool { return c > 0 }, opts)
}

func FutureOrPresent(opts ...Option) *Rule {
	return temporal("FutureOrPresent", KeyFutureOrPresent, func(c int) bool { return c >= 0 }, opts)
}
