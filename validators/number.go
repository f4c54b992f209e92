package validators

import (
	"math"
	"strconv"
	"strings"
)

// number converts the numeric forms a form value can take (Go numbers,
// json.Number and numeric strings) to float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// isNumeric reports whether v is a Go number (strings excluded).
func isNumeric(v any) bool {
	if _, ok := v.(string); ok {
		return false
	}
	f, ok := number(v)
	return ok && !math.IsInf(f, 0)
}

// decimal renders v as a plain decimal string for digit counting.
func decimal(v any) (string, bool) {
	switch n := v.(type) {
	case string:
		s := strings.TrimSpace(n)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", false
		}
		return s, true
	case interface{ String() string }:
		if _, ok := number(v); ok {
			return n.String(), true
		}
	}
	f, ok := number(v)
	if !ok || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// digits counts integer and fraction digits of a decimal string, ignoring
// sign, leading integer zeros and trailing fraction zeros.
func digits(s string) (integer, fraction int) {
	s = strings.TrimLeft(s, "+-")
	ip, fp, _ := strings.Cut(s, ".")
	ip = strings.TrimLeft(ip, "0")
	fp = strings.TrimRight(fp, "0")
	return len(ip), len(fp)
}

// param reads a numeric constraint parameter.
func param(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	return number(v)
}

func intParam(params map[string]any, key string, def int) int {
	if f, ok := param(params, key); ok {
		return int(f)
	}
	return def
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
