package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// coerceArgs converts arguments to the types declared in spec where that can be
// done without guessing. Values that do not convert are passed through so the
// tool can report on them itself.
func coerceArgs(spec Spec, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		p, ok := spec.param(k)
		if !ok {
			out[k] = v
			continue
		}
		out[k] = coerceValue(p.Type, v)
	}
	return out
}

func coerceValue(typ string, v any) any {
	switch typ {
	case TypeString:
		switch x := v.(type) {
		case string:
			return x
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case int:
			return strconv.Itoa(x)
		case bool:
			return strconv.FormatBool(x)
		}
	case TypeInteger:
		switch x := v.(type) {
		case int:
			return x
		case int64:
			return int(x)
		case float64:
			if n, ok := floatToInt(x); ok {
				return n
			}
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return n
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				if n, ok := floatToInt(f); ok {
					return n
				}
			}
		}
	case TypeNumber:
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f
			}
		}
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b
			}
		case float64:
			return x != 0
		}
	}
	return v
}

// floatToInt converts x when it is integral and fits in an int.
func floatToInt(x float64) (int, bool) {
	if x != math.Trunc(x) || x < float64(math.MinInt) || x >= -float64(math.MinInt) {
		return 0, false
	}
	return int(x), true
}

// String returns args[key] as a string, or def when it is missing or empty.
func String(args map[string]any, key, def string) string {
	switch v := args[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return def
}

// Int returns args[key] as an int, or def when it is missing or not numeric.
func Int(args map[string]any, key string, def int) int {
	if n, ok := coerceValue(TypeInteger, args[key]).(int); ok {
		return n
	}
	return def
}
