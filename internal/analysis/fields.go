package analysis

import (
	"strings"

	"github.com/spf13/cast"
)

// Upstream response versions renamed fields more than once. Each picker
// walks its alias list in order; the first present key wins.

func pickString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			s := strings.TrimSpace(cast.ToString(v))
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func pickFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if f, err := cast.ToFloat64E(v); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func pickInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if n, err := cast.ToIntE(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func pickMap(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if sub, ok := v.(map[string]any); ok {
				return sub, true
			}
		}
	}
	return nil, false
}

func pickList(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if list, ok := v.([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

// pickStringList accepts either a real list or a single string value.
func pickStringList(m map[string]any, keys ...string) ([]string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case []any:
			out := make([]string, 0, len(val))
			for _, item := range val {
				if s := strings.TrimSpace(cast.ToString(item)); s != "" {
					out = append(out, s)
				}
			}
			return out, true
		case []string:
			return val, true
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return []string{s}, true
			}
		}
	}
	return nil, false
}

// nonNegative clamps numeric dataset fields; the canonical record never
// carries negative statistics.
func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func nonNegativeInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// asEntryMap coerces one raw list element into a map, tolerating
// non-object garbage by returning ok=false.
func asEntryMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
