package relate

import (
	"regexp"
	"strings"
)

// The rest of the engine addresses metadata by canonical snake_case names
// only; getField is the single place where key-shape drift between
// collectors (snake_case) and enrichers (camelCase) is absorbed.

var snakeSegment = regexp.MustCompile(`_([a-z])`)
var camelSegment = regexp.MustCompile(`([A-Z])`)

func snakeToCamel(key string) string {
	return snakeSegment.ReplaceAllStringFunc(key, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

func camelToSnake(key string) string {
	return camelSegment.ReplaceAllStringFunc(key, func(m string) string {
		return "_" + strings.ToLower(m)
	})
}

// getField looks a key up by its exact spelling, then by its camelCase
// twin, then by its snake_case twin.
func getField(meta map[string]any, key string) (any, bool) {
	if meta == nil {
		return nil, false
	}
	if v, ok := meta[key]; ok {
		return v, true
	}
	if v, ok := meta[snakeToCamel(key)]; ok {
		return v, true
	}
	if v, ok := meta[camelToSnake(key)]; ok {
		return v, true
	}
	return nil, false
}

func getString(meta map[string]any, key string) string {
	v, ok := getField(meta, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getMapList(meta map[string]any, key string) []map[string]any {
	v, ok := getField(meta, key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func getStringList(meta map[string]any, key string) []string {
	v, ok := getField(meta, key)
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []any:
		var out []string
		for _, item := range vv {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	default:
		return nil
	}
}
