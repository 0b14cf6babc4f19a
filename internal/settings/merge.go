package settings

import (
	"encoding/json"
	"strings"
)

// Merge overlays loaded on top of defaults. Nested objects are merged
// recursively; keys that only exist in loaded are kept.
func Merge(defaults, loaded map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(loaded))
	for k, vd := range defaults {
		vl, exists := loaded[k]
		if !exists {
			out[k] = vd
			continue
		}
		out[k] = mergeValue(vd, vl)
	}
	for k, vl := range loaded {
		if _, exists := out[k]; !exists {
			out[k] = vl
		}
	}
	return out
}

func mergeValue(vd, vl any) any {
	dm, dok := toAnyMap(vd)
	lm, lok := toAnyMap(vl)
	if dok && lok {
		return Merge(dm, lm)
	}
	return vl
}

func toAnyMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func defaultsMap() map[string]any {
	data, err := json.Marshal(Defaults())
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		panic(err)
	}
	return m
}

var legacyKeys = buildLegacyKeys()

func buildLegacyKeys() map[string]string {
	defaults := defaultsMap()
	out := make(map[string]string)
	for _, section := range Sections {
		fields, _ := toAnyMap(defaults[section])
		for field := range fields {
			if _, taken := out[field]; !taken {
				out[field] = section + "." + field
			}
		}
	}
	return out
}

// MigrateLegacyKey maps a flat key from older settings files (for example
// "theme") to its dotted path ("appearance.theme"). Dotted keys and unknown
// keys are returned unchanged.
func MigrateLegacyKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, ".") {
		return key
	}
	if path, ok := legacyKeys[key]; ok {
		return path
	}
	return key
}
