package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

//go:embed curriculum.json
var embeddedCurriculum []byte

var weekNumberPattern = regexp.MustCompile(`\d+`)

// Default returns the curriculum shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCurriculum, true)
}

// Load reads a curriculum document from path.
func Load(path string, strict bool) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data, strict)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a curriculum document. Numeric fields may be numbers or
// numeric strings; string lists may be arrays or comma separated strings.
func Parse(data []byte, strict bool) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}

	rawStages, ok := root["stages"].([]any)
	if !ok {
		return nil, errors.New("catalog has no stages")
	}

	stages := make([]Stage, 0, len(rawStages))
	for i, raw := range rawStages {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("stage %d is not an object", i)
		}
		stages = append(stages, normalizeStage(m))
	}

	return New(pickString(root, "title", ""), pickString(root, "description", ""), stages, strict)
}

func normalizeStage(data map[string]any) Stage {
	stage := Stage{
		ID:          pickInt(data, "id"),
		Name:        pickString(data, "name", ""),
		Description: pickString(data, "description", ""),
		Color:       pickString(data, "color", ""),
	}

	switch weeks := data["weeks"].(type) {
	case string:
		stage.WeekLabel = strings.TrimSpace(weeks)
		stage.Weeks = parseWeekRange(weeks)
	case []any:
		stage.Weeks = normalizeIntList(weeks)
	}
	if label := pickString(data, "week_label", ""); label != "" {
		stage.WeekLabel = label
	}

	if rawWeeks, ok := data["weeks_detail"].([]any); ok {
		for _, rw := range rawWeeks {
			wm, ok := rw.(map[string]any)
			if !ok {
				continue
			}
			week := Week{
				Week:  pickInt(wm, "week"),
				Title: pickString(wm, "title", ""),
			}
			if rawDays, ok := wm["days"].([]any); ok {
				for _, rd := range rawDays {
					if dm, ok := rd.(map[string]any); ok {
						week.Days = append(week.Days, normalizeEntry(dm, stage, week))
					}
				}
			}
			stage.WeekDetails = append(stage.WeekDetails, week)
		}
	}

	if len(stage.Weeks) == 0 {
		stage.Weeks = lo.Uniq(lo.Map(stage.WeekDetails, func(w Week, _ int) int { return w.Week }))
	}
	return stage
}

func normalizeEntry(data map[string]any, stage Stage, week Week) Entry {
	entry := Entry{
		Day:           pickInt(data, "day"),
		Title:         pickString(data, "title", ""),
		Content:       pickString(data, "content", ""),
		Tasks:         normalizeStringList(data["tasks"]),
		Difficulty:    pickString(data, "difficulty", ""),
		EstimatedTime: pickString(data, "estimated_time", ""),
		StageID:       stage.ID,
		StageName:     stage.Name,
		Week:          week.Week,
		WeekTitle:     week.Title,
	}
	if rawExamples, ok := data["code_examples"].([]any); ok {
		for _, re := range rawExamples {
			if m, ok := re.(map[string]any); ok {
				entry.CodeExamples = append(entry.CodeExamples, CodeExample{
					Title: pickString(m, "title", ""),
					Code:  pickRawString(m, "code"),
				})
			}
		}
	}
	return entry
}

// parseWeekRange understands labels like "第1-3周", "weeks 4-8" or "第20周".
func parseWeekRange(label string) []int {
	nums := lo.FilterMap(weekNumberPattern.FindAllString(label, -1), func(s string, _ int) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	})
	switch {
	case len(nums) == 0:
		return nil
	case len(nums) == 1:
		return []int{nums[0]}
	case nums[1] < nums[0]:
		return nil
	default:
		return lo.RangeFrom(nums[0], nums[1]-nums[0]+1)
	}
}

func pickString(m map[string]any, key string, fallback string) string {
	if val, ok := m[key]; ok {
		switch v := val.(type) {
		case string:
			return strings.TrimSpace(v)
		case json.Number:
			return v.String()
		case fmt.Stringer:
			return strings.TrimSpace(v.String())
		}
	}
	return fallback
}

// pickRawString keeps surrounding whitespace, which matters for code.
func pickRawString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func pickInt(m map[string]any, key string) int {
	if val, ok := m[key]; ok {
		return toInt(val)
	}
	return 0
}

func toInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, _ := v.Float64()
			return int(f)
		}
		return int(i)
	case string:
		vv := strings.TrimSpace(v)
		if vv == "" {
			return 0
		}
		if parsed, err := strconv.Atoi(vv); err == nil {
			return parsed
		}
	}
	return 0
}

func normalizeIntList(values []any) []int {
	return lo.Uniq(lo.Filter(lo.Map(values, func(v any, _ int) int { return toInt(v) }), func(n int, _ int) bool { return n > 0 }))
}

func normalizeStringList(v any) []string {
	result := make([]string, 0)
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if str, ok := item.(string); ok {
				result = append(result, strings.TrimSpace(str))
			}
		}
	case []string:
		for _, item := range val {
			result = append(result, strings.TrimSpace(item))
		}
	case string:
		for _, piece := range strings.Split(val, ",") {
			result = append(result, strings.TrimSpace(piece))
		}
	}
	return lo.UniqBy(lo.Filter(result, func(item string, _ int) bool { return item != "" }), strings.ToLower)
}
