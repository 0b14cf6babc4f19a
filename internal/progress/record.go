package progress

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/samber/lo"
)

const dayKeyPrefix = "day_"

type Statistics struct {
	TotalStudyTime int     `json:"total_study_time"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentStreak  int     `json:"current_streak"`
}

// Record is the persisted progress document.
type Record struct {
	CurrentDay      int               `json:"current_day"`
	CompletedTasks  []string          `json:"completed_tasks"`
	TaskNotes       map[string]string `json:"task_notes"`
	CompletionDates map[string]string `json:"completion_dates"`
	Statistics      Statistics        `json:"statistics"`
}

func DefaultRecord() Record {
	return Record{
		CurrentDay:      1,
		CompletedTasks:  []string{},
		TaskNotes:       map[string]string{},
		CompletionDates: map[string]string{},
	}
}

func DayKey(day int) string {
	return dayKeyPrefix + strconv.Itoa(day)
}

// ParseDayKey accepts "day_N" as well as a bare "N".
func ParseDayKey(key string) (int, bool) {
	key = strings.TrimPrefix(strings.TrimSpace(key), dayKeyPrefix)
	day, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return day, true
}

// CompletedDays returns the completed days in the order they were recorded.
func (r Record) CompletedDays() []int {
	return lo.FilterMap(r.CompletedTasks, func(key string, _ int) (int, bool) {
		return ParseDayKey(key)
	})
}

func (r Record) IsCompleted(day int) bool {
	return lo.Contains(r.CompletedTasks, DayKey(day))
}

func (r Record) clone() Record {
	out := r
	out.CompletedTasks = append([]string{}, r.CompletedTasks...)
	out.TaskNotes = lo.Assign(map[string]string{}, r.TaskNotes)
	out.CompletionDates = lo.Assign(map[string]string{}, r.CompletionDates)
	return out
}

// overlay replaces every top-level field present in payload. Fields absent
// from payload keep their current value.
func overlay(r *Record, payload []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return err
	}
	if raw, ok := fields["current_day"]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		r.CurrentDay = v
	}
	if raw, ok := fields["completed_tasks"]; ok {
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		r.CompletedTasks = v
	}
	if raw, ok := fields["task_notes"]; ok {
		var v map[string]string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		r.TaskNotes = v
	}
	if raw, ok := fields["completion_dates"]; ok {
		var v map[string]string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		r.CompletionDates = v
	}
	if raw, ok := fields["statistics"]; ok {
		var v Statistics
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		r.Statistics = v
	}
	return nil
}

// normalize clamps, canonicalizes and deduplicates r and reports what it dropped.
func normalize(r *Record) []string {
	var dropped []string

	if r.CurrentDay < 1 {
		dropped = append(dropped, "current_day "+strconv.Itoa(r.CurrentDay))
		r.CurrentDay = 1
	}

	completed := make([]string, 0, len(r.CompletedTasks))
	seen := make(map[string]struct{}, len(r.CompletedTasks))
	for _, key := range r.CompletedTasks {
		day, ok := ParseDayKey(key)
		if !ok || day < 1 || day > catalog.TotalDays {
			dropped = append(dropped, "completed "+key)
			continue
		}
		canonical := DayKey(day)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		completed = append(completed, canonical)
	}
	r.CompletedTasks = completed

	notes := make(map[string]string, len(r.TaskNotes))
	for key, text := range r.TaskNotes {
		day, ok := ParseDayKey(key)
		if !ok {
			dropped = append(dropped, "note "+key)
			continue
		}
		if text != "" {
			notes[DayKey(day)] = text
		}
	}
	r.TaskNotes = notes

	dates := make(map[string]string, len(r.CompletionDates))
	for key, date := range r.CompletionDates {
		day, ok := ParseDayKey(key)
		if !ok {
			continue
		}
		if _, done := seen[DayKey(day)]; done {
			dates[DayKey(day)] = date
		}
	}
	r.CompletionDates = dates

	if r.Statistics.TotalStudyTime < 0 {
		r.Statistics.TotalStudyTime = 0
	}
	return dropped
}
