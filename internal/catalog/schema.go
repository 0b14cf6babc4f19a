package catalog

import (
	"errors"
	"fmt"
)

const (
	// TotalDays is the fixed length of the curriculum.
	TotalDays = 140
	// TotalWeeks is TotalDays split into seven-day weeks.
	TotalWeeks  = 20
	DaysPerWeek = 7
)

// Entry represents one learning day of the curriculum.
type Entry struct {
	Day           int           `json:"day"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Tasks         []string      `json:"tasks"`
	Difficulty    string        `json:"difficulty"`
	EstimatedTime string        `json:"estimated_time"`
	StageID       int           `json:"stage_id"`
	StageName     string        `json:"stage_name"`
	Week          int           `json:"week"`
	WeekTitle     string        `json:"week_title"`
	CodeExamples  []CodeExample `json:"code_examples,omitempty"`
}

// CodeExample is a titled snippet attached to an entry.
type CodeExample struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

// Week groups the authored entries of one curriculum week.
type Week struct {
	Week  int     `json:"week"`
	Title string  `json:"title"`
	Days  []Entry `json:"days"`
}

// Stage is a multi-week grouping of the curriculum.
type Stage struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	WeekLabel   string `json:"week_label"`
	Weeks       []int  `json:"weeks"`
	WeekDetails []Week `json:"weeks_detail"`
}

// StageProgress summarises completion of a single stage.
type StageProgress struct {
	StageID   int     `json:"stage_id"`
	StageName string  `json:"stage_name"`
	TotalDays int     `json:"total_days"`
	Completed int     `json:"completed_days"`
	Rate      float64 `json:"rate"`
}

// DayCount is the number of curriculum days covered by the stage's weeks.
func (s Stage) DayCount() int {
	return len(s.Weeks) * DaysPerWeek
}

// HasWeek reports whether week belongs to the stage.
func (s Stage) HasWeek(week int) bool {
	for _, w := range s.Weeks {
		if w == week {
			return true
		}
	}
	return false
}

// WeekOf returns the curriculum week a day falls into.
func WeekOf(day int) int {
	return (day-1)/DaysPerWeek + 1
}

// Validate ensures the entry adheres to the catalog requirements.
func (e Entry) Validate(strict bool) error {
	if e.Day < 1 || e.Day > TotalDays {
		return fmt.Errorf("entry day %d outside 1..%d", e.Day, TotalDays)
	}
	if e.Title == "" {
		return fmt.Errorf("entry %d missing title", e.Day)
	}
	if e.StageID <= 0 {
		return fmt.Errorf("entry %d missing stage", e.Day)
	}
	if e.Week <= 0 {
		return fmt.Errorf("entry %d missing week", e.Day)
	}
	if strict {
		if e.Content == "" {
			return fmt.Errorf("entry %d missing content", e.Day)
		}
		if len(e.Tasks) == 0 {
			return fmt.Errorf("entry %d requires at least one task", e.Day)
		}
		if e.Week != WeekOf(e.Day) {
			return fmt.Errorf("entry %d declared in week %d, expected week %d", e.Day, e.Week, WeekOf(e.Day))
		}
	}
	return nil
}

// Validate ensures the stage adheres to the catalog requirements.
func (s Stage) Validate(strict bool) error {
	if s.ID <= 0 {
		return errors.New("stage id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("stage %d missing name", s.ID)
	}
	for _, w := range s.Weeks {
		if w < 1 || w > TotalWeeks {
			return fmt.Errorf("stage %d week %d outside 1..%d", s.ID, w, TotalWeeks)
		}
	}
	for _, wd := range s.WeekDetails {
		if len(s.Weeks) > 0 && !s.HasWeek(wd.Week) {
			return fmt.Errorf("stage %d details week %d outside its range %v", s.ID, wd.Week, s.Weeks)
		}
	}
	if strict && len(s.Weeks) == 0 {
		return fmt.Errorf("stage %d declares no weeks", s.ID)
	}
	return nil
}
