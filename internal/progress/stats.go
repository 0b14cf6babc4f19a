package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/samber/lo"
)

// Stats is the derived view of the record shown to the user.
type Stats struct {
	TotalDays      int     `json:"total_days"`
	CompletedDays  int     `json:"completed_days"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentDay     int     `json:"current_day"`
	CurrentStage   int     `json:"current_stage"`
	CurrentWeek    int     `json:"current_week"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	TotalStudyTime int     `json:"total_study_time"`
}

// HistoryItem is a curriculum entry together with its completion state.
type HistoryItem struct {
	catalog.Entry
	Completed   bool   `json:"completed"`
	CompletedOn string `json:"completed_on,omitempty"`
}

type FilterKind string

const (
	FilterAll       FilterKind = "all"
	FilterCompleted FilterKind = "completed"
	FilterPending   FilterKind = "pending"
	FilterThisWeek  FilterKind = "week"
	FilterThisMonth FilterKind = "month"
)

func ParseFilter(s string) (FilterKind, error) {
	switch k := FilterKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterPending, FilterThisWeek, FilterThisMonth:
		return k, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// Statistics computes the aggregate view. CompletionRate is a percentage.
func (s *Store) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	r := s.record
	week := catalog.WeekOf(r.CurrentDay)
	return Stats{
		TotalDays:      s.catalog.TotalDays(),
		CompletedDays:  len(r.CompletedTasks),
		CompletionRate: r.Statistics.CompletionRate * 100,
		CurrentDay:     r.CurrentDay,
		CurrentStage:   s.stageForWeek(week),
		CurrentWeek:    week,
		CurrentStreak:  currentStreak(r.CompletionDates, s.now()),
		LongestStreak:  longestStreak(r.CompletionDates),
		TotalStudyTime: r.Statistics.TotalStudyTime,
	}
}

// stageForWeek uses the stages' declared week ranges. Weeks past the end of
// the curriculum belong to the last stage.
func (s *Store) stageForWeek(week int) int {
	if stage, ok := s.catalog.StageForWeek(week); ok {
		return stage.ID
	}
	stages := s.catalog.Stages()
	if len(stages) == 0 {
		return 0
	}
	if week > catalog.TotalWeeks {
		return stages[len(stages)-1].ID
	}
	return stages[0].ID
}

// StageProgress reports stage completion using the completed-day count as a
// frontier, see catalog.Catalog.StageProgress.
func (s *Store) StageProgress(stageID int) (catalog.StageProgress, bool) {
	s.mu.Lock()
	completed := len(s.record.CompletedTasks)
	s.mu.Unlock()
	return s.catalog.StageProgress(stageID, completed)
}

// StageBreakdown counts, per stage, the completed days that fall inside the
// stage's day range.
func (s *Store) StageBreakdown() []catalog.StageProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stageBreakdownLocked()
}

func (s *Store) stageBreakdownLocked() []catalog.StageProgress {
	days := s.record.CompletedDays()
	return lo.Map(s.catalog.Stages(), func(stage catalog.Stage, _ int) catalog.StageProgress {
		first, last, _ := s.catalog.StageRange(stage.ID)
		done := lo.CountBy(days, func(d int) bool { return d >= first && d <= last })
		p := catalog.StageProgress{
			StageID:   stage.ID,
			StageName: stage.Name,
			TotalDays: stage.DayCount(),
			Completed: done,
		}
		if p.TotalDays > 0 {
			p.Rate = float64(done) / float64(p.TotalDays)
		}
		return p
	})
}

// History returns the last limit completed entries in the order they were
// completed. Days without a curriculum entry are skipped. limit <= 0 means
// no limit.
func (s *Store) History(limit int) []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked(limit)
}

func (s *Store) historyLocked(limit int) []HistoryItem {
	keys := s.record.CompletedTasks
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	return lo.FilterMap(keys, func(key string, _ int) (HistoryItem, bool) {
		day, ok := ParseDayKey(key)
		if !ok {
			return HistoryItem{}, false
		}
		entry, ok := s.catalog.ByDay(day)
		if !ok {
			return HistoryItem{}, false
		}
		return HistoryItem{Entry: entry, Completed: true, CompletedOn: s.record.CompletionDates[key]}, true
	})
}

// Filter lists curriculum entries by completion state. The week and month
// filters select entries completed in the current calendar week (starting
// Monday) or month.
func (s *Store) Filter(kind FilterKind) []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))

	items := lo.Map(s.catalog.Entries(), func(e catalog.Entry, _ int) HistoryItem {
		key := DayKey(e.Day)
		return HistoryItem{Entry: e, Completed: s.record.IsCompleted(e.Day), CompletedOn: s.record.CompletionDates[key]}
	})

	return lo.Filter(items, func(item HistoryItem, _ int) bool {
		switch kind {
		case FilterCompleted:
			return item.Completed
		case FilterPending:
			return !item.Completed
		case FilterThisWeek, FilterThisMonth:
			if !item.Completed || item.CompletedOn == "" {
				return false
			}
			on, err := time.Parse(dateLayout, item.CompletedOn)
			if err != nil {
				return false
			}
			if kind == FilterThisWeek {
				return !on.Before(weekStart)
			}
			return on.Year() == today.Year() && on.Month() == today.Month()
		default:
			return true
		}
	})
}
