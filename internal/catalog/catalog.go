package catalog

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Catalog is the read-only curriculum. It is safe for concurrent use.
type Catalog struct {
	title       string
	description string
	stages      []Stage
	byDay       map[int]Entry
	entries     []Entry
}

// New assembles a catalog from stages and validates it. In strict mode the
// stages' week ranges must be contiguous starting at week 1.
func New(title, description string, stages []Stage, strict bool) (*Catalog, error) {
	c := &Catalog{
		title:       title,
		description: description,
		stages:      append([]Stage(nil), stages...),
		byDay:       make(map[int]Entry),
	}
	slices.SortFunc(c.stages, func(a, b Stage) int { return a.ID - b.ID })

	seenStage := make(map[int]struct{}, len(c.stages))
	for _, stage := range c.stages {
		if err := stage.Validate(strict); err != nil {
			return nil, err
		}
		if _, dup := seenStage[stage.ID]; dup {
			return nil, fmt.Errorf("duplicate stage id %d", stage.ID)
		}
		seenStage[stage.ID] = struct{}{}

		for _, week := range stage.WeekDetails {
			for _, entry := range week.Days {
				if err := entry.Validate(strict); err != nil {
					return nil, err
				}
				if _, dup := c.byDay[entry.Day]; dup {
					return nil, fmt.Errorf("duplicate entry for day %d", entry.Day)
				}
				c.byDay[entry.Day] = entry
			}
		}
	}

	if strict {
		if err := checkContiguousWeeks(c.stages); err != nil {
			return nil, err
		}
	}

	c.entries = lo.Values(c.byDay)
	sortEntries(c.entries)
	return c, nil
}

func checkContiguousWeeks(stages []Stage) error {
	next := 1
	for _, stage := range stages {
		for _, w := range stage.Weeks {
			if w != next {
				return fmt.Errorf("stage %d: expected week %d, found %d", stage.ID, next, w)
			}
			next++
		}
	}
	if next-1 != TotalWeeks {
		return fmt.Errorf("stages cover %d weeks, expected %d", next-1, TotalWeeks)
	}
	return nil
}

func (c *Catalog) Title() string       { return c.title }
func (c *Catalog) Description() string { return c.description }

// TotalDays is constant regardless of how many days are authored.
func (c *Catalog) TotalDays() int {
	return TotalDays
}

// ByDay returns the entry for day. Days outside the curriculum and days with
// no authored entry are reported as absent.
func (c *Catalog) ByDay(day int) (Entry, bool) {
	if day < 1 || day > TotalDays {
		return Entry{}, false
	}
	e, ok := c.byDay[day]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(e), true
}

// Entries returns every authored entry in day order.
func (c *Catalog) Entries() []Entry {
	return lo.Map(c.entries, func(e Entry, _ int) Entry { return cloneEntry(e) })
}

// Search matches keyword case-insensitively against title, content and tasks.
func (c *Catalog) Search(keyword string) []Entry {
	needle := strings.ToLower(keyword)
	matches := lo.Filter(c.entries, func(e Entry, _ int) bool {
		if strings.Contains(strings.ToLower(e.Title), needle) || strings.Contains(strings.ToLower(e.Content), needle) {
			return true
		}
		return lo.ContainsBy(e.Tasks, func(task string) bool {
			return strings.Contains(strings.ToLower(task), needle)
		})
	})
	return lo.Map(matches, func(e Entry, _ int) Entry { return cloneEntry(e) })
}

func (c *Catalog) Stages() []Stage {
	return append([]Stage(nil), c.stages...)
}

func (c *Catalog) Stage(id int) (Stage, bool) {
	return lo.Find(c.stages, func(s Stage) bool { return s.ID == id })
}

// StageForWeek returns the stage whose declared weeks include week.
func (c *Catalog) StageForWeek(week int) (Stage, bool) {
	return lo.Find(c.stages, func(s Stage) bool { return s.HasWeek(week) })
}

func (c *Catalog) StageForDay(day int) (Stage, bool) {
	if day < 1 {
		return Stage{}, false
	}
	return c.StageForWeek(WeekOf(day))
}

// StageRange returns the first and last day owned by the stage. Stages own
// consecutive day ranges in id order; a stage with no weeks has last < first.
func (c *Catalog) StageRange(id int) (first, last int, ok bool) {
	first = 1
	for _, s := range c.stages {
		if s.ID == id {
			return first, first + s.DayCount() - 1, true
		}
		first += s.DayCount()
	}
	return 0, 0, false
}

// StageProgress treats completedCount as a frontier through the curriculum
// and reports how much of the stage's range lies behind it.
func (c *Catalog) StageProgress(stageID, completedCount int) (StageProgress, bool) {
	stage, ok := c.Stage(stageID)
	if !ok {
		return StageProgress{}, false
	}
	first, _, _ := c.StageRange(stageID)
	total := stage.DayCount()
	completed := lo.Clamp(completedCount-first+1, 0, total)

	progress := StageProgress{
		StageID:   stage.ID,
		StageName: stage.Name,
		TotalDays: total,
		Completed: completed,
	}
	if total > 0 {
		progress.Rate = float64(completed) / float64(total)
	}
	return progress, true
}

// WeekEntries returns the authored entries of one week in day order.
func (c *Catalog) WeekEntries(week int) []Entry {
	return lo.FilterMap(c.entries, func(e Entry, _ int) (Entry, bool) {
		return cloneEntry(e), e.Week == week
	})
}

func cloneEntry(e Entry) Entry {
	e.Tasks = append([]string(nil), e.Tasks...)
	if e.CodeExamples != nil {
		e.CodeExamples = append([]CodeExample(nil), e.CodeExamples...)
	}
	return e
}
