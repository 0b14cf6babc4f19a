package progress

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/mmspanish/studytrack/internal/logger"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCurrentStreak(t *testing.T) {
	now := newClock().now()

	tests := []struct {
		name  string
		dates map[string]string
		want  int
	}{
		{name: "empty", dates: map[string]string{}, want: 0},
		{name: "today only", dates: map[string]string{"day_1": "2026-10-16"}, want: 1},
		{name: "ends yesterday", dates: map[string]string{"day_1": "2026-10-14", "day_2": "2026-10-15"}, want: 2},
		{name: "gap before yesterday", dates: map[string]string{"day_1": "2026-10-13", "day_2": "2026-10-14"}, want: 0},
		{
			name:  "same day counted once",
			dates: map[string]string{"day_1": "2026-10-15", "day_2": "2026-10-16", "day_3": "2026-10-16"},
			want:  2,
		},
		{name: "unparsable ignored", dates: map[string]string{"day_1": "yesterday", "day_2": "2026-10-16"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currentStreak(tt.dates, now))
		})
	}
}

func TestLongestStreak(t *testing.T) {
	dates := map[string]string{
		"day_1": "2026-09-01",
		"day_2": "2026-09-02",
		"day_3": "2026-09-03",
		"day_4": "2026-09-10",
		"day_5": "2026-09-11",
		"day_6": "2026-09-03",
	}
	assert.Equal(t, 3, longestStreak(dates))
	assert.Equal(t, 0, longestStreak(nil))
}

func TestStreakFollowsClock(t *testing.T) {
	clock := newClock()
	s := newTestStore(t, clock)

	for _, day := range []int{1, 2, 3} {
		_, err := s.MarkCompleted(day)
		require.NoError(t, err)
		if day < 3 {
			clock.advance(1)
		}
	}
	assert.Equal(t, 3, s.Statistics().CurrentStreak)
	assert.Equal(t, 3, s.Record().Statistics.CurrentStreak)

	clock.advance(1)
	assert.Equal(t, 3, s.Statistics().CurrentStreak)

	clock.advance(1)
	stats := s.Statistics()
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
}

func TestStatisticsStages(t *testing.T) {
	tests := []struct {
		day       int
		wantWeek  int
		wantStage int
	}{
		{day: 1, wantWeek: 1, wantStage: 1},
		{day: 21, wantWeek: 3, wantStage: 1},
		{day: 22, wantWeek: 4, wantStage: 2},
		{day: 56, wantWeek: 8, wantStage: 2},
		{day: 57, wantWeek: 9, wantStage: 3},
		{day: 134, wantWeek: 20, wantStage: 6},
		{day: 300, wantWeek: 43, wantStage: 6},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "progress.json")
		writeFile(t, path, `{"current_day": `+jsonInt(tt.day)+`}`)
		s := NewStore(path, testCatalog(t), logger.NewNop())
		s.Load()

		stats := s.Statistics()
		assert.Equal(t, tt.wantWeek, stats.CurrentWeek, "day %d", tt.day)
		assert.Equal(t, tt.wantStage, stats.CurrentStage, "day %d", tt.day)
		assert.Equal(t, 140, stats.TotalDays)
	}
}

func TestStageBreakdown(t *testing.T) {
	s := newTestStore(t, newClock())
	for _, day := range []int{1, 2, 22} {
		_, err := s.MarkCompleted(day)
		require.NoError(t, err)
	}

	breakdown := s.StageBreakdown()
	require.Len(t, breakdown, 6)
	assert.Equal(t, 1, breakdown[0].StageID)
	assert.Equal(t, 2, breakdown[0].Completed)
	assert.Equal(t, 21, breakdown[0].TotalDays)
	assert.InDelta(t, 2.0/21, breakdown[0].Rate, 1e-9)
	assert.Equal(t, 1, breakdown[1].Completed)
	assert.Equal(t, 35, breakdown[1].TotalDays)
	assert.Zero(t, breakdown[5].Completed)

	total := lo.Reduce(breakdown, func(sum int, p catalog.StageProgress, _ int) int { return sum + p.TotalDays }, 0)
	assert.Equal(t, 140, total)

	p, ok := s.StageProgress(1)
	require.True(t, ok)
	assert.Equal(t, 3, p.Completed)
}

func TestHistory(t *testing.T) {
	s := newTestStore(t, newClock())
	for _, day := range []int{3, 1, 2} {
		_, err := s.MarkCompleted(day)
		require.NoError(t, err)
	}

	days := func(items []HistoryItem) []int {
		return lo.Map(items, func(item HistoryItem, _ int) int { return item.Day })
	}
	assert.Equal(t, []int{3, 1, 2}, days(s.History(0)))
	assert.Equal(t, []int{1, 2}, days(s.History(2)))
	assert.Equal(t, []int{3, 1, 2}, days(s.History(50)))

	item := s.History(1)[0]
	assert.True(t, item.Completed)
	assert.Equal(t, "2026-10-16", item.CompletedOn)
	assert.Equal(t, "控制结构与函数", item.Title)
}

func TestFilter(t *testing.T) {
	clock := newClock()
	s := newTestStore(t, clock)

	importPath := filepath.Join(t.TempDir(), "seed.json")
	writeFile(t, importPath, `{
		"completed_tasks": ["day_1", "day_2", "day_3"],
		"completion_dates": {"day_1": "2026-10-12", "day_2": "2026-10-05", "day_3": "2026-09-30"}
	}`)
	require.NoError(t, s.Import(importPath))

	days := func(kind FilterKind) []int {
		return lo.Map(s.Filter(kind), func(item HistoryItem, _ int) int { return item.Day })
	}
	assert.Len(t, days(FilterAll), 15)
	assert.Equal(t, []int{1, 2, 3}, days(FilterCompleted))
	assert.Len(t, days(FilterPending), 12)
	assert.NotContains(t, days(FilterPending), 1)
	assert.Equal(t, []int{1}, days(FilterThisWeek))
	assert.Equal(t, []int{1, 2}, days(FilterThisMonth))
}

func TestParseFilter(t *testing.T) {
	kind, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, kind)

	kind, err = ParseFilter(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, FilterCompleted, kind)

	_, err = ParseFilter("yesterday")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	clock := newClock()
	s := newTestStore(t, clock)
	_, err := s.CompleteCurrentTask()
	require.NoError(t, err)
	require.NoError(t, s.SetNote(1, "done"))
	require.NoError(t, s.NextDay())
	require.NoError(t, s.AddStudyTime(90))

	out := filepath.Join(t.TempDir(), "backup", "export.json")
	snap, err := s.Export(out, FormatJSON)
	require.NoError(t, err)
	assert.Len(t, snap.ExportID, 27)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := gjson.ParseBytes(data)
	assert.Equal(t, int64(2), doc.Get("current_day").Int())
	assert.Equal(t, "day_1", doc.Get("completed_tasks.0").String())
	assert.Equal(t, "done", doc.Get("task_notes.day_1").String())
	assert.Equal(t, int64(1), doc.Get("stats.completed_days").Int())
	assert.Equal(t, int64(1), doc.Get("history.#").Int())
	assert.Equal(t, snap.ExportID, doc.Get("export_id").String())
	assert.Equal(t, "2026-10-16T09:30:00Z", doc.Get("export_date").String())
	assert.Equal(t, "studytrack", doc.Get("meta.generated_by").String())

	other := newTestStore(t, clock)
	require.NoError(t, other.Import(out))
	want, got := s.Record(), other.Record()
	assert.Equal(t, want.CurrentDay, got.CurrentDay)
	assert.Equal(t, want.CompletedTasks, got.CompletedTasks)
	assert.Equal(t, want.TaskNotes, got.TaskNotes)
	assert.Equal(t, want.CompletionDates, got.CompletionDates)
	assert.Equal(t, want.Statistics, got.Statistics)

	reloaded := NewStore(other.Path(), testCatalog(t), logger.NewNop(), WithClock(clock.now))
	reloaded.Load()
	assert.Equal(t, 2, reloaded.CurrentDay())
}

func TestExportYAML(t *testing.T) {
	s := newTestStore(t, newClock())
	_, err := s.CompleteCurrentTask()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "export.yaml")
	_, err = s.Export(out, FormatYAML)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "current_day: 1")
	assert.Contains(t, text, "generated_by: studytrack")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(text), "{"))
}

func TestImportLegacyWrapper(t *testing.T) {
	s := newTestStore(t, newClock())
	require.NoError(t, s.SetNote(3, "keep me"))

	path := filepath.Join(t.TempDir(), "legacy.json")
	writeFile(t, path, `{
		"export_date": "2025-01-01T00:00:00",
		"progress": {"current_day": 7, "completed_tasks": ["day_1", "2"]}
	}`)
	require.NoError(t, s.Import(path))

	r := s.Record()
	assert.Equal(t, 7, r.CurrentDay)
	assert.Equal(t, []string{"day_1", "day_2"}, r.CompletedTasks)
	assert.Equal(t, "keep me", r.TaskNotes["day_3"])
	assert.InDelta(t, 2.0/140, r.Statistics.CompletionRate, 1e-12)
}

func TestImportFailuresLeaveStateUntouched(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "corrupt", content: `{"current_day": 9,`},
		{name: "no progress fields", content: `{"hello": "world"}`, wantErr: ErrEmptySnapshot},
		{name: "wrong type", content: `{"completed_tasks": "day_1"}`},
		{name: "not an object", content: `[1, 2, 3]`, wantErr: ErrEmptySnapshot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, newClock())
			_, err := s.CompleteCurrentTask()
			require.NoError(t, err)
			before := s.Record()
			onDisk, err := os.ReadFile(s.Path())
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "import.json")
			writeFile(t, path, tt.content)
			err = s.Import(path)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Equal(t, before, s.Record())
			after, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, onDisk, after)
		})
	}
}

func TestImportMissingFile(t *testing.T) {
	s := newTestStore(t, newClock())
	assert.Error(t, s.Import(filepath.Join(t.TempDir(), "absent.json")))
	assert.Equal(t, 1, s.CurrentDay())
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
