package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/mmspanish/studytrack/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(days int) { c.t = c.t.AddDate(0, 0, days) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "progress.json")
	s := NewStore(path, testCatalog(t), logger.NewNop(), WithClock(clock.now))
	status := s.Load()
	require.Equal(t, SourceCreated, status.Source)
	require.NoError(t, status.Err)
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFreshStoreScenario(t *testing.T) {
	s := newTestStore(t, newClock())
	assert.Equal(t, 1, s.CurrentDay())

	ok, err := s.CompleteCurrentTask()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1}, s.Record().CompletedDays())
	assert.InDelta(t, 1.0/140, s.Record().Statistics.CompletionRate, 1e-9)
	assert.InDelta(t, 0.714, s.Statistics().CompletionRate, 0.001)

	require.NoError(t, s.NextDay())
	assert.Equal(t, 2, s.CurrentDay())
	assert.Equal(t, "", s.Note(2))

	require.NoError(t, s.SetNote(2, "hi"))
	assert.Equal(t, "hi", s.Note(2))
}

func TestCompleteCurrentTaskIsIdempotent(t *testing.T) {
	s := newTestStore(t, newClock())

	ok, err := s.CompleteCurrentTask()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompleteCurrentTask()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"day_1"}, s.Record().CompletedTasks)
	assert.Equal(t, 1, s.CurrentDay())
}

func TestCompleteCurrentTaskWithoutEntry(t *testing.T) {
	clock := newClock()
	s := newTestStore(t, clock)
	for i := 0; i < 14; i++ {
		require.NoError(t, s.NextDay())
	}
	require.Equal(t, 15, s.CurrentDay())

	_, found := s.CurrentTask()
	assert.False(t, found)

	ok, err := s.CompleteCurrentTask()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Record().CompletedTasks)
}

func TestCompletionRateTracksEveryMutation(t *testing.T) {
	s := newTestStore(t, newClock())
	check := func() {
		t.Helper()
		r := s.Record()
		assert.InDelta(t, float64(len(r.CompletedTasks))/140, r.Statistics.CompletionRate, 1e-12)
	}

	for _, day := range []int{3, 1, 22, 9} {
		_, err := s.MarkCompleted(day)
		require.NoError(t, err)
		check()
	}
	_, err := s.MarkIncomplete(1)
	require.NoError(t, err)
	check()
	require.NoError(t, s.NextDay())
	check()
	require.NoError(t, s.SetNote(5, "x"))
	check()
}

func TestMarkCompletedAndIncomplete(t *testing.T) {
	s := newTestStore(t, newClock())

	tests := []struct {
		name string
		day  int
		want bool
	}{
		{name: "authored day", day: 8, want: true},
		{name: "again", day: 8, want: false},
		{name: "gap day", day: 17, want: false},
		{name: "outside curriculum", day: 141, want: false},
		{name: "negative", day: -3, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.MarkCompleted(tt.day)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	assert.True(t, s.IsCompleted(8))
	assert.Equal(t, "2026-10-16", s.Record().CompletionDates["day_8"])

	ok, err := s.MarkIncomplete(8)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, s.IsCompleted(8))
	assert.NotContains(t, s.Record().CompletionDates, "day_8")

	ok, err = s.MarkIncomplete(8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clock := newClock()
	s := newTestStore(t, clock)

	_, err := s.MarkCompleted(2)
	require.NoError(t, err)
	_, err = s.MarkCompleted(1)
	require.NoError(t, err)
	require.NoError(t, s.SetNote(1, "环境配置完成"))
	require.NoError(t, s.SetNote(30, "ahead of time"))
	require.NoError(t, s.NextDay())
	require.NoError(t, s.AddStudyTime(45))
	require.NoError(t, s.Save())

	reloaded := NewStore(s.Path(), testCatalog(t), logger.NewNop(), WithClock(clock.now))
	status := reloaded.Load()
	assert.Equal(t, SourceFile, status.Source)
	assert.NoError(t, status.Err)

	want, got := s.Record(), reloaded.Record()
	assert.Equal(t, want.CurrentDay, got.CurrentDay)
	assert.ElementsMatch(t, want.CompletedTasks, got.CompletedTasks)
	assert.Equal(t, want.TaskNotes, got.TaskNotes)
	assert.Equal(t, want.CompletionDates, got.CompletionDates)
	assert.Equal(t, want.Statistics, got.Statistics)
}

func TestPersistedLayout(t *testing.T) {
	s := newTestStore(t, newClock())
	_, err := s.CompleteCurrentTask()
	require.NoError(t, err)
	require.NoError(t, s.SetNote(1, "n"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(1), doc["current_day"])
	assert.Equal(t, []any{"day_1"}, doc["completed_tasks"])
	assert.Equal(t, map[string]any{"day_1": "n"}, doc["task_notes"])
	stats, ok := doc["statistics"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, stats, "total_study_time")
	assert.Contains(t, stats, "completion_rate")
	assert.Contains(t, stats, "current_streak")
	assert.Contains(t, string(data), "\n  \"current_day\": 1")
}

func TestLoadRecovers(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not json at all"},
		{name: "wrong field type", content: `{"current_day": "three"}`},
		{name: "truncated", content: `{"current_day": 4, "completed_tasks": ["day_1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "progress.json")
			writeFile(t, path, tt.content)

			s := NewStore(path, testCatalog(t), logger.NewNop())
			status := s.Load()
			assert.Equal(t, SourceRecovered, status.Source)
			assert.Error(t, status.Err)
			assert.Equal(t, DefaultRecord().CurrentDay, s.CurrentDay())
			assert.Empty(t, s.Record().CompletedTasks)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	writeFile(t, path, `{
		"current_day": -4,
		"completed_tasks": ["day_2", "3", "day_2", "day_999", "bogus"],
		"task_notes": {"day_1": "a", "7": "b", "x": "c", "day_9": ""},
		"completion_dates": {"day_2": "2026-10-10", "day_5": "2026-10-11"},
		"statistics": {"total_study_time": 30, "completion_rate": 0.9, "current_streak": 99},
		"unknown": true
	}`)

	s := NewStore(path, testCatalog(t), logger.NewNop(), WithClock(newClock().now))
	status := s.Load()
	assert.Equal(t, SourceFile, status.Source)
	assert.NotEmpty(t, status.Dropped)

	r := s.Record()
	assert.Equal(t, 1, r.CurrentDay)
	assert.Equal(t, []string{"day_2", "day_3"}, r.CompletedTasks)
	assert.Equal(t, map[string]string{"day_1": "a", "day_7": "b"}, r.TaskNotes)
	assert.Equal(t, map[string]string{"day_2": "2026-10-10"}, r.CompletionDates)
	assert.Equal(t, 30, r.Statistics.TotalStudyTime)
	assert.InDelta(t, 2.0/140, r.Statistics.CompletionRate, 1e-12)
	assert.Equal(t, 0, r.Statistics.CurrentStreak)
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	writeFile(t, path, `{"current_day": 5}`)

	s := NewStore(path, testCatalog(t), logger.NewNop())
	s.Load()
	r := s.Record()
	assert.Equal(t, 5, r.CurrentDay)
	assert.NotNil(t, r.TaskNotes)
	assert.Empty(t, r.CompletedTasks)
}

func TestNextDayIsMonotonic(t *testing.T) {
	for _, start := range []int{-10, 0, 1, 139, 140, 500} {
		path := filepath.Join(t.TempDir(), "progress.json")
		writeFile(t, path, `{"current_day": `+jsonInt(start)+`}`)

		s := NewStore(path, testCatalog(t), logger.NewNop())
		s.Load()
		before := s.CurrentDay()
		require.NoError(t, s.NextDay())
		assert.Greater(t, s.CurrentDay(), before, "start %d", start)
		assert.Greater(t, s.CurrentDay(), start, "start %d", start)
	}
}

func jsonInt(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func TestNextDayPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	writeFile(t, path, `{"current_day": 140}`)
	s := NewStore(path, testCatalog(t), logger.NewNop())
	s.Load()

	require.NoError(t, s.NextDay())
	assert.Equal(t, 141, s.CurrentDay())
	_, ok := s.CurrentTask()
	assert.False(t, ok)
	assert.Equal(t, 6, s.Statistics().CurrentStage)
	assert.Equal(t, 21, s.Statistics().CurrentWeek)
}

func TestFailedSaveRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "")

	s := NewStore(filepath.Join(blocker, "progress.json"), testCatalog(t), logger.NewNop())
	status := s.Load()
	assert.Equal(t, SourceRecovered, status.Source)

	ok, err := s.CompleteCurrentTask()
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Record().CompletedTasks)

	assert.Error(t, s.NextDay())
	assert.Equal(t, 1, s.CurrentDay())

	assert.Error(t, s.SetNote(1, "lost?"))
	assert.Equal(t, "", s.Note(1))

	assert.Error(t, s.Save())
}

func TestNotes(t *testing.T) {
	s := newTestStore(t, newClock())

	assert.ErrorIs(t, s.SetNote(0, "x"), ErrDayOutOfRange)
	assert.ErrorIs(t, s.SetNote(141, "x"), ErrDayOutOfRange)
	assert.Equal(t, "", s.Note(999))

	require.NoError(t, s.SetNote(4, "first"))
	require.NoError(t, s.SetNote(4, "second"))
	assert.Equal(t, "second", s.Note(4))
	assert.False(t, s.IsCompleted(4))

	require.NoError(t, s.SetNote(4, ""))
	assert.NotContains(t, s.Record().TaskNotes, "day_4")
}

func TestAddStudyTime(t *testing.T) {
	s := newTestStore(t, newClock())
	require.NoError(t, s.AddStudyTime(30))
	require.NoError(t, s.AddStudyTime(0))
	require.NoError(t, s.AddStudyTime(15))
	assert.ErrorIs(t, s.AddStudyTime(-1), ErrInvalidMinutes)
	assert.Equal(t, 45, s.Statistics().TotalStudyTime)
}

func TestReset(t *testing.T) {
	s := newTestStore(t, newClock())
	_, err := s.CompleteCurrentTask()
	require.NoError(t, err)
	require.NoError(t, s.NextDay())

	require.NoError(t, s.Reset())
	r := s.Record()
	assert.Equal(t, 1, r.CurrentDay)
	assert.Empty(t, r.CompletedTasks)
	assert.Zero(t, r.Statistics.CompletionRate)

	reloaded := NewStore(s.Path(), testCatalog(t), logger.NewNop())
	reloaded.Load()
	assert.Empty(t, reloaded.Record().CompletedTasks)
}
