package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/mmspanish/studytrack/internal/logger"
	"github.com/samber/lo"
)

var (
	ErrDayOutOfRange  = errors.New("day outside the curriculum")
	ErrInvalidMinutes = errors.New("study minutes must not be negative")
	ErrEmptySnapshot  = errors.New("snapshot contains no progress")
)

// LoadSource tells where the in-memory record came from after Load.
type LoadSource int

const (
	SourceFile LoadSource = iota
	SourceCreated
	SourceRecovered
)

func (s LoadSource) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceCreated:
		return "created"
	case SourceRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// LoadStatus reports the outcome of Load. Err carries a recovered failure
// (unreadable file, corrupt content, failed write-back); it is informational.
type LoadStatus struct {
	Source  LoadSource
	Err     error
	Dropped []string
}

type Option func(*Store)

// WithClock overrides time.Now, used to stamp completion dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store owns the progress record and keeps the progress file in step with
// it. Every mutating call either persists its change or leaves both the
// file and the in-memory record as they were.
type Store struct {
	path    string
	catalog *catalog.Catalog
	log     *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	record Record
}

func NewStore(path string, cat *catalog.Catalog, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		path:    path,
		catalog: cat,
		log:     log.With("component", "progress"),
		now:     time.Now,
		record:  DefaultRecord(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// Load reads the progress file. It never fails: a missing file is replaced
// by a fresh record, and an unreadable or corrupt one is ignored in favour
// of a fresh in-memory record.
func (s *Store) Load() LoadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.record = DefaultRecord()
		s.recomputeLocked()
		status := LoadStatus{Source: SourceCreated}
		if err := s.saveLocked(); err != nil {
			s.log.Warn("write initial progress", "path", s.path, "error", err)
			status.Err = err
		}
		s.log.Info("no progress file, starting fresh", "path", s.path)
		return status
	}
	if err != nil {
		s.log.Error("read progress", "path", s.path, "error", err)
		s.record = DefaultRecord()
		s.recomputeLocked()
		return LoadStatus{Source: SourceRecovered, Err: err}
	}

	rec := DefaultRecord()
	if err := overlay(&rec, data); err != nil {
		s.log.Error("decode progress", "path", s.path, "error", err)
		s.record = DefaultRecord()
		s.recomputeLocked()
		return LoadStatus{Source: SourceRecovered, Err: fmt.Errorf("decode %s: %w", s.path, err)}
	}
	dropped := normalize(&rec)
	if len(dropped) > 0 {
		s.log.Warn("dropped invalid progress entries", "path", s.path, "entries", dropped)
	}
	s.record = rec
	s.recomputeLocked()
	s.log.Info("progress loaded", "path", s.path, "current_day", rec.CurrentDay, "completed", len(rec.CompletedTasks))
	return LoadStatus{Source: SourceFile, Dropped: dropped}
}

// Save writes the whole record to the progress file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := writeJSON(s.path, s.record); err != nil {
		s.log.Error("save progress", "path", s.path, "error", err)
		return fmt.Errorf("save progress: %w", err)
	}
	s.log.Debug("progress saved", "path", s.path, "current_day", s.record.CurrentDay)
	return nil
}

// mutateLocked applies fn, recomputes statistics and saves. If the save
// fails the previous record is restored.
func (s *Store) mutateLocked(fn func(r *Record)) error {
	prev := s.record.clone()
	fn(&s.record)
	s.recomputeLocked()
	if err := s.saveLocked(); err != nil {
		s.record = prev
		return err
	}
	return nil
}

func (s *Store) recomputeLocked() {
	r := &s.record
	r.Statistics.CompletionRate = float64(len(r.CompletedTasks)) / float64(s.catalog.TotalDays())
	r.Statistics.CurrentStreak = currentStreak(r.CompletionDates, s.now())
}

// Record returns a copy of the current record.
func (s *Store) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.clone()
}

func (s *Store) CurrentDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.CurrentDay
}

// CurrentTask returns the entry for the current day. It is absent once the
// cursor moves past the authored curriculum.
func (s *Store) CurrentTask() (catalog.Entry, bool) {
	return s.catalog.ByDay(s.CurrentDay())
}

// CompleteCurrentTask marks the current day done. It reports false when the
// day has no curriculum entry or is already complete. It does not advance
// the current day.
func (s *Store) CompleteCurrentTask() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markCompletedLocked(s.record.CurrentDay)
}

// MarkCompleted marks any curriculum day done.
func (s *Store) MarkCompleted(day int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markCompletedLocked(day)
}

func (s *Store) markCompletedLocked(day int) (bool, error) {
	entry, ok := s.catalog.ByDay(day)
	if !ok || s.record.IsCompleted(day) {
		return false, nil
	}
	key := DayKey(day)
	err := s.mutateLocked(func(r *Record) {
		r.CompletedTasks = append(r.CompletedTasks, key)
		r.CompletionDates[key] = s.now().Format(dateLayout)
	})
	if err != nil {
		return false, err
	}
	s.log.Info("task completed", "day", day, "title", entry.Title)
	return true, nil
}

// MarkIncomplete moves a completed day back to pending.
func (s *Store) MarkIncomplete(day int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.record.IsCompleted(day) {
		return false, nil
	}
	key := DayKey(day)
	err := s.mutateLocked(func(r *Record) {
		r.CompletedTasks = lo.Without(r.CompletedTasks, key)
		delete(r.CompletionDates, key)
	})
	if err != nil {
		return false, err
	}
	s.log.Info("task marked incomplete", "day", day)
	return true, nil
}

func (s *Store) IsCompleted(day int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.IsCompleted(day)
}

// NextDay advances the cursor by one. There is no upper bound; past the
// last authored day CurrentTask reports absent.
func (s *Store) NextDay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutateLocked(func(r *Record) { r.CurrentDay++ }); err != nil {
		return err
	}
	s.log.Info("advanced to next day", "current_day", s.record.CurrentDay)
	return nil
}

// SetNote stores text for day. An empty text removes the note.
func (s *Store) SetNote(day int, text string) error {
	if day < 1 || day > s.catalog.TotalDays() {
		return fmt.Errorf("%w: %d", ErrDayOutOfRange, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := DayKey(day)
	return s.mutateLocked(func(r *Record) {
		if text == "" {
			delete(r.TaskNotes, key)
			return
		}
		r.TaskNotes[key] = text
	})
}

// Note returns the note for day, or "" if there is none.
func (s *Store) Note(day int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.TaskNotes[DayKey(day)]
}

// AddStudyTime adds minutes to the accumulated study time.
func (s *Store) AddStudyTime(minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinutes, minutes)
	}
	if minutes == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(func(r *Record) { r.Statistics.TotalStudyTime += minutes })
}

// Reset discards all progress.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutateLocked(func(r *Record) { *r = DefaultRecord() }); err != nil {
		return err
	}
	s.log.Info("progress reset")
	return nil
}
