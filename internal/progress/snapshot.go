package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const snapshotHistoryLimit = 100

// Snapshot is a backup of the record plus the derived views at export time.
type Snapshot struct {
	Record
	Stats      Stats         `json:"stats"`
	History    []HistoryItem `json:"history"`
	ExportID   string        `json:"export_id"`
	ExportDate string        `json:"export_date,omitempty"`
}

// Snapshot captures the current state without writing it anywhere.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Record:   s.record.clone(),
		Stats:    s.statsLocked(),
		History:  s.historyLocked(snapshotHistoryLimit),
		ExportID: ksuid.New().String(),
	}
}

// Export writes a snapshot to path.
func (s *Store) Export(path string, format Format) (Snapshot, error) {
	snap := s.Snapshot()
	snap.ExportDate = s.now().Format(time.RFC3339)

	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	data, err = sjson.SetBytes(data, "meta.generated_by", "studytrack")
	if err != nil {
		return Snapshot{}, err
	}

	switch format {
	case FormatYAML:
		data, err = ToYAML(data)
	default:
		data, err = indentJSON(data)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		s.log.Error("export progress", "path", path, "error", err)
		return Snapshot{}, fmt.Errorf("export progress: %w", err)
	}
	s.log.Info("progress exported", "path", path, "export_id", snap.ExportID, "format", string(format))
	return snap, nil
}

// Import replaces the record with the progress found at path. Both flat
// snapshots and documents wrapping the record under "progress" are
// accepted. On any failure the current record is kept.
func (s *Store) Import(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Error("import progress", "path", path, "error", err)
		return fmt.Errorf("import progress: %w", err)
	}
	if !gjson.ValidBytes(data) {
		s.log.Error("import progress", "path", path, "error", "invalid json")
		return fmt.Errorf("import progress: %s is not valid JSON", path)
	}

	payload := data
	if wrapped := gjson.GetBytes(data, "progress"); wrapped.IsObject() {
		payload = []byte(wrapped.Raw)
	}
	if !hasProgressFields(payload) {
		return fmt.Errorf("import progress: %w", ErrEmptySnapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record.clone()
	if err := overlay(&rec, payload); err != nil {
		s.log.Error("import progress", "path", path, "error", err)
		return fmt.Errorf("import progress: %w", err)
	}
	dropped := normalize(&rec)
	if len(dropped) > 0 {
		s.log.Warn("dropped invalid imported entries", "path", path, "entries", dropped)
	}

	if err := s.mutateLocked(func(r *Record) { *r = rec }); err != nil {
		return fmt.Errorf("import progress: %w", err)
	}
	s.log.Info("progress imported", "path", path, "current_day", rec.CurrentDay, "completed", len(rec.CompletedTasks))
	return nil
}

func hasProgressFields(payload []byte) bool {
	for _, key := range []string{"current_day", "completed_tasks", "task_notes", "completion_dates", "statistics"} {
		if gjson.GetBytes(payload, key).Exists() {
			return true
		}
	}
	return false
}

func indentJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
