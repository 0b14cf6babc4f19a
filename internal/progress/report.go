package progress

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const reportHistoryLimit = 10

// Report renders the current progress as a markdown document.
func (s *Store) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.statsLocked()
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "# %s\n\n", reportTitle(s.catalog.Title()))
	fmt.Fprintf(buf, "- Generated: %s\n", s.now().Format(time.RFC3339))
	fmt.Fprintf(buf, "- Current day: %d (week %d, stage %d)\n", stats.CurrentDay, stats.CurrentWeek, stats.CurrentStage)
	fmt.Fprintf(buf, "- Completed: %d / %d (%.1f%%)\n", stats.CompletedDays, stats.TotalDays, stats.CompletionRate)
	fmt.Fprintf(buf, "- Current streak: %d days (longest %d)\n", stats.CurrentStreak, stats.LongestStreak)
	fmt.Fprintf(buf, "- Study time: %s\n", formatMinutes(stats.TotalStudyTime))
	fmt.Fprintf(buf, "- Notes: %d\n", len(s.record.TaskNotes))

	fmt.Fprintf(buf, "\n## Stages\n\n")
	fmt.Fprintf(buf, "| Stage | Name | Done | Days | Rate |\n|---|---|---|---|---|\n")
	for _, p := range s.stageBreakdownLocked() {
		fmt.Fprintf(buf, "| %d | %s | %d | %d | %.1f%% |\n", p.StageID, p.StageName, p.Completed, p.TotalDays, p.Rate*100)
	}

	history := s.historyLocked(reportHistoryLimit)
	if len(history) > 0 {
		fmt.Fprintf(buf, "\n## Recently completed\n\n")
		for _, item := range history {
			on := item.CompletedOn
			if on == "" {
				on = "unknown date"
			}
			fmt.Fprintf(buf, "- Day %d: %s (%s)\n", item.Day, item.Title, on)
			if note := s.record.TaskNotes[DayKey(item.Day)]; note != "" {
				fmt.Fprintf(buf, "  - note: %s\n", summarizeNote(note))
			}
		}
	}
	return buf.String()
}

// WriteReport renders the report to path.
func (s *Store) WriteReport(path string) error {
	if err := writeFileAtomic(path, []byte(s.Report())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.log.Info("report written", "path", path)
	return nil
}

func reportTitle(catalogTitle string) string {
	if catalogTitle == "" {
		return "Study Progress"
	}
	return catalogTitle + " Progress"
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func summarizeNote(note string) string {
	note = strings.Join(strings.Fields(note), " ")
	runes := []rune(note)
	if len(runes) > 120 {
		return string(runes[:117]) + "..."
	}
	return note
}
