package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/mmspanish/studytrack/internal/progress"
	"github.com/samber/lo"
)

var linePrefixColors = []struct {
	prefix string
	attrs  []color.Attribute
}{
	{"❌", []color.Attribute{color.FgHiRed}},
	{"⚠️", []color.Attribute{color.FgYellow}},
	{"✅", []color.Attribute{color.FgGreen}},
	{"🚫", []color.Attribute{color.FgRed}},
	{"✨", []color.Attribute{color.FgHiCyan}},
	{"📅", []color.Attribute{color.FgCyan, color.Bold}},
	{"🏁", []color.Attribute{color.FgBlue}},
	{"📝", []color.Attribute{color.FgMagenta}},
	{"➡️", []color.Attribute{color.FgHiGreen}},
}

// printLines colors each line by its leading emoji.
func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		attrs := []color.Attribute{color.FgWhite}
		for _, pc := range linePrefixColors {
			if strings.HasPrefix(line, pc.prefix) {
				attrs = pc.attrs
				break
			}
		}
		color.New(attrs...).Fprintln(w, line)
	}
}

func entryLines(e catalog.Entry, completed bool, note string) []string {
	status := "⏳ pending"
	if completed {
		status = "✅ completed"
	}
	lines := []string{
		fmt.Sprintf("📅 Day %d · Week %d · %s", e.Day, e.Week, e.StageName),
		fmt.Sprintf("✨ %s", e.Title),
		fmt.Sprintf("   difficulty: %s   time: %s   status: %s", orUnset(e.Difficulty), orUnset(e.EstimatedTime), status),
	}
	if e.Content != "" {
		lines = append(lines, "", e.Content)
	}
	if len(e.Tasks) > 0 {
		lines = append(lines, "", "Tasks:")
		lines = append(lines, lo.Map(e.Tasks, func(task string, i int) string {
			return fmt.Sprintf("  %d. %s", i+1, task)
		})...)
	}
	for _, ex := range e.CodeExamples {
		lines = append(lines, "", fmt.Sprintf("Example: %s", ex.Title))
		lines = append(lines, indent(ex.Code, "    ")...)
	}
	if note != "" {
		lines = append(lines, "", "📝 "+note)
	}
	return lines
}

func entrySummary(e catalog.Entry, completed bool) string {
	mark := "·"
	if completed {
		mark = "✓"
	}
	return fmt.Sprintf("  %s day %3d  %-10s %s", mark, e.Day, orUnset(e.Difficulty), e.Title)
}

func historyLine(item progress.HistoryItem) string {
	on := item.CompletedOn
	if on == "" {
		on = "----------"
	}
	if !item.Completed {
		on = "pending   "
	}
	return fmt.Sprintf("  %s  day %3d  %s", on, item.Day, item.Title)
}

func statsLines(s progress.Stats, dailyGoal int) []string {
	return []string{
		fmt.Sprintf("📅 Day %d of %d (week %d, stage %d)", s.CurrentDay, s.TotalDays, s.CurrentWeek, s.CurrentStage),
		fmt.Sprintf("✅ Completed %d days (%.1f%%)", s.CompletedDays, s.CompletionRate),
		fmt.Sprintf("✨ Current streak %d days, longest %d", s.CurrentStreak, s.LongestStreak),
		fmt.Sprintf("   Study time %d minutes (daily goal %d)", s.TotalStudyTime, dailyGoal),
	}
}

func stageLine(p catalog.StageProgress, stage catalog.Stage) string {
	return fmt.Sprintf("🏁 Stage %d %s (%s): %d/%d days, %.1f%%",
		p.StageID, p.StageName, stage.WeekLabel, p.Completed, p.TotalDays, p.Rate*100)
}

// renderJSON returns v as indented JSON, or YAML when asYAML is set.
func renderJSON(v any, asYAML bool) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return renderDocument(data, asYAML)
}

func renderDocument(data []byte, asYAML bool) (string, error) {
	if asYAML {
		out, err := progress.ToYAML(data)
		return string(out), err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

// parseSettingValue reads JSON literals (numbers, booleans, objects) and
// falls back to the raw string.
func parseSettingValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// parseDay accepts "12" as well as "day_12".
func parseDay(arg string) (int, error) {
	day, ok := progress.ParseDayKey(arg)
	if !ok {
		return 0, fmt.Errorf("invalid day %q", arg)
	}
	return day, nil
}

func indent(text, prefix string) []string {
	return lo.Map(strings.Split(strings.TrimRight(text, "\n"), "\n"), func(line string, _ int) string {
		return prefix + line
	})
}

func orUnset(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
