package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/mmspanish/studytrack/internal/progress"
	"github.com/mmspanish/studytrack/internal/settings"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newTodayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the task for the current day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.store.CurrentDay()
			entry, ok := a.store.CurrentTask()
			if !ok {
				a.print(cmd, []string{fmt.Sprintf("⚠️ No curriculum entry for day %d", day)})
				return nil
			}
			a.print(cmd, entryLines(entry, a.store.IsCompleted(day), a.store.Note(day)))
			return nil
		},
	}
}

func newCompleteCommand(a *app) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark the current day's task as done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.store.CurrentDay()
			ok, err := a.store.CompleteCurrentTask()
			if err != nil {
				return err
			}
			if !ok {
				a.print(cmd, []string{fmt.Sprintf("⚠️ Day %d is already complete or has no curriculum entry", day)})
				return nil
			}

			prefs := a.settings.Typed()
			lines := []string{fmt.Sprintf("✅ Day %d complete", day)}
			if prefs.Notifications.TaskCompletion {
				lines = append(lines, fmt.Sprintf("✨ %.1f%% of the curriculum done", a.store.Statistics().CompletionRate))
			}
			if minutes > 0 {
				if err := a.store.AddStudyTime(minutes); err != nil {
					return err
				}
				lines = append(lines, fmt.Sprintf("   logged %d minutes", minutes))
			}
			if prefs.Learning.AutoAdvance {
				if err := a.store.NextDay(); err != nil {
					return err
				}
				lines = append(lines, fmt.Sprintf("➡️ Moved on to day %d", a.store.CurrentDay()))
			}
			a.print(cmd, lines)
			return nil
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "study minutes to log with the completion")
	return cmd
}

func newUncompleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uncomplete <day>",
		Short: "Move a completed day back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			ok, err := a.store.MarkIncomplete(day)
			if err != nil {
				return err
			}
			if !ok {
				a.print(cmd, []string{fmt.Sprintf("⚠️ Day %d was not completed", day)})
				return nil
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Day %d marked as pending", day)})
			return nil
		},
	}
}

func newMarkCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <day>",
		Short: "Mark any curriculum day as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			ok, err := a.store.MarkCompleted(day)
			if err != nil {
				return err
			}
			if !ok {
				a.print(cmd, []string{fmt.Sprintf("⚠️ Day %d is already complete or has no curriculum entry", day)})
				return nil
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Day %d complete", day)})
			return nil
		},
	}
}

func newNextCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Advance to the next day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.NextDay(); err != nil {
				return err
			}
			day := a.store.CurrentDay()
			lines := []string{fmt.Sprintf("➡️ Now on day %d", day)}
			if day > a.catalog.TotalDays() {
				lines = append(lines, "✨ The curriculum is finished")
			}
			a.print(cmd, lines)
			return nil
		},
	}
}

func newNoteCommand(a *app) *cobra.Command {
	note := &cobra.Command{
		Use:   "note",
		Short: "Read or write the note attached to a day",
	}
	note.AddCommand(&cobra.Command{
		Use:   "get [day]",
		Short: "Print the note for a day (default: current day)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.store.CurrentDay()
			if len(args) == 1 {
				var err error
				if day, err = parseDay(args[0]); err != nil {
					return err
				}
			}
			text := a.store.Note(day)
			if text == "" {
				a.print(cmd, []string{fmt.Sprintf("   No note for day %d", day)})
				return nil
			}
			a.print(cmd, append([]string{fmt.Sprintf("📝 Day %d", day)}, indent(text, "   ")...))
			return nil
		},
	})
	note.AddCommand(&cobra.Command{
		Use:   "set <day> [text...]",
		Short: "Replace the note for a day; no text clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if err := a.store.SetNote(day, text); err != nil {
				return err
			}
			if text == "" {
				a.print(cmd, []string{fmt.Sprintf("📝 Cleared the note for day %d", day)})
				return nil
			}
			a.print(cmd, []string{fmt.Sprintf("📝 Saved the note for day %d", day)})
			return nil
		},
	})
	return note
}

func newStatsCommand(a *app) *cobra.Command {
	var asYAML, asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := a.store.Statistics()
			if asYAML || asJSON {
				out, err := renderJSON(stats, asYAML)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			a.print(cmd, statsLines(stats, a.settings.Typed().Learning.DailyGoalMinutes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newStagesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Show progress per curriculum stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := a.store.Statistics().CurrentStage
			lines := lo.FilterMap(a.store.StageBreakdown(), func(p catalog.StageProgress, _ int) (string, bool) {
				stage, ok := a.catalog.Stage(p.StageID)
				if !ok {
					return "", false
				}
				line := stageLine(p, stage)
				if p.StageID == current {
					line += "  ← current"
				}
				return line, true
			})
			a.print(cmd, lines)
			return nil
		},
	}
}

func newWeekCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "week [n]",
		Short: "List the authored days of a week (default: current week)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week := catalog.WeekOf(a.store.CurrentDay())
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 || n > catalog.TotalWeeks {
					return fmt.Errorf("week must be between 1 and %d", catalog.TotalWeeks)
				}
				week = n
			}
			entries := a.catalog.WeekEntries(week)
			lines := []string{fmt.Sprintf("📅 Week %d", week)}
			if len(entries) == 0 {
				lines = append(lines, "   no authored days")
			}
			lines = append(lines, lo.Map(entries, func(e catalog.Entry, _ int) string {
				return entrySummary(e, a.store.IsCompleted(e.Day))
			})...)
			a.print(cmd, lines)
			return nil
		},
	}
}

func newSearchCommand(a *app) *cobra.Command {
	var byDifficulty bool
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find days whose title, content or tasks mention a keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.Join(args, " ")
			results := a.catalog.Search(keyword)
			if byDifficulty {
				catalog.SortByDifficulty(results)
			}
			if len(results) == 0 {
				a.print(cmd, []string{fmt.Sprintf("🚫 Nothing matches %q", keyword)})
				return nil
			}
			lines := []string{fmt.Sprintf("✨ %d matches for %q", len(results), keyword)}
			lines = append(lines, lo.Map(results, func(e catalog.Entry, _ int) string {
				return entrySummary(e, a.store.IsCompleted(e.Day))
			})...)
			a.print(cmd, lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&byDifficulty, "by-difficulty", false, "order results from easiest to hardest")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit  int
		filter string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := progress.ParseFilter(filter)
			if err != nil {
				return err
			}
			var items []progress.HistoryItem
			if kind == progress.FilterAll && filter == "" {
				items = a.store.History(limit)
			} else {
				items = a.store.Filter(kind)
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
			}
			if len(items) == 0 {
				a.print(cmd, []string{"   nothing to show"})
				return nil
			}
			a.print(cmd, lo.Map(items, func(item progress.HistoryItem, _ int) string {
				return historyLine(item)
			}))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of rows, 0 for all")
	cmd.Flags().StringVar(&filter, "filter", "", "all, completed, pending, week or month")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Write a progress snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := progress.ParseFormat(a.settings.Typed().Data.ExportFormat)
			if err != nil {
				a.log.Warn("unknown export format in settings", "format", a.settings.Typed().Data.ExportFormat)
				format = progress.FormatJSON
			}
			if asYAML {
				format = progress.FormatYAML
			}
			snap, err := a.store.Export(args[0], format)
			if err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Exported %d completed days to %s (id %s)", len(snap.CompletedTasks), args[0], snap.ExportID)})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write YAML instead of JSON")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Replace progress with a previously exported snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Import(args[0]); err != nil {
				if errors.Is(err, progress.ErrEmptySnapshot) {
					a.print(cmd, []string{fmt.Sprintf("❌ %s holds no progress data", args[0])})
				}
				return err
			}
			stats := a.store.Statistics()
			a.print(cmd, []string{fmt.Sprintf("✅ Imported progress: day %d, %d completed", stats.CurrentDay, stats.CompletedDays)})
			return nil
		},
	}
}

func newReportCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a markdown progress report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), a.store.Report())
				return nil
			}
			if err := a.store.WriteReport(out); err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Report written to %s", out)})
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the report to a file instead of stdout")
	return cmd
}

func newResetCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				a.print(cmd, []string{"⚠️ This deletes all progress. Re-run with --yes to confirm."})
				return nil
			}
			if err := a.store.Reset(); err != nil {
				return err
			}
			a.print(cmd, []string{"✅ Progress reset to day 1"})
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newSettingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change user settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting by dotted path, e.g. appearance.theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.settings.Get(args[0])
			if !res.Exists() {
				return fmt.Errorf("no setting %q", args[0])
			}
			if res.IsObject() || res.IsArray() {
				out, err := renderDocument([]byte(res.Raw), false)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting; JSON literals are decoded, anything else is a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Set(args[0], parseSettingValue(args[1])); err != nil {
				return err
			}
			if err := a.settings.Save(); err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ %s = %s", settings.MigrateLegacyKey(args[0]), a.settings.Get(args[0]).Raw)})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting; required keys fall back to their defaults on next load",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.settings.Remove(args[0]) {
				a.print(cmd, []string{fmt.Sprintf("⚠️ No setting %q", args[0])})
				return nil
			}
			if err := a.settings.Save(); err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Removed %s", settings.MigrateLegacyKey(args[0]))})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset [section]",
		Short: "Restore defaults for one section or everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := a.settings.ResetToDefaults(); err != nil {
					return err
				}
				a.print(cmd, []string{"✅ All settings restored to defaults"})
				return nil
			}
			if err := a.settings.ResetSection(args[0]); err != nil {
				return err
			}
			if err := a.settings.Save(); err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Section %s restored to defaults", args[0])})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Validate(); err != nil {
				a.print(cmd, []string{fmt.Sprintf("❌ %v", err)})
				return err
			}
			a.print(cmd, []string{"✅ Settings are valid"})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "backup [path]",
		Short: "Copy the settings to a backup file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.settings.Backup(strings.Join(args, ""))
			if err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Settings backed up to %s", path)})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <path>",
		Short: "Load settings from a file, merged over the defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Import(args[0]); err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Settings imported from %s", args[0])})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <path>",
		Short: "Write the settings to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Export(args[0]); err != nil {
				return err
			}
			a.print(cmd, []string{fmt.Sprintf("✅ Settings exported to %s", args[0])})
			return nil
		},
	})

	var showYAML bool
	show := &cobra.Command{
		Use:   "show [section]",
		Short: "Print the whole settings document or one section",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := a.settings.Document()
			if len(args) == 1 {
				if !lo.Contains(settings.Sections, args[0]) && !a.settings.Has(args[0]) {
					return fmt.Errorf("%w: %s", settings.ErrUnknownSection, args[0])
				}
				doc = []byte(a.settings.Get(args[0]).Raw)
			}
			out, err := renderDocument(doc, showYAML)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	show.Flags().BoolVar(&showYAML, "yaml", false, "print as YAML")
	cmd.AddCommand(show)

	return cmd
}
