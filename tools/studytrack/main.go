package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mmspanish/studytrack/internal/catalog"
	"github.com/mmspanish/studytrack/internal/config"
	"github.com/mmspanish/studytrack/internal/logger"
	"github.com/mmspanish/studytrack/internal/progress"
	"github.com/mmspanish/studytrack/internal/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds everything a command needs. It is filled in by setup before
// any subcommand runs.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	log      *logger.Logger
	settings *settings.Manager
	catalog  *catalog.Catalog
	store    *progress.Store
	warnings []string
}

func main() {
	a := &app{v: config.NewViper(config.HomeDir())}
	root := newRootCommand(a)
	if err := root.Execute(); err != nil {
		color.New(color.FgHiRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "studytrack",
		Short:         "Track progress through the 140-day math modeling curriculum",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("data-dir", "", "directory holding progress.json")
	flags.String("progress-file", "", "progress file (default <data-dir>/progress.json)")
	flags.String("settings-file", "", "user settings file")
	flags.String("log-dir", "", "directory for rotating log files")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("catalog", "", "curriculum JSON to use instead of the built-in one")
	flags.BoolP("verbose", "v", false, "also log to stderr")
	for _, name := range []string{"data-dir", "progress-file", "settings-file", "log-dir", "log-level", "catalog", "verbose"} {
		_ = a.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	root.AddCommand(
		newTodayCommand(a),
		newCompleteCommand(a),
		newUncompleteCommand(a),
		newMarkCommand(a),
		newNextCommand(a),
		newNoteCommand(a),
		newStatsCommand(a),
		newStagesCommand(a),
		newWeekCommand(a),
		newSearchCommand(a),
		newHistoryCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newReportCommand(a),
		newResetCommand(a),
		newSettingsCommand(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	a.log, err = logger.New(logger.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Console: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.settings = settings.NewManager(cfg.SettingsFile, a.log)
	if !a.settings.Load() {
		a.warnings = append(a.warnings, "⚠️ settings file unreadable, using defaults")
	}
	if err := a.settings.Validate(); err != nil {
		a.log.Warn("settings failed validation", "error", err)
	}
	if a.settings.Typed().Advanced.DebugMode && !strings.EqualFold(cfg.LogLevel, "debug") {
		a.log.Sync()
		if a.log, err = logger.New(logger.Options{Dir: cfg.LogDir, Level: "debug", Console: cfg.Verbose}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	if cfg.Catalog != "" {
		a.catalog, err = catalog.Load(cfg.Catalog, false)
	} else {
		a.catalog, err = catalog.Default()
	}
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	a.store = progress.NewStore(cfg.ProgressFile, a.catalog, a.log)
	status := a.store.Load()
	if status.Source == progress.SourceRecovered {
		a.warnings = append(a.warnings, fmt.Sprintf("⚠️ progress file unreadable, starting fresh: %v", status.Err))
	}
	if len(status.Dropped) > 0 {
		a.warnings = append(a.warnings, fmt.Sprintf("⚠️ ignored %d invalid progress entries", len(status.Dropped)))
	}
	a.log.Debug("startup complete",
		"progress_file", cfg.ProgressFile,
		"settings_file", cfg.SettingsFile,
		"load_source", status.Source.String(),
	)
	return nil
}

// print writes warnings collected during setup followed by lines.
func (a *app) print(cmd *cobra.Command, lines []string) {
	printLines(cmd.OutOrStdout(), append(a.takeWarnings(), lines...))
}

func (a *app) takeWarnings() []string {
	w := a.warnings
	a.warnings = nil
	return w
}
