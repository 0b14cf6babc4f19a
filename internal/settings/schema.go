package settings

// Sections lists the settings sections in display order.
var Sections = []string{
	"appearance", "behavior", "notifications", "data", "learning",
	"advanced", "ui", "shortcuts", "statistics",
}

var requiredSections = []string{"appearance", "behavior", "notifications", "data"}

type Settings struct {
	Appearance    Appearance    `json:"appearance"`
	Behavior      Behavior      `json:"behavior"`
	Notifications Notifications `json:"notifications"`
	Data          Data          `json:"data"`
	Learning      Learning      `json:"learning"`
	Advanced      Advanced      `json:"advanced"`
	UI            UI            `json:"ui"`
	Shortcuts     Shortcuts     `json:"shortcuts"`
	Statistics    Statistics    `json:"statistics"`
}

type Appearance struct {
	Theme          string  `json:"theme"`
	FontSize       string  `json:"font_size"`
	Opacity        float64 `json:"opacity"`
	WindowSize     string  `json:"window_size"`
	WindowPosition string  `json:"window_position"`
	ColorScheme    string  `json:"color_scheme"`
}

type Behavior struct {
	AutoSave            bool `json:"auto_save"`
	SaveInterval        int  `json:"save_interval"`
	CheckUpdates        bool `json:"check_updates"`
	MinimizeToTray      bool `json:"minimize_to_tray"`
	AutoStart           bool `json:"auto_start"`
	ConfirmExit         bool `json:"confirm_exit"`
	RememberWindowState bool `json:"remember_window_state"`
}

type Notifications struct {
	Enabled        bool   `json:"enabled"`
	TaskCompletion bool   `json:"task_completion"`
	StudyReminder  bool   `json:"study_reminder"`
	ReminderTime   string `json:"reminder_time"`
	SoundEnabled   bool   `json:"sound_enabled"`
	PopupDuration  int    `json:"popup_duration"`
}

type Data struct {
	StoragePath         string `json:"storage_path"`
	AutoBackup          bool   `json:"auto_backup"`
	BackupRetentionDays int    `json:"backup_retention_days"`
	BackupInterval      int    `json:"backup_interval"`
	ExportFormat        string `json:"export_format"`
	CompressionEnabled  bool   `json:"compression_enabled"`
}

type Learning struct {
	DailyGoalMinutes     int  `json:"daily_goal_minutes"`
	BreakReminder        bool `json:"break_reminder"`
	BreakInterval        int  `json:"break_interval"`
	AutoAdvance          bool `json:"auto_advance"`
	DifficultyAdjustment bool `json:"difficulty_adjustment"`
	ShowProgressDetails  bool `json:"show_progress_details"`
}

type Advanced struct {
	DebugMode            bool   `json:"debug_mode"`
	LogLevel             string `json:"log_level"`
	PerformanceMonitor   bool   `json:"performance_monitor"`
	ExperimentalFeatures bool   `json:"experimental_features"`
	CacheEnabled         bool   `json:"cache_enabled"`
	MaxCacheSize         int    `json:"max_cache_size"`
}

type UI struct {
	ShowSidebar      bool `json:"show_sidebar"`
	ShowStatusBar    bool `json:"show_status_bar"`
	ShowToolbar      bool `json:"show_toolbar"`
	CompactMode      bool `json:"compact_mode"`
	AnimationEnabled bool `json:"animation_enabled"`
	SmoothScrolling  bool `json:"smooth_scrolling"`
}

type Shortcuts struct {
	CompleteTask  string `json:"complete_task"`
	SkipTask      string `json:"skip_task"`
	SaveNotes     string `json:"save_notes"`
	OpenSettings  string `json:"open_settings"`
	ToggleSidebar string `json:"toggle_sidebar"`
	Search        string `json:"search"`
}

type Statistics struct {
	TrackTime         bool   `json:"track_time"`
	DetailedAnalytics bool   `json:"detailed_analytics"`
	ExportStats       bool   `json:"export_stats"`
	ChartType         string `json:"chart_type"`
	TimeRange         string `json:"time_range"`
	ShowPredictions   bool   `json:"show_predictions"`
}

// Defaults returns the documented default settings.
func Defaults() Settings {
	return Settings{
		Appearance: Appearance{
			Theme:          "系统",
			FontSize:       "中等",
			Opacity:        1.0,
			WindowSize:     "1200x800",
			WindowPosition: "center",
			ColorScheme:    "default",
		},
		Behavior: Behavior{
			AutoSave:            true,
			SaveInterval:        5,
			CheckUpdates:        true,
			ConfirmExit:         true,
			RememberWindowState: true,
		},
		Notifications: Notifications{
			Enabled:        true,
			TaskCompletion: true,
			ReminderTime:   "09:00",
			SoundEnabled:   true,
			PopupDuration:  5,
		},
		Data: Data{
			StoragePath:         "./data",
			AutoBackup:          true,
			BackupRetentionDays: 30,
			BackupInterval:      24,
			ExportFormat:        "json",
		},
		Learning: Learning{
			DailyGoalMinutes:     60,
			BreakReminder:        true,
			BreakInterval:        25,
			DifficultyAdjustment: true,
			ShowProgressDetails:  true,
		},
		Advanced: Advanced{
			LogLevel:     "INFO",
			CacheEnabled: true,
			MaxCacheSize: 100,
		},
		UI: UI{
			ShowSidebar:      true,
			ShowStatusBar:    true,
			ShowToolbar:      true,
			AnimationEnabled: true,
			SmoothScrolling:  true,
		},
		Shortcuts: Shortcuts{
			CompleteTask:  "Ctrl+Return",
			SkipTask:      "Ctrl+S",
			SaveNotes:     "Ctrl+S",
			OpenSettings:  "Ctrl+Comma",
			ToggleSidebar: "Ctrl+B",
			Search:        "Ctrl+F",
		},
		Statistics: Statistics{
			TrackTime:         true,
			DetailedAnalytics: true,
			ExportStats:       true,
			ChartType:         "line",
			TimeRange:         "30_days",
		},
	}
}
