package config

// LibraryOptions controls media library scanning behavior.
type LibraryOptions struct {
	// ScanIntervalMinutes is how often the periodic library scan runs.
	// Default: 720 (twelve hours)
	ScanIntervalMinutes int `yaml:"scan_interval_minutes"`

	// EnableRealtimeMonitor watches library folders for changes between
	// scans instead of waiting for the next periodic pass.
	// Default: false (recommended: true)
	EnableRealtimeMonitor bool `yaml:"enable_realtime_monitor"`

	// EnableChapterThumbnails extracts chapter images during scans so
	// players can show a filmstrip. Costs CPU at scan time.
	// Default: false (recommended: true)
	EnableChapterThumbnails bool `yaml:"enable_chapter_thumbnails"`
}
