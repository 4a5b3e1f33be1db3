package config

// LaunchConfig carries the handful of settings read from the launch file
// before the server starts. Everything else lives in the managed
// configuration store once the repository is open.
type LaunchConfig struct {
	// BaseDir is the root of the castwave state tree. The config, data,
	// logs and cache directories live underneath it.
	// Default: $HOME/.castwave
	BaseDir string `yaml:"base_dir"`

	// LogLevel sets console logging verbosity at startup.
	// Valid values: "debug", "info", "warn", "error", "off"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// WatchConfig reloads the stored configuration when its file changes
	// on disk.
	// Default: true
	WatchConfig bool `yaml:"watch_config"`
}

// DefaultLaunchConfig returns the launch settings used when no launch file
// exists yet.
func DefaultLaunchConfig() *LaunchConfig {
	return &LaunchConfig{
		BaseDir:     BuildCastwaveDirPath(),
		LogLevel:    "info",
		WatchConfig: true,
	}
}
