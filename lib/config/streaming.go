package config

// StreamingOptions controls playback delivery.
type StreamingOptions struct {
	// MaxConcurrentStreams caps simultaneous playback sessions.
	// Default: 8
	MaxConcurrentStreams int `yaml:"max_concurrent_streams"`

	// SegmentDurationSeconds is the HLS segment length handed to clients.
	// Default: 6
	SegmentDurationSeconds int `yaml:"segment_duration_seconds"`

	// EnableThrottling pauses delivery to clients that are far ahead of
	// their playback position, freeing bandwidth for active viewers.
	// Default: false (recommended: true)
	EnableThrottling bool `yaml:"enable_throttling"`
}
