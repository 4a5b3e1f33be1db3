package config

import (
	"os"

	"github.com/castwave/castwave/lib/util/logger"
)

// DefaultServerConfiguration returns the shipped root configuration.
// All default values live here and in the per-concern builders below so they
// are easy to discover, document, and modify. The returned object is fresh on
// every call; callers own it.
func DefaultServerConfiguration() *ServerConfiguration {
	return &ServerConfiguration{
		ServerName:      defaultServerName(),
		ServerID:        "",
		MetadataPath:    "",
		CertificatePath: "",
		Library:         buildLibraryDefaults(),
		Streaming:       buildStreamingDefaults(),
	}
}

// defaultServerName uses the machine host name so a fresh install is
// distinguishable on the network without any configuration.
func defaultServerName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "castwave"
	}
	return name
}

// buildLibraryDefaults constructs library scanning defaults.
// Conservative: the expensive scan features start off and are turned on by
// ApplyRecommendedDefaults on capable installs.
func buildLibraryDefaults() LibraryOptions {
	return LibraryOptions{
		ScanIntervalMinutes:     720,
		EnableRealtimeMonitor:   false,
		EnableChapterThumbnails: false,
	}
}

// buildStreamingDefaults constructs playback delivery defaults.
func buildStreamingDefaults() StreamingOptions {
	return StreamingOptions{
		MaxConcurrentStreams:   8,
		SegmentDurationSeconds: 6,
		EnableThrottling:       false,
	}
}

// applyRecommendedFlags flips the fixed recommended feature set to on and
// reports whether anything changed. Flags already on are left alone, so the
// operation is idempotent.
func applyRecommendedFlags(cfg *ServerConfiguration) bool {
	changed := false
	if !cfg.Library.EnableRealtimeMonitor {
		cfg.Library.EnableRealtimeMonitor = true
		changed = true
	}
	if !cfg.Library.EnableChapterThumbnails {
		cfg.Library.EnableChapterThumbnails = true
		changed = true
	}
	if !cfg.Streaming.EnableThrottling {
		cfg.Streaming.EnableThrottling = true
		changed = true
	}
	return changed
}

// Validate checks a configuration for structurally invalid settings.
// It is advisory: the Manager logs failures on loaded configurations rather
// than refusing to start, and the replacement protocol applies only the
// filesystem path rules. Tests hold the shipped defaults to this bar.
func Validate(cfg *ServerConfiguration) error {
	log.WithFields(logger.Fields{
		"at":     "ValidateServerConfiguration",
		"reason": "verification_requested",
	}).Debug("validating server configuration")
	return runConfigValidators(cfg)
}

// runConfigValidators executes all configuration validators in sequence.
// Returns the first error encountered or nil if all validations pass.
func runConfigValidators(cfg *ServerConfiguration) error {
	validators := []func() error{
		func() error { return validateLibrary(cfg.Library) },
		func() error { return validateStreaming(cfg.Streaming) },
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			log.WithError(err).Error("Configuration validation failed")
			return err
		}
	}
	log.WithFields(logger.Fields{
		"at":     "ValidateServerConfiguration",
		"reason": "all_validators_passed",
	}).Debug("all configuration validations passed")
	return nil
}

// validateLibrary validates library scanning settings.
func validateLibrary(library LibraryOptions) error {
	if library.ScanIntervalMinutes < 1 {
		log.WithField("scan_interval_minutes", library.ScanIntervalMinutes).Error("Invalid library configuration")
		return newValidationError("Library.ScanIntervalMinutes must be at least 1")
	}
	return nil
}

// validateStreaming validates playback delivery settings.
func validateStreaming(streaming StreamingOptions) error {
	if streaming.MaxConcurrentStreams < 1 {
		log.WithField("max_concurrent_streams", streaming.MaxConcurrentStreams).Error("Invalid streaming configuration")
		return newValidationError("Streaming.MaxConcurrentStreams must be at least 1")
	}
	if streaming.SegmentDurationSeconds < 1 || streaming.SegmentDurationSeconds > 60 {
		log.WithField("segment_duration_seconds", streaming.SegmentDurationSeconds).Error("Invalid streaming configuration")
		return newValidationError("Streaming.SegmentDurationSeconds must be between 1 and 60")
	}
	return nil
}

// validationError is returned when configuration validation fails
type validationError struct {
	message string
}

func newValidationError(message string) error {
	return &validationError{message: message}
}

func (e *validationError) Error() string {
	return "configuration validation failed: " + e.message
}
