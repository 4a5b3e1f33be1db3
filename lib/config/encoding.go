package config

// EncodingKey is the fragment key for transcoder options. Replacing this
// fragment recomputes the derived transcode path.
const EncodingKey = "encoding"

// EncodingOptions is the named configuration fragment for the transcoder.
// Unlike the root configuration it is replaced without validation; the
// transcoder tolerates bad settings at use time.
type EncodingOptions struct {
	// TranscodingTempPath is the base directory for transcoder scratch
	// space. When empty no transcode directory is derived and the server
	// falls back to per-session temp dirs.
	// Default: ""
	TranscodingTempPath string `yaml:"transcoding_temp_path"`

	// HardwareAcceleration selects the encode backend.
	// Valid values: "none", "vaapi", "qsv"
	// Default: "none"
	HardwareAcceleration string `yaml:"hardware_acceleration"`

	// ThreadCount limits encoder threads. Zero means auto.
	// Default: 0
	ThreadCount int `yaml:"thread_count"`
}

// DefaultEncodingOptions returns the shipped encoding fragment defaults.
func DefaultEncodingOptions() *EncodingOptions {
	return &EncodingOptions{
		TranscodingTempPath:  "",
		HardwareAcceleration: "none",
		ThreadCount:          0,
	}
}
