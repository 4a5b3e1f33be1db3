package config

// ServerConfiguration is the root configuration object for a castwave server.
// It is replaced wholesale through Manager.ReplaceRoot; callers never mutate
// the live object in place.
type ServerConfiguration struct {
	// ServerName is the display name announced to clients.
	// Default: the machine host name, or "castwave" when unavailable
	ServerName string `yaml:"server_name"`

	// ServerID is the stable installation identifier. Generated once at first
	// startup and persisted; treat as opaque.
	// Default: "" (assigned a UUID by the Manager on first load)
	ServerID string `yaml:"server_id"`

	// MetadataPath optionally overrides where item metadata is stored.
	// When empty the metadata directory is derived under the program data
	// directory. A non-empty value must point at an existing writable
	// directory to be accepted by ReplaceRoot.
	// Default: ""
	MetadataPath string `yaml:"metadata_path"`

	// CertificatePath optionally points at a TLS certificate bundle file.
	// A non-empty value must point at an existing file to be accepted by
	// ReplaceRoot.
	// Default: ""
	CertificatePath string `yaml:"certificate_path"`

	// Library holds media library scanning options.
	Library LibraryOptions `yaml:"library"`

	// Streaming holds playback and delivery options.
	Streaming StreamingOptions `yaml:"streaming"`
}

// Clone returns a deep copy of the configuration. The struct currently holds
// only value fields, so a dereference copy is sufficient; Clone is the single
// place to extend when reference fields are added.
func (c *ServerConfiguration) Clone() *ServerConfiguration {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
