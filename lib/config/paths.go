package config

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/castwave/castwave/lib/util/logger"
	"github.com/samber/oops"
)

// ApplicationPaths is the narrow surface of the install layout that the
// configuration core mutates. ProgramDataPath is fixed for the life of the
// process; the two slots are recomputed by the Manager at construction and
// after accepted replacements.
type ApplicationPaths interface {
	// ProgramDataPath is the root of server-owned state.
	ProgramDataPath() string
	// SetMetadataPath updates the effective metadata directory slot.
	SetMetadataPath(path string)
	// SetTranscodePath updates the effective transcode directory slot.
	// An empty path clears it.
	SetTranscodePath(path string)
}

// ServerPaths is the concrete directory layout of a castwave install:
//
//	<base>/config   managed configuration files
//	<base>/data     program data (metadata lives under it by default)
//	<base>/logs     log output
//	<base>/cache    image and stream caches
//
// The constructor creates the tree. Other subsystems read the derived slots
// through MetadataPath and TranscodePath.
type ServerPaths struct {
	baseDir   string
	configDir string
	dataDir   string
	logDir    string
	cacheDir  string

	mu            sync.RWMutex
	metadataPath  string
	transcodePath string
}

var _ ApplicationPaths = (*ServerPaths)(nil)

// NewServerPaths lays out and creates the directory tree under baseDir.
func NewServerPaths(baseDir string) (*ServerPaths, error) {
	if isBlank(baseDir) {
		return nil, oops.Errorf("base directory is empty")
	}

	p := &ServerPaths{
		baseDir:   baseDir,
		configDir: filepath.Join(baseDir, "config"),
		dataDir:   filepath.Join(baseDir, "data"),
		logDir:    filepath.Join(baseDir, "logs"),
		cacheDir:  filepath.Join(baseDir, "cache"),
	}

	// The config dir can hold certificate locations and the server identity.
	if err := CreateSecureDirectory(p.configDir); err != nil {
		return nil, oops.Errorf("creating config directory: %w", err)
	}
	for _, dir := range []string{p.dataDir, p.logDir, p.cacheDir} {
		if err := CreateStandardDirectory(dir); err != nil {
			return nil, oops.Errorf("creating directory %s: %w", dir, err)
		}
	}

	log.WithFields(logger.Fields{
		"at":       "NewServerPaths",
		"base_dir": baseDir,
	}).Debug("server directory layout ready")
	return p, nil
}

// BaseDir is the install root.
func (p *ServerPaths) BaseDir() string { return p.baseDir }

// ConfigDir holds the managed configuration files.
func (p *ServerPaths) ConfigDir() string { return p.configDir }

// ProgramDataPath is the root of server-owned state.
func (p *ServerPaths) ProgramDataPath() string { return p.dataDir }

// LogDir holds log output.
func (p *ServerPaths) LogDir() string { return p.logDir }

// CacheDir holds image and stream caches.
func (p *ServerPaths) CacheDir() string { return p.cacheDir }

// MetadataPath is the effective metadata directory slot.
func (p *ServerPaths) MetadataPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metadataPath
}

// SetMetadataPath updates the effective metadata directory slot.
func (p *ServerPaths) SetMetadataPath(path string) {
	p.mu.Lock()
	p.metadataPath = path
	p.mu.Unlock()
	log.WithFields(logger.Fields{
		"at":   "(ServerPaths) SetMetadataPath",
		"path": path,
	}).Debug("metadata path updated")
}

// TranscodePath is the effective transcode directory slot; empty when no
// transcode directory is configured.
func (p *ServerPaths) TranscodePath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transcodePath
}

// SetTranscodePath updates the effective transcode directory slot. An empty
// path clears it.
func (p *ServerPaths) SetTranscodePath(path string) {
	p.mu.Lock()
	p.transcodePath = path
	p.mu.Unlock()
	log.WithFields(logger.Fields{
		"at":   "(ServerPaths) SetTranscodePath",
		"path": path,
	}).Debug("transcode path updated")
}

// DeriveMetadataPath computes the effective metadata directory for a
// configuration: the configured override when set, otherwise "metadata"
// under the program data directory.
func DeriveMetadataPath(cfg *ServerConfiguration, programDataDir string) string {
	if cfg == nil || isBlank(cfg.MetadataPath) {
		return filepath.Join(programDataDir, "metadata")
	}
	return cfg.MetadataPath
}

// DeriveTranscodePath computes the effective transcode directory for an
// encoding fragment: "transcodes" under the configured scratch path, or ""
// when no scratch path is set.
func DeriveTranscodePath(enc *EncodingOptions) string {
	if enc == nil || isBlank(enc.TranscodingTempPath) {
		return ""
	}
	return filepath.Join(enc.TranscodingTempPath, "transcodes")
}

// isBlank treats whitespace-only values as unset.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
