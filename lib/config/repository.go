package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/castwave/castwave/lib/util"
	"github.com/castwave/castwave/lib/util/logger"
	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// rootConfigName is the base name of the root configuration file.
const rootConfigName = "system"

// loadExtensions are probed in order when loading; the first existing file
// wins. Saves always write the canonical ".yaml" form.
var loadExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// Repository is the persistence collaborator for the Manager. It owns the
// on-disk format; the Manager only sees structs and never touches files
// directly.
type Repository interface {
	// LoadRoot reads the persisted root configuration. found is false when
	// no file exists yet.
	LoadRoot() (cfg *ServerConfiguration, found bool, err error)
	// SaveRoot persists the root configuration atomically.
	SaveRoot(cfg *ServerConfiguration) error
	// LoadNamed reads the fragment stored under key into out. found is
	// false when no file exists for the key.
	LoadNamed(key string, out any) (found bool, err error)
	// SaveNamed persists a fragment under key atomically.
	SaveNamed(key string, fragment any) error
}

// FileRepository stores the root configuration and named fragments as files
// in the config directory: "system.yaml" for the root, "<key>.yaml" per
// fragment. Loading also accepts ".yml", ".toml" and ".json" variants so
// configurations written by other tools can be dropped in; saving always
// writes canonical YAML.
type FileRepository struct {
	dir string
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository opens (and creates if needed) a repository over the
// given config directory. Existing files get their permissions tightened,
// since hand-edited configurations often arrive world-readable.
func NewFileRepository(dir string) (*FileRepository, error) {
	if isBlank(dir) {
		return nil, oops.Errorf("config directory is empty")
	}
	if err := CreateSecureDirectory(dir); err != nil {
		return nil, oops.Errorf("creating config directory: %w", err)
	}

	r := &FileRepository{dir: dir}
	if ok, err := IsPathSecure(dir, SecureDirPermissions); err == nil && !ok {
		log.WithFields(logger.Fields{
			"at":   "NewFileRepository",
			"path": dir,
		}).Warn("config directory permissions are too open")
	}
	if err := SecureExistingPath(r.RootPath(), false); err != nil {
		log.WithFields(logger.Fields{
			"at":     "NewFileRepository",
			"reason": err.Error(),
		}).Warn("could not tighten root configuration permissions")
	}
	return r, nil
}

// Dir is the config directory this repository reads and writes.
func (r *FileRepository) Dir() string { return r.dir }

// RootPath is the canonical path of the root configuration file.
func (r *FileRepository) RootPath() string {
	return filepath.Join(r.dir, rootConfigName+".yaml")
}

func (r *FileRepository) LoadRoot() (*ServerConfiguration, bool, error) {
	raw, path, found, err := r.readConfigMap(rootConfigName)
	if err != nil || !found {
		return nil, found, err
	}

	// Missing keys keep their defaults; only keys present in the file
	// override them.
	cfg := DefaultServerConfiguration()
	if err := decodeConfigMap(raw, cfg); err != nil {
		return nil, true, oops.Errorf("decoding %s: %w", path, err)
	}

	log.WithFields(logger.Fields{
		"at":   "(FileRepository) LoadRoot",
		"path": path,
	}).Debug("loaded root configuration")
	return cfg, true, nil
}

func (r *FileRepository) SaveRoot(cfg *ServerConfiguration) error {
	if cfg == nil {
		return oops.Errorf("root configuration is nil")
	}
	return r.writeConfigFile(rootConfigName, cfg)
}

func (r *FileRepository) LoadNamed(key string, out any) (bool, error) {
	name, err := fragmentFileName(key)
	if err != nil {
		return false, err
	}

	raw, path, found, err := r.readConfigMap(name)
	if err != nil || !found {
		return found, err
	}
	if err := decodeConfigMap(raw, out); err != nil {
		return true, oops.Errorf("decoding %s: %w", path, err)
	}

	log.WithFields(logger.Fields{
		"at":   "(FileRepository) LoadNamed",
		"key":  key,
		"path": path,
	}).Debug("loaded named configuration")
	return true, nil
}

func (r *FileRepository) SaveNamed(key string, fragment any) error {
	name, err := fragmentFileName(key)
	if err != nil {
		return err
	}
	return r.writeConfigFile(name, fragment)
}

// fragmentFileName lower-cases a fragment key into a file base name and
// rejects anything that could escape the config directory or collide with
// the root file.
func fragmentFileName(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return "", oops.Errorf("fragment key is empty")
	}
	if k == rootConfigName {
		return "", oops.Errorf("fragment key %q is reserved", key)
	}
	if k != filepath.Base(k) || k == "." || k == ".." || strings.ContainsAny(k, `/\`) {
		return "", oops.Errorf("fragment key %q is not a plain name", key)
	}
	return k, nil
}

// readConfigMap locates <name>.<ext> among the supported extensions and
// parses it into a generic map.
func (r *FileRepository) readConfigMap(name string) (map[string]any, string, bool, error) {
	for _, ext := range loadExtensions {
		path := filepath.Join(r.dir, name+ext)
		if !util.CheckRegularFileExists(path) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, true, oops.Errorf("reading %s: %w", path, err)
		}
		raw, err := unmarshalByExtension(data, ext)
		if err != nil {
			return nil, path, true, oops.Errorf("parsing %s: %w", path, err)
		}
		return raw, path, true, nil
	}
	return nil, "", false, nil
}

// unmarshalByExtension parses raw configuration bytes into a generic map
// keyed by the file's extension.
func unmarshalByExtension(data []byte, ext string) (map[string]any, error) {
	out := make(map[string]any)
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeConfigMap applies a generic configuration map onto a typed struct.
// One decode path serves every input format: field names come from the yaml
// tags and weak typing absorbs json.Number and friends. Unknown keys are
// ignored so newer files load on older servers.
func decodeConfigMap(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// writeConfigFile marshals v to canonical YAML and atomically replaces
// <name>.yaml: temp file in the same directory, write, sync, chmod, rename.
func (r *FileRepository) writeConfigFile(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return oops.Errorf("encoding %s: %w", name, err)
	}

	path := filepath.Join(r.dir, name+".yaml")
	tmp, err := os.CreateTemp(r.dir, name+"-*.tmp")
	if err != nil {
		return oops.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return oops.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return oops.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return oops.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, SecureFilePermissions); err != nil {
		os.Remove(tmpName)
		return oops.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return oops.Errorf("replacing %s: %w", path, err)
	}

	log.WithFields(logger.Fields{
		"at":   "(FileRepository) writeConfigFile",
		"path": path,
	}).Debug("configuration saved")
	return nil
}
