package config

import (
	"reflect"
	"sync"

	"github.com/castwave/castwave/lib/util/logger"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Manager owns the server's runtime configuration: the root configuration
// plus named fragments, loaded through a Repository and mirrored into the
// derived paths on an ApplicationPaths collaborator.
//
// Reads are cheap and safe from any goroutine. Replacements are serialized
// and swap whole values, so a reader holding a configuration pointer keeps
// a consistent snapshot; callers must treat returned configurations as
// read-only and go through ReplaceRoot or ReplaceNamed to change them.
type Manager struct {
	repo     Repository
	paths    ApplicationPaths
	notifier *Notifier
	checker  pathChecker

	// replaceMu serializes replacements and reloads end to end. Observers
	// run while it is held, so they may read but never replace.
	replaceMu sync.Mutex

	// stateMu guards the fields below. Never held while observers run.
	stateMu   sync.RWMutex
	current   *ServerConfiguration
	named     map[string]any
	factories map[string]func() any
}

// NewManager loads the stored configuration from repo, writing defaults
// first if none exists yet, and computes the derived paths. A stored
// configuration without a server ID is assigned one and persisted.
func NewManager(repo Repository, paths ApplicationPaths) (*Manager, error) {
	if repo == nil {
		return nil, oops.Errorf("repository is nil")
	}
	if paths == nil {
		return nil, oops.Errorf("application paths are nil")
	}

	m := &Manager{
		repo:      repo,
		paths:     paths,
		notifier:  NewNotifier(),
		checker:   osPathChecker{},
		named:     make(map[string]any),
		factories: make(map[string]func() any),
	}
	m.RegisterFragment(EncodingKey, func() any { return DefaultEncodingOptions() })

	cfg, found, err := repo.LoadRoot()
	if err != nil {
		return nil, oops.Errorf("loading configuration: %w", err)
	}
	dirty := !found
	if !found {
		cfg = DefaultServerConfiguration()
		log.WithFields(logger.Fields{
			"at": "NewManager",
		}).Info("no stored configuration found, writing defaults")
	}
	if isBlank(cfg.ServerID) {
		cfg.ServerID = uuid.NewString()
		dirty = true
	}
	if dirty {
		if err := repo.SaveRoot(cfg); err != nil {
			return nil, oops.Errorf("persisting configuration: %w", err)
		}
	}

	// Advisory only: a stored configuration that fails the value checks is
	// logged and served anyway, matching what the validators document.
	if err := Validate(cfg); err != nil {
		log.WithFields(logger.Fields{
			"at":     "NewManager",
			"reason": err.Error(),
		}).Warn("stored configuration failed validation")
	}

	m.current = cfg
	m.refreshMetadataPath(cfg)
	m.refreshTranscodePath()

	log.WithFields(logger.Fields{
		"at":          "NewManager",
		"server_id":   cfg.ServerID,
		"server_name": cfg.ServerName,
	}).Debug("configuration manager initialized")
	return m, nil
}

// Current returns the active root configuration snapshot.
func (m *Manager) Current() *ServerConfiguration {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

// Paths exposes the application paths collaborator the manager keeps in
// sync with the configuration.
func (m *Manager) Paths() ApplicationPaths {
	return m.paths
}

// SubscribeUpdating registers an observer for replacement candidates. It
// runs before anything is persisted, and an error from it aborts the
// replacement.
func (m *Manager) SubscribeUpdating(fn UpdatingObserver) *Subscription {
	return m.notifier.SubscribeUpdating(fn)
}

// SubscribeUpdated registers an observer for committed updates, both root
// and named.
func (m *Manager) SubscribeUpdated(fn UpdatedObserver) *Subscription {
	return m.notifier.SubscribeUpdated(fn)
}

// RegisterFragment associates a fragment key with a factory producing the
// typed value it decodes into. Keys without a registered factory load as
// generic maps. The encoding key is registered automatically.
func (m *Manager) RegisterFragment(key string, factory func() any) {
	if isBlank(key) || factory == nil {
		return
	}
	m.stateMu.Lock()
	m.factories[key] = factory
	m.stateMu.Unlock()
}

// ReplaceRoot validates next against the active configuration and, if it
// passes, persists and adopts it. The sequence is fixed: validate, notify
// updating observers, persist, commit, recompute the metadata path, notify
// updated observers. A failure before commit leaves the active
// configuration and the disk untouched; an updated observer failure is
// returned to the caller but the commit stands.
func (m *Manager) ReplaceRoot(next *ServerConfiguration) error {
	if next == nil {
		return oops.Errorf("replacement configuration is nil")
	}

	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	if err := m.admitReplacement(next, "(Manager) ReplaceRoot"); err != nil {
		return err
	}

	if err := m.repo.SaveRoot(next); err != nil {
		return oops.Errorf("persisting configuration: %w", err)
	}

	m.stateMu.Lock()
	m.current = next
	m.stateMu.Unlock()
	m.refreshMetadataPath(next)

	log.WithFields(logger.Fields{
		"at":          "(Manager) ReplaceRoot",
		"server_name": next.ServerName,
	}).Debug("root configuration replaced")
	return m.notifier.notifyUpdated(UpdatedEvent{Fragment: next})
}

// admitReplacement runs the pre-commit phase shared by replacement and
// reload: the validation rules against the active configuration, then the
// updating observers. An error means nothing has been mutated yet.
func (m *Manager) admitReplacement(next *ServerConfiguration, at string) error {
	if err := validateReplacement(next, m.Current(), m.checker); err != nil {
		log.WithFields(logger.Fields{
			"at":     at,
			"reason": err.Error(),
		}).Warn("configuration replacement rejected")
		return err
	}

	if err := m.notifier.notifyUpdating(next); err != nil {
		log.WithFields(logger.Fields{
			"at":     at,
			"reason": err.Error(),
		}).Warn("configuration replacement vetoed by observer")
		return err
	}
	return nil
}

// GetNamed returns the fragment stored under key, loading it on first use.
// It never fails: an unreadable or missing file yields the registered
// default (or an empty map for unregistered keys), with the problem logged.
func (m *Manager) GetNamed(key string) any {
	m.stateMu.RLock()
	frag, ok := m.named[key]
	m.stateMu.RUnlock()
	if ok {
		return frag
	}
	return m.loadNamed(key)
}

// EncodingOptions returns the active transcoder fragment.
func (m *Manager) EncodingOptions() *EncodingOptions {
	if enc, ok := m.GetNamed(EncodingKey).(*EncodingOptions); ok {
		return enc
	}
	return DefaultEncodingOptions()
}

// ReplaceNamed persists and adopts a fragment under key, then notifies
// updated observers. Unlike the root, named fragments are not validated.
// A generic map is coerced into the registered type for the key first.
// Replacing the encoding fragment recomputes the derived transcode path.
func (m *Manager) ReplaceNamed(key string, fragment any) error {
	if isBlank(key) {
		return oops.Errorf("fragment key is empty")
	}
	if fragment == nil {
		return oops.Errorf("fragment for %q is nil", key)
	}

	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	frag, err := m.coerceFragment(key, fragment)
	if err != nil {
		return err
	}
	if err := m.repo.SaveNamed(key, frag); err != nil {
		return oops.Errorf("persisting %s configuration: %w", key, err)
	}

	m.stateMu.Lock()
	m.named[key] = frag
	m.stateMu.Unlock()
	if key == EncodingKey {
		m.refreshTranscodePath()
	}

	log.WithFields(logger.Fields{
		"at":  "(Manager) ReplaceNamed",
		"key": key,
	}).Debug("named configuration replaced")
	return m.notifier.notifyUpdated(UpdatedEvent{Key: key, Fragment: frag})
}

// ApplyRecommendedDefaults switches the opt-in recommended settings on and
// replaces the root configuration. It reports whether anything changed, so
// a second call is a no-op returning false with no notifications.
func (m *Manager) ApplyRecommendedDefaults() (bool, error) {
	next := m.Current().Clone()
	if !applyRecommendedFlags(next) {
		log.WithFields(logger.Fields{
			"at": "(Manager) ApplyRecommendedDefaults",
		}).Debug("recommended defaults already active")
		return false, nil
	}
	if err := m.ReplaceRoot(next); err != nil {
		// An updated-observer error arrives after the commit; report the
		// change in that case.
		return m.Current() == next, err
	}
	return true, nil
}

// ReloadFromDisk re-reads the stored root configuration and runs it
// through the replacement protocol, skipping only the save step since the
// disk copy is already current. Cached fragments are dropped so their next
// read refreshes too. A validation rejection or an observer veto keeps the
// active configuration.
func (m *Manager) ReloadFromDisk() error {
	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	cfg, found, err := m.repo.LoadRoot()
	if err != nil {
		return oops.Errorf("reloading configuration: %w", err)
	}
	if !found {
		return oops.Errorf("stored configuration is gone, keeping active one")
	}
	if err := m.admitReplacement(cfg, "(Manager) ReloadFromDisk"); err != nil {
		return err
	}

	m.stateMu.Lock()
	m.current = cfg
	m.named = make(map[string]any)
	m.stateMu.Unlock()
	m.refreshMetadataPath(cfg)
	m.refreshTranscodePath()

	log.WithFields(logger.Fields{
		"at": "(Manager) ReloadFromDisk",
	}).Info("configuration reloaded from disk")
	return m.notifier.notifyUpdated(UpdatedEvent{Fragment: cfg})
}

// loadNamed reads a fragment from the repository and caches it. A load
// problem falls back to defaults; first writer wins if two goroutines race
// the same key.
func (m *Manager) loadNamed(key string) any {
	factory := m.factoryFor(key)

	var frag any
	if factory != nil {
		typed := factory()
		if _, err := m.repo.LoadNamed(key, typed); err != nil {
			log.WithFields(logger.Fields{
				"at":     "(Manager) loadNamed",
				"key":    key,
				"reason": err.Error(),
			}).Warn("stored configuration unreadable, using defaults")
			typed = factory()
		}
		frag = typed
	} else {
		raw := make(map[string]any)
		if _, err := m.repo.LoadNamed(key, &raw); err != nil {
			log.WithFields(logger.Fields{
				"at":     "(Manager) loadNamed",
				"key":    key,
				"reason": err.Error(),
			}).Warn("stored configuration unreadable, using defaults")
			raw = make(map[string]any)
		}
		frag = raw
	}

	m.stateMu.Lock()
	if existing, ok := m.named[key]; ok {
		frag = existing
	} else {
		m.named[key] = frag
	}
	m.stateMu.Unlock()
	return frag
}

func (m *Manager) factoryFor(key string) func() any {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.factories[key]
}

// coerceFragment converts a generic map into the registered type for key.
// Values already of the registered type pass through; unregistered keys
// store whatever they are given.
func (m *Manager) coerceFragment(key string, fragment any) (any, error) {
	factory := m.factoryFor(key)
	if factory == nil {
		return fragment, nil
	}
	target := factory()
	if reflect.TypeOf(fragment) == reflect.TypeOf(target) {
		return fragment, nil
	}
	raw, ok := fragment.(map[string]any)
	if !ok {
		return nil, oops.Errorf("fragment for %q must be %T or a map, got %T", key, target, fragment)
	}
	if err := decodeConfigMap(raw, target); err != nil {
		return nil, oops.Errorf("coercing %s fragment: %w", key, err)
	}
	return target, nil
}

func (m *Manager) refreshMetadataPath(cfg *ServerConfiguration) {
	m.paths.SetMetadataPath(DeriveMetadataPath(cfg, m.paths.ProgramDataPath()))
}

func (m *Manager) refreshTranscodePath() {
	m.paths.SetTranscodePath(DeriveTranscodePath(m.EncodingOptions()))
}
