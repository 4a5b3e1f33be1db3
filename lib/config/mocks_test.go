package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// fakeChecker is an in-memory pathChecker recording every probe so tests
// can assert which rules touched the filesystem.
type fakeChecker struct {
	mu       sync.Mutex
	dirs     map[string]bool
	files    map[string]bool
	writeErr map[string]error
	calls    []string
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		writeErr: make(map[string]error),
	}
}

func (f *fakeChecker) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeChecker) DirExists(path string) bool {
	f.record("dir:" + path)
	return f.dirs[path]
}

func (f *fakeChecker) FileExists(path string) bool {
	f.record("file:" + path)
	return f.files[path]
}

func (f *fakeChecker) DirWritable(path string) error {
	f.record("write:" + path)
	return f.writeErr[path]
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memRepository keeps configurations in memory, round-tripping named
// fragments through YAML so decode behavior matches the file-backed
// repository. Error fields let tests fail individual operations; onSaveRoot
// lets them observe persistence order.
type memRepository struct {
	mu    sync.Mutex
	root  *ServerConfiguration
	named map[string][]byte

	saveRootCalls int
	onSaveRoot    func()

	loadRootErr  error
	saveRootErr  error
	loadNamedErr error
	saveNamedErr error
}

var _ Repository = (*memRepository)(nil)

func newMemRepository() *memRepository {
	return &memRepository{named: make(map[string][]byte)}
}

func (r *memRepository) LoadRoot() (*ServerConfiguration, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadRootErr != nil {
		return nil, false, r.loadRootErr
	}
	if r.root == nil {
		return nil, false, nil
	}
	return r.root.Clone(), true, nil
}

func (r *memRepository) SaveRoot(cfg *ServerConfiguration) error {
	r.mu.Lock()
	r.saveRootCalls++
	hook := r.onSaveRoot
	err := r.saveRootErr
	if err == nil {
		r.root = cfg.Clone()
	}
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (r *memRepository) LoadNamed(key string, out any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadNamedErr != nil {
		return false, r.loadNamedErr
	}
	data, ok := r.named[key]
	if !ok {
		return false, nil
	}
	return true, yaml.Unmarshal(data, out)
}

func (r *memRepository) SaveNamed(key string, fragment any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveNamedErr != nil {
		return r.saveNamedErr
	}
	data, err := yaml.Marshal(fragment)
	if err != nil {
		return err
	}
	r.named[key] = data
	return nil
}

func (r *memRepository) storedRoot() *ServerConfiguration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root.Clone()
}

// setRoot replaces the stored root directly, simulating an out-of-band edit.
func (r *memRepository) setRoot(cfg *ServerConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root = cfg.Clone()
}

// newTestManager builds a manager over a memRepository and real ServerPaths
// rooted in a temp directory.
func newTestManager(t *testing.T) (*Manager, *memRepository, *ServerPaths) {
	t.Helper()
	repo := newMemRepository()
	paths, err := NewServerPaths(t.TempDir())
	require.NoError(t, err)
	mgr, err := NewManager(repo, paths)
	require.NoError(t, err)
	return mgr, repo, paths
}
