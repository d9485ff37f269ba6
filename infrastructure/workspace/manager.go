// Package workspace manages ephemeral per-request directories and
// guarantees their removal on every exit path.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/texgallery/renderd/infrastructure/logging"
)

// Workspace is an ephemeral directory exclusively owned by the
// request that acquired it.
type Workspace struct {
	dir string
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Name returns the directory base name, safe for logs and responses.
func (w *Workspace) Name() string { return filepath.Base(w.dir) }

// Manager creates workspaces under a base directory and tracks every
// live one so they can be swept on shutdown. The registry holds path
// identifiers only, never file handles.
type Manager struct {
	base string

	mu     sync.Mutex
	active map[string]struct{}
}

// NewManager creates the base directory if needed and returns a
// Manager rooted there.
func NewManager(base string) (*Manager, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve base: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create base: %w", err)
	}
	return &Manager{
		base:   abs,
		active: make(map[string]struct{}),
	}, nil
}

// Base returns the base directory all workspaces live under.
func (m *Manager) Base() string { return m.base }

// Acquire creates a fresh uniquely-named directory and registers it.
func (m *Manager) Acquire() (*Workspace, error) {
	dir := filepath.Join(m.base, "ws-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("workspace: create: %w", err)
	}

	m.mu.Lock()
	m.active[dir] = struct{}{}
	m.mu.Unlock()

	return &Workspace{dir: dir}, nil
}

// Release removes the workspace directory recursively and deregisters
// it. Removal is best-effort: a filesystem error is logged, never
// returned, and the workspace is deregistered regardless to avoid
// retry storms. Release is idempotent.
func (m *Manager) Release(ws *Workspace) {
	if ws == nil {
		return
	}

	m.mu.Lock()
	delete(m.active, ws.dir)
	m.mu.Unlock()

	if err := os.RemoveAll(ws.dir); err != nil {
		logging.Warn().
			Add(logging.Component("workspace")).
			Add(logging.Workspace(ws.Name())).
			Add(logging.ErrorField(err)).
			Msg("cleanup failed")
	}
}

// With runs fn against a freshly acquired workspace and guarantees
// Release whether fn returns normally, returns an error, or panics.
func (m *Manager) With(fn func(ws *Workspace) error) error {
	ws, err := m.Acquire()
	if err != nil {
		return err
	}
	defer m.Release(ws)
	return fn(ws)
}

// Sweep releases every registered workspace. Intended for graceful
// shutdown while requests may still be in flight.
func (m *Manager) Sweep() {
	m.mu.Lock()
	dirs := make([]string, 0, len(m.active))
	for dir := range m.active {
		dirs = append(dirs, dir)
	}
	m.mu.Unlock()

	for _, dir := range dirs {
		m.Release(&Workspace{dir: dir})
	}
	if len(dirs) > 0 {
		logging.Info().
			Add(logging.Component("workspace")).
			Add(logging.Count(len(dirs))).
			Msg("swept pending workspaces")
	}
}

// Active returns a snapshot of registered workspace directories.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	dirs := make([]string, 0, len(m.active))
	for dir := range m.active {
		dirs = append(dirs, dir)
	}
	return dirs
}
