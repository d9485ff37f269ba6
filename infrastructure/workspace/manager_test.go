package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/texgallery/renderd/infrastructure/workspace"
)

func newManager(t *testing.T) *workspace.Manager {
	t.Helper()
	m, err := workspace.NewManager(filepath.Join(t.TempDir(), "work"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if info, err := os.Stat(ws.Dir()); err != nil || !info.IsDir() {
		t.Fatalf("workspace dir missing: %v", err)
	}
	if got := len(m.Active()); got != 1 {
		t.Errorf("Active() len = %d, want 1", got)
	}

	m.Release(ws)
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace dir still present after Release: %v", err)
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("Active() len = %d, want 0", got)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	m.Release(ws)
	m.Release(ws)
	m.Release(nil)

	if got := len(m.Active()); got != 0 {
		t.Errorf("Active() len = %d, want 0", got)
	}
}

func TestUniqueDirectories(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	seen := make(map[string]bool)
	for range 10 {
		ws, err := m.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		if seen[ws.Dir()] {
			t.Fatalf("duplicate workspace dir %s", ws.Dir())
		}
		seen[ws.Dir()] = true
		m.Release(ws)
	}
}

func TestWithReleasesOnSuccess(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	var dir string
	err := m.With(func(ws *workspace.Workspace) error {
		dir = ws.Dir()
		return os.WriteFile(filepath.Join(dir, "main.tex"), []byte("x"), 0o600)
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("workspace survived successful With")
	}
}

func TestWithReleasesOnError(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	boom := errors.New("boom")
	var dir string
	err := m.With(func(ws *workspace.Workspace) error {
		dir = ws.Dir()
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("With = %v, want boom", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("workspace survived failing With")
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("Active() len = %d, want 0", got)
	}
}

func TestWithReleasesOnPanic(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	var dir string
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = m.With(func(ws *workspace.Workspace) error {
			dir = ws.Dir()
			panic("kaboom")
		})
	}()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("workspace survived panicking With")
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	var dirs []string
	for range 3 {
		ws, err := m.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		dirs = append(dirs, ws.Dir())
	}

	m.Sweep()

	if got := len(m.Active()); got != 0 {
		t.Errorf("Active() len = %d after Sweep, want 0", got)
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("dir %s survived Sweep", dir)
		}
	}
}
