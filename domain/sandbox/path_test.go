package sandbox_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/domain/sandbox"
)

func TestResolvePath(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "srv", "ws")

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr bool
	}{
		{"simple file", "main.tex", filepath.Join(root, "main.tex"), false},
		{"nested file", "chapters/intro.tex", filepath.Join(root, "chapters", "intro.tex"), false},
		{"dot", ".", root, false},
		{"internal dotdot", "a/../b.tex", filepath.Join(root, "b.tex"), false},
		{"empty", "", "", true},
		{"absolute", "/etc/passwd", "", true},
		{"nul byte", "main\x00.tex", "", true},
		{"plain traversal", "../outside", "", true},
		{"deep traversal", "a/../../outside", "", true},
		{"traversal to sibling prefix", "../ws2/file", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := sandbox.ResolvePath(root, tt.rel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolvePath(%q) = %q, want error", tt.rel, got)
				}
				if !errors.Is(err, job.ErrValidation) {
					t.Errorf("error %v is not a validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolvePath(%q) error: %v", tt.rel, err)
			}
			if got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestResolvePathSiblingPrefixDir(t *testing.T) {
	t.Parallel()

	// A root of /srv/ws must not admit /srv/ws-other via prefix match.
	root := filepath.Join(t.TempDir(), "ws")
	if _, err := sandbox.ResolvePath(root, "../ws-other/file.tex"); err == nil {
		t.Error("expected rejection of sibling directory sharing the root prefix")
	}
}

func TestResolveExistingPathSymlinkEscape(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside")
	for _, dir := range []string{root, outside} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			t.Fatal(err)
		}
	}

	secret := filepath.Join(outside, "secret.tex")
	if err := os.WriteFile(secret, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(secret, filepath.Join(root, "link.tex")); err != nil {
		t.Fatal(err)
	}

	// The static check alone would accept this path.
	if _, err := sandbox.ResolvePath(root, "link.tex"); err != nil {
		t.Fatalf("static check unexpectedly rejected: %v", err)
	}

	if _, err := sandbox.ResolveExistingPath(root, "link.tex"); err == nil {
		t.Error("expected symlink escape to be rejected")
	}
}

func TestResolveExistingPathInsideRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inner := filepath.Join(root, "doc.tex")
	if err := os.WriteFile(inner, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Symlink that stays inside the root is fine.
	if err := os.Symlink(inner, filepath.Join(root, "alias.tex")); err != nil {
		t.Fatal(err)
	}

	got, err := sandbox.ResolveExistingPath(root, "alias.tex")
	if err != nil {
		t.Fatalf("ResolveExistingPath: %v", err)
	}
	if !strings.HasPrefix(got, root) {
		t.Errorf("resolved path %q not under root %q", got, root)
	}
}

func TestResolveExistingPathMissingFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	got, err := sandbox.ResolveExistingPath(root, "not-written-yet.tex")
	if err != nil {
		t.Fatalf("ResolveExistingPath: %v", err)
	}
	if got != filepath.Join(root, "not-written-yet.tex") {
		t.Errorf("got %q", got)
	}
}
