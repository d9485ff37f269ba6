package gitclone_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/texgallery/renderd/pack/gitclone"
)

// initRepo builds a small committed repository on disk.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	files := map[string]string{
		"main.tex":          "\\documentclass{article}\\begin{document}hi\\end{document}",
		"chapters/one.tex":  "\\section{One}",
		"figures/plot.tikz": "\\draw (0,0) -- (1,1);",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := wt.AddGlob("."); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return dir
}

func TestHeadCommit(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	hash, err := gitclone.HeadCommit(dir)
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("hash %q is not a full SHA-1", hash)
	}
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	entries, err := gitclone.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}

	want := []string{"chapters/one.tex", "figures/plot.tikz", "main.tex"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(entries), len(want), entries)
	}
	for i, entry := range entries {
		if entry.Path != want[i] {
			t.Errorf("entry %d = %q, want %q (sorted)", i, entry.Path, want[i])
		}
		if entry.Size <= 0 {
			t.Errorf("entry %q has size %d", entry.Path, entry.Size)
		}
	}
}

func TestFileContent(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	content, err := gitclone.FileContent(dir, "chapters/one.tex")
	if err != nil {
		t.Fatalf("FileContent: %v", err)
	}
	if string(content) != "\\section{One}" {
		t.Errorf("content = %q", content)
	}

	if _, err := gitclone.FileContent(dir, "missing.tex"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHeadCommitNotARepo(t *testing.T) {
	t.Parallel()

	if _, err := gitclone.HeadCommit(t.TempDir()); err == nil {
		t.Error("expected error for non-repository directory")
	}
}
