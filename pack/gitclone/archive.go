package gitclone

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/texgallery/renderd/domain/job"
)

// HeadCommit opens the cloned repository at dir and returns its HEAD
// commit hash.
func HeadCommit(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("gitclone: open: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("gitclone: head: %w", err)
	}
	return head.Hash().String(), nil
}

// ListFiles returns every file in the HEAD tree of the cloned
// repository at dir, sorted by path.
func ListFiles(dir string) ([]job.ArchiveEntry, error) {
	tree, err := headTree(dir)
	if err != nil {
		return nil, err
	}

	var entries []job.ArchiveEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, job.ArchiveEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitclone: walk tree: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// FileContent returns the content of one file from the HEAD tree.
// The path has already passed sandbox validation; go-git resolves it
// within the object store, not the filesystem, so a missing entry is
// the only failure mode left.
func FileContent(dir, path string) ([]byte, error) {
	tree, err := headTree(dir)
	if err != nil {
		return nil, err
	}
	f, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("gitclone: file %s: %w", path, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("gitclone: read %s: %w", path, err)
	}
	return []byte(content), nil
}

func headTree(dir string) (*object.Tree, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("gitclone: open: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("gitclone: head: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("gitclone: commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("gitclone: tree: %w", err)
	}
	return tree, nil
}
