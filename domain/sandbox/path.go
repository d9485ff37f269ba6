// Package sandbox enforces the filesystem boundary for user-supplied
// paths and the size/shape limits on request payloads.
//
// Everything here is pure except ResolveExistingPath, which resolves
// symlinks on disk.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/texgallery/renderd/domain/job"
)

// CleanRelPath validates a caller-supplied relative path without
// touching the filesystem. It returns the cleaned path or a
// ValidationError. Rejections, in order: empty input, NUL bytes,
// absolute paths, and paths that escape upward after cleaning.
func CleanRelPath(rel string) (string, error) {
	if rel == "" {
		return "", job.Invalid("path is empty")
	}
	if strings.ContainsRune(rel, 0) {
		return "", job.Invalid("path contains NUL byte")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(filepath.ToSlash(rel), "/") {
		return "", job.Invalid("path %q is absolute", rel)
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", job.Invalid("path %q escapes the workspace", rel)
	}
	return cleaned, nil
}

// ResolvePath resolves rel against root and guarantees the result is
// root itself or strictly inside it. The prefix check runs on the
// joined path so "name/../.." tricks fail even after cleaning.
func ResolvePath(root, rel string) (string, error) {
	cleaned, err := CleanRelPath(rel)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(root, cleaned)
	if !within(root, abs) {
		return "", job.Invalid("path %q escapes the workspace", rel)
	}
	return abs, nil
}

// ResolveExistingPath is the symlink-aware variant of ResolvePath,
// for paths that may already exist on disk. If the path (or any of
// its ancestors) is a symbolic link, the link target must also
// resolve inside root. This catches escapes that the static string
// check alone cannot.
func ResolveExistingPath(root, rel string) (string, error) {
	abs, err := ResolvePath(root, rel)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", job.Invalid("path %q cannot be resolved", rel)
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}
	if !within(resolvedRoot, resolved) {
		return "", job.Invalid("path %q resolves outside the workspace", rel)
	}
	return abs, nil
}

// within reports whether abs equals root or has root plus a path
// separator as a strict prefix.
func within(root, abs string) bool {
	if abs == root {
		return true
	}
	return strings.HasPrefix(abs, root+string(filepath.Separator))
}
