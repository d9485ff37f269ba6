package latex

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
)

// ParseRecorder extracts the workspace-relative dependency list from
// a latexmk .fls file-access log. Only relative INPUT entries count:
// absolute paths are system files (formats, fonts, class files) that
// callers have no control over. Entries are deduplicated in order of
// first appearance.
func ParseRecorder(r io.Reader) ([]string, error) {
	var deps []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		path, ok := strings.CutPrefix(line, "INPUT ")
		if !ok {
			continue
		}
		path = strings.TrimSpace(path)
		if path == "" || filepath.IsAbs(path) {
			continue
		}
		cleaned := filepath.ToSlash(filepath.Clean(path))
		if strings.HasPrefix(cleaned, "../") {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		deps = append(deps, cleaned)
	}
	return deps, scanner.Err()
}
