package build

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discover returns every source file under the given roots, sorted and
// without duplicates. A root that is itself a file is returned as is.
// Hidden directories are skipped.
func Discover(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if path != root && filepath.Ext(path) != SourceExt {
				return nil
			}
			clean := filepath.Clean(path)
			if !seen[clean] {
				seen[clean] = true
				files = append(files, clean)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsSource reports whether path names a Kestrel source file.
func IsSource(path string) bool {
	return filepath.Ext(path) == SourceExt
}
