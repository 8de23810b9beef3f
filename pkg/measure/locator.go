package measure

import (
	"os"
	"path/filepath"
)

// FindDir returns the first search path, taken relative to directory unless
// absolute, whose listing contains name as a directory. Earlier search paths
// shadow later ones.
func FindDir(directory, name string, searchPaths []string) (string, bool) {
	for _, sp := range searchPaths {
		base := sp
		if !filepath.IsAbs(base) {
			base = filepath.Join(directory, sp)
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.Name() == name && e.IsDir() {
				return filepath.Join(base, name), true
			}
		}
	}
	return "", false
}
