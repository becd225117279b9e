package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// OutlineSuffixes are the file name endings picked up by discovery.
var OutlineSuffixes = []string{".outline.yaml", ".outline.yml", ".outline.jsonl", ".outline.txt"}

// IsOutlineFile reports whether name looks like an outline file.
func IsOutlineFile(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range OutlineSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// DiscoverOutlines returns the outline files of a project: the configured
// Files when present, otherwise every outline file found under root.
func DiscoverOutlines(cfg Config, root string) []string {
	if len(cfg.Files) > 0 {
		out := make([]string, len(cfg.Files))
		for i, f := range cfg.Files {
			f = expandHome(f)
			if !filepath.IsAbs(f) {
				f = filepath.Join(root, f)
			}
			out[i] = f
		}
		return out
	}

	maxDepth := cfg.Discovery.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return scanForOutlines(root, maxDepth, cfg.Discovery.Exclude)
}

// scanForOutlines walks a directory tree up to maxDepth levels deep,
// collecting outline files. Hidden and excluded directories are skipped.
func scanForOutlines(root string, maxDepth int, exclude []string) []string {
	root = expandHome(root)
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if IsOutlineFile(d.Name()) {
				results = append(results, path)
			}
			return nil
		}

		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if currentDepth > maxDepth {
			return filepath.SkipDir
		}

		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || slices.Contains(exclude, name)) {
			return filepath.SkipDir
		}
		return nil
	})

	return results
}

// DetectProjectRoot finds the project for the current directory: the
// nearest ancestor holding a state directory, or the directory itself.
func DetectProjectRoot(stateDir string) string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	if root, ok := findStateRoot(dir, stateDir); ok {
		return root
	}
	return dir
}

// findStateRoot walks up from dir looking for a stateDir directory.
func findStateRoot(dir, stateDir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, stateDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
