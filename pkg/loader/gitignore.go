package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// stateHeader precedes the state directory entry flattree adds.
const stateHeader = "# flattree local state"

// dirSuffixes are the pattern tails that still ignore a whole directory.
var dirSuffixes = []string{"", "/", "/*", "/**", "/**/*"}

// EnsureDirInGitignore lists the state directory dirName under projectDir's
// .gitignore, creating the file when missing. An empty projectDir means the
// working directory. Repeated calls leave the file unchanged.
func EnsureDirInGitignore(projectDir, dirName string) error {
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("locate project: %w", err)
		}
		projectDir = wd
	}
	dir := strings.Trim(filepath.ToSlash(dirName), "/")
	path := filepath.Join(projectDir, ".gitignore")

	switch listed, err := isDirInGitignore(path, dir); {
	case err != nil && !os.IsNotExist(err):
		return err
	case listed:
		return nil
	}
	return appendToGitignore(path, dir+"/")
}

func isDirInGitignore(path, dirName string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		if matchesDirPattern(line, dirName) {
			return true, nil
		}
	}
	return false, nil
}

// matchesDirPattern reports whether a .gitignore line ignores dirName as a
// whole. Anchored ("/dir") lines count; globs over other names do not.
func matchesDirPattern(line, dirName string) bool {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(line, "/"), dirName)
	if !ok || dirName == "" {
		return false
	}
	for _, suffix := range dirSuffixes {
		if rest == suffix {
			return true
		}
	}
	return false
}

// appendToGitignore adds pattern under stateHeader, separated from any
// existing entries by a blank line.
func appendToGitignore(path, pattern string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 {
		if !strings.HasSuffix(string(existing), "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(stateHeader + "\n" + pattern + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("update .gitignore: %w", err)
	}
	return nil
}
