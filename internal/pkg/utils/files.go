package utils

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"
)

const maxNameLength = 100

// FileExists checks if a file exists and is not a directory before we
// try using it to prevent further errors
func FileExists(fs afero.Fs, filename string) bool {
	info, err := fs.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// FilesystemSafe strips the characters that are illegal in a file or
// directory name on the usual filesystems and caps the length.
func FilesystemSafe(name string) string {
	var b strings.Builder

	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		b.WriteRune(r)
	}

	safe := strings.Trim(b.String(), " .")

	if runes := []rune(safe); len(runes) > maxNameLength {
		safe = strings.TrimRight(string(runes[:maxNameLength]), " .")
	}

	if safe == "" {
		return "untitled"
	}

	return safe
}

// OriginalDirectory returns the path of an existing sibling directory whose
// name only differs by case from the last element of path, so that a
// case-insensitive filesystem does not end up with two spellings of the
// same album. If there is none, path is returned as is.
func OriginalDirectory(fs afero.Fs, path string) string {
	parent, name := filepath.Split(filepath.Clean(path))

	entries, err := afero.ReadDir(fs, parent)
	if err != nil {
		return path
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if entry.Name() == name {
			return filepath.Join(parent, name)
		}
	}

	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), name) {
			return filepath.Join(parent, entry.Name())
		}
	}

	return path
}

// RemoveCWD turns path into a path relative to the current working
// directory when it lives under it, for shorter log lines.
func RemoveCWD(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}

	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	return rel
}
