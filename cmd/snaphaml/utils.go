package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// collectTemplates expands directories into the template files below them.
// Files named explicitly are kept whatever their extension.
func collectTemplates(paths []string, extensions []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		if !isDirectory(path) {
			files = append(files, path)
			continue
		}

		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && hasExtension(p, extensions) {
				files = append(files, p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to process input directory: %w", err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTemplates, strings.Join(paths, ", "))
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

func hasExtension(path string, extensions []string) bool {
	return slices.ContainsFunc(extensions, func(ext string) bool {
		return strings.HasSuffix(path, ext)
	})
}

// templateName is the file name without directory and extension
func templateName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}

	return nil
}

// writeFile writes content to a file, creating directories if necessary
func writeFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := ensureDir(dir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return os.WriteFile(path, []byte(content), 0644)
}

// isDirectory checks if a path is a directory
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}
