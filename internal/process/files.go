package process

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/fileripper/internal/definition"
)

// Archiver moves a processed input file out of the way.
type Archiver func(def *definition.FileDefinition, path string) error

// Discover returns the regular files in the definition's input directory
// whose names match its file mask, sorted by name. An empty input directory
// means the working directory.
func Discover(def *definition.FileDefinition) ([]string, error) {
	dir := def.InputDirectory()
	if dir == "" {
		dir = "."
	}

	matches, err := filepath.Glob(filepath.Join(dir, def.FileMask()))
	if err != nil {
		return nil, fmt.Errorf("file_mask %q: %w", def.FileMask(), err)
	}

	// Glob sorts its result.
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

// MoveToCompleted renames path into the definition's completed directory,
// creating the directory first when needed. The file keeps its base name.
func MoveToCompleted(def *definition.FileDefinition, path string) error {
	dir := def.CompletedDirectory()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create completed directory: %w", err)
	}
	if err := os.Rename(path, filepath.Join(dir, filepath.Base(path))); err != nil {
		return fmt.Errorf("move to completed: %w", err)
	}
	return nil
}
