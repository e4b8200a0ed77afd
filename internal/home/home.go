package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the storyloom home directory.
	DefaultDirName = ".storyloom"

	// ImagesDirName is the subdirectory for generated images.
	ImagesDirName = "images"

	// DatabaseFileName is the sqlite database file name.
	DatabaseFileName = "storyloom.db"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// ImageKind scopes generated images into separate directories.
type ImageKind string

const (
	ImageKindCover     ImageKind = "covers"
	ImageKindCharacter ImageKind = "characters"
	ImageKindScene     ImageKind = "scenes"
)

// Kinds lists all image kinds.
func Kinds() []ImageKind {
	return []ImageKind{ImageKindCover, ImageKindCharacter, ImageKindScene}
}

// ValidKind reports whether s names a known image kind.
func ValidKind(s string) bool {
	switch ImageKind(s) {
	case ImageKindCover, ImageKindCharacter, ImageKindScene:
		return true
	}
	return false
}

// Dir represents the storyloom home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.storyloom).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DatabasePath returns the path to the sqlite database file.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.path, DatabaseFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ImagesDir returns the directory for a given image kind.
func (d *Dir) ImagesDir(kind ImageKind) string {
	return filepath.Join(d.path, ImagesDirName, string(kind))
}

// ImagePath returns the path to a stored image by kind and filename.
// The filename is sanitized to prevent path traversal.
func (d *Dir) ImagePath(kind ImageKind, filename string) string {
	return filepath.Join(d.ImagesDir(kind), sanitizeFilename(filename))
}

// WriteImage stores image bytes under the kind's directory and returns
// the filename that serves as the opaque image reference.
func (d *Dir) WriteImage(kind ImageKind, filename string, data []byte) (string, error) {
	filename = sanitizeFilename(filename)
	if filename == "" {
		return "", fmt.Errorf("empty image filename")
	}
	if err := os.MkdirAll(d.ImagesDir(kind), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(d.ImagePath(kind, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filename, nil
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, kind := range Kinds() {
		if err := os.MkdirAll(d.ImagesDir(kind), 0o755); err != nil {
			return fmt.Errorf("failed to create images directory: %w", err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// sanitizeFilename strips path separators and parent references so a
// reference read back from the store can never escape the images directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
