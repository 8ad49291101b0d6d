// Package config resolves the registry database location and loads the
// global configuration file.
package config

import (
	"os"
	"path/filepath"
)

const (
	// NotesDir is the project-relative directory holding the registry.
	NotesDir = "notes"

	// RegistryFile is the registry database file name.
	RegistryFile = "arxiv-registry.sqlite3"

	// EnvRegistryPath overrides the project-derived registry location.
	EnvRegistryPath = "ARXREG_DB"
)

// RegistryPath resolves the registry database path from layered settings:
// explicit path flag > ARXREG_DB environment > project directory > current
// directory. The default location is <project>/notes/arxiv-registry.sqlite3.
func RegistryPath(dbFlag, projectDir string) (string, error) {
	if dbFlag != "" {
		return filepath.Abs(ExpandPath(dbFlag))
	}
	if env := os.Getenv(EnvRegistryPath); env != "" {
		return filepath.Abs(ExpandPath(env))
	}

	base := projectDir
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(ExpandPath(base))
	if err != nil {
		return "", err
	}
	return filepath.Join(abs, NotesDir, RegistryFile), nil
}

// ExpandPath expands a leading ~ to the user's home directory. Returns the
// original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
