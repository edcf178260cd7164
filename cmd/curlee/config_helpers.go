package main

import (
	"path/filepath"

	"github.com/w4ffl35/curlee/internal/config"
)

// loadConfigFor finds and loads curlee.yaml starting from entryPath's
// directory, falling back to config.Default() when none exists.
func loadConfigFor(entryPath string) (*config.Config, error) {
	dir := filepath.Dir(entryPath)
	path, err := config.Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
