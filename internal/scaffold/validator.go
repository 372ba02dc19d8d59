package scaffold

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dyluth/quire/internal/config"
)

// CheckExisting returns an error when dir already holds a quire.yml.
func CheckExisting(fsys afero.Fs, dir string) error {
	exists, err := afero.Exists(fsys, filepath.Join(dir, config.DefaultFile))
	if err != nil {
		return fmt.Errorf("failed to check for %s: %w", config.DefaultFile, err)
	}
	if exists {
		return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'quire init --force' to reinitialize (this will overwrite existing configuration)", config.DefaultFile)
	}
	return nil
}
