// Package scaffold creates the starter files of a quire project.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dyluth/quire/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes quire.yml into dir and creates the blob root it names.
// With force an existing quire.yml is replaced.
func Initialize(fsys afero.Fs, dir string, force bool) ([]string, error) {
	if !force {
		if err := CheckExisting(fsys, dir); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return nil, err
	}
	if err := writeFiles(fsys, files); err != nil {
		return nil, err
	}

	cfg, err := validateCreatedFiles(fsys, dir)
	if err != nil {
		return nil, err
	}

	created := []string{config.DefaultFile}
	blobRoot := cfg.Blob.Root
	if !filepath.IsAbs(blobRoot) {
		blobRoot = filepath.Join(dir, blobRoot)
	}
	if err := fsys.MkdirAll(blobRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory %s: %w", blobRoot, err)
	}
	return append(created, cfg.Blob.Root+"/"), nil
}

// getTemplateFiles reads the embedded templates
func getTemplateFiles(dir string) ([]FileInfo, error) {
	quireYml, err := templatesFS.ReadFile("templates/quire.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read quire.yml template: %w", err)
	}
	return []FileInfo{{
		Path:        filepath.Join(dir, config.DefaultFile),
		Content:     quireYml,
		Permissions: 0o644,
	}}, nil
}

// writeFiles writes all template files
func writeFiles(fsys afero.Fs, files []FileInfo) error {
	for _, file := range files {
		if err := afero.WriteFile(fsys, file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the written quire.yml through the regular
// config validation.
func validateCreatedFiles(fsys afero.Fs, dir string) (*config.QuireConfig, error) {
	content, err := afero.ReadFile(fsys, filepath.Join(dir, config.DefaultFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read created %s: %w", config.DefaultFile, err)
	}
	cfg, err := config.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("created %s is not valid: %w", config.DefaultFile, err)
	}
	return cfg, nil
}
