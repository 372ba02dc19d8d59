// Package blob stores file payloads next to their entities.
//
// Blobs are addressed by slash-separated paths relative to the store root.
// PathFor derives the conventional path of a named blob belonging to an
// entity: {shard}/{entity_type}/{digest}/{name}.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dyluth/quire/internal/logger"
	"github.com/dyluth/quire/pkg/identifier"
)

var (
	// ErrInvalidPath is returned for blob paths that are empty or leave the root.
	ErrInvalidPath = errors.New("invalid blob path")

	// ErrNotFound is returned by Get for blobs that do not exist.
	ErrNotFound = errors.New("blob not found")
)

// Store keeps blob payloads.
type Store interface {
	// Put writes data at p and returns the URL it is reachable at.
	Put(ctx context.Context, p string, data []byte) (string, error)
	Get(ctx context.Context, p string) ([]byte, error)
	// Delete removes the blob at p. Missing blobs are not an error.
	Delete(ctx context.Context, p string) error
	URLFor(p string) (string, error)
}

// PathFor returns the path of the blob called name that belongs to id.
func PathFor(id identifier.Identifier, name string) (string, error) {
	clean, err := CleanPath(name)
	if err != nil {
		return "", err
	}
	return path.Join(fmt.Sprint(id.Shard), fmt.Sprint(id.EntityType), id.DigestHex(), clean), nil
}

// CleanPath normalises p and rejects paths that are empty, absolute or climb
// out of the root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" || path.IsAbs(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// FSStore keeps blobs on a filesystem below root.
type FSStore struct {
	fs      afero.Fs
	root    string
	baseURL *url.URL
	log     *zap.SugaredLogger
}

// NewFSStore creates a store rooted at root on fsys. With an empty baseURL
// blob URLs are file:// URLs of the stored files.
func NewFSStore(fsys afero.Fs, root, baseURL string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root cannot be empty")
	}
	s := &FSStore{
		fs:   fsys,
		root: filepath.Clean(root),
		log:  logger.ComponentLogger("blob"),
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid blob base_url %q: must be an absolute URL", baseURL)
		}
		s.baseURL = u
	}
	return s, nil
}

// NewOSStore creates an FSStore on the local filesystem.
func NewOSStore(root, baseURL string) (*FSStore, error) {
	return NewFSStore(afero.NewOsFs(), root, baseURL)
}

func (s *FSStore) resolve(p string) (string, string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes data at p through a temporary file, so readers never see a
// partial blob.
func (s *FSStore) Put(ctx context.Context, p string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(full)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".blob-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := s.fs.Rename(tmpName, full); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to move blob into place: %w", err)
	}

	s.log.Debugw("blob written", logger.FieldPath, clean, logger.FieldSize, len(data))
	return s.URLFor(clean)
}

// Get reads the blob at p.
func (s *FSStore) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob at p.
func (s *FSStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	s.log.Debugw("blob deleted", logger.FieldPath, clean)
	return nil
}

// URLFor returns the URL of the blob at p, whether or not it exists.
func (s *FSStore) URLFor(p string) (string, error) {
	clean, full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	if s.baseURL != nil {
		return s.baseURL.JoinPath(clean).String(), nil
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

var _ Store = (*FSStore)(nil)
