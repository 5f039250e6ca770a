// Package storage persists uploaded blobs and derives their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for names that would escape the storage root.
var ErrInvalidName = errors.New("storage: invalid name")

// Storage is the blob store collaborator used for todo images.
type Storage interface {
	// Save writes r under name and returns the name actually used, which
	// differs from name when name is already taken.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// URL returns the public URL of a stored blob.
	URL(name string) string
}

// FileSystem stores blobs below a root directory and serves them under baseURL.
type FileSystem struct {
	root    string
	baseURL string
}

func NewFileSystem(root, baseURL string) (*FileSystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root %s: %w", root, err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileSystem{root: root, baseURL: baseURL}, nil
}

func (s *FileSystem) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := s.path(clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", clean, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	for errors.Is(err, fs.ErrExist) {
		clean = alternateName(clean)
		full = s.path(clean)
		f, err = os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", clean, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", clean, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", clean, err)
	}
	return clean, nil
}

func (s *FileSystem) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(s.path(clean))
}

func (s *FileSystem) Delete(ctx context.Context, name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(clean)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	return nil
}

func (s *FileSystem) URL(name string) string {
	return s.baseURL + strings.TrimPrefix(name, "/")
}

func (s *FileSystem) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// cleanName normalizes a slash separated blob name and rejects traversal.
func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean == "." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// alternateName inserts a short random suffix before the extension:
// photo.jpg -> photo_1a2b3c4.jpg.
func alternateName(name string) string {
	dir, file := path.Split(name)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return dir + stem + "_" + suffix + ext
}
