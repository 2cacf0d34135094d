// Package local stores media objects on the local filesystem and serves them over HTTP.
package local

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

// Store writes objects below a base directory and returns URLs below baseURL.
type Store struct {
	baseDir string
	baseURL string
}

// NewStore creates the base directory if needed.
func NewStore(baseDir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Store{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes data at the object path. Paths are content addressed by the
// caller, so an existing object is kept as is and
// created is false.
func (s *Store) Upload(ctx context.Context, objectPath string, data []byte) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	clean, err := cleanPath(objectPath)
	if err != nil {
		return "", false, err
	}

	full := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	if _, err := os.Stat(full); err == nil {
		return s.url(clean), false, nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", false, fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", false, fmt.Errorf("failed to move object into place: %w", err)
	}
	return s.url(clean), true, nil
}

// Delete removes the object. Missing objects are ignored.
func (s *Store) Delete(ctx context.Context, objectPath string) error {
	clean, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Handler serves stored objects. Mount it with http.StripPrefix.
func (s *Store) Handler() http.Handler {
	return http.FileServer(http.Dir(s.baseDir))
}

func (s *Store) url(clean string) string {
	return s.baseURL + "/" + clean
}

func cleanPath(p string) (string, error) {
	clean := path.Clean("/" + p)[1:]
	if clean == "" || strings.HasPrefix(clean, ".") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return clean, nil
}

var _ ports.ObjectStore = (*Store)(nil)
