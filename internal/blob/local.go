package blob

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects under a directory on disk and serves them back
// through the /uploads/ route. Development fallback for when no GCS bucket is
// configured.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStore) Backend() string {
	return "local"
}

func (s *LocalStore) Put(_ context.Context, filename, contentType string, data []byte) (Object, error) {
	name := storedName(filename)

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return Object{}, fmt.Errorf("write upload %q: %w", name, err)
	}

	trimmedType := strings.TrimSpace(contentType)
	if trimmedType == "" {
		trimmedType = http.DetectContentType(data)
	}

	return Object{
		URL:         s.baseURL + "/uploads/" + name,
		Pathname:    name,
		ContentType: trimmedType,
	}, nil
}

// Handler serves the stored objects for the /uploads/ route.
func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.dir)))
}
