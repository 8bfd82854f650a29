package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	gcsapi "google.golang.org/api/storage/v1"
)

type GCSStore struct {
	bucketName string
	prefix     string
	service    *gcsapi.Service
}

func NewGCSStore(ctx context.Context, bucketName, prefix string) (*GCSStore, error) {
	trimmedBucket := strings.TrimSpace(bucketName)
	if trimmedBucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	service, err := gcsapi.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs service: %w", err)
	}

	if _, err := service.Buckets.Get(trimmedBucket).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("read gcs bucket attrs: %w", err)
	}

	return &GCSStore{
		bucketName: trimmedBucket,
		prefix:     strings.Trim(strings.TrimSpace(prefix), "/"),
		service:    service,
	}, nil
}

func (s *GCSStore) Backend() string {
	return "gcs"
}

func (s *GCSStore) Put(ctx context.Context, filename, contentType string, data []byte) (Object, error) {
	name := storedName(filename)
	objectPath := name
	if s.prefix != "" {
		objectPath = s.prefix + "/" + name
	}

	trimmedType := strings.TrimSpace(contentType)
	if trimmedType == "" {
		trimmedType = "application/octet-stream"
	}

	object := &gcsapi.Object{
		Name:        objectPath,
		ContentType: trimmedType,
	}

	if _, err := s.service.Objects.Insert(s.bucketName, object).Media(bytes.NewReader(data)).Context(ctx).Do(); err != nil {
		return Object{}, fmt.Errorf("write gcs object %q: %w", objectPath, err)
	}

	return Object{
		URL:         fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectPath),
		Pathname:    objectPath,
		ContentType: trimmedType,
	}, nil
}
