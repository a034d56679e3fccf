package storage

import (
	"context"
	"net/url"
	"time"

	"github.com/rms/backend/internal/domain/attachment"
)

// StubAttachmentStorage returns unsigned URLs under BaseURL.
// Used in development and tests where no object store is running.
type StubAttachmentStorage struct {
	BaseURL string
	now     func() time.Time
}

// NewStubAttachmentStorage creates a stub rooted at baseURL
func NewStubAttachmentStorage(baseURL string) *StubAttachmentStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &StubAttachmentStorage{BaseURL: baseURL, now: time.Now}
}

func (s *StubAttachmentStorage) url(action, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiration
	}
	expiresAt := s.now().Add(expiresIn)
	u := s.BaseURL + "/" + action + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return u, expiresAt, nil
}

// GenerateUploadURL returns a stub upload URL
func (s *StubAttachmentStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url("upload", storageKey, expiresIn)
}

// GenerateDownloadURL returns a stub download URL
func (s *StubAttachmentStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url("download", storageKey, expiresIn)
}

var _ attachment.ObjectStorage = (*StubAttachmentStorage)(nil)
