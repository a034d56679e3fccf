// Package attachment models files attached to an RMA. File bodies live in
// object storage; the database keeps metadata and the storage key.
package attachment

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/shared"
)

// MaxSizeBytes is the largest attachment accepted
const MaxSizeBytes = 25 << 20

var allowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/pdf",
	"text/plain",
}

// Attachment is a file registered against an RMA
type Attachment struct {
	ID           uuid.UUID
	RMAID        uuid.UUID
	FileName     string
	ContentType  string
	SizeBytes    int64
	StorageKey   string
	UploadedByID uuid.UUID
	CreatedAt    time.Time
}

// New validates and builds an attachment record
func New(rmaID uuid.UUID, fileName, contentType string, sizeBytes int64, uploadedBy uuid.UUID, now time.Time) (*Attachment, error) {
	fileName = path.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "File name is required")
	}
	if !slices.Contains(allowedContentTypes, contentType) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Content type %q is not allowed", contentType))
	}
	if sizeBytes <= 0 || sizeBytes > MaxSizeBytes {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("File size must be between 1 and %d bytes", MaxSizeBytes))
	}

	id := uuid.New()
	return &Attachment{
		ID:           id,
		RMAID:        rmaID,
		FileName:     fileName,
		ContentType:  contentType,
		SizeBytes:    sizeBytes,
		StorageKey:   fmt.Sprintf("rmas/%s/%s/%s", rmaID, id, fileName),
		UploadedByID: uploadedBy,
		CreatedAt:    now,
	}, nil
}

// Repository persists attachment metadata
type Repository interface {
	Create(ctx context.Context, a *Attachment) error
	FindByID(ctx context.Context, rmaID, id uuid.UUID) (*Attachment, error)
	FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]Attachment, error)
}

// ObjectStorage issues presigned URLs for attachment bodies
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}
