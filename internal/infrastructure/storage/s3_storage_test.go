package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rms/backend/internal/infrastructure/config"
)

func testS3Config() *config.StorageConfig {
	return &config.StorageConfig{
		Driver:            "s3",
		Bucket:            "rms-attachments",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Region:            "us-east-1",
		Endpoint:          "http://localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 15 * time.Minute,
	}
}

func TestNewS3AttachmentStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{name: "missing bucket", mutate: func(c *config.StorageConfig) { c.Bucket = "" }, wantErr: "bucket is required"},
		{name: "missing access key", mutate: func(c *config.StorageConfig) { c.AccessKey = "" }, wantErr: "access key and secret key"},
		{name: "missing secret key", mutate: func(c *config.StorageConfig) { c.SecretKey = "" }, wantErr: "access key and secret key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testS3Config()
			tt.mutate(cfg)
			_, err := NewS3AttachmentStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3AttachmentStorage(nil)
		require.Error(t, err)
	})

	t.Run("defaults presign expiration", func(t *testing.T) {
		cfg := testS3Config()
		cfg.PresignExpiration = 0
		s, err := NewS3AttachmentStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
		assert.Equal(t, "rms-attachments", s.Bucket())
	})

	t.Run("options override configuration", func(t *testing.T) {
		s, err := NewS3AttachmentStorage(testS3Config(), WithPresignExpiration(time.Hour), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{in: "", want: ""},
		{in: "localhost:9000", want: "http://localhost:9000"},
		{in: "minio.internal:9000", useSSL: true, want: "https://minio.internal:9000"},
		{in: "https://s3.eu-west-1.amazonaws.com", want: "https://s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.in, tt.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3AttachmentStorage_Presign(t *testing.T) {
	s, err := NewS3AttachmentStorage(testS3Config())
	require.NoError(t, err)
	ctx := context.Background()
	key := "rmas/0d7c/9a1f/photo.jpg"

	t.Run("upload URL targets the bucket and key", func(t *testing.T) {
		raw, expiresAt, err := s.GenerateUploadURL(ctx, key, "image/jpeg", 10*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.Equal(t, "/rms-attachments/"+key, u.Path)
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("download URL uses the default lifetime", func(t *testing.T) {
		raw, expiresAt, err := s.GenerateDownloadURL(ctx, key, 0)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(ctx, "", "image/jpeg", time.Minute)
		assert.ErrorIs(t, err, errStorageKeyRequired)
		_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.ErrorIs(t, err, errStorageKeyRequired)
	})
}

func TestNewObjectStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("stub driver", func(t *testing.T) {
		s, err := NewObjectStorage(ctx, &config.StorageConfig{Driver: "stub", StubBaseURL: "http://files.local"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &StubAttachmentStorage{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewObjectStorage(ctx, &config.StorageConfig{Driver: "ftp"}, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage driver")
	})

	t.Run("invalid s3 configuration", func(t *testing.T) {
		_, err := NewObjectStorage(ctx, &config.StorageConfig{Driver: "s3"}, zap.NewNop())
		require.Error(t, err)
	})
}
