// Package storage moves scan payloads in and out of a blob store. Callers
// only see Gateway; the backend (local disk, S3 compatible or Supabase
// Storage) is chosen from configuration.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/config"
)

// Object is an opened blob. Size is -1 when the backend does not report it.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

type Gateway interface {
	// Put stores r under key, replacing any existing blob.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens the blob at key; a missing blob yields common.ErrorNotFound.
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key. It never fails.
	URL(key string) string
}

var now = time.Now

// ScanKey returns a fresh key for a scan file of userID:
// scans/{user}/{yyyy}/{mm}/{dd}/{uuid}.{ext}.
func ScanKey(userID int64, ext string) string {
	d := now().UTC()
	return fmt.Sprintf("scans/%d/%04d/%02d/%02d/%s%s", userID, d.Year(), d.Month(), d.Day(), uuid.New(), normalizeExt(ext))
}

// ThumbnailKey returns a fresh key for a thumbnail image of userID.
func ThumbnailKey(userID int64, ext string) string {
	return fmt.Sprintf("thumbnails/%d/%s%s", userID, uuid.New(), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return ""
	}
	return "." + ext
}

// New builds the Gateway selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Gateway, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalGateway(cfg.LocalStorageDir, cfg.PublicBaseURL+LocalURLPrefix)
	case config.StorageS3:
		return NewS3Gateway(ctx, S3Options{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
		})
	case config.StorageSupabase:
		return NewSupabaseGateway(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket, nil), nil
	default:
		logger.Error(ctx, "unknown storage backend", "backend", cfg.StorageBackend)
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
