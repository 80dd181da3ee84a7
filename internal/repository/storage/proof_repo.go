package storage

import (
	"context"
	"io"
	"time"
)

// ProofRepository stores payment proof files. Object paths, not URLs, are
// returned and persisted; URLs are presigned on demand.
type ProofRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
