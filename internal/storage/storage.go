package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrNoDirectURL is returned by stores that cannot hand out a direct
// download URL; callers stream the object through Open instead.
var ErrNoDirectURL = errors.New("store does not support direct URLs")

// FileStore publishes completed upload artifacts and serves them back.
// Chunked uploads are always staged on the local filesystem; on
// completion each artifact (original file, icon, preview) is published
// here under its object key.
type FileStore interface {
	// Publish makes the staged file at localPath available under key.
	Publish(ctx context.Context, key, localPath, contentType string) error

	// Open returns the published object's content for streaming.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadURL returns a direct URL for stores that support one
	// (S3 presigned GET); otherwise ErrNoDirectURL.
	DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Delete removes a published object.
	Delete(ctx context.Context, key string) error
}
