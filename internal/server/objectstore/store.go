// Package objectstore talks to the remote blob store that mirrors photo
// binaries. Two backends are available: AWS S3 through aws-sdk-go-v2 and
// S3-compatible servers through minio-go.
package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gallerysync/internal/server/config"
)

// Store is the narrow contract the synchronization pipeline needs. Every
// call is independent and may fail on its own.
type Store interface {
	// Put writes body under key. publicRead grants anonymous read access.
	Put(ctx context.Context, key string, body []byte, contentType string, publicRead bool) error
	// Delete removes a single key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// New builds the Store selected by cfg.ObjectStore.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.ObjectStore {
	case config.BackendS3, "":
		return NewS3Store(ctx, cfg)
	case config.BackendMinio:
		return NewMinioStore(cfg)
	default:
		return nil, fmt.Errorf("unknown object store backend %q", cfg.ObjectStore)
	}
}

// Locator turns object keys into public URLs. The URL is a pure function of
// bucket, region and key; nothing is asked of the store.
type Locator struct {
	Bucket        string
	Region        string
	PublicBaseURL string
}

func NewLocator(cfg *config.Config) Locator {
	return Locator{Bucket: cfg.S3Bucket, Region: cfg.S3Region, PublicBaseURL: cfg.PublicBaseURL}
}

// URL returns the virtual-hosted AWS URL of key, or the path-style URL under
// PublicBaseURL when one is configured.
func (l Locator) URL(key string) string {
	if l.PublicBaseURL != "" {
		return strings.TrimRight(l.PublicBaseURL, "/") + "/" + l.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", l.Bucket, l.Region, key)
}
