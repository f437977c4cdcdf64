package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dmitrijs2005/gallerysync/internal/server/config"
)

// publicReadMetadata asks an S3-compatible server for the public-read canned ACL.
var publicReadMetadata = map[string]string{"x-amz-acl": "public-read"}

// MinioStore stores objects on MinIO or any other S3-compatible server.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to cfg.S3BaseEndpoint. The endpoint may be a bare
// host:port or a URL; an https scheme enables TLS.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	host, secure, err := splitEndpoint(cfg.S3BaseEndpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3RootUser, cfg.S3RootPassword, ""),
		Secure: secure,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	return &MinioStore{client: client, bucket: cfg.S3Bucket}, nil
}

func splitEndpoint(endpoint string) (host string, secure bool, err error) {
	if endpoint == "" {
		return "", false, fmt.Errorf("minio backend requires an endpoint")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func (s *MinioStore) Put(ctx context.Context, key string, body []byte, contentType string, publicRead bool) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if publicRead {
		opts.UserMetadata = publicReadMetadata
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), opts)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) DeletePrefix(ctx context.Context, prefix string) error {
	listed := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	toDelete := make(chan minio.ObjectInfo)
	listDone := make(chan error, 1)

	go func() {
		defer close(toDelete)
		var listErr error
		for obj := range listed {
			if obj.Err != nil {
				if listErr == nil {
					listErr = obj.Err
				}
				continue
			}
			select {
			case toDelete <- obj:
			case <-ctx.Done():
				listDone <- ctx.Err()
				return
			}
		}
		listDone <- listErr
	}()

	var firstErr error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, toDelete, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s: %w", rerr.ObjectName, rerr.Err)
		}
	}

	listErr := <-listDone

	if firstErr != nil {
		return firstErr
	}
	if listErr != nil {
		return fmt.Errorf("failed to list %s: %w", prefix, listErr)
	}
	return nil
}
