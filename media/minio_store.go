package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements the Store interface for MinIO and other
// S3-compatible servers using minio-go
type MinioStorage struct {
	client *minio.Client
	cfg    S3Config
}

// NewMinioStorage connects to the server and ensures the bucket exists.
func NewMinioStorage(ctx context.Context, c S3Config) (*MinioStorage, error) {
	host, secure, err := splitEndpoint(c.Endpoint, c.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: secure,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, c.Bucket, minio.MakeBucketOptions{Region: c.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	log.Printf("media.store: Initialized MinioStorage (bucket: %s, endpoint: %s)", c.Bucket, host)
	return &MinioStorage{client: client, cfg: c}, nil
}

// splitEndpoint accepts either a bare host:port or a URL; a URL scheme wins
// over the UseSSL flag.
func splitEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid storage endpoint '%s': %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid storage endpoint '%s': missing host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

// Put uploads an object under a new key.
func (m *MinioStorage) Put(ctx context.Context, data io.Reader, originalFilename string) (string, string, error) {
	key := NewObjectKey(originalFilename)

	size := int64(-1)
	if sized, ok := data.(interface{ Len() int }); ok {
		size = int64(sized.Len())
	}

	_, err := m.client.PutObject(ctx, m.cfg.Bucket, key, data, size, minio.PutObjectOptions{
		ContentType: ContentType(originalFilename),
	})
	if err != nil {
		return "", "", fmt.Errorf("put object: %w", err)
	}
	log.Printf("media.store: Uploaded %s to %s/%s", originalFilename, m.cfg.Bucket, key)
	return key, m.cfg.objectURL(key), nil
}

// Get streams an object.
func (m *MinioStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

// Delete removes an object.
func (m *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
