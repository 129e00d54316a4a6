// Package minio archives generated negotiation reports to S3-compatible
// object storage.
package minio

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

var ErrClientClosed = errors.New(errors.ErrCodeStorageError, "minio client is closed")

// storageAPI is the slice of the MinIO SDK the archive needs.  Tests swap
// in a fake.
type storageAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

// Client wraps the object-storage connection and owns the report bucket.
type Client struct {
	api    storageAPI
	bucket string
	log    logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient connects to the configured endpoint and ensures the report
// bucket exists.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.Validation("endpoint", "endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.Validation("bucket", "bucket is required")
	}
	if log == nil {
		log = logging.NewNop()
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	c := &Client{api: api, bucket: cfg.Bucket, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientWithAPI wraps an existing storage API, for tests.
func NewClientWithAPI(api storageAPI, bucket string, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	return &Client{api: api, bucket: bucket, log: log}
}

// Bucket returns the report bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket")
	}
	c.log.Info("report bucket created", logging.String("bucket", c.bucket))
	return nil
}

func (c *Client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// Close marks the client closed.  The SDK holds no long-lived connections
// that need tearing down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
