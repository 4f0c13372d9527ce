// Package objectstore uploads written partition files to an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// Options configures the MinIO connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string

	// Region, when set, spares the client a bucket location lookup.
	Region string
}

// Uploader copies local partition files into a bucket under a key prefix.
type Uploader struct {
	client  *minio.Client
	bucket  string
	prefix  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewUploader connects to the endpoint and creates the bucket when missing.
func NewUploader(ctx context.Context, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Uploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
		logger.Info("created bucket", "bucket", opts.Bucket)
	}

	return &Uploader{
		client:  client,
		bucket:  opts.Bucket,
		prefix:  opts.Prefix,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Upload copies the file at localPath to the bucket and returns its key.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	key := ObjectKey(u.prefix, localPath)
	info, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	u.metrics.ObjectsUploaded.Inc()
	u.logger.Debug("uploaded partition", "bucket", u.bucket, "key", key, "bytes", info.Size)
	return key, nil
}

// ObjectKey places the file's base name under prefix.
func ObjectKey(prefix, localPath string) string {
	return path.Join(prefix, filepath.Base(localPath))
}

// ContentType maps partition file extensions to MIME types.
func ContentType(localPath string) string {
	switch filepath.Ext(localPath) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".sqlite":
		return "application/vnd.sqlite3"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
