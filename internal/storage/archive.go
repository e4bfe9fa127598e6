// Package storage keeps copies of uploaded bulk files in object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver stores an uploaded file and returns the object key it was saved under.
type Archiver interface {
	Archive(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// MinIOConfig locates the bucket uploads are archived to.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// objectStore is the subset of *minio.Client the archiver uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIOArchiver writes uploads to a MinIO or S3-compatible bucket.
type MinIOArchiver struct {
	client objectStore
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

// NewMinIOArchiver returns nil when no endpoint is configured.
func NewMinIOArchiver(cfg MinIOConfig) (*MinIOArchiver, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOArchiver{client: client, bucket: cfg.Bucket}, nil
}

// ObjectKey builds the key an upload is stored under: bulk-uploads/<date>/<id><ext>.
func ObjectKey(name string, now time.Time) string {
	return fmt.Sprintf("bulk-uploads/%s/%s%s", now.Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(name))
}

// Archive uploads data, creating the bucket on first use.
func (a *MinIOArchiver) Archive(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := ObjectKey(name, time.Now())
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-name": filepath.Base(name),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	return key, nil
}

// ensureBucket checks for the bucket until it has been found or created
// once. Failures are retried on the next upload.
func (a *MinIOArchiver) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketReady {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	a.bucketReady = true
	return nil
}
