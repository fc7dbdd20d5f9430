package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"recruitflow-go/internal/config"
	"recruitflow-go/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// CVArchive stores archival copies of CVs submitted through the public
// intake form. The workflow engine holds the working copy in the process
// drive folder; the archive exists so a lost or corrupted drive file can be
// recovered without asking the postulant again.
type CVArchive interface {
	UploadCV(ctx context.Context, processCode, dni, filename string, reader io.Reader, size int64, contentType string) (string, error)
	DownloadCV(ctx context.Context, objectName string) ([]byte, error)
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	DeleteCV(ctx context.Context, objectName string) error
}

var _ CVArchive = (*MinIO)(nil)

// MinIO implements CVArchive on a single archive bucket.
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
}

// NewMinIO creates the MinIO client and prepares the archive bucket.
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("minio config cannot be nil")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MinIO client: %w", err)
	}

	bucket := cfg.CVBucket
	if bucket == "" {
		bucket = "cv-archive"
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		bucket: bucket,
	}

	if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("ensuring CV archive bucket %s exists: %w", bucket, err)
	}

	if cfg.CVExpireDays > 0 {
		if err := m.setupLifecycleRule(context.Background(), cfg.CVExpireDays); err != nil {
			// Lifecycle is an optimization; the archive works without it.
			logger.Warn().Err(err).Str("bucket", bucket).Msg("failed to set CV archive lifecycle rule")
		}
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", bucket).Msg("MinIO CV archive initialized")
	return m, nil
}

func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucketName, err)
	}
	return nil
}

func (m *MinIO) setupLifecycleRule(ctx context.Context, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     "expire-archived-cvs",
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, m.bucket, lc)
}

// CVObjectName builds the archive key for one submission. Keys group by
// process code so a whole process can be listed or purged at once.
func CVObjectName(processCode, dni, filename string) string {
	return fmt.Sprintf("%s/%s_%s", processCode, dni, filename)
}

// UploadCV stores an archival copy and returns the object name.
func (m *MinIO) UploadCV(ctx context.Context, processCode, dni, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := CVObjectName(processCode, dni, filename)
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading CV %s: %w", objectName, err)
	}
	return objectName, nil
}

// DownloadCV fetches an archived CV.
func (m *MinIO) DownloadCV(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting CV %s: %w", objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading CV %s: %w", objectName, err)
	}
	return data, nil
}

// GetPresignedURL returns a temporary download link for an archived CV.
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presigning CV %s: %w", objectName, err)
	}
	return u.String(), nil
}

// DeleteCV removes an archived CV.
func (m *MinIO) DeleteCV(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting CV %s: %w", objectName, err)
	}
	return nil
}
