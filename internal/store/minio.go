package store

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO implements Store over an S3-compatible endpoint (MinIO in dev,
// anything speaking S3 V4 signatures in prod).
type MinIO struct {
	client *minio.Client
}

// MinIOOptions carries connection settings for NewMinIO.
type MinIOOptions struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// NewMinIO builds the client; no network I/O happens until the first call.
func NewMinIO(opts MinIOOptions) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinIO{client: client}, nil
}

func (m *MinIO) Download(ctx context.Context, bucket, key, localPath string) error {
	err := m.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return &Error{Op: "download", Bucket: bucket, Key: key, Err: ErrNotFound}
		}
		return &Error{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (m *MinIO) Upload(ctx context.Context, bucket, key, localPath string, metadata map[string]string) error {
	_, err := m.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		UserMetadata: metadata,
	})
	if err != nil {
		return &Error{Op: "upload", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (m *MinIO) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, &Error{Op: "list", Bucket: bucket, Key: prefix, Err: obj.Err}
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return out, nil
}

func (m *MinIO) Presign(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", &Error{Op: "presign", Bucket: bucket, Key: key, Err: err}
	}
	return u.String(), nil
}
