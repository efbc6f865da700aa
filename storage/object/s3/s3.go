// Package s3 implements the object store contract against S3-compatible
// services (MinIO, R2, Backblaze, AWS).
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/storage/object"
)

type s3Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

var newMinioClient = func(endpoint string, opts *minio.Options) (s3Client, error) {
	return minio.New(endpoint, opts)
}

type StoreImpl struct {
	client s3Client
	bucket string
}

// thumbnailPolicy grants anonymous read on the thumbnails prefix only.
// Originals stay private and are reachable through presigned URLs.
const thumbnailPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/thumbnails/*"]
    }
  ]
}`

func NewStore(ctx context.Context, cfg *config.Storage) (*StoreImpl, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is nil")
	}

	client, err := newMinioClient(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyId, cfg.SecretKeyId, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	s := &StoreImpl{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *StoreImpl) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to verify s3 bucket %q: %w", s.bucket, err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("failed to create s3 bucket %q: %w", s.bucket, err)
		}
	}

	policy := fmt.Sprintf(thumbnailPolicy, s.bucket)
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("failed to set thumbnail read policy on %q: %w", s.bucket, err)
	}

	return nil
}

func (s *StoreImpl) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, opts); err != nil {
		return fmt.Errorf("upload of %q failed: %w", key, err)
	}

	return nil
}

func (s *StoreImpl) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open of %q failed: %w", key, err)
	}

	return obj, nil
}

func (s *StoreImpl) Fetch(ctx context.Context, key string, localPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download of %q failed: %w", key, err)
	}

	return nil
}

func (s *StoreImpl) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign of %q failed: %w", key, err)
	}

	return u.String(), nil
}

func (s *StoreImpl) Remove(ctx context.Context, key string) error {
	// S3 deletes are idempotent: removing an absent key succeeds.
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete of %q failed: %w", key, err)
	}

	return nil
}

func (s *StoreImpl) List(ctx context.Context, prefix string) <-chan object.Entry {
	out := make(chan object.Entry)

	go func() {
		defer close(out)

		opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
		for info := range s.client.ListObjects(ctx, s.bucket, opts) {
			if info.Err != nil {
				// The send must stay cancellable: a consumer that gave
				// up mid-drain would otherwise strand this goroutine.
				select {
				case out <- object.Entry{Err: fmt.Errorf("listing %q failed: %w", prefix, info.Err)}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case out <- object.Entry{Key: info.Key, Size: info.Size}:
			case <-ctx.Done():
				// Closing the channel is the termination signal.
				return
			}
		}
	}()

	return out
}
