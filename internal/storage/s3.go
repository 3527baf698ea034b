package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds S3/MinIO client configuration.
type S3Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string // "taryag"
	Prefix          string // optional key prefix, e.g. "corpus"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// S3 keeps artifacts as objects in an S3-compatible bucket.
type S3 struct {
	minioClient *minio.Client
	bucket      string
	prefix      string
}

// NewS3 creates a new S3/MinIO backend.
func NewS3(config S3Config) (*S3, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3{
		minioClient: minioClient,
		bucket:      config.Bucket,
		prefix:      strings.Trim(config.Prefix, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.minioClient.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = s.minioClient.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *S3) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put uploads an object. Single-object puts are atomic in S3.
func (s *S3) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.minioClient.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", name, err)
	}
	return nil
}

// Get downloads an object.
func (s *S3) Get(ctx context.Context, name string) ([]byte, error) {
	object, err := s.minioClient.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapErr(name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, s.wrapErr(name, err)
	}
	return data, nil
}

func (s *S3) wrapErr(name string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", name, err)
}

// Delete removes an object. S3 treats deleting a missing key as success.
func (s *S3) Delete(ctx context.Context, name string) error {
	if err := s.minioClient.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// List returns object base names directly under dir.
func (s *S3) List(ctx context.Context, dir string) ([]string, error) {
	objectCh := s.minioClient.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix: s.key(dir) + "/",
	})

	var names []string
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		names = append(names, path.Base(object.Key))
	}
	sort.Strings(names)
	return names, nil
}

// Location returns the bucket URI.
func (s *S3) Location() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

// Bucket returns the bucket name.
func (s *S3) Bucket() string {
	return s.bucket
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain; charset=utf-8"
	}
}
