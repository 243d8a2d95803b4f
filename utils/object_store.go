package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"nexus/config"
)

// presignTTL is the longest validity S3 accepts for a presigned GET.
const presignTTL = 7 * 24 * time.Hour

// MinioStore keeps evidence files in an S3 compatible bucket
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// ObjectKey builds a collision free key that keeps the original file name
func ObjectKey(filename string) string {
	base := strings.ReplaceAll(filepath.Base(filename), " ", "_")
	return fmt.Sprintf("evidence/%s/%s", uuid.NewString(), base)
}

func (s *MinioStore) Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadedFile, error) {
	key := ObjectKey(filename)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store evidence: %w", err)
	}

	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("sign evidence url: %w", err)
	}

	return &UploadedFile{
		URL:      link.String(),
		PublicID: key,
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		Bytes:    info.Size,
	}, nil
}

func (s *MinioStore) Delete(ctx context.Context, publicID string) error {
	return s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{})
}
