package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/doroshenkokb/mini-social-network/internal/config"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectNotFound = errors.New("object not found")

// Post images never change once stored; a replaced picture gets a new name.
const imageCacheControl = "public, max-age=31536000, immutable"

// Object is a downloaded image. Callers close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ImageStore holds post pictures referenced by path from the posts table.
type ImageStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectName string) (*Object, error)
	Delete(ctx context.Context, objectName string) error
}

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinIOClient{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOClient) report(action, objectName string, err error, extra map[string]interface{}) {
	details := map[string]interface{}{
		"object_name": objectName,
		"bucket":      m.bucket,
	}
	for k, v := range extra {
		details[k] = v
	}
	if err != nil {
		logger.Error("image_"+action+"_failed", err, details)
		return
	}
	logger.Info("image_"+action, details)
}

func isMissing(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

func (m *MinIOClient) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: imageCacheControl,
	})
	m.report("stored", objectName, err, map[string]interface{}{
		"size":         size,
		"content_type": contentType,
	})
	return err
}

// Download opens an image for streaming. GetObject is lazy, so a missing key
// only shows up on Stat.
func (m *MinIOClient) Download(ctx context.Context, objectName string) (*Object, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		m.report("open", objectName, err, nil)
		return nil, err
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isMissing(err) {
			return nil, ErrObjectNotFound
		}
		m.report("stat", objectName, err, nil)
		return nil, err
	}
	return &Object{Body: obj, ContentType: info.ContentType, Size: info.Size}, nil
}

func (m *MinIOClient) Delete(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil && isMissing(err) {
		err = nil
	}
	m.report("removed", objectName, err, nil)
	return err
}

// EnsureBucket creates the media bucket on first start.
func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}

	err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	logger.Info("image_bucket_ready", map[string]interface{}{"bucket": m.bucket})
	return nil
}
