package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/infrastructure/config"
)

// S3Storage uploads images to a bucket. Files are staged on local disk and
// the local copy is removed once the upload succeeds; when the upload fails
// the local URL is returned instead.
type S3Storage struct {
	client   s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
	baseURL  string
	local    *LocalStorage
	logger   *zap.Logger
}

// NewS3Storage creates an S3 backed store using the default AWS credential chain
func NewS3Storage(cfg config.StorageConfig, local *LocalStorage, logger *zap.Logger) (*S3Storage, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := s3.New(sess)
	return NewS3StorageWithClient(client, cfg, local, logger), nil
}

// NewS3StorageWithClient wires an existing S3 client
func NewS3StorageWithClient(client s3iface.S3API, cfg config.StorageConfig, local *LocalStorage, logger *zap.Logger) *S3Storage {
	baseURL := strings.TrimRight(cfg.CDNBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &S3Storage{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
		baseURL:  baseURL,
		local:    local,
		logger:   logger.Named("s3-storage"),
	}
}

// Store uploads data and returns the public object URL
func (s *S3Storage) Store(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	localURL, err := s.local.Store(ctx, filename, contentType, data)
	if err != nil {
		return "", err
	}

	key := path.Join(s.prefix, path.Base(filename))
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Warn("S3 upload failed, keeping local copy",
			zap.String("key", key), zap.Error(err))
		return localURL, nil
	}

	if err := s.local.Remove(ctx, localURL); err != nil {
		s.logger.Debug("Failed to remove staged upload", zap.String("url", localURL), zap.Error(err))
	}
	return s.baseURL + "/" + key, nil
}

// Remove deletes an object uploaded by Store, or the local fallback copy
func (s *S3Storage) Remove(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return s.local.Remove(ctx, url)
	}

	key := strings.TrimPrefix(url, s.baseURL+"/")
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3 object: %w", err)
	}
	return nil
}
