// Package storage keeps product images in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	catalogapp "github.com/shopline/backend/internal/application/catalog"
	"github.com/shopline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ catalogapp.ObjectStorageService = (*S3ImageStore)(nil)

// ErrEmptyKey is returned for operations without a storage key
var ErrEmptyKey = errors.New("storage key is required")

// S3ImageStore presigns product image uploads and downloads against an
// S3-compatible bucket (AWS S3, MinIO, RustFS).
type S3ImageStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	defaultExpiry time.Duration
	logger        *zap.Logger
}

// Option configures an S3ImageStore
type Option func(*S3ImageStore)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3ImageStore) {
		s.logger = logger
	}
}

// NewS3ImageStore builds a store from the storage config section
func NewS3ImageStore(cfg config.StorageConfig, opts ...Option) (*S3ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3ImageStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		defaultExpiry: cfg.PresignExpiry,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.defaultExpiry <= 0 {
		store.defaultExpiry = 15 * time.Minute
	}
	return store, nil
}

// Bucket returns the bucket name
func (s *S3ImageStore) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket if it does not exist yet
func (s *S3ImageStore) EnsureBucket(ctx context.Context) error {
	err := s.Ping(ctx)
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return err
	}

	s.logger.Info("Creating image bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (s *S3ImageStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", s.bucket, err)
	}
	return nil
}

// GenerateUploadURL presigns a PUT restricted to the given content type
func (s *S3ImageStore) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	expiresIn = s.expiry(expiresIn)

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// GenerateDownloadURL presigns a GET for an image
func (s *S3ImageStore) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	expiresIn = s.expiry(expiresIn)

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// DeleteObject removes an image
func (s *S3ImageStore) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrEmptyKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ObjectExists reports whether an uploaded image is present
func (s *S3ImageStore) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, ErrEmptyKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	// Some S3-compatible servers only report the code in the message.
	if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object: %w", err)
}

func (s *S3ImageStore) expiry(d time.Duration) time.Duration {
	if d <= 0 {
		return s.defaultExpiry
	}
	return d
}
