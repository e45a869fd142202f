package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectStorageService defines the object storage operations used for product images.
// It is implemented by the infrastructure layer (S3 or any S3-compatible store).
type ObjectStorageService interface {
	// GenerateUploadURL returns a presigned PUT URL and its expiry
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ImageServiceConfig holds the presign lifetimes for product images
type ImageServiceConfig struct {
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
}

// DefaultImageServiceConfig returns the default presign lifetimes
func DefaultImageServiceConfig() ImageServiceConfig {
	return ImageServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: time.Hour,
	}
}

// AllowedImageContentTypes is the whitelist of uploadable image types
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ErrStorageDisabled is returned when no object storage is configured
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "image storage is not configured")

// ImageService manages product images in object storage.
// Uploads are two-step: the client PUTs to a presigned URL, then confirms the key.
type ImageService struct {
	productRepo catalog.ProductRepository
	storage     ObjectStorageService
	config      ImageServiceConfig
	logger      *zap.Logger
}

// NewImageService creates a new ImageService; storage may be nil when disabled
func NewImageService(productRepo catalog.ProductRepository, storage ObjectStorageService, logger *zap.Logger) *ImageService {
	return &ImageService{
		productRepo: productRepo,
		storage:     storage,
		config:      DefaultImageServiceConfig(),
		logger:      logger,
	}
}

// SetConfig sets the service configuration
func (s *ImageService) SetConfig(config ImageServiceConfig) {
	s.config = config
}

// InitiateUpload returns a presigned upload URL for a new image of the product
func (s *ImageService) InitiateUpload(ctx context.Context, productID uuid.UUID, req InitiateImageUploadRequest) (*InitiateImageUploadResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(p.Images) >= catalog.MaxImages {
		return nil, shared.NewDomainError("TOO_MANY_IMAGES",
			fmt.Sprintf("product cannot have more than %d images", catalog.MaxImages))
	}
	if !AllowedImageContentTypes[strings.ToLower(req.ContentType)] {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("content type %q is not allowed", req.ContentType))
	}

	key := imageStorageKey(productID, req.FileName)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.String("key", key), zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "failed to generate upload URL")
	}

	return &InitiateImageUploadResponse{StorageKey: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// ConfirmUpload attaches an uploaded object to the product once it exists in storage
func (s *ImageService) ConfirmUpload(ctx context.Context, productID uuid.UUID, req ImageKeyRequest) (*ProductResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if !strings.HasPrefix(req.StorageKey, imageKeyPrefix(productID)) {
		return nil, shared.NewDomainError("INVALID_IMAGE", "storage key does not belong to this product")
	}
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, req.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify upload: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "file not found in storage, upload it first")
	}

	if err := p.AddImage(req.StorageKey); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// RemoveImage detaches an image from the product and deletes the object
func (s *ImageService) RemoveImage(ctx context.Context, productID uuid.UUID, req ImageKeyRequest) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.RemoveImage(req.StorageKey) {
		return nil, shared.ErrNotFound
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, req.StorageKey); err != nil {
			s.logger.Warn("Failed to delete image object", zap.String("key", req.StorageKey), zap.Error(err))
		}
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

func imageKeyPrefix(productID uuid.UUID) string {
	return "products/" + productID.String() + "/images/"
}

// imageStorageKey builds products/{productID}/images/{uuid}{ext}
func imageStorageKey(productID uuid.UUID, fileName string) string {
	return imageKeyPrefix(productID) + uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
}
