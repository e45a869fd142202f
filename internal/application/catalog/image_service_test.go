package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopline/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImageService_InitiateUpload(t *testing.T) {
	ctx := context.Background()
	p := newTestProduct(t, 1)
	repo := new(MockProductRepository)
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	storage := new(MockObjectStorage)
	expires := time.Now().Add(15 * time.Minute)
	storage.On("GenerateUploadURL", ctx, mock.AnythingOfType("string"), "image/png", 15*time.Minute).
		Return("https://s3.example/upload", expires, nil)

	resp, err := NewImageService(repo, storage, zap.NewNop()).
		InitiateUpload(ctx, p.ID, InitiateImageUploadRequest{FileName: "Lamp.PNG", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/upload", resp.UploadURL)
	assert.True(t, strings.HasPrefix(resp.StorageKey, "products/"+p.ID.String()+"/images/"))
	assert.True(t, strings.HasSuffix(resp.StorageKey, ".png"))
	assert.Empty(t, p.Images, "image is attached only on confirm")
}

func TestImageService_InitiateUploadRejects(t *testing.T) {
	ctx := context.Background()
	p := newTestProduct(t, 1)
	repo := new(MockProductRepository)
	repo.On("FindByID", ctx, p.ID).Return(p, nil)

	_, err := NewImageService(repo, new(MockObjectStorage), zap.NewNop()).
		InitiateUpload(ctx, p.ID, InitiateImageUploadRequest{FileName: "run.sh", ContentType: "text/x-shellscript"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	_, err = NewImageService(repo, nil, zap.NewNop()).
		InitiateUpload(ctx, p.ID, InitiateImageUploadRequest{FileName: "a.png", ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestImageService_ConfirmUpload(t *testing.T) {
	ctx := context.Background()
	p := newTestProduct(t, 1)
	key := imageStorageKey(p.ID, "a.jpg")

	t.Run("missing object", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindByID", ctx, p.ID).Return(p, nil)
		storage := new(MockObjectStorage)
		storage.On("ObjectExists", ctx, key).Return(false, nil)

		_, err := NewImageService(repo, storage, zap.NewNop()).ConfirmUpload(ctx, p.ID, ImageKeyRequest{StorageKey: key})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload it first")
	})

	t.Run("foreign key", func(t *testing.T) {
		_, err := NewImageService(new(MockProductRepository), new(MockObjectStorage), zap.NewNop()).
			ConfirmUpload(ctx, p.ID, ImageKeyRequest{StorageKey: "products/other/images/x.png"})
		require.Error(t, err)
	})

	t.Run("attaches", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindByID", ctx, p.ID).Return(p, nil)
		repo.On("Save", ctx, p).Return(nil)
		storage := new(MockObjectStorage)
		storage.On("ObjectExists", ctx, key).Return(true, nil)

		resp, err := NewImageService(repo, storage, zap.NewNop()).ConfirmUpload(ctx, p.ID, ImageKeyRequest{StorageKey: key})
		require.NoError(t, err)
		assert.Equal(t, []string{key}, resp.Images)
	})
}

func TestImageService_RemoveImage(t *testing.T) {
	ctx := context.Background()
	p := newTestProduct(t, 1)
	key := imageStorageKey(p.ID, "a.jpg")
	require.NoError(t, p.AddImage(key))

	repo := new(MockProductRepository)
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	storage := new(MockObjectStorage)
	storage.On("DeleteObject", ctx, key).Return(nil)

	svc := NewImageService(repo, storage, zap.NewNop())
	resp, err := svc.RemoveImage(ctx, p.ID, ImageKeyRequest{StorageKey: key})
	require.NoError(t, err)
	assert.Empty(t, resp.Images)
	storage.AssertExpectations(t)

	_, err = svc.RemoveImage(ctx, p.ID, ImageKeyRequest{StorageKey: key})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
