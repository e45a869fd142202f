package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
)

// WishlistService manages a user's wishlist
type WishlistService struct {
	wishlistRepo catalog.WishlistRepository
	productRepo  catalog.ProductRepository
}

// NewWishlistService creates a new WishlistService
func NewWishlistService(wishlistRepo catalog.WishlistRepository, productRepo catalog.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

// List returns the user's wishlist with products
func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]WishlistItemResponse, error) {
	items, err := s.wishlistRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WishlistItemResponse, len(items))
	for i := range items {
		out[i] = ToWishlistItemResponse(&items[i])
	}
	return out, nil
}

// Add puts a product on the wishlist. Adding it again returns the existing
// entry and created=false.
func (s *WishlistService) Add(ctx context.Context, userID uuid.UUID, req AddWishlistRequest) (*WishlistItemResponse, bool, error) {
	p, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, false, err
	}
	if !p.IsActive {
		return nil, false, shared.ErrNotFound
	}

	existing, err := s.wishlistRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	if err == nil {
		existing.Product = p
		resp := ToWishlistItemResponse(existing)
		return &resp, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	item := catalog.NewWishlistItem(userID, req.ProductID)
	if err := s.wishlistRepo.Save(ctx, item); err != nil {
		return nil, false, err
	}
	item.Product = p
	resp := ToWishlistItemResponse(item)
	return &resp, true, nil
}

// Remove deletes one of the user's wishlist entries
func (s *WishlistService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.wishlistRepo.DeleteForUser(ctx, userID, itemID)
}
