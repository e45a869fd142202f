// Package cart implements the user's cart use cases.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service manages cart lines
type Service struct {
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewService creates a new cart Service
func NewService(cartRepo cart.Repository, productRepo catalog.ProductRepository, logger *zap.Logger) *Service {
	return &Service{cartRepo: cartRepo, productRepo: productRepo, logger: logger}
}

// List returns the user's cart
func (s *Service) List(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(items)
	return &resp, nil
}

// Add puts a product in the cart, or increments the existing line for it.
// The returned bool is true when a new line was created.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*ItemResponse, bool, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	p, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, false, err
	}
	if !p.IsActive {
		return nil, false, shared.ErrNotFound
	}

	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	created := false
	switch {
	case err == nil:
		if err := item.Add(quantity); err != nil {
			return nil, false, err
		}
	case errors.Is(err, shared.ErrNotFound):
		item, err = cart.NewItem(userID, req.ProductID, quantity)
		if err != nil {
			return nil, false, err
		}
		created = true
	default:
		return nil, false, err
	}

	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, false, err
	}
	item.Product = p

	s.logger.Debug("Cart line saved",
		zap.String("user_id", userID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.Int("quantity", item.Quantity),
	)
	resp := ToItemResponse(item)
	return &resp, created, nil
}

// UpdateQuantity replaces the quantity of one of the user's lines
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	item, err := s.cartRepo.FindByIDForUser(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.SetQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Remove deletes one of the user's lines
func (s *Service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.cartRepo.DeleteForUser(ctx, userID, itemID)
}
