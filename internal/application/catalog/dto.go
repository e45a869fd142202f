package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=255"`
	Description string           `json:"description" binding:"max=5000"`
	Category    string           `json:"category" binding:"max=100"`
	Price       *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"10.00"`
	Count       int              `json:"count" binding:"min=0"`
}

// UpdateProductRequest represents a request to update a product.
// Only the fields present are changed.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	IsActive    *bool            `json:"is_active"`
}

// AdjustStockRequest adds (positive delta) or removes (negative delta) stock
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required,ne=0"`
}

// ProductListFilter is the query of GET /products
type ProductListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=100"`
	Category string `form:"category" binding:"max=100"`
	Ordering string `form:"ordering" binding:"omitempty,oneof=price -price created_at -created_at name -name"`
}

// InitiateImageUploadRequest asks for a presigned upload URL for a product image
type InitiateImageUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
}

// InitiateImageUploadResponse carries the presigned URL the client PUTs the file to
type InitiateImageUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ImageKeyRequest names an uploaded image by its storage key
type ImageKeyRequest struct {
	StorageKey string `json:"storage_key" binding:"required,min=1,max=512"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Count       int             `json:"count"`
	InStock     bool            `json:"in_stock"`
	Images      []string        `json:"images"`
	ImageURLs   []string        `json:"image_urls,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WishlistItemResponse represents a wishlist entry with its product
type WishlistItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Product   *ProductResponse `json:"product,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// AddWishlistRequest is the body of POST /wishlist
type AddWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// ToProductResponse converts a domain product to its response form
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Count:       p.Count,
		InStock:     p.Count > 0,
		Images:      images,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a page of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// ToWishlistItemResponse converts a wishlist entry
func ToWishlistItemResponse(item *catalog.WishlistItem) WishlistItemResponse {
	resp := WishlistItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		CreatedAt: item.CreatedAt,
	}
	if item.Product != nil {
		p := ToProductResponse(item.Product)
		resp.Product = &p
	}
	return resp
}
