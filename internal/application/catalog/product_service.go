package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product browsing and admin catalog operations
type ProductService struct {
	productRepo catalog.ProductRepository
	stockLedger catalog.StockLedger
	storage     ObjectStorageService
	urlExpiry   time.Duration
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	stockLedger catalog.StockLedger,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		stockLedger: stockLedger,
		urlExpiry:   DefaultImageServiceConfig().DownloadURLExpiry,
		logger:      logger,
	}
}

// SetObjectStorage enables presigned image URLs on product details
func (s *ProductService) SetObjectStorage(storage ObjectStorageService, urlExpiry time.Duration) {
	s.storage = storage
	if urlExpiry > 0 {
		s.urlExpiry = urlExpiry
	}
}

// List returns one page of active products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	return s.list(ctx, filter, true)
}

// AdminList returns one page of products including inactive ones
func (s *ProductService) AdminList(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	return s.list(ctx, filter, false)
}

func (s *ProductService) list(ctx context.Context, filter ProductListFilter, activeOnly bool) (shared.Paginated[ProductResponse], error) {
	orderBy, orderDir := parseOrdering(filter.Ordering)
	f := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   strings.TrimSpace(filter.Search),
			OrderBy:  orderBy,
			OrderDir: orderDir,
		},
		Category:   strings.TrimSpace(filter.Category),
		ActiveOnly: activeOnly,
	}
	f.Normalize()

	products, total, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, f.Page, f.PageSize), nil
}

// parseOrdering turns "-price" into ("price", "desc")
func parseOrdering(ordering string) (string, string) {
	if ordering == "" {
		return "created_at", "desc"
	}
	if strings.HasPrefix(ordering, "-") {
		return strings.TrimPrefix(ordering, "-"), "desc"
	}
	return ordering, "asc"
}

// Get returns an active product; inactive products are not found
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(p)
	s.enrichWithURLs(ctx, &resp)
	return &resp, nil
}

// AdminGet returns any product
func (s *ProductService) AdminGet(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	s.enrichWithURLs(ctx, &resp)
	return &resp, nil
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if req.Price == nil {
		return nil, shared.NewDomainError("INVALID_PRICE", "price is required")
	}
	p, err := catalog.NewProduct(req.Name, req.Description, req.Category, *req.Price, req.Count)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name))
	resp := ToProductResponse(p)
	return &resp, nil
}

// Update changes the descriptive fields, price or visibility of a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, description, category, price := p.Name, p.Description, p.Category, p.Price
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Category != nil {
		category = *req.Category
	}
	if req.Price != nil {
		price = *req.Price
	}
	if err := p.Update(name, description, category, price); err != nil {
		return nil, err
	}
	if req.IsActive != nil && *req.IsActive != p.IsActive {
		if *req.IsActive {
			p.Activate()
		} else {
			p.Deactivate()
		}
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// Delete hides a product from the storefront. Orders keep their references.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return nil
	}
	p.Deactivate()
	if err := s.productRepo.Save(ctx, p); err != nil {
		return err
	}
	s.logger.Info("Product deactivated", zap.String("product_id", id.String()))
	return nil
}

// AdjustStock changes a product's stock by delta. A decrease larger than the
// current count is rejected and leaves the count untouched.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	if req.Delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "delta must not be zero")
	}
	if req.Delta > 0 {
		if err := s.stockLedger.Increment(ctx, id, req.Delta); err != nil {
			return nil, err
		}
	} else {
		ok, err := s.stockLedger.Decrement(ctx, id, -req.Delta)
		if err != nil {
			return nil, err
		}
		if !ok {
			if _, err := s.productRepo.FindByID(ctx, id); errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			return nil, shared.ErrInsufficientStock
		}
	}

	s.logger.Info("Stock adjusted", zap.String("product_id", id.String()), zap.Int("delta", req.Delta))
	return s.AdminGet(ctx, id)
}

func (s *ProductService) enrichWithURLs(ctx context.Context, resp *ProductResponse) {
	if s.storage == nil || len(resp.Images) == 0 {
		return
	}
	urls := make([]string, 0, len(resp.Images))
	for _, key := range resp.Images {
		url, _, err := s.storage.GenerateDownloadURL(ctx, key, s.urlExpiry)
		if err != nil {
			s.logger.Warn("Failed to presign product image", zap.String("key", key), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}
	resp.ImageURLs = urls
}
