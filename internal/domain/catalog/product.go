package catalog

import (
	"strings"

	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength     = 255
	maxCategoryLength = 100
	// MaxImages bounds the number of images attached to one product
	MaxImages = 10
)

// Product is a sellable item with its stock count.
// Count is the stock ledger for the product: it is never negative and is only
// changed through the conditional updates of StockLedger inside a transaction.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Count       int
	Images      []string
	IsActive    bool
}

// NewProduct creates an active product
func NewProduct(name, description, category string, price decimal.Decimal, count int) (*Product, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, shared.NewDomainError("INVALID_COUNT", "stock count cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Description:       description,
		Category:          strings.TrimSpace(category),
		Price:             price.Round(2),
		Count:             count,
		Images:            []string{},
		IsActive:          true,
	}, nil
}

// Update replaces the descriptive fields and price
func (p *Product) Update(name, description, category string, price decimal.Decimal) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.Category = strings.TrimSpace(category)
	p.Price = price.Round(2)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Activate makes the product visible in the storefront
func (p *Product) Activate() {
	p.IsActive = true
	p.Touch()
	p.IncrementVersion()
}

// Deactivate hides the product; existing orders keep referencing it
func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
	p.IncrementVersion()
}

// AddImage attaches a storage key to the product
func (p *Product) AddImage(storageKey string) error {
	storageKey = strings.TrimSpace(storageKey)
	if storageKey == "" {
		return shared.NewDomainError("INVALID_IMAGE", "image key cannot be empty")
	}
	if len(p.Images) >= MaxImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", "product cannot have more than 10 images")
	}
	for _, existing := range p.Images {
		if existing == storageKey {
			return nil
		}
	}
	p.Images = append(p.Images, storageKey)
	p.Touch()
	return nil
}

// RemoveImage detaches a storage key; it reports whether the key was attached
func (p *Product) RemoveImage(storageKey string) bool {
	for i, existing := range p.Images {
		if existing == storageKey {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			p.Touch()
			return true
		}
	}
	return false
}

// HasStock reports whether quantity units are currently available
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Count >= quantity
}

// IsPurchasable reports whether the product may be put in a cart
func (p *Product) IsPurchasable() bool {
	return p.IsActive
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "product name cannot be empty")
	}
	if len(name) > maxNameLength {
		return shared.NewDomainError("INVALID_NAME", "product name cannot exceed 255 characters")
	}
	return nil
}

func validateCategory(category string) error {
	if len(strings.TrimSpace(category)) > maxCategoryLength {
		return shared.NewDomainError("INVALID_CATEGORY", "category cannot exceed 100 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "price must be positive")
	}
	return nil
}
