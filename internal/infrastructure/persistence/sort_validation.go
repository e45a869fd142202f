package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if it is whitelisted, otherwise defaultField.
// Column names cannot be bound as parameters, so only whitelisted names reach SQL.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"price":      true,
	"name":       true,
	"count":      true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"total_amount": true,
	"status":       true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"username":      true,
	"email":         true,
	"last_login_at": true,
}

// CancellationSortFields contains allowed sort fields for cancellation records
var CancellationSortFields = map[string]bool{
	"cancelled_at":  true,
	"refund_status": true,
}
