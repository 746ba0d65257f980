package purchase_order

import (
	"context"

	"commissionflow/internal/core/id"
	"commissionflow/internal/domain"
)

// ListFilter contains filtering options for purchase order lists.
type ListFilter struct {
	VendorID string
	Status   *Status

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// Repository defines persistence operations for purchase orders.
// Implementations must load and save the order together with its items.
type Repository interface {
	// Create inserts a new order with items.
	Create(ctx context.Context, po *PurchaseOrder) error

	// GetByID retrieves an order with items.
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// Update saves order fields and items (optimistic locking on version).
	Update(ctx context.Context, po *PurchaseOrder) error

	// List retrieves orders with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
}
