package sale_order

import (
	"context"

	"commissionflow/internal/core/id"
	"commissionflow/internal/domain"
)

// ListFilter contains filtering options for sale order lists.
type ListFilter struct {
	POID     *id.ID
	TraderID string
	Status   *Status

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// FallbackReader reports fallback quantities already registered for a
// purchase order, keyed by SKU. Quantity reserved by a fallback entry is
// spoken for and must stay out of reach of further sale order closes.
type FallbackReader interface {
	QtyBySKU(ctx context.Context, poID id.ID) (map[string]int, error)
}

// Repository defines persistence operations for sale orders.
type Repository interface {
	// Create inserts a new order with items.
	Create(ctx context.Context, so *SaleOrder) error

	// GetByID retrieves an order with items.
	GetByID(ctx context.Context, soID id.ID) (*SaleOrder, error)

	// Update saves order fields and items (optimistic locking on version).
	Update(ctx context.Context, so *SaleOrder) error

	// ListByPO retrieves all sale orders linked to a purchase order, with
	// items, in creation order. Coverage resolution depends on this order
	// being stable.
	ListByPO(ctx context.Context, poID id.ID) ([]*SaleOrder, error)

	// List retrieves orders with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SaleOrder], error)
}
