package memory

import (
	"context"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/domain"
	"commissionflow/internal/domain/orders/purchase_order"
)

type purchaseOrderRepo struct {
	store *Store
}

var _ purchase_order.Repository = (*purchaseOrderRepo)(nil)

func (r *purchaseOrderRepo) Create(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.purchaseOrders[po.ID]; exists {
		return apperror.NewConflict("purchase order already exists").WithDetail("id", po.ID)
	}

	r.store.purchaseOrders[po.ID] = copyPO(po)
	r.store.poOrder = append(r.store.poOrder, po.ID)
	return nil
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	po, ok := r.store.purchaseOrders[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID)
	}
	return copyPO(po), nil
}

func (r *purchaseOrderRepo) Update(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.purchaseOrders[po.ID]
	if !ok {
		return apperror.NewNotFound("purchase order", po.ID)
	}

	// Optimistic locking: the caller's copy must be at least as new.
	if po.Version < stored.Version {
		return apperror.NewConflict("purchase order was modified concurrently").
			WithDetail("id", po.ID).
			WithDetail("storedVersion", stored.Version).
			WithDetail("version", po.Version)
	}

	r.store.purchaseOrders[po.ID] = copyPO(po)
	return nil
}

func (r *purchaseOrderRepo) List(ctx context.Context, filter purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*purchase_order.PurchaseOrder
	for _, poID := range r.store.poOrder {
		po := r.store.purchaseOrders[poID]
		if filter.VendorID != "" && po.VendorID != filter.VendorID {
			continue
		}
		if filter.Status != nil && po.Status != *filter.Status {
			continue
		}
		matched = append(matched, po)
	}

	result := domain.ListResult[*purchase_order.PurchaseOrder]{
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	result.Items = make([]*purchase_order.PurchaseOrder, 0, end-start)
	for _, po := range matched[start:end] {
		result.Items = append(result.Items, copyPO(po))
	}
	return result, nil
}
