package memory

import (
	"context"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/domain"
	"commissionflow/internal/domain/orders/sale_order"
)

type saleOrderRepo struct {
	store *Store
}

var _ sale_order.Repository = (*saleOrderRepo)(nil)

func (r *saleOrderRepo) Create(ctx context.Context, so *sale_order.SaleOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.saleOrders[so.ID]; exists {
		return apperror.NewConflict("sale order already exists").WithDetail("id", so.ID)
	}

	r.store.saleOrders[so.ID] = copySO(so)
	r.store.soOrder = append(r.store.soOrder, so.ID)
	return nil
}

func (r *saleOrderRepo) GetByID(ctx context.Context, soID id.ID) (*sale_order.SaleOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	so, ok := r.store.saleOrders[soID]
	if !ok {
		return nil, apperror.NewNotFound("sale order", soID)
	}
	return copySO(so), nil
}

func (r *saleOrderRepo) Update(ctx context.Context, so *sale_order.SaleOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.saleOrders[so.ID]
	if !ok {
		return apperror.NewNotFound("sale order", so.ID)
	}

	if so.Version < stored.Version {
		return apperror.NewConflict("sale order was modified concurrently").
			WithDetail("id", so.ID).
			WithDetail("storedVersion", stored.Version).
			WithDetail("version", so.Version)
	}

	r.store.saleOrders[so.ID] = copySO(so)
	return nil
}

func (r *saleOrderRepo) ListByPO(ctx context.Context, poID id.ID) ([]*sale_order.SaleOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var orders []*sale_order.SaleOrder
	for _, soID := range r.store.soOrder {
		so := r.store.saleOrders[soID]
		if so.POID != nil && *so.POID == poID {
			orders = append(orders, copySO(so))
		}
	}
	return orders, nil
}

func (r *saleOrderRepo) List(ctx context.Context, filter sale_order.ListFilter) (domain.ListResult[*sale_order.SaleOrder], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*sale_order.SaleOrder
	for _, soID := range r.store.soOrder {
		so := r.store.saleOrders[soID]
		if filter.POID != nil && (so.POID == nil || *so.POID != *filter.POID) {
			continue
		}
		if filter.TraderID != "" && so.TraderID != filter.TraderID {
			continue
		}
		if filter.Status != nil && so.Status != *filter.Status {
			continue
		}
		matched = append(matched, so)
	}

	result := domain.ListResult[*sale_order.SaleOrder]{
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

	result.Items = make([]*sale_order.SaleOrder, 0, end-start)
	for _, so := range matched[start:end] {
		result.Items = append(result.Items, copySO(so))
	}
	return result, nil
}
