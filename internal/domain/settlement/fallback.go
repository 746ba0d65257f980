package settlement

import (
	"context"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/tx"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/pkg/logger"
)

// FallbackRegistry validates and stores manually entered fallback prices
// for quantity not covered by closed sale orders.
type FallbackRegistry struct {
	purchaseOrders purchase_order.Repository
	resolver       *CoverageResolver
	repo           FallbackRepository
	txManager      tx.Manager
}

// NewFallbackRegistry creates a new fallback registry service.
func NewFallbackRegistry(purchaseOrders purchase_order.Repository, resolver *CoverageResolver, repo FallbackRepository, txManager tx.Manager) *FallbackRegistry {
	return &FallbackRegistry{
		purchaseOrders: purchaseOrders,
		resolver:       resolver,
		repo:           repo,
		txManager:      txManager,
	}
}

// Submit validates and stores a batch of fallback entries for a purchase
// order. The batch is all-or-nothing: one invalid entry rejects everything.
// Each accepted entry replaces any prior entry for the same SKU; entries
// for other SKUs are untouched.
//
// Bounds are recomputed against current closed quantities at submission
// time, never cached: an entry's quantity must be positive and must not
// exceed po_qty − closed_qty for its SKU, and its price must be positive.
func (s *FallbackRegistry) Submit(ctx context.Context, poID id.ID, entries []FallbackEntry) ([]FallbackEntry, error) {
	po, err := s.purchaseOrders.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, apperror.NewValidation("at least one fallback entry is required")
	}

	for _, entry := range entries {
		item := po.Item(entry.SKUID)
		if item == nil {
			return nil, apperror.NewValidation("sku is not on the purchase order").
				WithDetail("skuId", entry.SKUID).
				WithDetail("poId", poID)
		}

		if entry.Qty <= 0 {
			return nil, apperror.NewValidation("fallback quantity must be positive").
				WithDetail("skuId", entry.SKUID).
				WithDetail("qty", entry.Qty)
		}

		if !entry.UnitPrice.IsPositive() {
			return nil, apperror.NewValidation("fallback price must be positive").
				WithDetail("skuId", entry.SKUID).
				WithDetail("price", entry.UnitPrice.String())
		}

		closed, err := s.resolver.ClosedQty(ctx, poID, entry.SKUID)
		if err != nil {
			return nil, err
		}
		unsold := item.POQty - closed
		if entry.Qty > unsold {
			return nil, apperror.NewValidation("fallback quantity exceeds unsold quantity").
				WithDetail("skuId", entry.SKUID).
				WithDetail("qty", entry.Qty).
				WithDetail("unsoldQty", unsold)
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Replace(ctx, poID, entries)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "fallback prices saved",
		"po_id", poID,
		"entries", len(entries))

	return entries, nil
}

// ListByPO returns the active fallback entries for a purchase order.
func (s *FallbackRegistry) ListByPO(ctx context.Context, poID id.ID) ([]FallbackEntry, error) {
	return s.repo.ListByPO(ctx, poID)
}
