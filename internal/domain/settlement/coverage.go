package settlement

import (
	"context"
	"fmt"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/domain/orders/sale_order"
)

// Coverage describes how a purchase order line's quantity is accounted for.
// Invariant: ClosedQty + FallbackQty + UnsoldQty == POQty.
type Coverage struct {
	POQty       int
	ClosedQty   int
	FallbackQty int
	UnsoldQty   int

	// SoldBuckets holds one bucket per closed sale order line, in sale
	// order creation order, tagged with the sale order id. Settled prices
	// are not yet computed.
	SoldBuckets []PriceBucket

	// FallbackBucket is the bucket for the active fallback entry, nil if
	// none exists.
	FallbackBucket *PriceBucket
}

// CoveredQty is the total accounted-for quantity (closed + fallback).
func (c Coverage) CoveredQty() int {
	return c.ClosedQty + c.FallbackQty
}

// CoverageResolver determines sold, fallback, and unsold quantities for
// purchase order lines. Quantities are always recomputed from the store;
// nothing is cached, so coverage can never drift from actual state.
type CoverageResolver struct {
	saleOrders sale_order.Repository
	fallbacks  FallbackRepository
}

// NewCoverageResolver creates a new coverage resolver.
func NewCoverageResolver(saleOrders sale_order.Repository, fallbacks FallbackRepository) *CoverageResolver {
	return &CoverageResolver{
		saleOrders: saleOrders,
		fallbacks:  fallbacks,
	}
}

// Resolve computes coverage for one purchase order line. The sale order
// write path guarantees closed quantity never exceeds the ordered quantity,
// and the fallback write path bounds fallback quantity by the remainder, so
// a negative unsold quantity here means the store is inconsistent and is
// reported as an internal error.
func (r *CoverageResolver) Resolve(ctx context.Context, po *purchase_order.PurchaseOrder, item *purchase_order.POItem) (Coverage, error) {
	cov := Coverage{POQty: item.POQty}

	orders, err := r.saleOrders.ListByPO(ctx, po.ID)
	if err != nil {
		return Coverage{}, fmt.Errorf("list sale orders for po: %w", err)
	}

	for _, so := range orders {
		for _, soItem := range so.Items {
			if soItem.SKUID != item.SKUID || !soItem.Closed() {
				continue
			}
			cov.ClosedQty += soItem.SOQty
			cov.SoldBuckets = append(cov.SoldBuckets, PriceBucket{
				Qty:       soItem.SOQty,
				UnitPrice: *soItem.ActualPrice,
				Source:    BucketSourceSaleOrder,
				SourceID:  so.ID.String(),
			})
		}
	}

	entry, err := r.fallbackFor(ctx, po.ID, item.SKUID)
	if err != nil {
		return Coverage{}, err
	}
	if entry != nil {
		cov.FallbackQty = entry.Qty
		cov.FallbackBucket = &PriceBucket{
			Qty:       entry.Qty,
			UnitPrice: entry.UnitPrice,
			Source:    BucketSourceFallback,
			SourceID:  string(BucketSourceFallback),
		}
	}

	cov.UnsoldQty = cov.POQty - cov.ClosedQty - cov.FallbackQty
	if cov.UnsoldQty < 0 {
		return Coverage{}, apperror.NewInternal(
			fmt.Errorf("covered quantity %d exceeds ordered quantity %d", cov.CoveredQty(), cov.POQty)).
			WithDetail("poId", po.ID).
			WithDetail("skuId", item.SKUID)
	}

	return cov, nil
}

// ClosedQty returns the closed sale quantity for a purchase order SKU.
// Used by the fallback write path to bound fallback quantities.
func (r *CoverageResolver) ClosedQty(ctx context.Context, poID id.ID, skuID string) (int, error) {
	orders, err := r.saleOrders.ListByPO(ctx, poID)
	if err != nil {
		return 0, fmt.Errorf("list sale orders for po: %w", err)
	}

	closed := 0
	for _, so := range orders {
		for _, soItem := range so.Items {
			if soItem.SKUID == skuID && soItem.Closed() {
				closed += soItem.SOQty
			}
		}
	}
	return closed, nil
}

func (r *CoverageResolver) fallbackFor(ctx context.Context, poID id.ID, skuID string) (*FallbackEntry, error) {
	entries, err := r.fallbacks.ListByPO(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("list fallback entries: %w", err)
	}
	for i := range entries {
		if entries[i].SKUID == skuID {
			return &entries[i], nil
		}
	}
	return nil, nil
}
