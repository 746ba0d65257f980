// Package sale_order provides the SaleOrder document service.
package sale_order

import (
	"context"
	"fmt"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/tx"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/pkg/logger"
)

// Service provides business operations for sale orders.
type Service struct {
	repo           Repository
	purchaseOrders purchase_order.Repository
	fallbacks      FallbackReader
	txManager      tx.Manager
}

// NewService creates a new sale order service.
func NewService(repo Repository, purchaseOrders purchase_order.Repository, fallbacks FallbackReader, txManager tx.Manager) *Service {
	return &Service{
		repo:           repo,
		purchaseOrders: purchaseOrders,
		fallbacks:      fallbacks,
		txManager:      txManager,
	}
}

// Create creates a new sale order in DRAFT. When the order is linked to a
// purchase order, the link target must exist and every item SKU must be
// present on it.
func (s *Service) Create(ctx context.Context, so *SaleOrder) error {
	if err := so.Validate(ctx); err != nil {
		return err
	}

	if so.POID != nil {
		po, err := s.purchaseOrders.GetByID(ctx, *so.POID)
		if err != nil {
			return err
		}
		for _, item := range so.Items {
			if po.Item(item.SKUID) == nil {
				return apperror.NewValidation("sku is not on the linked purchase order").
					WithDetail("skuId", item.SKUID).
					WithDetail("poId", po.ID)
			}
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, so); err != nil {
			return fmt.Errorf("create sale order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale order created",
		"id", so.ID,
		"trader_id", so.TraderID,
		"po_id", so.POID,
		"items", len(so.Items))

	return nil
}

// GetByID retrieves a sale order with items.
func (s *Service) GetByID(ctx context.Context, soID id.ID) (*SaleOrder, error) {
	return s.repo.GetByID(ctx, soID)
}

// List retrieves sale orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SaleOrder], error) {
	return s.repo.List(ctx, filter)
}

// SubmitExpected records expected selling prices (E-SP), keyed by SKU id,
// and advances the order to EXPECTED_SUBMITTED.
func (s *Service) SubmitExpected(ctx context.Context, soID id.ID, prices map[string]types.Money) (*SaleOrder, error) {
	so, err := s.repo.GetByID(ctx, soID)
	if err != nil {
		return nil, err
	}

	if so.Status != StatusDraft {
		return nil, apperror.NewInvalidState("expected prices may only be submitted in DRAFT").
			WithDetail("status", string(so.Status))
	}

	for i := range so.Items {
		item := &so.Items[i]
		price, ok := prices[item.SKUID]
		if !ok {
			return nil, apperror.NewValidation("expected price missing for sku").
				WithDetail("skuId", item.SKUID)
		}
		if !price.IsPositive() {
			return nil, apperror.NewValidation("expected price must be positive").
				WithDetail("skuId", item.SKUID).
				WithDetail("price", price.String())
		}
		item.ExpectedPrice = types.MoneyPtr(price)
	}

	if err := so.AdvanceTo(StatusExpectedSubmitted); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expected selling prices submitted", "id", so.ID)

	return so, nil
}

// SubmitActual records realized selling prices (A-SP), keyed by SKU id, and
// closes every priced line. Once closed, a line counts toward purchase order
// coverage, so for linked orders the cumulative closed quantity per SKU must
// never exceed the ordered quantity.
func (s *Service) SubmitActual(ctx context.Context, soID id.ID, prices map[string]types.Money) (*SaleOrder, error) {
	so, err := s.repo.GetByID(ctx, soID)
	if err != nil {
		return nil, err
	}

	if so.Status != StatusDraft && so.Status != StatusExpectedSubmitted {
		return nil, apperror.NewInvalidState("actual prices already submitted").
			WithDetail("status", string(so.Status))
	}

	for i := range so.Items {
		item := &so.Items[i]
		price, ok := prices[item.SKUID]
		if !ok {
			return nil, apperror.NewValidation("actual price missing for sku").
				WithDetail("skuId", item.SKUID)
		}
		if !price.IsPositive() {
			return nil, apperror.NewValidation("actual price must be positive").
				WithDetail("skuId", item.SKUID).
				WithDetail("price", price.String())
		}
		item.ActualPrice = types.MoneyPtr(price)
		item.Status = ItemStatusActualSubmitted
	}

	if so.POID != nil {
		if err := s.checkCoverageBound(ctx, so); err != nil {
			return nil, err
		}
	}

	if err := so.AdvanceTo(StatusActualSubmitted); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "actual selling prices submitted", "id", so.ID, "po_id", so.POID)

	return so, nil
}

// checkCoverageBound verifies that closing this order's lines does not push
// the cumulative closed quantity for any SKU past the quantity still open
// on the linked purchase order. Quantity held by an active fallback entry
// is spoken for and counts against the bound. Closed quantities of sibling
// orders are recomputed from the store, not cached.
func (s *Service) checkCoverageBound(ctx context.Context, so *SaleOrder) error {
	po, err := s.purchaseOrders.GetByID(ctx, *so.POID)
	if err != nil {
		return err
	}

	siblings, err := s.repo.ListByPO(ctx, po.ID)
	if err != nil {
		return fmt.Errorf("list sale orders for po: %w", err)
	}

	fallbackQty, err := s.fallbacks.QtyBySKU(ctx, po.ID)
	if err != nil {
		return fmt.Errorf("read fallback quantities for po: %w", err)
	}

	for _, item := range so.Items {
		poItem := po.Item(item.SKUID)
		if poItem == nil {
			return apperror.NewValidation("sku is not on the linked purchase order").
				WithDetail("skuId", item.SKUID).
				WithDetail("poId", po.ID)
		}

		closed := item.SOQty
		for _, sib := range siblings {
			if sib.ID == so.ID {
				continue
			}
			for _, sibItem := range sib.Items {
				if sibItem.SKUID == item.SKUID && sibItem.Closed() {
					closed += sibItem.SOQty
				}
			}
		}

		if closed+fallbackQty[item.SKUID] > poItem.POQty {
			return apperror.NewValidation("closed quantity exceeds quantity open for sale").
				WithDetail("skuId", item.SKUID).
				WithDetail("poQty", poItem.POQty).
				WithDetail("fallbackQty", fallbackQty[item.SKUID]).
				WithDetail("closedQty", closed)
		}
	}

	return nil
}
