// Package purchase_order provides the PurchaseOrder document service.
package purchase_order

import (
	"context"
	"fmt"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/tx"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain"
	"commissionflow/pkg/logger"
)

// Service provides business operations for purchase orders.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new purchase order service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create creates a new purchase order in DRAFT.
func (s *Service) Create(ctx context.Context, po *PurchaseOrder) error {
	if err := po.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, po); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", po.ID,
		"vendor_id", po.VendorID,
		"items", len(po.Items))

	return nil
}

// GetByID retrieves a purchase order with items.
func (s *Service) GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, poID)
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}

// SubmitExpected records expected purchase prices (E-PP) for every item and
// advances the order from DRAFT to EXPECTED_SUBMITTED. Prices are keyed by
// SKU id; each item must receive a positive price.
func (s *Service) SubmitExpected(ctx context.Context, poID id.ID, prices map[string]types.Money) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if po.Status != StatusDraft {
		return nil, apperror.NewInvalidState("expected prices may only be submitted in DRAFT").
			WithDetail("status", string(po.Status))
	}

	for i := range po.Items {
		item := &po.Items[i]
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

	if err := po.AdvanceTo(StatusExpectedSubmitted); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expected purchase prices submitted", "id", po.ID)

	return po, nil
}

// AdjustPattyPrice overrides the actual seller patty price for one SKU.
// Only permitted while the order is in PATTY_GENERATED.
func (s *Service) AdjustPattyPrice(ctx context.Context, poID id.ID, skuID string, price types.Money) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if po.Status != StatusPattyGenerated {
		return nil, apperror.NewInvalidState("patty price is only adjustable after settlement and before finalization").
			WithDetail("status", string(po.Status))
	}

	item := po.Item(skuID)
	if item == nil {
		return nil, apperror.NewNotFound("sku", skuID).WithDetail("poId", poID)
	}

	item.ActualPattyPrice = types.MoneyPtr(types.RoundCents(price))
	po.Touch()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "patty price adjusted",
		"id", po.ID,
		"sku_id", skuID,
		"price", price.String())

	return po, nil
}

// Finalize confirms the patty prices and locks the order.
func (s *Service) Finalize(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if err := po.AdvanceTo(StatusFinalized); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order finalized", "id", po.ID)

	return po, nil
}
