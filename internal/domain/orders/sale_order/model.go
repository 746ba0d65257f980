// Package sale_order provides the SaleOrder document: goods sold to a
// trader, optionally linked to the purchase order they came from.
package sale_order

import (
	"context"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/entity"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/types"
)

// Status is the sale order lifecycle state.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusExpectedSubmitted Status = "EXPECTED_SUBMITTED"
	StatusActualSubmitted   Status = "ACTUAL_SUBMITTED"
	StatusCompleted         Status = "COMPLETED"
)

var transitions = map[Status][]Status{
	StatusDraft:             {StatusExpectedSubmitted, StatusActualSubmitted},
	StatusExpectedSubmitted: {StatusActualSubmitted},
	StatusActualSubmitted:   {StatusCompleted},
	StatusCompleted:         {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether next is a legal transition from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ItemStatus is the per-line state. A line only counts toward purchase
// order coverage once it is ACTUAL_SUBMITTED with a non-nil actual price.
type ItemStatus string

const (
	ItemStatusExpectedSubmitted ItemStatus = "EXPECTED_SUBMITTED"
	ItemStatusActualSubmitted   ItemStatus = "ACTUAL_SUBMITTED"
)

// SOItem is a line of the sale order.
type SOItem struct {
	SKUID   string `db:"sku_id" json:"skuId"`
	SKUName string `db:"sku_name" json:"skuName"`

	// SOQty is the quantity sold (boxes).
	SOQty int `db:"so_qty" json:"soQty"`

	// ExpectedPrice (E-SP) is the anticipated selling price.
	ExpectedPrice *types.Money `db:"e_sp" json:"expectedPrice,omitempty"`

	// ActualPrice (A-SP) becomes non-nil only after actual-price submission.
	ActualPrice *types.Money `db:"a_sp" json:"actualPrice,omitempty"`

	Status ItemStatus `db:"status" json:"status"`
}

// Closed reports whether this line counts toward coverage.
func (i SOItem) Closed() bool {
	return i.ActualPrice != nil && i.Status == ItemStatusActualSubmitted
}

// SaleOrder is the trader-side sale record.
type SaleOrder struct {
	entity.BaseDocument

	// POID links the sale back to a purchase order; nil if unlinked.
	POID *id.ID `db:"po_id" json:"poId,omitempty"`

	// TraderID references the buyer.
	TraderID string `db:"trader_id" json:"traderId"`

	Status Status `db:"status" json:"status"`

	Items []SOItem `db:"-" json:"items"`
}

// NewSaleOrder creates a new sale order in DRAFT.
func NewSaleOrder(traderID string, poID *id.ID, items []SOItem) *SaleOrder {
	for i := range items {
		if items[i].Status == "" {
			items[i].Status = ItemStatusExpectedSubmitted
		}
	}
	return &SaleOrder{
		BaseDocument: entity.NewBaseDocument(),
		POID:         poID,
		TraderID:     traderID,
		Status:       StatusDraft,
		Items:        items,
	}
}

// Validate implements entity.Validatable.
func (s *SaleOrder) Validate(ctx context.Context) error {
	if s.TraderID == "" {
		return apperror.NewValidation("trader is required").
			WithDetail("field", "traderId")
	}

	if !s.Status.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", string(s.Status))
	}

	if len(s.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range s.Items {
		if item.SKUID == "" {
			return apperror.NewValidation("sku is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.SOQty <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("skuId", item.SKUID)
		}
	}

	return nil
}

// Item returns a pointer to the line for the given SKU, or nil if absent.
func (s *SaleOrder) Item(skuID string) *SOItem {
	for i := range s.Items {
		if s.Items[i].SKUID == skuID {
			return &s.Items[i]
		}
	}
	return nil
}

// AdvanceTo moves the order to next, rejecting illegal transitions.
func (s *SaleOrder) AdvanceTo(next Status) error {
	if !s.Status.CanTransitionTo(next) {
		return apperror.NewInvalidState("illegal sale order transition").
			WithDetail("from", string(s.Status)).
			WithDetail("to", string(next))
	}
	s.Status = next
	s.Touch()
	return nil
}
