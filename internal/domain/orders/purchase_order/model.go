// Package purchase_order provides the PurchaseOrder document: goods bought
// from a vendor on commission, priced back to the vendor after reconciliation.
package purchase_order

import (
	"context"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/entity"
	"commissionflow/internal/core/types"
)

// Status is the purchase order lifecycle state.
// Transitions are one-directional; there is no cancel or rollback path.
type Status string

const (
	// StatusDraft: order created, expected purchase prices not yet submitted.
	StatusDraft Status = "DRAFT"

	// StatusExpectedSubmitted: every item carries a positive expected purchase price.
	StatusExpectedSubmitted Status = "EXPECTED_SUBMITTED"

	// StatusPattyGenerated: settlement ran, tentative seller patty prices written.
	StatusPattyGenerated Status = "PATTY_GENERATED"

	// StatusFinalized: patty prices confirmed, order is read-only.
	StatusFinalized Status = "FINALIZED"
)

// transitions is the forward-only state machine. Settlement may run from
// DRAFT as well as EXPECTED_SUBMITTED: expected-price submission is optional.
var transitions = map[Status][]Status{
	StatusDraft:             {StatusExpectedSubmitted, StatusPattyGenerated},
	StatusExpectedSubmitted: {StatusPattyGenerated},
	StatusPattyGenerated:    {StatusFinalized},
	StatusFinalized:         {},
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

// POItem is a line of the purchase order. SKU membership is fixed at
// creation; per-item price fields are filled in over the lifecycle.
type POItem struct {
	// SKU identification
	SKUID   string `db:"sku_id" json:"skuId"`
	SKUName string `db:"sku_name" json:"skuName"`

	// POQty is the authoritative ordered quantity (boxes) against which
	// sale coverage is measured. Fixed at creation.
	POQty int `db:"po_qty" json:"poQty"`

	// ExpectedPrice (E-PP) is set once during DRAFT.
	ExpectedPrice *types.Money `db:"e_pp" json:"expectedPrice,omitempty"`

	// TentativePattyPrice is written only by the reconciliation engine.
	TentativePattyPrice *types.Money `db:"tentative_a_pp" json:"tentativePattyPrice,omitempty"`

	// ActualPattyPrice is adjustable while status is PATTY_GENERATED.
	ActualPattyPrice *types.Money `db:"actual_patty_price" json:"actualPattyPrice,omitempty"`

	// Per-box fixed cost deductions.
	LabourCost    types.Money `db:"labour_cost" json:"labourCost"`
	TransportCost types.Money `db:"transport_cost" json:"transportCost"`
}

// PurchaseOrder is the vendor-side procurement record.
type PurchaseOrder struct {
	entity.BaseDocument

	// VendorID references the vendor the goods were bought from.
	VendorID string `db:"vendor_id" json:"vendorId"`

	Status Status `db:"status" json:"status"`

	// Table part: ordered goods. Membership immutable after creation.
	Items []POItem `db:"-" json:"items"`
}

// NewPurchaseOrder creates a new purchase order in DRAFT.
func NewPurchaseOrder(vendorID string, items []POItem) *PurchaseOrder {
	return &PurchaseOrder{
		BaseDocument: entity.NewBaseDocument(),
		VendorID:     vendorID,
		Status:       StatusDraft,
		Items:        items,
	}
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if p.VendorID == "" {
		return apperror.NewValidation("vendor is required").
			WithDetail("field", "vendorId")
	}

	if !p.Status.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}

	if len(p.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	seen := make(map[string]struct{}, len(p.Items))
	for i, item := range p.Items {
		if item.SKUID == "" {
			return apperror.NewValidation("sku is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if _, dup := seen[item.SKUID]; dup {
			return apperror.NewValidation("duplicate sku").
				WithDetail("field", "items").
				WithDetail("skuId", item.SKUID)
		}
		seen[item.SKUID] = struct{}{}

		if item.POQty <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("skuId", item.SKUID)
		}
		if item.LabourCost.IsNegative() || item.TransportCost.IsNegative() {
			return apperror.NewValidation("per-box costs must be non-negative").
				WithDetail("field", "items").
				WithDetail("skuId", item.SKUID)
		}
	}

	return nil
}

// Item returns a pointer to the line for the given SKU, or nil if absent.
func (p *PurchaseOrder) Item(skuID string) *POItem {
	for i := range p.Items {
		if p.Items[i].SKUID == skuID {
			return &p.Items[i]
		}
	}
	return nil
}

// AdvanceTo moves the order to next, rejecting illegal transitions.
func (p *PurchaseOrder) AdvanceTo(next Status) error {
	if !p.Status.CanTransitionTo(next) {
		return apperror.NewInvalidState("illegal purchase order transition").
			WithDetail("from", string(p.Status)).
			WithDetail("to", string(next))
	}
	p.Status = next
	p.Touch()
	return nil
}

// CanModify checks if order fields other than patty prices may change.
func (p *PurchaseOrder) CanModify() error {
	if p.Status != StatusDraft {
		return apperror.NewInvalidState("purchase order is locked after expected price submission").
			WithDetail("status", string(p.Status))
	}
	return nil
}
