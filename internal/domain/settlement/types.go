// Package settlement implements the price-reconciliation core: matching
// purchase order quantities against closed sale orders and fallback price
// entries, and deriving the quantity-weighted seller patty price per SKU.
package settlement

import (
	"context"

	"commissionflow/internal/core/id"
	"commissionflow/internal/core/types"
)

// BucketSource tags the provenance of a price bucket.
type BucketSource string

const (
	// BucketSourceSaleOrder: quantity priced by a closed sale order line.
	BucketSourceSaleOrder BucketSource = "so"

	// BucketSourceFallback: quantity priced by a manual fallback entry.
	BucketSourceFallback BucketSource = "fallback"
)

// PriceBucket is a quantity segment of a SKU priced independently. Buckets
// are computed transiently during settlement and never persisted.
type PriceBucket struct {
	// Qty is the segment quantity (boxes).
	Qty int `json:"qty"`

	// UnitPrice is the source per-box selling price.
	UnitPrice types.Money `json:"unitPrice"`

	// SettledPrice is the per-box price after cost and commission
	// deductions, rounded to cents.
	SettledPrice types.Money `json:"settledPrice"`

	// Source and SourceID identify provenance: the sale order id for
	// BucketSourceSaleOrder, "fallback" otherwise.
	Source   BucketSource `json:"source"`
	SourceID string       `json:"sourceId"`

	// NegativeMargin flags a settled price below zero (selling price under
	// labour+transport+commission). Reported, never clamped.
	NegativeMargin bool `json:"negativeMargin,omitempty"`
}

// Result is the per-SKU settlement output.
type Result struct {
	SKUID   string `json:"skuId"`
	SKUName string `json:"skuName"`

	// TotalQty is the reconciled quantity, the sum over buckets.
	TotalQty int `json:"totalQty"`

	// WeightedAvg is the quantity-weighted average settled price, the value
	// written into the purchase order as the tentative patty price.
	WeightedAvg types.Money `json:"weightedAvg"`

	Buckets []PriceBucket `json:"buckets"`

	// NegativeMargin is set when any bucket settled below zero.
	NegativeMargin bool `json:"negativeMargin,omitempty"`
}

// UnsolvedSKU describes a line whose quantity is not fully covered by
// closed sales and fallback entries.
type UnsolvedSKU struct {
	SKUID   string `json:"skuId"`
	SKUName string `json:"skuName"`

	POQty int `json:"poQty"`

	// ClosedQty is the total covered quantity (closed sales + fallback).
	ClosedQty int `json:"closedQty"`

	UnsoldQty int `json:"unsoldQty"`
}

// Remediation actions offered to the caller on conflict.
const (
	ActionCreateOrLinkSO      = "create_or_link_so"
	ActionEnterFallbackPrices = "enter_fallback_prices"
)

// OutcomeStatus distinguishes the two non-error settlement outcomes.
type OutcomeStatus string

const (
	OutcomeSuccess  OutcomeStatus = "success"
	OutcomeConflict OutcomeStatus = "conflict"
)

// Outcome is the settlement result. Conflict is a routine, recoverable
// outcome: the caller submits fallback entries or links more sale orders
// and retries. Nothing is written on conflict.
type Outcome struct {
	Status OutcomeStatus `json:"status"`

	// Results is populated on success, one entry per purchase order item,
	// in item order.
	Results []Result `json:"results,omitempty"`

	// Unsolved and AllowedActions are populated on conflict.
	Unsolved       []UnsolvedSKU `json:"unsolved,omitempty"`
	AllowedActions []string      `json:"allowedActions,omitempty"`
}

// FallbackEntry is a manually entered substitute selling price for quantity
// not covered by any closed sale order. Keyed by (purchase order, SKU); a
// new submission replaces the prior entry for the same key.
type FallbackEntry struct {
	SKUID string `db:"sku_id" json:"skuId"`

	// Qty must not exceed the uncovered quantity at submission time.
	Qty int `db:"qty" json:"qty"`

	// UnitPrice is the per-box fallback selling price, required positive.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// FallbackRepository stores fallback entries keyed by (purchase order, SKU).
type FallbackRepository interface {
	// ListByPO returns the active entries for a purchase order.
	ListByPO(ctx context.Context, poID id.ID) ([]FallbackEntry, error)

	// QtyBySKU returns the active fallback quantity per SKU for a
	// purchase order. SKUs without an entry are absent from the map.
	QtyBySKU(ctx context.Context, poID id.ID) (map[string]int, error)

	// Replace stores entries, superseding any prior entry for the same
	// (purchase order, SKU) key. Entries for other SKUs are untouched.
	Replace(ctx context.Context, poID id.ID, entries []FallbackEntry) error
}
