package dto

import (
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/settlement"
)

// --- Request DTOs ---

// SubmitFallbackPricesRequest carries fallback prices for unsold quantity.
type SubmitFallbackPricesRequest struct {
	Entries []FallbackEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// FallbackEntryRequest is one fallback price line.
type FallbackEntryRequest struct {
	SKUID     string      `json:"skuId" binding:"required"`
	Qty       int         `json:"qty" binding:"required,gt=0"`
	UnitPrice types.Money `json:"unitPrice" binding:"required"`
}

// ToEntries converts request lines to domain fallback entries.
func (r *SubmitFallbackPricesRequest) ToEntries() []settlement.FallbackEntry {
	entries := make([]settlement.FallbackEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, settlement.FallbackEntry{
			SKUID:     e.SKUID,
			Qty:       e.Qty,
			UnitPrice: e.UnitPrice,
		})
	}
	return entries
}

// --- Response DTOs ---

// FallbackEntriesResponse lists the active fallback entries of a purchase order.
type FallbackEntriesResponse struct {
	POID    string                     `json:"poId"`
	Entries []settlement.FallbackEntry `json:"entries"`
}
