package memory

import (
	"context"
	"sort"

	"commissionflow/internal/core/id"
	"commissionflow/internal/domain/settlement"
)

type fallbackRepo struct {
	store *Store
}

var _ settlement.FallbackRepository = (*fallbackRepo)(nil)

func (r *fallbackRepo) ListByPO(ctx context.Context, poID id.ID) ([]settlement.FallbackEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	bySKU, ok := r.store.fallbacks[poID]
	if !ok {
		return nil, nil
	}

	entries := make([]settlement.FallbackEntry, 0, len(bySKU))
	for _, entry := range bySKU {
		entries = append(entries, entry)
	}
	// Stable order for deterministic bucket lists.
	sort.Slice(entries, func(i, j int) bool { return entries[i].SKUID < entries[j].SKUID })
	return entries, nil
}

func (r *fallbackRepo) QtyBySKU(ctx context.Context, poID id.ID) (map[string]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	qty := make(map[string]int)
	for skuID, entry := range r.store.fallbacks[poID] {
		qty[skuID] = entry.Qty
	}
	return qty, nil
}

func (r *fallbackRepo) Replace(ctx context.Context, poID id.ID, entries []settlement.FallbackEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bySKU, ok := r.store.fallbacks[poID]
	if !ok {
		bySKU = make(map[string]settlement.FallbackEntry)
		r.store.fallbacks[poID] = bySKU
	}

	// Replace-on-conflict per (po, sku); later duplicates in the batch win.
	for _, entry := range entries {
		bySKU[entry.SKUID] = entry
	}
	return nil
}
