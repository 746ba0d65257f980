package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"commissionflow/internal/core/id"
	"commissionflow/internal/domain/settlement"
)

const fallbackEntriesTable = "fallback_entries"

// FallbackRepo implements settlement.FallbackRepository on PostgreSQL.
// Entries are keyed by (po_id, sku_id); an upsert gives the required
// replace-on-conflict semantics.
type FallbackRepo struct {
	txManager *TxManager
}

var _ settlement.FallbackRepository = (*FallbackRepo)(nil)

// NewFallbackRepo creates a new fallback entry repository.
func NewFallbackRepo(txManager *TxManager) *FallbackRepo {
	return &FallbackRepo{txManager: txManager}
}

func (r *FallbackRepo) ListByPO(ctx context.Context, poID id.ID) ([]settlement.FallbackEntry, error) {
	q := builder().
		Select("sku_id", "qty", "unit_price").
		From(fallbackEntriesTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("sku_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []settlement.FallbackEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list fallback entries: %w", err)
	}
	return entries, nil
}

func (r *FallbackRepo) QtyBySKU(ctx context.Context, poID id.ID) (map[string]int, error) {
	q := builder().
		Select("sku_id", "qty").
		From(fallbackEntriesTable).
		Where(squirrel.Eq{"po_id": poID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query fallback quantities: %w", err)
	}
	defer rows.Close()

	qty := make(map[string]int)
	for rows.Next() {
		var skuID string
		var n int
		if err := rows.Scan(&skuID, &n); err != nil {
			return nil, fmt.Errorf("scan fallback quantity: %w", err)
		}
		qty[skuID] = n
	}
	return qty, rows.Err()
}

func (r *FallbackRepo) Replace(ctx context.Context, poID id.ID, entries []settlement.FallbackEntry) error {
	if len(entries) == 0 {
		return nil
	}

	// Postgres rejects an upsert touching the same key twice in one
	// statement; within a batch the last entry per SKU wins.
	last := make(map[string]settlement.FallbackEntry, len(entries))
	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, seen := last[entry.SKUID]; !seen {
			order = append(order, entry.SKUID)
		}
		last[entry.SKUID] = entry
	}

	q := builder().
		Insert(fallbackEntriesTable).
		Columns("po_id", "sku_id", "qty", "unit_price").
		Suffix("ON CONFLICT (po_id, sku_id) DO UPDATE SET qty = EXCLUDED.qty, unit_price = EXCLUDED.unit_price")

	for _, skuID := range order {
		entry := last[skuID]
		q = q.Values(poID, entry.SKUID, entry.Qty, entry.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert fallback entries: %w", err)
	}
	return nil
}
