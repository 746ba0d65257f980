package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/domain"
	"commissionflow/internal/domain/orders/purchase_order"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderItemsTable = "purchase_order_items"
)

// PurchaseOrderRepo implements purchase_order.Repository on PostgreSQL.
type PurchaseOrderRepo struct {
	txManager *TxManager
}

var _ purchase_order.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *PurchaseOrderRepo) Create(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Insert(purchaseOrdersTable).
		Columns("id", "version", "created_at", "updated_at", "vendor_id", "status").
		Values(po.ID, po.Version, po.CreatedAt, po.UpdatedAt, po.VendorID, po.Status)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	return r.saveItems(ctx, po.ID, po.Items)
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error) {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Select("id", "version", "created_at", "updated_at", "vendor_id", "status").
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": poID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var po purchase_order.PurchaseOrder
	if err := pgxscan.Get(ctx, querier, &po, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("purchase order", poID)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	items, err := r.getItems(ctx, poID)
	if err != nil {
		return nil, err
	}
	po.Items = items

	return &po, nil
}

func (r *PurchaseOrderRepo) Update(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Update(purchaseOrdersTable).
		Set("version", po.Version).
		Set("updated_at", po.UpdatedAt).
		Set("vendor_id", po.VendorID).
		Set("status", po.Status).
		Where(squirrel.Eq{"id": po.ID}).
		Where(squirrel.LtOrEq{"version": po.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or a newer version is already stored.
		return apperror.NewConflict("purchase order was modified concurrently").
			WithDetail("id", po.ID).
			WithDetail("version", po.Version)
	}

	return r.saveItems(ctx, po.ID, po.Items)
}

func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	result := domain.ListResult[*purchase_order.PurchaseOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := builder().
		Select("id", "version", "created_at", "updated_at", "vendor_id", "status").
		From(purchaseOrdersTable)

	if filter.VendorID != "" {
		q = q.Where(squirrel.Eq{"vendor_id": filter.VendorID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count purchase orders: %w", err)
	}

	q = q.OrderBy("created_at")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var orders []*purchase_order.PurchaseOrder
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return result, fmt.Errorf("list purchase orders: %w", err)
	}

	for _, po := range orders {
		items, err := r.getItems(ctx, po.ID)
		if err != nil {
			return result, err
		}
		po.Items = items
	}

	result.Items = orders
	return result, nil
}

func (r *PurchaseOrderRepo) getItems(ctx context.Context, poID id.ID) ([]purchase_order.POItem, error) {
	q := builder().
		Select(
			"sku_id", "sku_name", "po_qty",
			"e_pp", "tentative_a_pp", "actual_patty_price",
			"labour_cost", "transport_cost",
		).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []purchase_order.POItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// saveItems saves lines for a purchase order (delete existing + insert new).
func (r *PurchaseOrderRepo) saveItems(ctx context.Context, poID id.ID, items []purchase_order.POItem) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderItemsTable + " WHERE po_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, poID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := builder().
		Insert(purchaseOrderItemsTable).
		Columns(
			"po_id", "line_no", "sku_id", "sku_name", "po_qty",
			"e_pp", "tentative_a_pp", "actual_patty_price",
			"labour_cost", "transport_cost",
		)

	for i, item := range items {
		q = q.Values(
			poID, i+1, item.SKUID, item.SKUName, item.POQty,
			item.ExpectedPrice, item.TentativePattyPrice, item.ActualPattyPrice,
			item.LabourCost, item.TransportCost,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}
