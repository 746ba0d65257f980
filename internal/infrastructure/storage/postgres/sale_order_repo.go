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
	"commissionflow/internal/domain/orders/sale_order"
)

const (
	saleOrdersTable     = "sale_orders"
	saleOrderItemsTable = "sale_order_items"
)

// SaleOrderRepo implements sale_order.Repository on PostgreSQL.
type SaleOrderRepo struct {
	txManager *TxManager
}

var _ sale_order.Repository = (*SaleOrderRepo)(nil)

// NewSaleOrderRepo creates a new sale order repository.
func NewSaleOrderRepo(txManager *TxManager) *SaleOrderRepo {
	return &SaleOrderRepo{txManager: txManager}
}

func (r *SaleOrderRepo) Create(ctx context.Context, so *sale_order.SaleOrder) error {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Insert(saleOrdersTable).
		Columns("id", "version", "created_at", "updated_at", "po_id", "trader_id", "status").
		Values(so.ID, so.Version, so.CreatedAt, so.UpdatedAt, so.POID, so.TraderID, so.Status)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale order: %w", err)
	}

	return r.saveItems(ctx, so.ID, so.Items)
}

func (r *SaleOrderRepo) GetByID(ctx context.Context, soID id.ID) (*sale_order.SaleOrder, error) {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Select("id", "version", "created_at", "updated_at", "po_id", "trader_id", "status").
		From(saleOrdersTable).
		Where(squirrel.Eq{"id": soID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var so sale_order.SaleOrder
	if err := pgxscan.Get(ctx, querier, &so, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("sale order", soID)
		}
		return nil, fmt.Errorf("get sale order: %w", err)
	}

	items, err := r.getItems(ctx, soID)
	if err != nil {
		return nil, err
	}
	so.Items = items

	return &so, nil
}

func (r *SaleOrderRepo) Update(ctx context.Context, so *sale_order.SaleOrder) error {
	querier := r.txManager.GetQuerier(ctx)

	q := builder().
		Update(saleOrdersTable).
		Set("version", so.Version).
		Set("updated_at", so.UpdatedAt).
		Set("po_id", so.POID).
		Set("trader_id", so.TraderID).
		Set("status", so.Status).
		Where(squirrel.Eq{"id": so.ID}).
		Where(squirrel.LtOrEq{"version": so.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("sale order was modified concurrently").
			WithDetail("id", so.ID).
			WithDetail("version", so.Version)
	}

	return r.saveItems(ctx, so.ID, so.Items)
}

func (r *SaleOrderRepo) ListByPO(ctx context.Context, poID id.ID) ([]*sale_order.SaleOrder, error) {
	q := builder().
		Select("id", "version", "created_at", "updated_at", "po_id", "trader_id", "status").
		From(saleOrdersTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var orders []*sale_order.SaleOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list sale orders: %w", err)
	}

	for _, so := range orders {
		items, err := r.getItems(ctx, so.ID)
		if err != nil {
			return nil, err
		}
		so.Items = items
	}

	return orders, nil
}

func (r *SaleOrderRepo) List(ctx context.Context, filter sale_order.ListFilter) (domain.ListResult[*sale_order.SaleOrder], error) {
	result := domain.ListResult[*sale_order.SaleOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := builder().
		Select("id", "version", "created_at", "updated_at", "po_id", "trader_id", "status").
		From(saleOrdersTable)

	if filter.POID != nil {
		q = q.Where(squirrel.Eq{"po_id": *filter.POID})
	}
	if filter.TraderID != "" {
		q = q.Where(squirrel.Eq{"trader_id": filter.TraderID})
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
		return result, fmt.Errorf("count sale orders: %w", err)
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

	var orders []*sale_order.SaleOrder
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return result, fmt.Errorf("list sale orders: %w", err)
	}

	for _, so := range orders {
		items, err := r.getItems(ctx, so.ID)
		if err != nil {
			return result, err
		}
		so.Items = items
	}

	result.Items = orders
	return result, nil
}

func (r *SaleOrderRepo) getItems(ctx context.Context, soID id.ID) ([]sale_order.SOItem, error) {
	q := builder().
		Select("sku_id", "sku_name", "so_qty", "e_sp", "a_sp", "status").
		From(saleOrderItemsTable).
		Where(squirrel.Eq{"so_id": soID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []sale_order.SOItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// saveItems saves lines for a sale order (delete existing + insert new).
func (r *SaleOrderRepo) saveItems(ctx context.Context, soID id.ID, items []sale_order.SOItem) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + saleOrderItemsTable + " WHERE so_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, soID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := builder().
		Insert(saleOrderItemsTable).
		Columns("so_id", "line_no", "sku_id", "sku_name", "so_qty", "e_sp", "a_sp", "status")

	for i, item := range items {
		q = q.Values(soID, i+1, item.SKUID, item.SKUName, item.SOQty, item.ExpectedPrice, item.ActualPrice, item.Status)
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
