package sale_order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/domain/orders/sale_order"
	"commissionflow/internal/domain/settlement"
	"commissionflow/internal/infrastructure/storage/memory"
)

func newService(t *testing.T) (*sale_order.Service, *purchase_order.PurchaseOrder, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := sale_order.NewService(store.SaleOrders(), store.PurchaseOrders(), store.Fallbacks(), store.TxManager())

	po := purchase_order.NewPurchaseOrder("vendor-1", []purchase_order.POItem{
		{
			SKUID:         "SKU-001",
			SKUName:       "Pomo Bhuj SSSS",
			POQty:         500,
			LabourCost:    types.MustMoney("50"),
			TransportCost: types.MustMoney("30"),
		},
	})
	require.NoError(t, store.PurchaseOrders().Create(context.Background(), po))
	return svc, po, store
}

func soItems(qty int) []sale_order.SOItem {
	return []sale_order.SOItem{
		{SKUID: "SKU-001", SKUName: "Pomo Bhuj SSSS", SOQty: qty},
	}
}

func TestCreateLinked(t *testing.T) {
	svc, po, _ := newService(t)
	ctx := context.Background()

	so := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(200))
	require.NoError(t, svc.Create(ctx, so))

	saved, err := svc.GetByID(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, sale_order.StatusDraft, saved.Status)
	require.NotNil(t, saved.POID)
	assert.Equal(t, po.ID, *saved.POID)
	assert.Equal(t, sale_order.ItemStatusExpectedSubmitted, saved.Items[0].Status)
}

func TestCreateLinked_UnknownSKURejected(t *testing.T) {
	svc, po, _ := newService(t)

	so := sale_order.NewSaleOrder("trader-1", &po.ID, []sale_order.SOItem{
		{SKUID: "SKU-404", SKUName: "Unknown", SOQty: 10},
	})
	err := svc.Create(context.Background(), so)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateUnlinked(t *testing.T) {
	svc, _, _ := newService(t)

	// Unlinked sales may carry any SKU.
	so := sale_order.NewSaleOrder("trader-1", nil, []sale_order.SOItem{
		{SKUID: "SKU-999", SKUName: "Loose stock", SOQty: 10},
	})
	assert.NoError(t, svc.Create(context.Background(), so))
}

func TestSubmitActual(t *testing.T) {
	svc, po, _ := newService(t)
	ctx := context.Background()

	so := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(200))
	require.NoError(t, svc.Create(ctx, so))

	closed, err := svc.SubmitActual(ctx, so.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("800"),
	})
	require.NoError(t, err)
	assert.Equal(t, sale_order.StatusActualSubmitted, closed.Status)
	assert.True(t, closed.Items[0].Closed())
	assert.True(t, types.MustMoney("800").Equal(*closed.Items[0].ActualPrice))

	// Already closed: resubmission refused.
	_, err = svc.SubmitActual(ctx, so.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("810"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestSubmitActual_AfterExpected(t *testing.T) {
	svc, po, _ := newService(t)
	ctx := context.Background()

	so := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(200))
	require.NoError(t, svc.Create(ctx, so))

	_, err := svc.SubmitExpected(ctx, so.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("820"),
	})
	require.NoError(t, err)

	closed, err := svc.SubmitActual(ctx, so.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("795.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, sale_order.StatusActualSubmitted, closed.Status)
	// The expected price is kept for reference.
	assert.True(t, types.MustMoney("820").Equal(*closed.Items[0].ExpectedPrice))
}

func TestSubmitActual_OverCoverageRejected(t *testing.T) {
	svc, po, _ := newService(t)
	ctx := context.Background()

	first := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(400))
	require.NoError(t, svc.Create(ctx, first))
	_, err := svc.SubmitActual(ctx, first.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("800"),
	})
	require.NoError(t, err)

	// 400 closed + 200 more would exceed the 500 ordered boxes.
	second := sale_order.NewSaleOrder("trader-2", &po.ID, soItems(200))
	require.NoError(t, svc.Create(ctx, second))
	_, err = svc.SubmitActual(ctx, second.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("790"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// The rejected order stays open and uncounted.
	saved, err := svc.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, sale_order.StatusDraft, saved.Status)
	assert.False(t, saved.Items[0].Closed())

	// An exact fit still passes.
	third := sale_order.NewSaleOrder("trader-3", &po.ID, soItems(100))
	require.NoError(t, svc.Create(ctx, third))
	_, err = svc.SubmitActual(ctx, third.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("790"),
	})
	assert.NoError(t, err)
}

func TestSubmitActual_FallbackReservedQtyRejected(t *testing.T) {
	svc, po, store := newService(t)
	ctx := context.Background()

	first := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(300))
	require.NoError(t, svc.Create(ctx, first))
	_, err := svc.SubmitActual(ctx, first.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("800"),
	})
	require.NoError(t, err)

	// The remaining 200 boxes get a fallback price.
	resolver := settlement.NewCoverageResolver(store.SaleOrders(), store.Fallbacks())
	registry := settlement.NewFallbackRegistry(store.PurchaseOrders(), resolver, store.Fallbacks(), store.TxManager())
	_, err = registry.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 200, UnitPrice: types.MustMoney("700")},
	})
	require.NoError(t, err)

	// Closing 200 more would double-count the quantity the fallback holds.
	second := sale_order.NewSaleOrder("trader-2", &po.ID, soItems(200))
	require.NoError(t, svc.Create(ctx, second))
	_, err = svc.SubmitActual(ctx, second.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("790"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// Shrinking the fallback entry frees quantity for sale again.
	_, err = registry.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 100, UnitPrice: types.MustMoney("700")},
	})
	require.NoError(t, err)

	third := sale_order.NewSaleOrder("trader-3", &po.ID, soItems(100))
	require.NoError(t, svc.Create(ctx, third))
	_, err = svc.SubmitActual(ctx, third.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("790"),
	})
	assert.NoError(t, err)
}

func TestSubmitActual_MissingPrice(t *testing.T) {
	svc, po, _ := newService(t)
	ctx := context.Background()

	so := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(100))
	require.NoError(t, svc.Create(ctx, so))

	_, err := svc.SubmitActual(ctx, so.ID, map[string]types.Money{})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestSubmitExpected_OnlyFromDraft(t *testing.T) {
	svc, po, _ := newService(t)
	ctx := context.Background()

	so := sale_order.NewSaleOrder("trader-1", &po.ID, soItems(100))
	require.NoError(t, svc.Create(ctx, so))

	_, err := svc.SubmitActual(ctx, so.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("800"),
	})
	require.NoError(t, err)

	_, err = svc.SubmitExpected(ctx, so.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("820"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}
