package purchase_order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/infrastructure/storage/memory"
)

func newService() (*purchase_order.Service, *memory.Store) {
	store := memory.NewStore()
	return purchase_order.NewService(store.PurchaseOrders(), store.TxManager()), store
}

func createOrder(t *testing.T, svc *purchase_order.Service) *purchase_order.PurchaseOrder {
	t.Helper()
	po := purchase_order.NewPurchaseOrder("vendor-1", []purchase_order.POItem{
		{
			SKUID:         "SKU-001",
			SKUName:       "Pomo Bhuj SSSS",
			POQty:         500,
			LabourCost:    types.MustMoney("50"),
			TransportCost: types.MustMoney("30"),
		},
		{
			SKUID:         "SKU-002",
			SKUName:       "Pomo Bhuj SSS",
			POQty:         300,
			LabourCost:    types.MustMoney("50"),
			TransportCost: types.MustMoney("30"),
		},
	})
	require.NoError(t, svc.Create(context.Background(), po))
	return po
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	po := createOrder(t, svc)

	saved, err := svc.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, po.ID, saved.ID)
	assert.Equal(t, purchase_order.StatusDraft, saved.Status)
	assert.Len(t, saved.Items, 2)

	_, err = svc.GetByID(ctx, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestServiceCreate_InvalidOrder(t *testing.T) {
	svc, _ := newService()

	po := purchase_order.NewPurchaseOrder("", nil)
	err := svc.Create(context.Background(), po)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestServiceList(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	createOrder(t, svc)
	createOrder(t, svc)

	result, err := svc.List(ctx, purchase_order.DefaultListFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)
	assert.Len(t, result.Items, 2)

	filtered, err := svc.List(ctx, purchase_order.ListFilter{VendorID: "vendor-404", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(0), filtered.TotalCount)
}

func TestSubmitExpected(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	po := createOrder(t, svc)

	updated, err := svc.SubmitExpected(ctx, po.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("750"),
		"SKU-002": types.MustMoney("720"),
	})
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusExpectedSubmitted, updated.Status)
	require.NotNil(t, updated.Items[0].ExpectedPrice)
	assert.True(t, types.MustMoney("750").Equal(*updated.Items[0].ExpectedPrice))

	// Resubmission is rejected: the order left DRAFT.
	_, err = svc.SubmitExpected(ctx, po.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("750"),
		"SKU-002": types.MustMoney("720"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestSubmitExpected_RequiresEveryItem(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	po := createOrder(t, svc)

	_, err := svc.SubmitExpected(ctx, po.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("750"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// Nothing was persisted.
	saved, err := svc.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusDraft, saved.Status)
	assert.Nil(t, saved.Items[0].ExpectedPrice)
}

func TestSubmitExpected_RejectsNonPositivePrice(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	po := createOrder(t, svc)

	_, err := svc.SubmitExpected(ctx, po.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("750"),
		"SKU-002": types.Zero(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAdjustPattyPrice(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	po := createOrder(t, svc)

	// Not yet settled: adjustment refused.
	_, err := svc.AdjustPattyPrice(ctx, po.ID, "SKU-001", types.MustMoney("640"))
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))

	// Simulate a completed settlement run.
	require.NoError(t, po.AdvanceTo(purchase_order.StatusPattyGenerated))
	require.NoError(t, store.PurchaseOrders().Update(ctx, po))

	// Sub-cent input is rounded at the cent boundary on write.
	updated, err := svc.AdjustPattyPrice(ctx, po.ID, "SKU-001", types.MustMoney("640.1349"))
	require.NoError(t, err)
	require.NotNil(t, updated.Item("SKU-001").ActualPattyPrice)
	assert.True(t, types.MustMoney("640.13").Equal(*updated.Item("SKU-001").ActualPattyPrice))

	// Unknown SKU on a settled order.
	_, err = svc.AdjustPattyPrice(ctx, po.ID, "SKU-404", types.MustMoney("640"))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestFinalize(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	po := createOrder(t, svc)

	// DRAFT orders cannot finalize.
	_, err := svc.Finalize(ctx, po.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))

	require.NoError(t, po.AdvanceTo(purchase_order.StatusPattyGenerated))
	require.NoError(t, store.PurchaseOrders().Update(ctx, po))

	finalized, err := svc.Finalize(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusFinalized, finalized.Status)

	// Finalized orders are terminal.
	_, err = svc.Finalize(ctx, po.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}
