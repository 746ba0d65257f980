package settlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/sale_order"
	"commissionflow/internal/domain/settlement"
)

func TestResolve_CoverageAccounting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resolver := settlement.NewCoverageResolver(env.store.SaleOrders(), env.store.Fallbacks())

	po := env.createPO(t, poItem("SKU-001", 500, "50", "30"))
	env.closeSale(t, po.ID, "SKU-001", 180, "800")
	env.closeSale(t, po.ID, "SKU-001", 120, "790")

	_, err := env.fallbacks.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 50, UnitPrice: types.MustMoney("700")},
	})
	require.NoError(t, err)

	cov, err := resolver.Resolve(ctx, po, &po.Items[0])
	require.NoError(t, err)

	assert.Equal(t, 500, cov.POQty)
	assert.Equal(t, 300, cov.ClosedQty)
	assert.Equal(t, 50, cov.FallbackQty)
	assert.Equal(t, 150, cov.UnsoldQty)
	assert.Equal(t, 350, cov.CoveredQty())

	// Every box is accounted for exactly once.
	assert.Equal(t, cov.POQty, cov.ClosedQty+cov.FallbackQty+cov.UnsoldQty)

	require.Len(t, cov.SoldBuckets, 2)
	assert.Equal(t, 180, cov.SoldBuckets[0].Qty)
	assert.Equal(t, 120, cov.SoldBuckets[1].Qty)
	require.NotNil(t, cov.FallbackBucket)
	assert.Equal(t, 50, cov.FallbackBucket.Qty)
}

func TestResolve_IgnoresUnlinkedAndForeignOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resolver := settlement.NewCoverageResolver(env.store.SaleOrders(), env.store.Fallbacks())

	po := env.createPO(t, poItem("SKU-001", 500, "50", "30"))
	other := env.createPO(t, poItem("SKU-001", 200, "50", "30"))

	// Unlinked sale: sells the same SKU but references no purchase order.
	unlinked := sale_order.NewSaleOrder("trader-9", nil, []sale_order.SOItem{
		{SKUID: "SKU-001", SKUName: "SKU-001", SOQty: 400},
	})
	require.NoError(t, env.sos.Create(ctx, unlinked))
	_, err := env.sos.SubmitActual(ctx, unlinked.ID, map[string]types.Money{
		"SKU-001": types.MustMoney("810"),
	})
	require.NoError(t, err)

	// Sale linked to a different purchase order.
	env.closeSale(t, other.ID, "SKU-001", 200, "805")

	cov, err := resolver.Resolve(ctx, po, &po.Items[0])
	require.NoError(t, err)
	assert.Equal(t, 0, cov.ClosedQty)
	assert.Equal(t, 500, cov.UnsoldQty)
	assert.Empty(t, cov.SoldBuckets)
}

func TestResolve_InconsistentStoreReported(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resolver := settlement.NewCoverageResolver(env.store.SaleOrders(), env.store.Fallbacks())

	po := env.createPO(t, poItem("SKU-001", 100, "50", "30"))
	env.closeSale(t, po.ID, "SKU-001", 100, "800")

	// Bypass the registry's bound check to simulate a corrupted store.
	require.NoError(t, env.store.Fallbacks().Replace(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 60, UnitPrice: types.MustMoney("700")},
	}))

	_, err := resolver.Resolve(ctx, po, &po.Items[0])
	require.Error(t, err)
}

func TestClosedQty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resolver := settlement.NewCoverageResolver(env.store.SaleOrders(), env.store.Fallbacks())

	po := env.createPO(t,
		poItem("SKU-001", 500, "50", "30"),
		poItem("SKU-002", 300, "50", "30"),
	)
	env.closeSale(t, po.ID, "SKU-001", 250, "800")
	env.closeSale(t, po.ID, "SKU-002", 100, "750")

	closed, err := resolver.ClosedQty(ctx, po.ID, "SKU-001")
	require.NoError(t, err)
	assert.Equal(t, 250, closed)

	closed, err = resolver.ClosedQty(ctx, po.ID, "SKU-002")
	require.NoError(t, err)
	assert.Equal(t, 100, closed)

	closed, err = resolver.ClosedQty(ctx, po.ID, "SKU-404")
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}
