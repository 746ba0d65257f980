package settlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/settlement"
)

func TestFallbackSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	po := env.createPO(t, poItem("SKU-001", 500, "50", "30"))
	env.closeSale(t, po.ID, "SKU-001", 300, "800")

	entries, err := env.fallbacks.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 200, UnitPrice: types.MustMoney("700")},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	stored, err := env.fallbacks.ListByPO(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 200, stored[0].Qty)
	assert.True(t, types.MustMoney("700").Equal(stored[0].UnitPrice))
}

func TestFallbackSubmit_Replaces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	po := env.createPO(t,
		poItem("SKU-001", 500, "50", "30"),
		poItem("SKU-002", 300, "50", "30"),
	)

	_, err := env.fallbacks.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 200, UnitPrice: types.MustMoney("700")},
		{SKUID: "SKU-002", Qty: 300, UnitPrice: types.MustMoney("650")},
	})
	require.NoError(t, err)

	// Resubmitting SKU-001 supersedes its prior entry but leaves SKU-002 alone.
	_, err = env.fallbacks.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 150, UnitPrice: types.MustMoney("720")},
	})
	require.NoError(t, err)

	stored, err := env.fallbacks.ListByPO(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	bySKU := make(map[string]settlement.FallbackEntry, len(stored))
	for _, e := range stored {
		bySKU[e.SKUID] = e
	}
	assert.Equal(t, 150, bySKU["SKU-001"].Qty)
	assert.True(t, types.MustMoney("720").Equal(bySKU["SKU-001"].UnitPrice))
	assert.Equal(t, 300, bySKU["SKU-002"].Qty)
}

func TestFallbackSubmit_RejectsOverflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	po := env.createPO(t, poItem("SKU-001", 500, "50", "30"))
	env.closeSale(t, po.ID, "SKU-001", 300, "800")

	// 250 > 500 - 300 unsold boxes.
	_, err := env.fallbacks.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 250, UnitPrice: types.MustMoney("700")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestFallbackSubmit_AllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	po := env.createPO(t,
		poItem("SKU-001", 500, "50", "30"),
		poItem("SKU-002", 300, "50", "30"),
	)

	// SKU-002 entry overflows, so the valid SKU-001 entry must not land either.
	_, err := env.fallbacks.Submit(ctx, po.ID, []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 100, UnitPrice: types.MustMoney("700")},
		{SKUID: "SKU-002", Qty: 999, UnitPrice: types.MustMoney("650")},
	})
	require.Error(t, err)

	stored, err := env.fallbacks.ListByPO(ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestFallbackSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	po := env.createPO(t, poItem("SKU-001", 500, "50", "30"))

	tests := []struct {
		name    string
		entries []settlement.FallbackEntry
	}{
		{
			name:    "empty batch",
			entries: nil,
		},
		{
			name: "unknown sku",
			entries: []settlement.FallbackEntry{
				{SKUID: "SKU-404", Qty: 10, UnitPrice: types.MustMoney("700")},
			},
		},
		{
			name: "zero quantity",
			entries: []settlement.FallbackEntry{
				{SKUID: "SKU-001", Qty: 0, UnitPrice: types.MustMoney("700")},
			},
		},
		{
			name: "zero price",
			entries: []settlement.FallbackEntry{
				{SKUID: "SKU-001", Qty: 10, UnitPrice: types.Zero()},
			},
		},
		{
			name: "negative price",
			entries: []settlement.FallbackEntry{
				{SKUID: "SKU-001", Qty: 10, UnitPrice: types.MustMoney("-5")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.fallbacks.Submit(ctx, po.ID, tt.entries)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestFallbackSubmit_UnknownPO(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.fallbacks.Submit(context.Background(), id.New(), []settlement.FallbackEntry{
		{SKUID: "SKU-001", Qty: 10, UnitPrice: types.MustMoney("700")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
