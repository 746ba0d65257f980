package purchase_order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/types"
)

func validItems() []POItem {
	return []POItem{
		{
			SKUID:         "SKU-001",
			SKUName:       "Pomo Bhuj SSSS",
			POQty:         500,
			LabourCost:    types.MustMoney("50"),
			TransportCost: types.MustMoney("30"),
		},
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusDraft, StatusExpectedSubmitted, true},
		{StatusDraft, StatusPattyGenerated, true},
		{StatusDraft, StatusFinalized, false},
		{StatusExpectedSubmitted, StatusPattyGenerated, true},
		{StatusExpectedSubmitted, StatusDraft, false},
		{StatusPattyGenerated, StatusFinalized, true},
		{StatusPattyGenerated, StatusExpectedSubmitted, false},
		{StatusFinalized, StatusDraft, false},
		{StatusFinalized, StatusPattyGenerated, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestAdvanceTo(t *testing.T) {
	po := NewPurchaseOrder("vendor-1", validItems())
	require.Equal(t, StatusDraft, po.Status)

	require.NoError(t, po.AdvanceTo(StatusExpectedSubmitted))
	assert.Equal(t, StatusExpectedSubmitted, po.Status)

	err := po.AdvanceTo(StatusFinalized)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, StatusExpectedSubmitted, po.Status)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(po *PurchaseOrder)
	}{
		{
			name:   "missing vendor",
			mutate: func(po *PurchaseOrder) { po.VendorID = "" },
		},
		{
			name:   "no items",
			mutate: func(po *PurchaseOrder) { po.Items = nil },
		},
		{
			name: "duplicate sku",
			mutate: func(po *PurchaseOrder) {
				po.Items = append(po.Items, po.Items[0])
			},
		},
		{
			name:   "zero quantity",
			mutate: func(po *PurchaseOrder) { po.Items[0].POQty = 0 },
		},
		{
			name:   "negative labour cost",
			mutate: func(po *PurchaseOrder) { po.Items[0].LabourCost = types.MustMoney("-1") },
		},
		{
			name:   "unknown status",
			mutate: func(po *PurchaseOrder) { po.Status = "LIMBO" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := NewPurchaseOrder("vendor-1", validItems())
			tt.mutate(po)
			err := po.Validate(context.Background())
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}

	po := NewPurchaseOrder("vendor-1", validItems())
	assert.NoError(t, po.Validate(context.Background()))
}

func TestItemLookup(t *testing.T) {
	po := NewPurchaseOrder("vendor-1", validItems())

	require.NotNil(t, po.Item("SKU-001"))
	assert.Nil(t, po.Item("SKU-404"))

	// Lookup returns a pointer into the order, not a copy.
	po.Item("SKU-001").ExpectedPrice = types.MoneyPtr(types.MustMoney("750"))
	assert.NotNil(t, po.Items[0].ExpectedPrice)
}

func TestCanModify(t *testing.T) {
	po := NewPurchaseOrder("vendor-1", validItems())
	assert.NoError(t, po.CanModify())

	require.NoError(t, po.AdvanceTo(StatusExpectedSubmitted))
	err := po.CanModify()
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}
