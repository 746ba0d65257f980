package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commissionflow/internal/core/types"
)

func TestSettledUnitPrice(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name      string
		price     string
		labour    string
		transport string
		want      string
	}{
		{
			// net = 800 - 80 = 720, commission = 43.20
			name:      "standard sale",
			price:     "800",
			labour:    "50",
			transport: "30",
			want:      "676.8",
		},
		{
			// net = 700 - 80 = 620, commission = 37.20
			name:      "lower sale price",
			price:     "700",
			labour:    "50",
			transport: "30",
			want:      "582.8",
		},
		{
			// net = 0, settled exactly zero
			name:      "price equals costs",
			price:     "80",
			labour:    "50",
			transport: "30",
			want:      "0",
		},
		{
			// net = -30, commission is negative too; never clamped
			name:      "price below costs",
			price:     "50",
			labour:    "50",
			transport: "30",
			want:      "-28.2",
		},
		{
			// net = 33.33, commission = 1.9998, settled = 31.3302 -> 31.33
			name:      "rounds to cents",
			price:     "113.33",
			labour:    "50",
			transport: "30",
			want:      "31.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.SettledUnitPrice(
				types.MustMoney(tt.price),
				types.MustMoney(tt.labour),
				types.MustMoney(tt.transport),
			)
			assert.True(t, types.MustMoney(tt.want).Equal(got),
				"want %s, got %s", tt.want, got.String())
		})
	}
}

func TestSettledUnitPrice_Deterministic(t *testing.T) {
	calc := NewCalculator()

	price := types.MustMoney("847.61")
	labour := types.MustMoney("50")
	transport := types.MustMoney("30")

	first := calc.SettledUnitPrice(price, labour, transport)
	for i := 0; i < 100; i++ {
		assert.True(t, first.Equal(calc.SettledUnitPrice(price, labour, transport)))
	}
}

func TestSettledUnitPrice_CustomCommission(t *testing.T) {
	calc := NewCalculatorWithCommission(types.NewMoneyFromInt(10))

	// net = 800 - 80 = 720, commission = 72
	got := calc.SettledUnitPrice(types.MustMoney("800"), types.MustMoney("50"), types.MustMoney("30"))
	assert.True(t, types.MustMoney("648").Equal(got), "got %s", got.String())
}

func TestWeightedAverage(t *testing.T) {
	// 300 boxes settled at 676.80 plus 200 at 582.80:
	// (300*676.80 + 200*582.80) / 500 = 639.20
	buckets := []PriceBucket{
		{Qty: 300, SettledPrice: types.MustMoney("676.80")},
		{Qty: 200, SettledPrice: types.MustMoney("582.80")},
	}

	got := WeightedAverage(buckets)
	assert.True(t, types.MustMoney("639.20").Equal(got), "got %s", got.String())
}

func TestWeightedAverage_Bounds(t *testing.T) {
	// The average never leaves the [min, max] settled price interval.
	buckets := []PriceBucket{
		{Qty: 7, SettledPrice: types.MustMoney("101.37")},
		{Qty: 13, SettledPrice: types.MustMoney("88.12")},
		{Qty: 1, SettledPrice: types.MustMoney("250.00")},
	}

	got := WeightedAverage(buckets)
	assert.True(t, got.GreaterThanOrEqual(types.MustMoney("88.12")))
	assert.True(t, got.LessThanOrEqual(types.MustMoney("250.00")))
}

func TestWeightedAverage_Empty(t *testing.T) {
	assert.True(t, types.Zero().Equal(WeightedAverage(nil)))
	assert.True(t, types.Zero().Equal(WeightedAverage([]PriceBucket{})))
}

func TestWeightedAverage_SingleBucket(t *testing.T) {
	buckets := []PriceBucket{{Qty: 500, SettledPrice: types.MustMoney("676.80")}}
	assert.True(t, types.MustMoney("676.80").Equal(WeightedAverage(buckets)))
}
