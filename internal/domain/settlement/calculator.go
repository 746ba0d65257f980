package settlement

import (
	"commissionflow/internal/core/types"
)

// DefaultCommissionPercent is the fixed commission deducted from net sale
// proceeds, expressed in percent.
const DefaultCommissionPercent = 6

// Calculator computes settled per-box prices and weighted averages.
// It is pure: no I/O, no side effects, deterministic for identical inputs.
type Calculator struct {
	commissionPercent types.Money
}

// NewCalculator creates a calculator with the default 6% commission.
func NewCalculator() Calculator {
	return Calculator{commissionPercent: types.NewMoneyFromInt(DefaultCommissionPercent)}
}

// NewCalculatorWithCommission creates a calculator with a custom commission
// percent (e.g. 6 for 6%).
func NewCalculatorWithCommission(percent types.Money) Calculator {
	return Calculator{commissionPercent: percent}
}

// CommissionPercent returns the configured commission percent.
func (c Calculator) CommissionPercent() types.Money {
	return c.commissionPercent
}

// SettledUnitPrice computes the per-box seller patty price:
//
//	net        = price − (labour + transport)
//	commission = net × percent/100
//	settled    = round2(net − commission)
//
// Rounding is half away from zero at the cent boundary. A negative result
// is valid output: the price fell below fixed costs. Callers decide how to
// surface it; the calculator never clamps.
func (c Calculator) SettledUnitPrice(price, labour, transport types.Money) types.Money {
	net := price.Sub(labour.Add(transport))
	commission := net.Mul(c.commissionPercent).Div(types.NewMoneyFromInt(100))
	return types.RoundCents(net.Sub(commission))
}

// WeightedAverage computes the quantity-weighted average settled price over
// buckets, rounded to cents. An empty or zero-quantity bucket list yields
// exactly zero, not an error.
func WeightedAverage(buckets []PriceBucket) types.Money {
	totalQty := 0
	weightedSum := types.Zero()

	for _, b := range buckets {
		totalQty += b.Qty
		weightedSum = weightedSum.Add(b.SettledPrice.Mul(types.NewMoneyFromInt(int64(b.Qty))))
	}

	if totalQty == 0 {
		return types.Zero()
	}

	return types.RoundCents(weightedSum.Div(types.NewMoneyFromInt(int64(totalQty))))
}
