package settlement

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/core/tx"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/pkg/logger"
)

var tracer = otel.Tracer("commissionflow/settlement")

// Engine orchestrates settlement for a purchase order: coverage resolution
// for every line, conflict detection, bucket pricing, and the all-or-nothing
// write of tentative patty prices.
type Engine struct {
	purchaseOrders purchase_order.Repository
	resolver       *CoverageResolver
	calc           Calculator
	txManager      tx.Manager

	// Settlement runs for the same purchase order must not interleave.
	// Different orders share no state and proceed independently. Lock
	// entries are never reclaimed; the set is bounded by the number of
	// purchase orders seen by this process.
	mu    sync.Mutex
	locks map[id.ID]*sync.Mutex
}

// NewEngine creates a new settlement engine.
func NewEngine(purchaseOrders purchase_order.Repository, resolver *CoverageResolver, calc Calculator, txManager tx.Manager) *Engine {
	return &Engine{
		purchaseOrders: purchaseOrders,
		resolver:       resolver,
		calc:           calc,
		txManager:      txManager,
		locks:          make(map[id.ID]*sync.Mutex),
	}
}

func (e *Engine) lockFor(poID id.ID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[poID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[poID] = l
	}
	return l
}

// GenerateSettlement reconciles the purchase order identified by poID.
//
// Preconditions: the order exists (NotFound otherwise) and its status is
// DRAFT or EXPECTED_SUBMITTED (InvalidState otherwise — settlement cannot
// be re-run).
//
// If any line has unsold quantity, the whole run aborts with a conflict
// outcome enumerating every affected SKU; no prices are written. Otherwise
// every bucket is priced, the weighted average per line is written as the
// tentative patty price (and initializes the actual patty price), and the
// order advances to PATTY_GENERATED. Writes are all-or-nothing across the
// order's items.
func (e *Engine) GenerateSettlement(ctx context.Context, poID id.ID) (*Outcome, error) {
	lock := e.lockFor(poID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := tracer.Start(ctx, "settlement.generate",
		trace.WithAttributes(attribute.String("po.id", poID.String())))
	defer span.End()

	po, err := e.purchaseOrders.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if po.Status != purchase_order.StatusDraft && po.Status != purchase_order.StatusExpectedSubmitted {
		return nil, apperror.NewInvalidState("settlement may only run before patty generation").
			WithDetail("poId", poID).
			WithDetail("status", string(po.Status))
	}

	// First pass: resolve coverage for every line before touching anything.
	coverages := make([]Coverage, len(po.Items))
	var unsolved []UnsolvedSKU
	for i := range po.Items {
		item := &po.Items[i]
		cov, err := e.resolver.Resolve(ctx, po, item)
		if err != nil {
			return nil, err
		}
		coverages[i] = cov

		if cov.UnsoldQty > 0 {
			unsolved = append(unsolved, UnsolvedSKU{
				SKUID:     item.SKUID,
				SKUName:   item.SKUName,
				POQty:     item.POQty,
				ClosedQty: cov.CoveredQty(),
				UnsoldQty: cov.UnsoldQty,
			})
		}
	}

	if len(unsolved) > 0 {
		logger.Info(ctx, "settlement blocked by unsold quantities",
			"po_id", poID,
			"unsolved_skus", len(unsolved))
		return &Outcome{
			Status:         OutcomeConflict,
			Unsolved:       unsolved,
			AllowedActions: []string{ActionCreateOrLinkSO, ActionEnterFallbackPrices},
		}, nil
	}

	// Second pass: price all buckets and stage results.
	results := make([]Result, 0, len(po.Items))
	for i := range po.Items {
		item := &po.Items[i]
		result := e.settleItem(item, coverages[i])
		results = append(results, result)

		if result.NegativeMargin {
			logger.Warn(ctx, "negative settled price",
				"po_id", poID,
				"sku_id", item.SKUID,
				"weighted_avg", result.WeightedAvg.String())
		}

		item.TentativePattyPrice = types.MoneyPtr(result.WeightedAvg)
		item.ActualPattyPrice = types.MoneyPtr(result.WeightedAvg)
	}

	if err := po.AdvanceTo(purchase_order.StatusPattyGenerated); err != nil {
		return nil, err
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return e.purchaseOrders.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "tentative patty prices generated",
		"po_id", poID,
		"items", len(results))

	return &Outcome{
		Status:  OutcomeSuccess,
		Results: results,
	}, nil
}

// settleItem prices every bucket of a fully covered line and aggregates the
// weighted average.
func (e *Engine) settleItem(item *purchase_order.POItem, cov Coverage) Result {
	buckets := make([]PriceBucket, 0, len(cov.SoldBuckets)+1)
	buckets = append(buckets, cov.SoldBuckets...)
	if cov.FallbackBucket != nil {
		buckets = append(buckets, *cov.FallbackBucket)
	}

	negative := false
	totalQty := 0
	for i := range buckets {
		b := &buckets[i]
		b.SettledPrice = e.calc.SettledUnitPrice(b.UnitPrice, item.LabourCost, item.TransportCost)
		b.NegativeMargin = b.SettledPrice.IsNegative()
		negative = negative || b.NegativeMargin
		totalQty += b.Qty
	}

	return Result{
		SKUID:          item.SKUID,
		SKUName:        item.SKUName,
		TotalQty:       totalQty,
		WeightedAvg:    WeightedAverage(buckets),
		Buckets:        buckets,
		NegativeMargin: negative,
	}
}
