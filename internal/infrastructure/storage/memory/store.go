// Package memory provides an in-memory storage backend. It is the default
// backing for development and tests; the domain layer sees only the
// repository interfaces and cannot tell it apart from a real database.
package memory

import (
	"context"
	"sync"

	"commissionflow/internal/core/id"
	"commissionflow/internal/core/tx"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/domain/orders/sale_order"
	"commissionflow/internal/domain/settlement"
)

// Store holds all collections behind one RWMutex. Repositories hand out
// deep copies, so callers can mutate results freely and nothing is visible
// until an explicit Update.
type Store struct {
	mu sync.RWMutex

	purchaseOrders map[id.ID]*purchase_order.PurchaseOrder
	saleOrders     map[id.ID]*sale_order.SaleOrder

	// insertion order, so lists are stable without timestamps sorting
	poOrder []id.ID
	soOrder []id.ID

	// fallback entries keyed by purchase order, then SKU
	fallbacks map[id.ID]map[string]settlement.FallbackEntry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		purchaseOrders: make(map[id.ID]*purchase_order.PurchaseOrder),
		saleOrders:     make(map[id.ID]*sale_order.SaleOrder),
		fallbacks:      make(map[id.ID]map[string]settlement.FallbackEntry),
	}
}

// PurchaseOrders returns the purchase order repository view of the store.
func (s *Store) PurchaseOrders() purchase_order.Repository {
	return &purchaseOrderRepo{store: s}
}

// SaleOrders returns the sale order repository view of the store.
func (s *Store) SaleOrders() sale_order.Repository {
	return &saleOrderRepo{store: s}
}

// Fallbacks returns the fallback entry repository view of the store.
func (s *Store) Fallbacks() settlement.FallbackRepository {
	return &fallbackRepo{store: s}
}

// TxManager returns a tx.Manager for this store. In-memory writes are
// already atomic per repository call (a document and its items are saved
// in one step under the store lock), so the manager just runs fn.
func (s *Store) TxManager() tx.Manager {
	return &txManager{}
}

type txManager struct{}

func (m *txManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func copyMoney(m *types.Money) *types.Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

func copyPO(po *purchase_order.PurchaseOrder) *purchase_order.PurchaseOrder {
	cp := *po
	cp.Items = make([]purchase_order.POItem, len(po.Items))
	for i, item := range po.Items {
		item.ExpectedPrice = copyMoney(item.ExpectedPrice)
		item.TentativePattyPrice = copyMoney(item.TentativePattyPrice)
		item.ActualPattyPrice = copyMoney(item.ActualPattyPrice)
		cp.Items[i] = item
	}
	return &cp
}

func copySO(so *sale_order.SaleOrder) *sale_order.SaleOrder {
	cp := *so
	cp.Items = make([]sale_order.SOItem, len(so.Items))
	for i, item := range so.Items {
		item.ExpectedPrice = copyMoney(item.ExpectedPrice)
		item.ActualPrice = copyMoney(item.ActualPrice)
		cp.Items[i] = item
	}
	if so.POID != nil {
		poID := *so.POID
		cp.POID = &poID
	}
	return &cp
}
