package dto

import (
	"time"

	"commissionflow/internal/core/id"
	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/sale_order"
)

// --- Request DTOs ---

// CreateSaleOrderRequest represents a request to create a sale order.
type CreateSaleOrderRequest struct {
	TraderID string          `json:"traderId" binding:"required"`
	POID     string          `json:"poId,omitempty"`
	Items    []SOItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SOItemRequest represents a line in a create request.
type SOItemRequest struct {
	SKUID         string       `json:"skuId" binding:"required"`
	SKUName       string       `json:"skuName" binding:"required"`
	SOQty         int          `json:"soQty" binding:"required,gt=0"`
	ExpectedPrice *types.Money `json:"expectedPrice,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateSaleOrderRequest) ToEntity() (*sale_order.SaleOrder, error) {
	var poID *id.ID
	if r.POID != "" {
		parsed, err := id.Parse(r.POID)
		if err != nil {
			return nil, err
		}
		poID = &parsed
	}

	items := make([]sale_order.SOItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, sale_order.SOItem{
			SKUID:         item.SKUID,
			SKUName:       item.SKUName,
			SOQty:         item.SOQty,
			ExpectedPrice: item.ExpectedPrice,
		})
	}
	return sale_order.NewSaleOrder(r.TraderID, poID, items), nil
}

// ListSaleOrdersQuery contains sale order list filters.
type ListSaleOrdersQuery struct {
	ListQuery
	POID     string `form:"poId"`
	TraderID string `form:"traderId"`
	Status   string `form:"status"`
}

// --- Response DTOs ---

// SOItemResponse represents a sale order line in responses.
type SOItemResponse struct {
	SKUID         string       `json:"skuId"`
	SKUName       string       `json:"skuName"`
	SOQty         int          `json:"soQty"`
	ExpectedPrice *types.Money `json:"expectedPrice,omitempty"`
	ActualPrice   *types.Money `json:"actualPrice,omitempty"`
	Status        string       `json:"status"`
}

// SaleOrderResponse represents a sale order in responses.
type SaleOrderResponse struct {
	ID        string           `json:"id"`
	POID      *string          `json:"poId,omitempty"`
	TraderID  string           `json:"traderId"`
	Status    string           `json:"status"`
	Items     []SOItemResponse `json:"items"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// FromSaleOrder converts domain entity to response DTO.
func FromSaleOrder(so *sale_order.SaleOrder) *SaleOrderResponse {
	items := make([]SOItemResponse, 0, len(so.Items))
	for _, item := range so.Items {
		items = append(items, SOItemResponse{
			SKUID:         item.SKUID,
			SKUName:       item.SKUName,
			SOQty:         item.SOQty,
			ExpectedPrice: item.ExpectedPrice,
			ActualPrice:   item.ActualPrice,
			Status:        string(item.Status),
		})
	}

	var poID *string
	if so.POID != nil {
		s := so.POID.String()
		poID = &s
	}

	return &SaleOrderResponse{
		ID:        so.ID.String(),
		POID:      poID,
		TraderID:  so.TraderID,
		Status:    string(so.Status),
		Items:     items,
		Version:   so.Version,
		CreatedAt: so.CreatedAt,
		UpdatedAt: so.UpdatedAt,
	}
}

// FromSaleOrders converts a slice of domain entities to response DTOs.
func FromSaleOrders(sos []*sale_order.SaleOrder) []*SaleOrderResponse {
	out := make([]*SaleOrderResponse, 0, len(sos))
	for _, so := range sos {
		out = append(out, FromSaleOrder(so))
	}
	return out
}
