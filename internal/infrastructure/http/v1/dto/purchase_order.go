package dto

import (
	"time"

	"commissionflow/internal/core/types"
	"commissionflow/internal/domain/orders/purchase_order"
)

// --- Request DTOs ---

// CreatePurchaseOrderRequest represents a request to create a purchase order.
type CreatePurchaseOrderRequest struct {
	VendorID string          `json:"vendorId" binding:"required"`
	Items    []POItemRequest `json:"items" binding:"required,min=1,dive"`
}

// POItemRequest represents a line in a create request.
type POItemRequest struct {
	SKUID         string      `json:"skuId" binding:"required"`
	SKUName       string      `json:"skuName" binding:"required"`
	POQty         int         `json:"poQty" binding:"required,gt=0"`
	LabourCost    types.Money `json:"labourCost"`
	TransportCost types.Money `json:"transportCost"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseOrderRequest) ToEntity() *purchase_order.PurchaseOrder {
	items := make([]purchase_order.POItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, purchase_order.POItem{
			SKUID:         item.SKUID,
			SKUName:       item.SKUName,
			POQty:         item.POQty,
			LabourCost:    item.LabourCost,
			TransportCost: item.TransportCost,
		})
	}
	return purchase_order.NewPurchaseOrder(r.VendorID, items)
}

// AdjustPattyPriceRequest carries a manual patty price override for one SKU.
type AdjustPattyPriceRequest struct {
	SKUID string      `json:"skuId" binding:"required"`
	Price types.Money `json:"price" binding:"required"`
}

// ListPurchaseOrdersQuery contains purchase order list filters.
type ListPurchaseOrdersQuery struct {
	ListQuery
	VendorID string `form:"vendorId"`
	Status   string `form:"status"`
}

// --- Response DTOs ---

// POItemResponse represents a purchase order line in responses.
type POItemResponse struct {
	SKUID               string       `json:"skuId"`
	SKUName             string       `json:"skuName"`
	POQty               int          `json:"poQty"`
	ExpectedPrice       *types.Money `json:"expectedPrice,omitempty"`
	TentativePattyPrice *types.Money `json:"tentativePattyPrice,omitempty"`
	ActualPattyPrice    *types.Money `json:"actualPattyPrice,omitempty"`
	LabourCost          types.Money  `json:"labourCost"`
	TransportCost       types.Money  `json:"transportCost"`
}

// PurchaseOrderResponse represents a purchase order in responses.
type PurchaseOrderResponse struct {
	ID        string           `json:"id"`
	VendorID  string           `json:"vendorId"`
	Status    string           `json:"status"`
	Items     []POItemResponse `json:"items"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// FromPurchaseOrder converts domain entity to response DTO.
func FromPurchaseOrder(po *purchase_order.PurchaseOrder) *PurchaseOrderResponse {
	items := make([]POItemResponse, 0, len(po.Items))
	for _, item := range po.Items {
		items = append(items, POItemResponse{
			SKUID:               item.SKUID,
			SKUName:             item.SKUName,
			POQty:               item.POQty,
			ExpectedPrice:       item.ExpectedPrice,
			TentativePattyPrice: item.TentativePattyPrice,
			ActualPattyPrice:    item.ActualPattyPrice,
			LabourCost:          item.LabourCost,
			TransportCost:       item.TransportCost,
		})
	}
	return &PurchaseOrderResponse{
		ID:        po.ID.String(),
		VendorID:  po.VendorID,
		Status:    string(po.Status),
		Items:     items,
		Version:   po.Version,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

// FromPurchaseOrders converts a slice of domain entities to response DTOs.
func FromPurchaseOrders(pos []*purchase_order.PurchaseOrder) []*PurchaseOrderResponse {
	out := make([]*PurchaseOrderResponse, 0, len(pos))
	for _, po := range pos {
		out = append(out, FromPurchaseOrder(po))
	}
	return out
}
