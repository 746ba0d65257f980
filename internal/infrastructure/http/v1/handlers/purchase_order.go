package handlers

import (
	"github.com/gin-gonic/gin"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/domain/orders/purchase_order"
	"commissionflow/internal/domain/settlement"
	"commissionflow/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles HTTP requests for purchase orders, including
// settlement generation and fallback price entry.
type PurchaseOrderHandler struct {
	*BaseHandler
	service   *purchase_order.Service
	engine    *settlement.Engine
	fallbacks *settlement.FallbackRegistry
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase_order.Service, engine *settlement.Engine, fallbacks *settlement.FallbackRegistry) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		BaseHandler: base,
		service:     service,
		engine:      engine,
		fallbacks:   fallbacks,
	}
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), po); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromPurchaseOrder(po))
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	po, err := h.service.GetByID(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// List handles GET /purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var query dto.ListPurchaseOrdersQuery
	if !h.BindQuery(c, &query) {
		return
	}
	query.Defaults()

	filter := purchase_order.ListFilter{
		VendorID: query.VendorID,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.Status != "" {
		status := purchase_order.Status(query.Status)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("status", query.Status))
			return
		}
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Paginated(c, dto.FromPurchaseOrders(result.Items), result.TotalCount, result.Limit, result.Offset)
}

// SubmitExpected handles POST /purchase-orders/:id/submit-expected.
func (h *PurchaseOrderHandler) SubmitExpected(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.SubmitPricesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.SubmitExpected(c.Request.Context(), poID, req.Prices)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// GenerateSettlement handles POST /purchase-orders/:id/generate-settlement.
// Both success and conflict are 200 responses; the outcome status field
// tells them apart. Nothing is written on conflict.
func (h *PurchaseOrderHandler) GenerateSettlement(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	outcome, err := h.engine.GenerateSettlement(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, outcome)
}

// SubmitFallbackPrices handles PUT /purchase-orders/:id/fallback-prices.
func (h *PurchaseOrderHandler) SubmitFallbackPrices(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.SubmitFallbackPricesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entries, err := h.fallbacks.Submit(c.Request.Context(), poID, req.ToEntries())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FallbackEntriesResponse{POID: poID.String(), Entries: entries})
}

// ListFallbackPrices handles GET /purchase-orders/:id/fallback-prices.
func (h *PurchaseOrderHandler) ListFallbackPrices(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	entries, err := h.fallbacks.ListByPO(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FallbackEntriesResponse{POID: poID.String(), Entries: entries})
}

// AdjustPattyPrice handles POST /purchase-orders/:id/patty-price.
func (h *PurchaseOrderHandler) AdjustPattyPrice(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.AdjustPattyPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.AdjustPattyPrice(c.Request.Context(), poID, req.SKUID, req.Price)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// Finalize handles POST /purchase-orders/:id/finalize.
func (h *PurchaseOrderHandler) Finalize(c *gin.Context) {
	poID, ok := h.ParamID(c)
	if !ok {
		return
	}

	po, err := h.service.Finalize(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}
