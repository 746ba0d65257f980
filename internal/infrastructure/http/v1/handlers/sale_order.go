package handlers

import (
	"github.com/gin-gonic/gin"

	"commissionflow/internal/core/apperror"
	"commissionflow/internal/core/id"
	"commissionflow/internal/domain/orders/sale_order"
	"commissionflow/internal/infrastructure/http/v1/dto"
)

// SaleOrderHandler handles HTTP requests for sale orders.
type SaleOrderHandler struct {
	*BaseHandler
	service *sale_order.Service
}

// NewSaleOrderHandler creates a new sale order handler.
func NewSaleOrderHandler(base *BaseHandler, service *sale_order.Service) *SaleOrderHandler {
	return &SaleOrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /sale-orders.
func (h *SaleOrderHandler) Create(c *gin.Context) {
	var req dto.CreateSaleOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	so, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid poId format"))
		return
	}

	if err := h.service.Create(c.Request.Context(), so); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSaleOrder(so))
}

// Get handles GET /sale-orders/:id.
func (h *SaleOrderHandler) Get(c *gin.Context) {
	soID, ok := h.ParamID(c)
	if !ok {
		return
	}

	so, err := h.service.GetByID(c.Request.Context(), soID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSaleOrder(so))
}

// List handles GET /sale-orders.
func (h *SaleOrderHandler) List(c *gin.Context) {
	var query dto.ListSaleOrdersQuery
	if !h.BindQuery(c, &query) {
		return
	}
	query.Defaults()

	filter := sale_order.ListFilter{
		TraderID: query.TraderID,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.POID != "" {
		poID, err := id.Parse(query.POID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid poId format"))
			return
		}
		filter.POID = &poID
	}
	if query.Status != "" {
		status := sale_order.Status(query.Status)
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

	h.Paginated(c, dto.FromSaleOrders(result.Items), result.TotalCount, result.Limit, result.Offset)
}

// SubmitExpected handles POST /sale-orders/:id/submit-expected.
func (h *SaleOrderHandler) SubmitExpected(c *gin.Context) {
	soID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.SubmitPricesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	so, err := h.service.SubmitExpected(c.Request.Context(), soID, req.Prices)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSaleOrder(so))
}

// SubmitActual handles POST /sale-orders/:id/submit-actual.
// Closes the order lines for settlement coverage.
func (h *SaleOrderHandler) SubmitActual(c *gin.Context) {
	soID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.SubmitPricesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	so, err := h.service.SubmitActual(c.Request.Context(), soID, req.Prices)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSaleOrder(so))
}
