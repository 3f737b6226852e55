package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/request"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/response"
)

// ConversionHandler turns pending orders into bills
type ConversionHandler struct {
	conversionService *service.ConversionService
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(conversionService *service.ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService}
}

// Start returns the editable working set seeded from an order
func (h *ConversionHandler) Start(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	conv, order, err := h.conversionService.Start(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order ready for conversion", &response.ConversionResponse{
		Order:    order,
		Items:    conv.Items(),
		Subtotal: conv.Subtotal(),
	})
}

// Convert applies the operator's edits and commits the order as a bill
func (h *ConversionHandler) Convert(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req request.ConvertOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	bill, err := h.conversionService.Convert(c.Request.Context(), id, req.ConvertInput(*userID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order converted to bill successfully", bill)
}
