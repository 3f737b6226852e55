package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/request"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/response"
)

// PaymentHandler handles payments against existing bills
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// AddPayment records a payment and moves the bill's status forward
func (h *PaymentHandler) AddPayment(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.paymentService.AddPayment(c.Request.Context(), &service.AddPaymentInput{
		BillID:     id,
		Amount:     req.Amount,
		Method:     req.Method,
		Note:       req.Note,
		OperatorID: *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded successfully", result)
}

// ListTransactions returns a bill's payment ledger
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	txs, err := h.paymentService.ListTransactions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", txs)
}

// Ledger compares the ledger sum with the bill's stored paid amount
func (h *PaymentHandler) Ledger(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	summary, err := h.paymentService.Ledger(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ledger retrieved successfully", summary)
}
