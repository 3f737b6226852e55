package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/request"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles printer-related HTTP requests.
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler.
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the current printer connection status.
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	status := h.printerService.GetStatus()
	response.OK(c, "Printer status retrieved", status)
}

// TestPrint sends a test page to the printer.
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	receipt, err := h.printerService.TestPrint()
	if err != nil {
		// Return the receipt data anyway (useful when printer type is "none")
		response.OK(c, "Test print completed (printer may be disabled)", gin.H{
			"receipt": receipt,
			"warning": err.Error(),
		})
		return
	}

	response.OK(c, "Test page sent to printer", gin.H{
		"receipt": receipt,
	})
}

// PrintReceipt prints the receipt of the bill named in the request body.
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	var req request.PrintReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	id, err := uuid.Parse(req.BillID)
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return
	}

	h.print(c, id)
}

// PrintBill prints the receipt of the bill in the path.
func (h *PrinterHandler) PrintBill(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	h.print(c, id)
}

func (h *PrinterHandler) print(c *gin.Context, billID uuid.UUID) {
	result, err := h.printerService.PrintBillReceipt(c.Request.Context(), billID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// The bill is committed either way; a failed print only warns
	if !result.Printed {
		response.OK(c, "Receipt generated but printing failed", result)
		return
	}
	response.OK(c, "Receipt printed successfully", result)
}
