package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/request"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/response"
	"github.com/sangkips/shopbill-api/pkg/pagination"
)

// BillHandler handles checkout and bill HTTP requests
type BillHandler struct {
	checkoutService *service.CheckoutService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(checkoutService *service.CheckoutService) *BillHandler {
	return &BillHandler{checkoutService: checkoutService}
}

// Preview prices a cart and resolves its totals without saving anything
func (h *BillHandler) Preview(c *gin.Context) {
	var req request.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	cart, err := h.checkoutService.BuildCart(c.Request.Context(), req.CartLines())
	if err != nil {
		response.Error(c, err)
		return
	}

	settlement, err := h.checkoutService.Preview(c.Request.Context(), cart, req.SettleInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill preview calculated", response.NewCartResponse(cart, settlement, nil))
}

// Create commits a new bill
func (h *BillHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	cart, err := h.checkoutService.BuildCart(c.Request.Context(), req.CartLines())
	if err != nil {
		response.Error(c, err)
		return
	}

	bill, err := h.checkoutService.Commit(c.Request.Context(), cart, req.CommitInput(*userID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", bill)
}

// Update re-commits an existing bill from an edited cart
func (h *BillHandler) Update(c *gin.Context) {
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

	var req request.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	cart, err := h.checkoutService.BuildEditCart(c.Request.Context(), id, req.CartLines())
	if err != nil {
		response.Error(c, err)
		return
	}

	input := req.CommitInput(*userID)
	input.BillID = &id
	bill, err := h.checkoutService.Commit(c.Request.Context(), cart, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill updated successfully", bill)
}

// Get returns a bill with its items and payments
func (h *BillHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.checkoutService.GetBill(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill retrieved successfully", bill)
}

// Cart rebuilds the cart a bill was committed from so it can be edited
func (h *BillHandler) Cart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	cart, bill, err := h.checkoutService.RehydrateCart(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill cart retrieved successfully", response.NewCartResponse(cart, nil, bill))
}

// List handles listing bills (supports both page-based and cursor-based pagination)
func (h *BillHandler) List(c *gin.Context) {
	if c.Query("cursor") != "" || c.Query("limit") != "" {
		h.listWithCursor(c)
		return
	}

	params := &repository.BillFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    queryInt(c, "page", 1),
			PerPage: queryInt(c, "per_page", 15),
		},
		Search:        c.Query("search"),
		Status:        queryStatus(c),
		CustomerID:    queryUUID(c, "customer_id"),
		SourceOrderID: queryUUID(c, "order_id"),
		StartDate:     queryDate(c, "start_date"),
		EndDate:       queryDate(c, "end_date"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
	}

	bills, page, err := h.checkoutService.ListBills(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Bills retrieved successfully", pagination.NewPaginatedResult(bills, page))
}

// listWithCursor handles listing bills with cursor-based pagination
func (h *BillHandler) listWithCursor(c *gin.Context) {
	params := &repository.BillCursorFilterParams{
		Cursor: &pagination.CursorParams{
			Cursor:    c.Query("cursor"),
			Direction: pagination.CursorDirection(c.DefaultQuery("direction", "next")),
			Limit:     queryInt(c, "limit", 15),
		},
		Search:        c.Query("search"),
		Status:        queryStatus(c),
		CustomerID:    queryUUID(c, "customer_id"),
		SourceOrderID: queryUUID(c, "order_id"),
		StartDate:     queryDate(c, "start_date"),
		EndDate:       queryDate(c, "end_date"),
	}

	bills, page, err := h.checkoutService.ListBillsWithCursor(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, 200, "Bills retrieved successfully", pagination.NewCursorPaginatedResult(bills, page))
}
