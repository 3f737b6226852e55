package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/config"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/infrastructure/memory"
	"github.com/sangkips/shopbill-api/internal/presentation/http/handler"
	"github.com/sangkips/shopbill-api/pkg/printer"
	"github.com/sangkips/shopbill-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type billBody struct {
	ID            string `json:"id"`
	BillNumber    string `json:"bill_number"`
	Total         string `json:"total"`
	PaidAmount    string `json:"paid_amount"`
	PaymentStatus string `json:"payment_status"`
	SourceOrderID string `json:"source_order_id"`
}

type server struct {
	router   *gin.Engine
	store    *memory.Store
	printer  *printer.MemoryPrinter
	jwt      *utils.JWTManager
	shop     entity.Shop
	operator uuid.UUID
	token    string
	widget   entity.Product
	gadget   entity.Product
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	operator := uuid.New()
	shop := store.AddShop(entity.Shop{Name: "Corner Shop", Slug: "corner", Settings: entity.DefaultShopSettings()})
	store.AddMember(shop.ID, operator, "cashier")
	widget := store.AddProduct(entity.Product{ShopID: shop.ID, Name: "Widget", Code: "W-1", SellingPrice: decimal.NewFromInt(100)})
	gadget := store.AddProduct(entity.Product{ShopID: shop.ID, Name: "Gadget", Code: "G-1", SellingPrice: decimal.NewFromInt(50)})

	cfg := &config.Config{
		App:       config.AppConfig{Name: "shopbill-api"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 1},
	}

	opts := service.DefaultBillingOptions()
	checkout := service.NewCheckoutService(
		store.TxManager(), store.Bills(), store.BillItems(), store.BillTransactions(),
		store.Products(), store.Services(), store.Customers(), store.Shops(), opts,
	)
	payments := service.NewPaymentService(store.TxManager(), store.Bills(), store.BillTransactions(), opts)
	conversion := service.NewConversionService(store.Orders(), store.Products(), checkout)
	mp := printer.NewMemoryPrinter()
	printing := service.NewPrinterService(mp, store.Bills(), store.Shops(), "memory", 32, "KES")

	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.GenerateAccessToken(operator, "cashier@corner.test", []string{"cashier"}, nil)
	require.NoError(t, err)

	router := Setup(&Handlers{
		Bill:       handler.NewBillHandler(checkout),
		Payment:    handler.NewPaymentHandler(payments),
		Conversion: handler.NewConversionHandler(conversion),
		Printer:    handler.NewPrinterHandler(printing),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		ShopRepo:        store.Shops(),
		IdempotencyRepo: store.IdempotencyKeys(),
	})

	return &server{
		router:   router,
		store:    store,
		printer:  mp,
		jwt:      jwtManager,
		shop:     shop,
		operator: operator,
		token:    token,
		widget:   widget,
		gadget:   gadget,
	}
}

type call struct {
	method string
	path   string
	body   interface{}
	key    string
	shop   string
	token  string
	host   string
}

func (s *server) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "-" {
		token := c.token
		if token == "" {
			token = s.token
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.shop == "" {
		c.shop = s.shop.ID.String()
	}
	if c.shop != "-" {
		req.Header.Set("X-Shop-ID", c.shop)
	}
	if c.key != "" {
		req.Header.Set("Idempotency-Key", c.key)
	}
	if c.host != "" {
		req.Host = c.host
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeBill(t *testing.T, w *httptest.ResponseRecorder) billBody {
	t.Helper()
	var bill billBody
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &bill))
	return bill
}

func (s *server) partialBill() map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"kind": "product", "reference_id": s.widget.ID, "quantity": 2},
			{"kind": "product", "reference_id": s.gadget.ID, "quantity": 1},
		},
		"discount":       "20",
		"payment_status": "Partial",
		"paid_amount":    "100",
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodGet, path: "/health", token: "-", shop: "-"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "active_shops")
}

func TestRequiresToken(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodGet, path: "/api/v1/bills", token: "-"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShopResolution(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodGet, path: "/api/v1/bills", shop: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills", shop: uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	other := s.store.AddShop(entity.Shop{Name: "Other", Slug: "other"})
	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills", shop: other.ID.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills", shop: "-", host: "corner.shopbill.app"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateBillWithoutShop(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "k1", shop: "-"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "shop", env.Errors[0].Field)
}

func TestCreateBill(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "k1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	bill := decodeBill(t, w)
	assert.Equal(t, "230", bill.Total)
	assert.Equal(t, "100", bill.PaidAmount)
	assert.Equal(t, "Partial", bill.PaymentStatus)
	assert.Contains(t, bill.BillNumber, "BILL-")
	assert.Equal(t, 1, s.store.BillCount())

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills/" + bill.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bill.BillNumber, decodeBill(t, w).BillNumber)

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills?status=partial"})
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []billBody `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Len(t, page.Items, 1)
}

func TestCreateBillRequiresIdempotencyKey(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, s.store.BillCount())
}

func TestCreateBillValidation(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			name:  "empty cart",
			body:  map[string]interface{}{"items": []interface{}{}, "payment_status": "Paid"},
			field: "items",
		},
		{
			name: "zero quantity",
			body: func() map[string]interface{} {
				b := s.partialBill()
				b["items"] = []map[string]interface{}{
					{"kind": "product", "reference_id": s.widget.ID, "quantity": 2},
					{"kind": "product", "reference_id": s.gadget.ID, "quantity": 0},
				}
				return b
			}(),
			field: "items[1].quantity",
		},
		{
			name: "unknown status",
			body: func() map[string]interface{} {
				b := s.partialBill()
				b["payment_status"] = "Later"
				return b
			}(),
			field: "payment_status",
		},
		{
			name: "partial at total",
			body: func() map[string]interface{} {
				b := s.partialBill()
				b["paid_amount"] = "230"
				return b
			}(),
			field: "paid_amount",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: tt.body, key: "v" + string(rune('a'+i))})
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			env := decode(t, w)
			require.NotEmpty(t, env.Errors)
			assert.Equal(t, tt.field, env.Errors[0].Field)
		})
	}
	assert.Equal(t, 0, s.store.BillCount())
}

func TestIdempotentReplay(t *testing.T) {
	s := newServer(t)

	first := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "same"})
	require.Equal(t, http.StatusCreated, first.Code)

	second := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "same"})
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, decodeBill(t, first).ID, decodeBill(t, second).ID)
	assert.Equal(t, 1, s.store.BillCount())

	changed := s.partialBill()
	changed["paid_amount"] = "50"
	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: changed, key: "same"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, s.store.BillCount())
}

func TestIdempotencyKeyIsScopedToShop(t *testing.T) {
	s := newServer(t)
	branch := s.store.AddShop(entity.Shop{Name: "Branch", Slug: "branch", Settings: entity.DefaultShopSettings()})
	s.store.AddMember(branch.ID, s.operator, "cashier")
	soap := s.store.AddProduct(entity.Product{ShopID: branch.ID, Name: "Soap", Code: "S-1", SellingPrice: decimal.NewFromInt(40)})

	first := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "shared"})
	require.Equal(t, http.StatusCreated, first.Code)

	body := map[string]interface{}{
		"items":          []map[string]interface{}{{"kind": "product", "reference_id": soap.ID, "quantity": 1}},
		"payment_status": "Paid",
	}
	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: body, key: "shared", shop: branch.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
	assert.NotEqual(t, decodeBill(t, first).ID, decodeBill(t, w).ID)
	assert.Equal(t, 2, s.store.BillCount())

	// the first shop still replays its own response
	again := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "shared"})
	require.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "true", again.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, 2, s.store.BillCount())
}

func TestFailedRequestDoesNotBurnKey(t *testing.T) {
	s := newServer(t)

	bad := s.partialBill()
	bad["paid_amount"] = "0"
	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: bad, key: "retry"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// the failed attempt was not stored, so a corrected retry goes through
	good := s.partialBill()
	w = s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: good, key: "retry"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, 1, s.store.BillCount())
}

func TestPaymentsSettleBill(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "bill"})
	require.Equal(t, http.StatusCreated, w.Code)
	billID := decodeBill(t, w).ID

	w = s.do(t, call{method: http.MethodPost, path: "/api/v1/bills/" + billID + "/payments", body: map[string]string{"amount": "500"}, key: "p0"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "amount", decode(t, w).Errors[0].Field)

	w = s.do(t, call{method: http.MethodPost, path: "/api/v1/bills/" + billID + "/payments", body: map[string]string{"amount": "130", "method": "mpesa"}, key: "p1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result struct {
		Bill billBody `json:"bill"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, "Paid", result.Bill.PaymentStatus)
	assert.Equal(t, "230", result.Bill.PaidAmount)

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills/" + billID + "/payments"})
	require.Equal(t, http.StatusOK, w.Code)
	var txs []map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &txs))
	assert.Len(t, txs, 2)

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills/" + billID + "/ledger"})
	require.Equal(t, http.StatusOK, w.Code)
	var ledger struct {
		InSync bool `json:"in_sync"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &ledger))
	assert.True(t, ledger.InSync)
}

func TestEditBillAndCart(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "bill"})
	require.Equal(t, http.StatusCreated, w.Code)
	billID := decodeBill(t, w).ID

	w = s.do(t, call{method: http.MethodGet, path: "/api/v1/bills/" + billID + "/cart"})
	require.Equal(t, http.StatusOK, w.Code)
	var cart struct {
		Items []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &cart))
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "Widget", cart.Items[0].Name)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// a later catalog price change does not reach lines already on the bill
	repriced := s.widget
	repriced.SellingPrice = decimal.NewFromInt(150)
	s.store.AddProduct(repriced)

	edit := s.partialBill()
	edit["items"] = []map[string]interface{}{
		{"kind": "product", "reference_id": s.widget.ID, "quantity": 3},
	}
	edit["paid_amount"] = "150"
	w = s.do(t, call{method: http.MethodPut, path: "/api/v1/bills/" + billID, body: edit})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bill := decodeBill(t, w)
	assert.Equal(t, billID, bill.ID)
	assert.Equal(t, "280", bill.Total)
	assert.Equal(t, "150", bill.PaidAmount)
	assert.Equal(t, 1, s.store.BillCount())
}

func TestPreviewWritesNothing(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills/preview", body: s.partialBill()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var preview struct {
		Settlement struct {
			Total   string `json:"total"`
			Balance string `json:"balance"`
		} `json:"settlement"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &preview))
	assert.Equal(t, "230", preview.Settlement.Total)
	assert.Equal(t, "130", preview.Settlement.Balance)
	assert.Equal(t, 0, s.store.BillCount())
}

func TestConvertOrder(t *testing.T) {
	s := newServer(t)
	order := s.store.AddOrder(entity.Order{
		ShopID:      s.shop.ID,
		OrderNumber: "ORD-1",
		OrderStatus: enum.OrderStatusPending,
		Items: []entity.OrderItem{
			{ProductID: s.widget.ID, Quantity: 2, Price: decimal.NewFromInt(90)},
		},
	})
	path := "/api/v1/orders/" + order.ID.String()

	w := s.do(t, call{method: http.MethodGet, path: path + "/conversion"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var start struct {
		Subtotal string `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &start))
	assert.Equal(t, "180", start.Subtotal)

	body := map[string]interface{}{
		"add":            []map[string]interface{}{{"product_id": s.gadget.ID, "quantity": 1}},
		"payment_status": "Paid",
	}
	w = s.do(t, call{method: http.MethodPost, path: path + "/convert", body: body, key: "c1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bill := decodeBill(t, w)
	assert.Equal(t, "230", bill.Total)
	assert.Equal(t, order.ID.String(), bill.SourceOrderID)

	status, ok := s.store.OrderStatus(order.ID)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusComplete, status)

	w = s.do(t, call{method: http.MethodPost, path: path + "/convert", body: body, key: "c2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, s.store.BillCount())
}

func TestPrintBill(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/bills", body: s.partialBill(), key: "bill"})
	require.Equal(t, http.StatusCreated, w.Code)
	billID := decodeBill(t, w).ID

	w = s.do(t, call{method: http.MethodPost, path: "/api/v1/bills/" + billID + "/print"})
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Printed bool `json:"printed"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.True(t, result.Printed)
	assert.Len(t, s.printer.Jobs(), 1)

	s.printer.FailWith(printer.ErrPrinterOffline)
	w = s.do(t, call{method: http.MethodPost, path: "/api/v1/printer/receipt", body: map[string]string{"bill_id": billID}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.False(t, result.Printed)
}

func TestPrinterTestNeedsPermission(t *testing.T) {
	s := newServer(t)

	w := s.do(t, call{method: http.MethodPost, path: "/api/v1/printer/test"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, err := s.jwt.GenerateAccessToken(s.operator, "owner@corner.test", []string{"owner"}, []string{"manage-printer"})
	require.NoError(t, err)
	w = s.do(t, call{method: http.MethodPost, path: "/api/v1/printer/test", token: token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.printer.Jobs(), 1)
}
