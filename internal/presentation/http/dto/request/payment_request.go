package request

import "github.com/sangkips/shopbill-api/pkg/money"

// AddPaymentRequest is a payment taken against an existing bill
type AddPaymentRequest struct {
	Amount money.Input `json:"amount"`
	Method string      `json:"method"`
	Note   string      `json:"note"`
}
