package entity

import "github.com/shopspring/decimal"

// ReceiptHeader holds the shop details printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name          string          `json:"name"`
	LocalizedName string          `json:"localized_name,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Total         decimal.Decimal `json:"total"`
	Tag           string          `json:"tag,omitempty"`
}

// Receipt is a printable view of a bill. It is composed at print time and
// never stored.
type Receipt struct {
	Header     ReceiptHeader   `json:"header"`
	BillNumber string          `json:"bill_number"`
	Date       string          `json:"date"`
	Customer   string          `json:"customer,omitempty"`
	Currency   string          `json:"currency,omitempty"`
	Items      []ReceiptItem   `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	Paid       decimal.Decimal `json:"paid"`
	Balance    decimal.Decimal `json:"balance"`
	Status     string          `json:"status"`
	Footer     string          `json:"footer,omitempty"`
}
