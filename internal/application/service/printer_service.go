package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/sangkips/shopbill-api/pkg/printer"
	"github.com/shopspring/decimal"
)

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	billRepo    repository.BillRepository
	shopRepo    repository.ShopRepository
	printerType string
	width       int
	currency    string
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	billRepo repository.BillRepository,
	shopRepo repository.ShopRepository,
	printerType string,
	width int,
	currency string,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		billRepo:    billRepo,
		shopRepo:    shopRepo,
		printerType: printerType,
		width:       width,
		currency:    currency,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// PrintResult is the receipt that was composed and whether it reached paper.
type PrintResult struct {
	Receipt *entity.Receipt `json:"receipt"`
	Printed bool            `json:"printed"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// TestPrint sends a sample receipt to the printer.
func (s *PrinterService) TestPrint() (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header:     entity.ReceiptHeader{StoreName: "PRINTER TEST"},
		BillNumber: "TEST-001",
		Date:       "Test Date",
		Customer:   "Walking Customer",
		Currency:   s.currency,
		Items: []entity.ReceiptItem{
			{Name: "Test Item 1", Quantity: 1, UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(10)},
			{Name: "Test Item 2", Quantity: 2, UnitPrice: decimal.NewFromInt(5), Total: decimal.NewFromInt(10)},
		},
		Subtotal: decimal.NewFromInt(20),
		Total:    decimal.NewFromInt(20),
		Paid:     decimal.NewFromInt(20),
		Status:   enum.PaymentStatusPaid.String(),
	}

	if err := s.printer.Print(FormatReceipt(receipt, s.width)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// PrintBillReceipt composes a bill's receipt and sends it to the printer.
// Printing is cosmetic: a printer failure is logged and reported in the
// result, never returned as an error.
func (s *PrinterService) PrintBillReceipt(ctx context.Context, billID uuid.UUID) (*PrintResult, error) {
	bill, err := s.billRepo.GetWithDetails(ctx, billID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}

	settings := entity.DefaultShopSettings()
	storeName := "Shop"
	shop, err := s.shopRepo.GetByID(ctx, bill.ShopID)
	if err != nil {
		log.Printf("[printer] shop lookup for bill %s failed, using defaults: %v", bill.BillNumber, err)
	} else if shop != nil {
		storeName = shop.Name
		settings = shop.Settings
	}
	if settings.Currency == "" {
		settings.Currency = s.currency
	}

	receipt := BuildReceipt(bill, storeName, settings)
	if err := s.printer.Print(FormatReceipt(receipt, s.width)); err != nil {
		log.Printf("[printer] receipt for bill %s not printed: %v", bill.BillNumber, err)
		return &PrintResult{Receipt: receipt}, nil
	}
	return &PrintResult{Receipt: receipt, Printed: true}, nil
}

// BuildReceipt composes the printable view of a bill.
func BuildReceipt(bill *entity.Bill, storeName string, settings entity.ShopSettings) *entity.Receipt {
	receipt := &entity.Receipt{
		Header: entity.ReceiptHeader{
			StoreName: storeName,
			Address:   settings.Address,
			Phone:     settings.Phone,
			TaxID:     settings.TaxID,
		},
		BillNumber: bill.BillNumber,
		Date:       bill.IssuedAt.Format("2006-01-02 15:04"),
		Customer:   bill.DisplayCustomer(),
		Currency:   settings.Currency,
		Items:      make([]entity.ReceiptItem, 0, len(bill.Items)),
		Subtotal:   bill.Subtotal,
		Discount:   bill.Discount,
		Total:      bill.Total,
		Paid:       bill.PaidAmount,
		Balance:    bill.Balance(),
		Status:     bill.PaymentStatus.String(),
		Footer:     settings.ReceiptFooter,
	}

	for _, it := range bill.Items {
		item := entity.ReceiptItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.LineTotal,
		}
		if it.LocalizedName != nil {
			item.LocalizedName = *it.LocalizedName
		}
		if it.Tag != enum.ItemTagNone {
			item.Tag = it.Tag.String()
		}
		receipt.Items = append(receipt.Items, item)
	}
	return receipt
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)
	amount := func(d decimal.Decimal) string {
		return money.Format(d, r.Currency)
	}

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.TaxID != "" {
		doc.TextF("Tax ID: %s", r.Header.TaxID)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Bill:", r.BillNumber).
		KeyValue("Date:", r.Date)
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		name := item.Name
		if item.Tag != "" {
			name = fmt.Sprintf("%s (%s)", name, item.Tag)
		}
		doc.ItemLine(item.Quantity, name, money.Format(item.Total, ""))
		if item.LocalizedName != "" {
			doc.TextF("   %s", item.LocalizedName)
		}
		if item.Quantity > 1 {
			doc.TextF("   @ %s each", money.Format(item.UnitPrice, ""))
		}
	}

	doc.Separator('-')

	// Totals
	doc.KeyValue("Subtotal:", amount(r.Subtotal))
	if r.Discount.IsPositive() {
		doc.KeyValue("Discount:", amount(r.Discount.Neg()))
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", amount(r.Total)).
		SetBold(false)

	if r.Paid.IsPositive() {
		doc.KeyValue("Paid:", amount(r.Paid))
	}
	if r.Balance.IsPositive() {
		doc.KeyValue("Balance:", amount(r.Balance))
	}
	doc.KeyValue("Status:", r.Status)

	doc.Separator('-')

	// Footer
	if r.Footer != "" {
		doc.SetAlign(printer.AlignCenter).
			LineFeed().
			Text(r.Footer).
			SetAlign(printer.AlignLeft)
	}

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
