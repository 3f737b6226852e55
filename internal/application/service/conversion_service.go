package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/billing"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
)

// ConversionService turns customer orders into bills
type ConversionService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	checkout    *CheckoutService
}

// NewConversionService creates a new conversion service
func NewConversionService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	checkout *CheckoutService,
) *ConversionService {
	return &ConversionService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		checkout:    checkout,
	}
}

// ConversionAddInput adds catalog products that were not on the order
type ConversionAddInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ConversionEditInput changes one line of the working set
type ConversionEditInput struct {
	ProductID uuid.UUID
	Price     money.Input
	Quantity  *int
	Tag       *enum.ItemTag
}

// ConvertInput represents the operator's edits and payment intent
type ConvertInput struct {
	OperatorID      uuid.UUID
	Remove          []uuid.UUID
	Add             []ConversionAddInput
	Edits           []ConversionEditInput
	CustomerName    *string
	CustomerPhone   *string
	CustomerAddress *string
	Discount        money.Input
	PaymentStatus   enum.PaymentStatus
	PaidAmount      money.Input
	PaymentMethod   string
	Notes           *string
}

// Start loads an order and seeds the working set from its items
func (s *ConversionService) Start(ctx context.Context, orderID uuid.UUID) (*billing.Conversion, *entity.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, nil, apperror.NewPersistenceError(err)
	}
	if order == nil {
		return nil, nil, apperror.NewNotFoundError("Order")
	}
	if err := convertible(order); err != nil {
		return nil, nil, err
	}
	return billing.NewConversion(order), order, nil
}

// Convert applies removals, then additions, then line edits to the order's
// working set and commits it as a new bill. The order is marked complete in
// the same transaction, so a failed status update leaves no bill behind.
func (s *ConversionService) Convert(ctx context.Context, orderID uuid.UUID, input *ConvertInput) (*entity.Bill, error) {
	conv, order, err := s.Start(ctx, orderID)
	if err != nil {
		return nil, err
	}

	for _, id := range input.Remove {
		conv.Remove(id)
	}

	if err := s.applyAdds(ctx, conv, input.Add); err != nil {
		return nil, err
	}

	for i, edit := range input.Edits {
		if _, ok := conv.Cart().IndexOf(enum.ItemKindProduct, edit.ProductID); !ok {
			return nil, apperror.NewFieldError(fmt.Sprintf("edits[%d].product_id", i), "Product is not part of this conversion")
		}
		if edit.Quantity != nil {
			conv.SetEditQuantity(edit.ProductID, *edit.Quantity)
		}
		if edit.Price.IsSet() {
			conv.SetEditPrice(edit.ProductID, edit.Price.Raw())
		}
		if edit.Tag != nil && !conv.SetTag(edit.ProductID, *edit.Tag) {
			return nil, apperror.NewFieldError(fmt.Sprintf("edits[%d].tag", i), "Invalid item tag")
		}
	}

	sourceOrderID := order.ID
	commit := &CommitInput{
		OperatorID:      input.OperatorID,
		CustomerID:      order.CustomerID,
		CustomerName:    firstSet(input.CustomerName, order.CustomerName),
		CustomerPhone:   firstSet(input.CustomerPhone, order.CustomerPhone),
		CustomerAddress: firstSet(input.CustomerAddress, order.CustomerAddress),
		Discount:        input.Discount,
		PaymentStatus:   input.PaymentStatus,
		PaidAmount:      input.PaidAmount,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		SourceOrderID:   &sourceOrderID,
		onCreated: func(ctx context.Context, bill *entity.Bill) error {
			return s.complete(ctx, order.ID)
		},
	}

	bill, err := s.checkout.Commit(ctx, conv.Cart(), commit)
	if err != nil {
		return nil, err
	}
	log.Printf("[conversion] order %s converted to bill %s", order.OrderNumber, bill.BillNumber)
	return bill, nil
}

func (s *ConversionService) applyAdds(ctx context.Context, conv *billing.Conversion, adds []ConversionAddInput) error {
	if len(adds) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(adds))
	for i, a := range adds {
		ids[i] = a.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	for _, a := range adds {
		product, ok := productMap[a.ProductID]
		if !ok {
			return apperror.NewNotFoundError(fmt.Sprintf("Product %s", a.ProductID))
		}
		conv.AddProductQuantity(product, a.Quantity)
	}
	return nil
}

// complete marks the order converted inside the commit transaction. The
// update only matches a pending order, so when two conversions race the
// loser gets a conflict and its bill rolls back.
func (s *ConversionService) complete(ctx context.Context, orderID uuid.UUID) error {
	err := s.orderRepo.UpdateStatus(ctx, orderID, enum.OrderStatusPending, enum.OrderStatusComplete)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NewNotFoundError("Order")
	case errors.Is(err, repository.ErrStaleStatus):
		order, getErr := s.orderRepo.GetByID(ctx, orderID)
		if getErr == nil && order != nil {
			if conflict := convertible(order); conflict != nil {
				return conflict
			}
		}
		return apperror.NewConflictError("Order is no longer pending")
	}
	return err
}

func convertible(order *entity.Order) error {
	switch order.OrderStatus {
	case enum.OrderStatusComplete:
		return apperror.NewConflictError("Order has already been converted")
	case enum.OrderStatusCancel:
		return apperror.NewConflictError("Cancelled orders cannot be converted")
	}
	return nil
}

func firstSet(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
