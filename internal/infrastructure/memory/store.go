// Package memory is a mutex-guarded in-memory implementation of the
// repositories. It backs STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	domainRepo "github.com/sangkips/shopbill-api/internal/domain/repository"
	infraRepo "github.com/sangkips/shopbill-api/internal/infrastructure/repository"
)

// Operation names accepted by FailOn
const (
	OpCreateBill        = "bills.create"
	OpUpdateBill        = "bills.update"
	OpUpdatePayment     = "bills.update_payment"
	OpCreateBillItems   = "bill_items.create"
	OpDeleteBillItems   = "bill_items.delete"
	OpCreateTransaction = "bill_transactions.create"
	OpUpdateOrderStatus = "orders.update_status"
)

type membershipKey struct {
	shopID uuid.UUID
	userID uuid.UUID
}

type idempotencyKey struct {
	key    string
	userID uuid.UUID
	shopID uuid.UUID
}

type state struct {
	shops     map[uuid.UUID]entity.Shop
	members   map[membershipKey]entity.ShopMembership
	products  map[uuid.UUID]entity.Product
	services  map[uuid.UUID]entity.Service
	customers map[uuid.UUID]entity.Customer
	orders    map[uuid.UUID]entity.Order
	bills     map[uuid.UUID]entity.Bill
	billItems map[uuid.UUID][]entity.BillItem
	txns      map[uuid.UUID][]entity.BillTransaction
	idem      map[idempotencyKey]entity.IdempotencyKey
}

func newState() *state {
	return &state{
		shops:     make(map[uuid.UUID]entity.Shop),
		members:   make(map[membershipKey]entity.ShopMembership),
		products:  make(map[uuid.UUID]entity.Product),
		services:  make(map[uuid.UUID]entity.Service),
		customers: make(map[uuid.UUID]entity.Customer),
		orders:    make(map[uuid.UUID]entity.Order),
		bills:     make(map[uuid.UUID]entity.Bill),
		billItems: make(map[uuid.UUID][]entity.BillItem),
		txns:      make(map[uuid.UUID][]entity.BillTransaction),
		idem:      make(map[idempotencyKey]entity.IdempotencyKey),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.shops {
		c.shops[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]entity.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	for k, v := range s.billItems {
		c.billItems[k] = append([]entity.BillItem(nil), v...)
	}
	for k, v := range s.txns {
		c.txns[k] = append([]entity.BillTransaction(nil), v...)
	}
	for k, v := range s.idem {
		c.idem[k] = v
	}
	return c
}

// Store holds every table in maps. Transactions are serialized with each
// other and with writes made outside them, and roll back by restoring a
// snapshot taken when they began.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	st       *state
	failures map[string]error
	now      func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		st:       newState(),
		failures: make(map[string]error),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailOn makes the next call of op return err. It fires once.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// fail must be called with mu held for writing
func (s *Store) fail(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

type txMarker struct{}

type txManager struct {
	s *Store
}

// TxManager returns the store's transaction manager
func (s *Store) TxManager() domainRepo.TxManager {
	return &txManager{s: s}
}

func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txMarker{}).(bool); ok {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	m.s.mu.RLock()
	snapshot := m.s.st.clone()
	m.s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		m.s.mu.Lock()
		m.s.st = snapshot
		m.s.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the write lock for a mutation. Outside a transaction it also
// waits for txMu, so a rollback restores a snapshot no other writer has
// touched since it was taken.
func (s *Store) lockWrite(ctx context.Context) (unlock func()) {
	if _, inTx := ctx.Value(txMarker{}).(bool); inTx {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// shopOf returns the shop in ctx. ok is false when there is none, in which
// case scoped reads see nothing.
func shopOf(ctx context.Context) (uuid.UUID, bool) {
	return infraRepo.GetShopID(ctx)
}

// AddShop seeds a shop
func (s *Store) AddShop(shop entity.Shop) entity.Shop {
	defer s.lockWrite(context.Background())()
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	s.st.shops[shop.ID] = shop
	return shop
}

// AddMember grants userID access to shopID
func (s *Store) AddMember(shopID, userID uuid.UUID, role string) {
	defer s.lockWrite(context.Background())()
	s.st.members[membershipKey{shopID, userID}] = entity.ShopMembership{
		ShopID: shopID, UserID: userID, Role: role, CreatedAt: s.now(),
	}
}

// AddProduct seeds a catalog product
func (s *Store) AddProduct(p entity.Product) entity.Product {
	defer s.lockWrite(context.Background())()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.st.products[p.ID] = p
	return p
}

// AddService seeds a billable service
func (s *Store) AddService(svc entity.Service) entity.Service {
	defer s.lockWrite(context.Background())()
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	s.st.services[svc.ID] = svc
	return svc
}

// AddCustomer seeds a customer
func (s *Store) AddCustomer(c entity.Customer) entity.Customer {
	defer s.lockWrite(context.Background())()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.st.customers[c.ID] = c
	return c
}

// AddOrder seeds an order with its items
func (s *Store) AddOrder(o entity.Order) entity.Order {
	defer s.lockWrite(context.Background())()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = s.now()
	}
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	s.st.orders[o.ID] = o
	return o
}

// AddIdempotencyKey seeds a stored response
func (s *Store) AddIdempotencyKey(k entity.IdempotencyKey) {
	defer s.lockWrite(context.Background())()
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	s.st.idem[idempotencyKey{k.Key, k.UserID, k.ShopID}] = k
}

// BillCount returns how many bills exist across all shops
func (s *Store) BillCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.bills)
}

// IdempotencyKeyCount returns how many stored responses exist
func (s *Store) IdempotencyKeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.idem)
}
