package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	domainRepo "github.com/sangkips/shopbill-api/internal/domain/repository"
)

type productRepo struct {
	s *Store
}

// Products returns the product repository
func (s *Store) Products() domainRepo.ProductRepository {
	return &productRepo{s: s}
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shopID, ok := shopOf(ctx)
	p, found := r.s.st.products[id]
	if !ok || !found || p.ShopID != shopID {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	out := []entity.Product{}
	for _, id := range ids {
		p, _ := r.GetByID(ctx, id)
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

type serviceRepo struct {
	s *Store
}

// Services returns the billable service repository
func (s *Store) Services() domainRepo.ServiceRepository {
	return &serviceRepo{s: s}
}

func (r *serviceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shopID, ok := shopOf(ctx)
	svc, found := r.s.st.services[id]
	if !ok || !found || svc.ShopID != shopID {
		return nil, nil
	}
	return &svc, nil
}

func (r *serviceRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Service, error) {
	out := []entity.Service{}
	for _, id := range ids {
		svc, _ := r.GetByID(ctx, id)
		if svc != nil {
			out = append(out, *svc)
		}
	}
	return out, nil
}

type customerRepo struct {
	s *Store
}

// Customers returns the customer repository
func (s *Store) Customers() domainRepo.CustomerRepository {
	return &customerRepo{s: s}
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shopID, ok := shopOf(ctx)
	c, found := r.s.st.customers[id]
	if !ok || !found || c.ShopID != shopID {
		return nil, nil
	}
	return &c, nil
}

type orderRepo struct {
	s *Store
}

// Orders returns the order repository
func (s *Store) Orders() domainRepo.OrderRepository {
	return &orderRepo{s: s}
}

// get must be called with mu held
func (r *orderRepo) get(ctx context.Context, id uuid.UUID) (entity.Order, bool) {
	shopID, ok := shopOf(ctx)
	o, found := r.s.st.orders[id]
	if !ok || !found || o.ShopID != shopID {
		return entity.Order{}, false
	}
	if o.CustomerID != nil {
		if c, ok := r.s.st.customers[*o.CustomerID]; ok {
			o.Customer = &c
		}
	}
	return o, true
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.get(ctx, id)
	if !ok {
		return nil, nil
	}
	o.Items = nil
	return &o, nil
}

func (r *orderRepo) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.get(ctx, id)
	if !ok {
		return nil, nil
	}
	items := make([]entity.OrderItem, len(o.Items))
	for i, it := range o.Items {
		if p, ok := r.s.st.products[it.ProductID]; ok {
			it.Product = p
		}
		items[i] = it
	}
	o.Items = items
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enum.OrderStatus) error {
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpUpdateOrderStatus); err != nil {
		return err
	}
	o, ok := r.get(ctx, id)
	if !ok {
		return domainRepo.ErrNotFound
	}
	if o.OrderStatus != from {
		return domainRepo.ErrStaleStatus
	}
	stored := r.s.st.orders[o.ID]
	stored.OrderStatus = to
	stored.UpdatedAt = r.s.now()
	r.s.st.orders[o.ID] = stored
	return nil
}

// OrderStatus returns the stored status of an order regardless of shop
func (s *Store) OrderStatus(id uuid.UUID) (enum.OrderStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.st.orders[id]
	return o.OrderStatus, ok
}

type shopRepo struct {
	s *Store
}

// Shops returns the shop repository
func (s *Store) Shops() domainRepo.ShopRepository {
	return &shopRepo{s: s}
}

func (r *shopRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shop, ok := r.s.st.shops[id]
	if !ok {
		return nil, nil
	}
	return &shop, nil
}

func (r *shopRepo) GetBySlug(ctx context.Context, slug string) (*entity.Shop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, shop := range r.s.st.shops {
		if shop.Slug == slug {
			return &shop, nil
		}
	}
	return nil, nil
}

func (r *shopRepo) IsMember(ctx context.Context, shopID, userID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.st.members[membershipKey{shopID, userID}]
	return ok, nil
}

type idempotencyRepo struct {
	s *Store
}

// IdempotencyKeys returns the idempotency key repository
func (s *Store) IdempotencyKeys() domainRepo.IdempotencyRepository {
	return &idempotencyRepo{s: s}
}

func (r *idempotencyRepo) GetByKey(ctx context.Context, key string, userID, shopID uuid.UUID) (*entity.IdempotencyKey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	k, ok := r.s.st.idem[idempotencyKey{key, userID, shopID}]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (r *idempotencyRepo) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	defer r.s.lockWrite(ctx)()
	k := idempotencyKey{ikey.Key, ikey.UserID, ikey.ShopID}
	if _, exists := r.s.st.idem[k]; exists {
		return domainRepo.ErrDuplicateKey
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	ikey.CreatedAt = r.s.now()
	r.s.st.idem[k] = *ikey
	return nil
}

func (r *idempotencyRepo) DeleteExpired(ctx context.Context) (int64, error) {
	defer r.s.lockWrite(ctx)()
	now := r.s.now()
	var n int64
	for k, v := range r.s.st.idem {
		if v.ExpiresAt.Before(now) {
			delete(r.s.st.idem, k)
			n++
		}
	}
	return n, nil
}
