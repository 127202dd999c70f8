// Package memstore is an in-memory checkout.Store. It backs the unit tests
// and local runs without Postgres; one big lock per transaction stands in for
// the row locking the real store does.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
)

type Store struct {
	mu       sync.Mutex
	products map[string]checkout.Product
	users    map[string]checkout.User
	orders   map[string]checkout.OrderDocument
	seq      int64
}

var _ checkout.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products: make(map[string]checkout.Product),
		users:    make(map[string]checkout.User),
		orders:   make(map[string]checkout.OrderDocument),
	}
}

func (s *Store) SeedProduct(p checkout.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) SeedUser(u checkout.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedSequence sets the raw counter value, as a legacy deployment would have
// left it.
func (s *Store) SeedSequence(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = v
}

// SeedOrderDocument injects a raw order document, bypassing the checkout
// workflow. Lets tests exercise legacy line-item shapes.
func (s *Store) SeedOrderDocument(doc checkout.OrderDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[doc.ID] = doc
}

func (s *Store) Product(id string) (checkout.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) User(id string) (checkout.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// RunInTx stages every write on copies and publishes them only when fn
// succeeds, so a failed checkout leaves no trace.
func (s *Store) RunInTx(ctx context.Context, fn func(checkout.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:    s,
		products: make(map[string]checkout.Product),
		users:    make(map[string]checkout.User),
		orders:   make(map[string]checkout.OrderDocument),
		seq:      s.seq,
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, p := range tx.products {
		s.products[id] = p
	}
	for id, u := range tx.users {
		s.users[id] = u
	}
	for id, o := range tx.orders {
		s.orders[id] = o
	}
	s.seq = tx.seq
	return nil
}

func (s *Store) GetOrderDocument(ctx context.Context, id string) (*checkout.OrderDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.orders[id]
	if !ok {
		return nil, checkout.StoreNotFound("order", id)
	}
	return &doc, nil
}

type memTx struct {
	store    *Store
	products map[string]checkout.Product
	users    map[string]checkout.User
	orders   map[string]checkout.OrderDocument
	seq      int64
}

func (t *memTx) GetUser(ctx context.Context, id string) (*checkout.User, error) {
	if u, ok := t.users[id]; ok {
		return &u, nil
	}
	u, ok := t.store.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *memTx) GetProductsForUpdate(ctx context.Context, ids []string) (map[string]*checkout.Product, error) {
	out := make(map[string]*checkout.Product, len(ids))
	for _, id := range ids {
		p, ok := t.products[id]
		if !ok {
			p, ok = t.store.products[id]
			if !ok {
				continue
			}
		}
		cp := p
		out[id] = &cp
	}
	return out, nil
}

func (t *memTx) SaveProductStock(ctx context.Context, id string, stock int) error {
	p, ok := t.products[id]
	if !ok {
		p, ok = t.store.products[id]
		if !ok {
			return checkout.StorageError("update stock", fmt.Errorf("product %s: no row updated", id))
		}
	}
	p.Stock = stock
	t.products[id] = p
	return nil
}

func (t *memTx) NextOrderNumber(ctx context.Context) (int64, error) {
	v := t.seq + 1
	if v < 30 {
		v = 30
	}
	t.seq = v
	return v, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *checkout.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return checkout.StorageError("encode order items", err)
	}
	summary, err := json.Marshal(o.Summary)
	if err != nil {
		return checkout.StorageError("encode order summary", err)
	}
	t.orders[o.ID] = checkout.OrderDocument{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     items,
		Summary:   summary,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
	return nil
}

func (t *memTx) SaveUserCheckout(ctx context.Context, userID string, ref checkout.OrderRef) error {
	u, ok := t.users[userID]
	if !ok {
		u, ok = t.store.users[userID]
		if !ok {
			return checkout.StorageError("update user", fmt.Errorf("user %s: no row updated", userID))
		}
	}
	u.Cart = nil
	u.Orders = append(u.Orders, ref)
	t.users[userID] = u
	return nil
}
