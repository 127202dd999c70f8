package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo is the Postgres-backed Store. Summary and line items live as JSON
// documents inside the orders row; product stock and the order counter are
// plain columns mutated only inside RunInTx.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) RunInTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return StorageError("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&repoTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return StorageError("commit tx", err)
	}
	return nil
}

func (r *Repo) GetOrderDocument(ctx context.Context, id string) (*OrderDocument, error) {
	var doc OrderDocument
	var userID *string
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, items, summary, status, created_at
		FROM orders WHERE id=$1`, id).
		Scan(&doc.ID, &userID, &doc.Items, &doc.Summary, &doc.Status, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound("order %s not found", id)
	}
	if err != nil {
		return nil, StorageError("load order", err)
	}
	if userID != nil {
		doc.UserID = *userID
	}
	return &doc, nil
}

type repoTx struct{ tx pgx.Tx }

func (t *repoTx) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	var cart, orders []byte
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, email, cart, orders
		FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &cart, &orders)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, StorageError("load user", err)
	}
	if len(cart) > 0 {
		if err := json.Unmarshal(cart, &u.Cart); err != nil {
			return nil, StorageError("decode user cart", err)
		}
	}
	if len(orders) > 0 {
		if err := json.Unmarshal(orders, &u.Orders); err != nil {
			return nil, StorageError("decode user orders", err)
		}
	}
	return &u, nil
}

func (t *repoTx) GetProductsForUpdate(ctx context.Context, ids []string) (map[string]*Product, error) {
	if len(ids) == 0 {
		return map[string]*Product{}, nil
	}
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, price, discount_pct, stock
		FROM products WHERE id IN (`+params+`) FOR UPDATE`, args...)
	if err != nil {
		return nil, StorageError("load products", err)
	}
	defer rows.Close()

	out := make(map[string]*Product, len(ids))
	for rows.Next() {
		var p Product
		var price, discount string // NUMERIC -> string
		if err := rows.Scan(&p.ID, &p.Name, &price, &discount, &p.Stock); err != nil {
			return nil, StorageError("scan product", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, StorageError("parse product price", err)
		}
		if p.DiscountPct, err = decimal.NewFromString(discount); err != nil {
			return nil, StorageError("parse product discount", err)
		}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError("load products", err)
	}
	return out, nil
}

func (t *repoTx) SaveProductStock(ctx context.Context, id string, stock int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE products SET stock=$2 WHERE id=$1`, id, stock)
	if err != nil {
		return StorageError("update stock", err)
	}
	if ct.RowsAffected() != 1 {
		return StorageError("update stock", fmt.Errorf("product %s: no row updated", id))
	}
	return nil
}

// NextOrderNumber is a single conditional update, never a read-then-write
// pair, so concurrent callers can never observe the same value. Counters
// seeded below the floor are corrected up to 30.
func (t *repoTx) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_sequences(name, value) VALUES ('orders', 30)
		ON CONFLICT (name)
		DO UPDATE SET value = GREATEST(order_sequences.value + 1, 30)
		RETURNING value`).Scan(&n)
	if err != nil {
		return 0, StorageError("allocate order number", err)
	}
	return n, nil
}

func (t *repoTx) InsertOrder(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return StorageError("encode order items", err)
	}
	summary, err := json.Marshal(o.Summary)
	if err != nil {
		return StorageError("encode order summary", err)
	}
	var userID *string
	if o.UserID != "" {
		userID = &o.UserID
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, items, summary, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, userID, items, summary, string(o.Status), o.CreatedAt)
	if err != nil {
		return StorageError("insert order", err)
	}
	return nil
}

func (t *repoTx) SaveUserCheckout(ctx context.Context, userID string, ref OrderRef) error {
	entry, err := json.Marshal(ref)
	if err != nil {
		return StorageError("encode order ref", err)
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE users
		SET cart = '[]'::jsonb,
		    orders = COALESCE(orders, '[]'::jsonb) || $2::jsonb
		WHERE id=$1`, userID, entry)
	if err != nil {
		return StorageError("update user", err)
	}
	if ct.RowsAffected() != 1 {
		return StorageError("update user", fmt.Errorf("user %s: no row updated", userID))
	}
	return nil
}
