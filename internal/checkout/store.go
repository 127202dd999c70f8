package checkout

import "context"

// Store is the document-store contract the checkout core consumes.
// The pgx implementation lives in repo.go; tests use an in-memory store.
type Store interface {
	// RunInTx executes fn inside one atomic transaction. If fn returns an
	// error nothing it did is visible afterwards.
	RunInTx(ctx context.Context, fn func(Tx) error) error

	// GetOrderDocument loads a persisted order in raw form for rendering.
	GetOrderDocument(ctx context.Context, id string) (*OrderDocument, error)
}

// Tx is the write surface available inside a checkout transaction. The
// coordinator exclusively owns the sequence {stock mutation -> order id
// allocation -> order creation -> user update}.
type Tx interface {
	GetUser(ctx context.Context, id string) (*User, error)

	// GetProductsForUpdate loads the given products with row locks held
	// until commit, keyed by id. Missing ids are simply absent from the map.
	GetProductsForUpdate(ctx context.Context, ids []string) (map[string]*Product, error)

	SaveProductStock(ctx context.Context, id string, stock int) error

	// NextOrderNumber atomically increments the order counter and returns
	// the new value. Values below the floor are corrected up to 30.
	NextOrderNumber(ctx context.Context) (int64, error)

	InsertOrder(ctx context.Context, o *Order) error

	// SaveUserCheckout clears the user's cart and appends ref to their
	// order history.
	SaveUserCheckout(ctx context.Context, userID string, ref OrderRef) error
}
