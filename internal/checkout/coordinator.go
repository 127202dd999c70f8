package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InlineBuyer is a buyer snapshot supplied directly in the request instead of
// a user reference.
type InlineBuyer struct {
	Name  string `json:"nombre"`
	Email string `json:"email"`
}

type CheckoutRequest struct {
	UserID   string
	Buyer    *InlineBuyer
	RawItems []map[string]any
	Delivery Delivery
	// ShippingCost is a manual override; nil means computed from the items.
	ShippingCost *decimal.Decimal
	Payment      Payment
	Discount     decimal.Decimal
	TaxRate      *decimal.Decimal
	Currency     string
}

// Coordinator runs the checkout workflow as one atomic unit. It holds no
// locks of its own; transaction isolation at the store is the only
// concurrency-correctness mechanism.
type Coordinator struct {
	Store   Store
	Pricing PriceConfig
}

// Checkout validates the request, reserves stock, prices the cart, persists
// the order with its summary snapshot and updates the buyer's record, all in
// one transaction. Exactly one order exists per successful call, zero on
// failure.
func (c *Coordinator) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	// Everything detectable without storage fails before any mutation.
	items, err := ValidateItems(req.RawItems)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		if req.Buyer == nil {
			return nil, errInvalidInput("either userId or an inline user is required")
		}
		if req.Buyer.Name == "" || req.Buyer.Email == "" {
			return nil, errInvalidInput("inline user requires nombre and email")
		}
	}

	var order *Order
	err = c.Store.RunInTx(ctx, func(tx Tx) error {
		var err error
		order, err = c.checkoutTx(ctx, tx, req, items)
		return err
	})
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, StorageError("checkout", err)
	}
	return order, nil
}

func (c *Coordinator) checkoutTx(ctx context.Context, tx Tx, req CheckoutRequest, items []RequestedItem) (*Order, error) {
	// 1. Buyer.
	var user *User
	var client ClientInfo
	if req.UserID != "" {
		u, err := tx.GetUser(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errNotFound("user %s not found", req.UserID)
		}
		user = u
		client = ClientInfo{Name: u.Name, Email: u.Email}
	} else {
		client = ClientInfo{Name: req.Buyer.Name, Email: req.Buyer.Email}
	}

	// 2. Products, all in one locked batch.
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	products, err := tx.GetProductsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range ids {
		if products[id] == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, errNotFound("products not found: %s", strings.Join(missing, ", "))
	}

	currency := req.Currency
	if currency == "" {
		currency = c.Pricing.Currency
	}

	// 3. Per line, in input order: stock check, decrement, price.
	subtotal := decimal.Zero
	totalUnits := 0
	lines := make([]LineItem, 0, len(items))
	summaryLines := make([]SummaryLine, 0, len(items))
	for _, it := range items {
		p := products[it.ProductID]
		if p.Stock < it.Quantity {
			return nil, errInsufficientStock("insufficient stock for %s: requested %d, available %d", p.Name, it.Quantity, p.Stock)
		}
		p.Stock -= it.Quantity
		if err := tx.SaveProductStock(ctx, p.ID, p.Stock); err != nil {
			return nil, err
		}
		unit := UnitAfterDiscount(p.Price, p.DiscountPct)
		lineTotal := LineTotal(unit, it.Quantity)
		lines = append(lines, LineItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
			Currency:  currency,
		})
		summaryLines = append(summaryLines, SummaryLine{
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
		totalUnits += it.Quantity
	}
	subtotal = Round2(subtotal)

	// 4. Totals.
	shipping := ShippingCost(req.ShippingCost, totalUnits, c.Pricing)
	rate := c.Pricing.TaxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	tax := Taxes(subtotal, rate)
	discount := Round2(req.Discount)
	total := GrandTotal(subtotal, tax, shipping, discount)

	// 5. Identifiers.
	seq, err := tx.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	invoiceNumber := fmt.Sprintf("INV-%d-%03d", now.UnixMilli(), rand.Intn(1000))

	order := &Order{
		ID:     strconv.FormatInt(seq, 10),
		UserID: req.UserID,
		Items:  lines,
		Summary: Summary{
			Client:   client,
			Products: summaryLines,
			Totals: Totals{
				Subtotal: subtotal,
				Tax:      tax,
				Shipping: shipping,
				Discount: discount,
				Total:    total,
				Currency: currency,
			},
			Delivery:      req.Delivery,
			Payment:       req.Payment,
			InvoiceNumber: invoiceNumber,
		},
		Status:    StatusConfirmed,
		CreatedAt: now,
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	// 6. Buyer record: cart cleared, order ref appended.
	if user != nil {
		ref := OrderRef{OrderID: order.ID, InvoiceNumber: invoiceNumber, Date: now}
		if err := tx.SaveUserCheckout(ctx, user.ID, ref); err != nil {
			return nil, err
		}
	}
	return order, nil
}
