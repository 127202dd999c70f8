package checkout

import (
	"math"
)

// RequestedItem is one canonical (product, quantity) pair from the request.
// Duplicate product refs stay as independent lines.
type RequestedItem struct {
	ProductID string
	Quantity  int
}

// Clients have sent the product reference under several names over time.
// Tried in order; first hit wins.
var productRefAliases = []string{"productId", "product", "id", "_id"}

// Same story for quantity: "cantidad" survives from older clients.
var quantityAliases = []string{"quantity", "cantidad"}

// ValidateItems normalizes the raw items list from a checkout request.
// Fails fast on the first invalid entry, before any product is read.
func ValidateItems(raw []map[string]any) ([]RequestedItem, error) {
	if len(raw) == 0 {
		return nil, errInvalidInput("products: a non-empty list is required")
	}
	out := make([]RequestedItem, 0, len(raw))
	for i, entry := range raw {
		if entry == nil {
			return nil, errInvalidInput("products[%d]: not an object", i)
		}
		ref, ok := resolveAlias(entry, productRefAliases)
		if !ok {
			return nil, errInvalidInput("products[%d]: missing product reference", i)
		}
		id, ok := ref.(string)
		if !ok || !isObjectID(id) {
			return nil, errInvalidInput("products[%d]: invalid product id %v", i, ref)
		}
		qv, ok := resolveAlias(entry, quantityAliases)
		if !ok {
			return nil, errInvalidInput("products[%d]: missing quantity for product %s", i, id)
		}
		q, ok := qv.(float64)
		if !ok {
			return nil, errInvalidInput("products[%d]: quantity must be a number for product %s", i, id)
		}
		qty := int(math.Floor(q))
		if qty < 1 {
			return nil, errInvalidInput("products[%d]: quantity must be greater than zero for product %s", i, id)
		}
		out = append(out, RequestedItem{ProductID: id, Quantity: qty})
	}
	return out, nil
}

func resolveAlias(entry map[string]any, aliases []string) (any, bool) {
	for _, k := range aliases {
		if v, ok := entry[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// isObjectID reports whether s is a syntactically valid document id
// (24 hex characters).
func isObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
