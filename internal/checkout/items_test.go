package checkout

import (
	"strings"
	"testing"
)

const (
	prodA = "aaaaaaaaaaaaaaaaaaaaaaaa"
	prodB = "bbbbbbbbbbbbbbbbbbbbbbbb"
)

func item(kv ...any) map[string]any {
	m := map[string]any{}
	for i := 0; i < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestValidateItemsEmpty(t *testing.T) {
	for _, raw := range [][]map[string]any{nil, {}} {
		_, err := ValidateItems(raw)
		if err == nil || Classify(err) != KindInvalidInput {
			t.Fatalf("expected InvalidInput for %v, got %v", raw, err)
		}
	}
}

func TestValidateItemsAliases(t *testing.T) {
	for _, key := range []string{"productId", "product", "id", "_id"} {
		items, err := ValidateItems([]map[string]any{item(key, prodA, "quantity", 2.0)})
		if err != nil {
			t.Fatalf("alias %s: unexpected error %v", key, err)
		}
		if items[0].ProductID != prodA || items[0].Quantity != 2 {
			t.Fatalf("alias %s: got %+v", key, items[0])
		}
	}
	// legacy quantity key
	items, err := ValidateItems([]map[string]any{item("productId", prodA, "cantidad", 1.0)})
	if err != nil || items[0].Quantity != 1 {
		t.Fatalf("cantidad alias: items=%v err=%v", items, err)
	}
}

func TestValidateItemsBadID(t *testing.T) {
	bad := []string{"", "short", "zzzzzzzzzzzzzzzzzzzzzzzz", prodA + "0"}
	for _, id := range bad {
		_, err := ValidateItems([]map[string]any{item("productId", id, "quantity", 1.0)})
		if err == nil || Classify(err) != KindInvalidInput {
			t.Fatalf("id %q: expected InvalidInput, got %v", id, err)
		}
	}
}

func TestValidateItemsQuantity(t *testing.T) {
	for _, q := range []float64{0, -1, 0.5} {
		_, err := ValidateItems([]map[string]any{item("productId", prodA, "quantity", q)})
		if err == nil || Classify(err) != KindInvalidInput {
			t.Fatalf("quantity %v: expected InvalidInput, got %v", q, err)
		}
	}
	// fractional quantities floor
	items, err := ValidateItems([]map[string]any{item("productId", prodA, "quantity", 2.9)})
	if err != nil || items[0].Quantity != 2 {
		t.Fatalf("expected floor to 2, got %v err=%v", items, err)
	}
	// non-numeric quantity
	_, err = ValidateItems([]map[string]any{item("productId", prodA, "quantity", "3")})
	if err == nil || Classify(err) != KindInvalidInput {
		t.Fatalf("string quantity: expected InvalidInput, got %v", err)
	}
}

func TestValidateItemsFailFast(t *testing.T) {
	raw := []map[string]any{
		item("productId", "bogus", "quantity", 1.0),
		item("productId", prodB, "quantity", 0.0),
	}
	_, err := ValidateItems(raw)
	if err == nil || !strings.Contains(err.Error(), "products[0]") {
		t.Fatalf("expected failure naming the first entry, got %v", err)
	}
}

func TestValidateItemsDuplicatesStay(t *testing.T) {
	raw := []map[string]any{
		item("productId", prodA, "quantity", 1.0),
		item("productId", prodA, "quantity", 2.0),
	}
	items, err := ValidateItems(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Quantity != 1 || items[1].Quantity != 2 {
		t.Fatalf("duplicates must stay independent lines, got %+v", items)
	}
}
