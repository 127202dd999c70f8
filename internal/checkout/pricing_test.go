package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestUnitAfterDiscount(t *testing.T) {
	cases := []struct {
		unit, pct, want string
	}{
		{"10.00", "10", "9.00"},
		{"10.00", "0", "10.00"},
		{"4.99", "25", "3.74"},  // 3.7425 -> 3.74
		{"3.335", "0", "3.34"}, // half up on the cent
		{"19.99", "50", "10.00"}, // 9.995 -> 10.00
	}
	for _, c := range cases {
		got := UnitAfterDiscount(dec(c.unit), dec(c.pct))
		if !got.Equal(dec(c.want)) {
			t.Errorf("UnitAfterDiscount(%s, %s) = %s, want %s", c.unit, c.pct, got, c.want)
		}
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(dec("9.00"), 3); !got.Equal(dec("27.00")) {
		t.Errorf("LineTotal = %s, want 27.00", got)
	}
	// line is rounded before any summation happens elsewhere
	if got := LineTotal(dec("3.335"), 3); !got.Equal(dec("10.01")) {
		t.Errorf("LineTotal = %s, want 10.01", got)
	}
}

func TestShippingCost(t *testing.T) {
	cfg := DefaultPriceConfig()

	cases := []struct {
		name     string
		explicit *decimal.Decimal
		units    int
		want     string
	}{
		{"single unit", nil, 1, "3.50"},
		{"three units", nil, 3, "4.50"},
		{"capped", nil, 100, "20.00"},
		{"zero units", nil, 0, "3.50"},
	}
	for _, c := range cases {
		got := ShippingCost(c.explicit, c.units, cfg)
		if !got.Equal(dec(c.want)) {
			t.Errorf("%s: ShippingCost = %s, want %s", c.name, got, c.want)
		}
	}

	explicit := dec("7.999")
	if got := ShippingCost(&explicit, 50, cfg); !got.Equal(dec("8.00")) {
		t.Errorf("explicit cost = %s, want 8.00", got)
	}
	negative := dec("-1")
	if got := ShippingCost(&negative, 3, cfg); !got.Equal(dec("4.50")) {
		t.Errorf("negative explicit cost should fall back to computed, got %s", got)
	}
}

func TestTaxes(t *testing.T) {
	if got := Taxes(dec("27.00"), dec("0.15")); !got.Equal(dec("4.05")) {
		t.Errorf("Taxes = %s, want 4.05", got)
	}
}

func TestGrandTotal(t *testing.T) {
	got := GrandTotal(dec("27.00"), dec("4.05"), dec("4.50"), dec("0"))
	if !got.Equal(dec("35.55")) {
		t.Errorf("GrandTotal = %s, want 35.55", got)
	}
	// a discount larger than the order clamps at zero
	got = GrandTotal(dec("10.00"), dec("1.50"), dec("3.50"), dec("100.00"))
	if !got.Equal(decimal.Zero) {
		t.Errorf("GrandTotal = %s, want 0", got)
	}
}
