package checkout

import "github.com/shopspring/decimal"

// PriceConfig carries the pricing constants. Zero value is not usable; start
// from DefaultPriceConfig or build one from internal/config.
type PriceConfig struct {
	ShippingBase    decimal.Decimal
	ShippingPerItem decimal.Decimal
	ShippingMax     decimal.Decimal
	TaxRate         decimal.Decimal
	Currency        string
}

func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		ShippingBase:    decimal.NewFromFloat(3.50),
		ShippingPerItem: decimal.NewFromFloat(0.50),
		ShippingMax:     decimal.NewFromFloat(20.00),
		TaxRate:         decimal.NewFromFloat(0.15),
		Currency:        "EUR",
	}
}

// Round2 rounds to the cent, half up. Every monetary value is rounded before
// it is aggregated; unrounded fractions never accumulate across lines.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// UnitAfterDiscount applies a percentage discount to a unit price.
func UnitAfterDiscount(unit, discountPct decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return Round2(unit.Mul(hundred.Sub(discountPct)).Div(hundred))
}

// LineTotal prices qty units at the already-discounted unit price.
func LineTotal(unitAfterDiscount decimal.Decimal, qty int) decimal.Decimal {
	return Round2(unitAfterDiscount.Mul(decimal.NewFromInt(int64(qty))))
}

// ShippingCost returns the shipping charge for an order of totalUnits units.
// A non-negative explicit cost wins verbatim; otherwise base + per-item fee
// for every unit past the first, capped at the configured maximum.
func ShippingCost(explicit *decimal.Decimal, totalUnits int, cfg PriceConfig) decimal.Decimal {
	if explicit != nil && !explicit.IsNegative() {
		return Round2(*explicit)
	}
	extra := totalUnits - 1
	if extra < 0 {
		extra = 0
	}
	cost := cfg.ShippingBase.Add(cfg.ShippingPerItem.Mul(decimal.NewFromInt(int64(extra))))
	if cost.GreaterThan(cfg.ShippingMax) {
		cost = cfg.ShippingMax
	}
	return Round2(cost)
}

// Taxes computes the tax on a subtotal.
func Taxes(subtotal, rate decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(rate))
}

// GrandTotal is subtotal + tax + shipping - discount, clamped at zero.
func GrandTotal(subtotal, tax, shipping, discount decimal.Decimal) decimal.Decimal {
	t := subtotal.Add(tax).Add(shipping).Sub(discount)
	if t.IsNegative() {
		t = decimal.Zero
	}
	return Round2(t)
}
