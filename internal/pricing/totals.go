package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat GST rate applied to the cart subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// ShippingKey identifies a delivery tier.
type ShippingKey string

const (
	ShippingStandard ShippingKey = "standard"
	ShippingExpress  ShippingKey = "express"
)

// LineItem is one product/variant/quantity entry within a cart or order.
type LineItem struct {
	ID        string
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Variant   string
	Color     string
	ImageURL  string
}

// ShippingOption is a named delivery tier with a flat cost.
type ShippingOption struct {
	Key      ShippingKey
	Label    string
	Cost     decimal.Decimal
	ETALabel string
}

// OrderTotals is derived from the line items on every render and never stored.
type OrderTotals struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	TaxAmount    decimal.Decimal
	GrandTotal   decimal.Decimal
	ItemsCount   int
}

// ComputeTotals sums the items and applies shipping and tax. No rounding happens here;
// values are rounded for display only.
func ComputeTotals(items []LineItem, shipping ShippingOption, taxRate decimal.Decimal) OrderTotals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
		count += item.Quantity
	}
	tax := subtotal.Mul(taxRate)
	return OrderTotals{
		Subtotal:     subtotal,
		ShippingCost: shipping.Cost,
		TaxAmount:    tax,
		GrandTotal:   subtotal.Add(shipping.Cost).Add(tax),
		ItemsCount:   count,
	}
}

// LineTotal returns unit price times quantity.
func LineTotal(item LineItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Subtotal sums the line totals without shipping or tax, as shown in the cart sidebar.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineTotal(item))
	}
	return sum
}

// DefaultShippingOptions lists the delivery tiers offered at checkout.
func DefaultShippingOptions() []ShippingOption {
	return []ShippingOption{
		{
			Key:      ShippingStandard,
			Label:    "Standard Shipping",
			Cost:     decimal.NewFromInt(50),
			ETALabel: "4-6 business days",
		},
		{
			Key:      ShippingExpress,
			Label:    "Express Shipping",
			Cost:     decimal.NewFromInt(150),
			ETALabel: "1-2 business days",
		},
	}
}

// NormalizeShippingKey maps free-form input onto a known key, defaulting to standard.
func NormalizeShippingKey(raw string) ShippingKey {
	switch ShippingKey(strings.ToLower(strings.TrimSpace(raw))) {
	case ShippingExpress:
		return ShippingExpress
	default:
		return ShippingStandard
	}
}

// FindShippingOption returns the option registered under key.
func FindShippingOption(options []ShippingOption, key ShippingKey) (ShippingOption, bool) {
	for _, opt := range options {
		if opt.Key == key {
			return opt, true
		}
	}
	return ShippingOption{}, false
}
