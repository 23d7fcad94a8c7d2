package main

import (
	"github.com/shopspring/decimal"

	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/quantity"
	"finitefield.org/elevates-web/internal/shopper"
)

type CartLineView struct {
	ID        string
	Name      string
	Variant   string
	Color     string
	Image     string
	UnitPrice string
	LineTotal string
	Qty       int
	CanDec    bool
}

// CartView is the cart sidebar.
type CartView struct {
	Lines    []CartLineView
	Count    int
	Subtotal string
	Empty    bool
}

// SummaryView is the checkout order summary. OOB marks an out-of-band htmx swap.
type SummaryView struct {
	Lines         []CartLineView
	ItemsCount    int
	Subtotal      string
	Shipping      string
	ShippingLabel string
	TaxLabel      string
	Tax           string
	Total         string
	Empty         bool
	OOB           bool
}

func buildCartLines(items []pricing.LineItem) []CartLineView {
	lines := make([]CartLineView, 0, len(items))
	for _, it := range items {
		sel := quantity.NewSelector(it.ID, it.Quantity, quantity.CartItemPolicy, nil)
		lines = append(lines, CartLineView{
			ID:        it.ID,
			Name:      it.Name,
			Variant:   it.Variant,
			Color:     it.Color,
			Image:     it.ImageURL,
			UnitPrice: pricing.FormatMoney(it.UnitPrice),
			LineTotal: pricing.FormatMoney(pricing.LineTotal(it)),
			Qty:       it.Quantity,
			CanDec:    sel.CanDecrement(),
		})
	}
	return lines
}

func buildCartView(ws *shopper.Workspace) CartView {
	items := ws.Cart.Items()
	return CartView{
		Lines:    buildCartLines(items),
		Count:    ws.Cart.Count(),
		Subtotal: pricing.FormatMoney(pricing.Subtotal(items)),
		Empty:    len(items) == 0,
	}
}

func buildSummaryView(items []pricing.LineItem, shipping pricing.ShippingOption, taxRate decimal.Decimal) SummaryView {
	totals := pricing.ComputeTotals(items, shipping, taxRate)
	return SummaryView{
		Lines:         buildCartLines(items),
		ItemsCount:    totals.ItemsCount,
		Subtotal:      pricing.FormatMoney(totals.Subtotal),
		Shipping:      pricing.FormatMoney(totals.ShippingCost),
		ShippingLabel: shipping.Label,
		TaxLabel:      "Tax (" + pricing.FormatPercent(taxRate) + ")",
		Tax:           pricing.FormatMoney(totals.TaxAmount),
		Total:         pricing.FormatMoney(totals.GrandTotal),
		Empty:         len(items) == 0,
	}
}
