package main

import (
	"strings"

	"github.com/shopspring/decimal"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/forms"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/selection"
	"finitefield.org/elevates-web/internal/shopper"
)

// AddressListView is the selectable address list shared by checkout and profile.
type AddressListView struct {
	Options []OptionView
	Valid   bool
	OOB     bool
}

// ShippingListView is the shipping method list. Summary is set when the order summary
// should be swapped out of band alongside it.
type ShippingListView struct {
	Options []OptionView
	Summary *SummaryView
}

type BillingView struct {
	Different bool
}

// AddressModalView is the "Add New Address" modal.
type AddressModalView struct {
	Values  forms.Address
	Errors  map[string]string
	Summary string
}

type CheckoutView struct {
	Addresses AddressListView
	Shipping  ShippingListView
	Billing   BillingView
	Email     string
	Summary   SummaryView
	PayLabel  string
}

// addressOptions merges the account's saved addresses with those added this session,
// newest session entries first.
func addressOptions(account catalog.Account, sess *mw.SessionData) []selection.Option[string] {
	opts := make([]selection.Option[string], 0, len(sess.Checkout.Addresses)+len(account.Addresses))
	for _, a := range sess.Checkout.Addresses {
		opts = append(opts, selection.Option[string]{
			ID:     a.ID,
			Label:  a.FullName,
			Detail: formatAddress(forms.Address{Flat: a.Flat, Area: a.Area}.Line(), a.City, a.State, a.Pincode),
		})
	}
	for _, a := range account.Addresses {
		opts = append(opts, selection.Option[string]{
			ID:     a.ID,
			Label:  a.Name,
			Detail: formatAddress(a.Line, a.City, a.State, a.Pincode),
		})
	}
	return opts
}

func formatAddress(line, city, state, pincode string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{line, city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	tail := strings.TrimSpace(state + " - " + pincode)
	if state == "" || pincode == "" {
		tail = strings.Trim(tail, " -")
	}
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// addressChoice is the address selection. Without a stored id the first address is chosen.
func addressChoice(account catalog.Account, sess *mw.SessionData) *selection.Choice[string] {
	opts := addressOptions(account, sess)
	current := sess.Checkout.AddressID
	if current == "" && len(opts) > 0 {
		current = opts[0].ID
	}
	return selection.New(opts, current)
}

func buildAddressList(account catalog.Account, sess *mw.SessionData) AddressListView {
	choice := addressChoice(account, sess)
	kinds := make(map[string]string, len(account.Addresses))
	for _, a := range account.Addresses {
		kinds[a.ID] = a.Kind
	}
	out := markedViews(choice, func(string) string { return "" })
	for i := range out {
		out[i].Extra = kinds[out[i].ID]
	}
	return AddressListView{Options: out, Valid: choice.Valid()}
}

func shippingChoice(options []pricing.ShippingOption, sess *mw.SessionData) (*selection.Choice[pricing.ShippingKey], pricing.ShippingOption) {
	opts := make([]selection.Option[pricing.ShippingKey], 0, len(options))
	for _, o := range options {
		opts = append(opts, selection.Option[pricing.ShippingKey]{ID: o.Key, Label: o.Label, Detail: o.ETALabel})
	}
	key := pricing.NormalizeShippingKey(sess.Checkout.ShippingMethod)
	choice := selection.New(opts, key)
	selected, ok := pricing.FindShippingOption(options, key)
	if !ok && len(options) > 0 {
		selected = options[0]
	}
	return choice, selected
}

func buildShippingList(options []pricing.ShippingOption, sess *mw.SessionData) (ShippingListView, pricing.ShippingOption) {
	choice, selected := shippingChoice(options, sess)
	costs := make(map[pricing.ShippingKey]decimal.Decimal, len(options))
	for _, o := range options {
		costs[o.Key] = o.Cost
	}
	marked := choice.Marked()
	out := make([]OptionView, 0, len(marked))
	for _, m := range marked {
		out = append(out, OptionView{
			ID:       string(m.ID),
			Label:    m.Label,
			Detail:   m.Detail,
			Extra:    pricing.FormatMoney(costs[m.ID]),
			Selected: m.Selected,
		})
	}
	return ShippingListView{Options: out}, selected
}

func (a *app) buildCheckoutView(sess *mw.SessionData, ws *shopper.Workspace) CheckoutView {
	shipping, selected := buildShippingList(a.shipping, sess)
	summary := buildSummaryView(ws.Cart.Items(), selected, a.taxRate)
	return CheckoutView{
		Addresses: buildAddressList(a.catalog.Account, sess),
		Shipping:  shipping,
		Billing:   BillingView{Different: sess.Checkout.BillingDifferent},
		Email:     sess.Checkout.Email,
		Summary:   summary,
		PayLabel:  "Pay " + summary.Total,
	}
}
