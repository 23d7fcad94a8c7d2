package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/forms"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/requestctx"
	"finitefield.org/elevates-web/internal/shopper"
)

// checkoutHandler renders addresses, shipping, billing and the order summary.
func (a *app) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	ws := a.workspace(r)
	vm := a.pageData(r, "Checkout", "")
	vm.SEO.Robots = "noindex, nofollow"
	vm.Checkout = a.buildCheckoutView(sess, ws)
	a.views.Page(w, r, http.StatusOK, "checkout", vm)
}

// checkoutAddressHandler stores the chosen address id. An id that matches no address is
// kept as sent; the list then marks nothing and payment is refused.
func (a *app) checkoutAddressHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := mw.GetSession(r)
	id := strings.TrimSpace(r.PostForm.Get("id"))
	sess.Checkout.AddressID = id
	sess.MarkDirty()
	requestctx.Logger(r.Context()).Info("address selected", zap.String("address_id", id))
	a.views.Fragment(w, r, "frag_checkout_addresses", buildAddressList(a.catalog.Account, sess))
}

// checkoutShippingHandler stores the shipping method and swaps the summary out of band.
func (a *app) checkoutShippingHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := mw.GetSession(r)
	key := pricing.NormalizeShippingKey(r.PostForm.Get("method"))
	sess.Checkout.ShippingMethod = string(key)
	sess.MarkDirty()
	requestctx.Logger(r.Context()).Info("shipping method selected", zap.String("method", string(key)))

	view, selected := buildShippingList(a.shipping, sess)
	summary := buildSummaryView(a.workspace(r).Cart.Items(), selected, a.taxRate)
	summary.OOB = true
	view.Summary = &summary
	a.views.Fragment(w, r, "frag_checkout_shipping", view)
}

func (a *app) checkoutBillingHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := mw.GetSession(r)
	sess.Checkout.BillingDifferent = r.PostForm.Get("same") != "true"
	sess.MarkDirty()
	a.views.Fragment(w, r, "frag_checkout_billing", BillingView{Different: sess.Checkout.BillingDifferent})
}

// checkoutPayHandler logs the order request. No payment is taken.
func (a *app) checkoutPayHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := mw.GetSession(r)
	ws := a.workspace(r)
	email := strings.TrimSpace(r.PostForm.Get("email"))
	if err := forms.ValidateEmail(email); err != nil {
		mw.Triggers{}.Toast("error", err.Error()).Write(w)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	if ws.Cart.IsEmpty() {
		mw.Triggers{}.Toast("error", "Your cart is empty.").Write(w)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	choice := addressChoice(a.catalog.Account, sess)
	if !choice.Valid() {
		mw.Triggers{}.Toast("error", "Please select a delivery address.").Write(w)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	if email != sess.Checkout.Email {
		sess.Checkout.Email = email
		sess.MarkDirty()
	}

	_, shipping := shippingChoice(a.shipping, sess)
	totals := ws.Cart.Totals(shipping, a.taxRate)
	requestctx.Logger(r.Context()).Info("order requested",
		zap.String("address_id", choice.Selected()),
		zap.String("shipping", string(shipping.Key)),
		zap.Bool("billing_different", sess.Checkout.BillingDifferent),
		zap.String("email", email),
		zap.Int("items", totals.ItemsCount),
		zap.String("subtotal", totals.Subtotal.StringFixed(2)),
		zap.String("tax", totals.TaxAmount.StringFixed(2)),
		zap.String("total", totals.GrandTotal.StringFixed(2)),
	)
	mw.Triggers{}.Toast("info", "Order request received for "+pricing.FormatMoney(totals.GrandTotal)+". Payment is not taken online yet.").Write(w)
	w.WriteHeader(http.StatusNoContent)
}

// addressSubmitHandler validates the address modal. Invalid input re-renders the modal with
// the typed values; a valid address is saved to the session, selected, and the modal closes.
func (a *app) addressSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := mw.GetSession(r)
	ws := a.workspace(r)
	input := forms.ParseAddress(r.PostForm)
	ws.AddressForm.SetValues(input)

	err := ws.AddressForm.Submit(func(typed forms.Address) {
		addr := typed.Normalized()
		saved := mw.SessionAddress{
			ID:        ulid.Make().String(),
			FullName:  addr.FullName,
			Mobile:    addr.Mobile,
			Flat:      addr.Flat,
			Area:      addr.Area,
			Pincode:   addr.Pincode,
			City:      addr.City,
			State:     addr.State,
			CreatedAt: time.Now().UTC(),
		}
		sess.UpsertAddress(saved)
		sess.Checkout.AddressID = saved.ID
		requestctx.Logger(r.Context()).Info("address added",
			zap.String("address_id", saved.ID),
			zap.String("city", saved.City),
			zap.String("pincode", saved.Pincode),
		)
	})
	if err != nil {
		mw.Triggers{}.Toast("error", forms.RequiredFieldsMessage).Write(w)
		a.views.Fragment(w, r, "frag_address_modal", AddressModalView{
			Values:  input,
			Errors:  forms.FieldErrors(err),
			Summary: forms.RequiredFieldsMessage,
		})
		return
	}

	_ = ws.Overlays.Close(shopper.OverlayAddress)
	list := buildAddressList(a.catalog.Account, sess)
	list.OOB = true
	overlayChanged(mw.Triggers{}.Toast("success", "Address saved"), ws).Write(w)
	a.views.Fragment(w, r, "frag_checkout_addresses", list)
}
