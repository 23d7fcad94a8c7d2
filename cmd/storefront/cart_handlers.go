package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/quantity"
	"finitefield.org/elevates-web/internal/shopper"
)

// cartSidebarHandler opens the cart overlay and renders it.
func (a *app) cartSidebarHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	_ = ws.Overlays.Open(shopper.OverlayCart)
	overlayChanged(mw.Triggers{}, ws).Write(w)
	a.views.Fragment(w, r, "frag_cart_sidebar", buildCartView(ws))
}

// cartItemHandler steps a cart line. The floor is 1; removal is its own action.
func (a *app) cartItemHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	id := chi.URLParam(r, "id")
	line, err := ws.Cart.Get(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var setErr error
	sel := quantity.NewSelector(line.ID, line.Quantity, quantity.CartItemPolicy, func(itemID string, qty int) {
		_, setErr = ws.Cart.SetQuantity(itemID, qty)
	})
	switch chi.URLParam(r, "op") {
	case "inc":
		sel.Increment()
	case "dec":
		sel.Decrement()
	default:
		a.notFound(w, r)
		return
	}
	if setErr != nil {
		a.fail(w, r, setErr)
		return
	}
	cartChanged(mw.Triggers{}, ws).Write(w)
	a.views.Fragment(w, r, "frag_cart_sidebar", buildCartView(ws))
}

func (a *app) cartRemoveHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	id := chi.URLParam(r, "id")
	if err := ws.Cart.Remove(id); err != nil {
		a.fail(w, r, err)
		return
	}
	cartChanged(mw.Triggers{}.Toast("info", "Item removed from cart"), ws).Write(w)
	a.views.Fragment(w, r, "frag_cart_sidebar", buildCartView(ws))
}
