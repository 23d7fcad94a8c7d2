package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/overlay"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/shopper"
)

// overlayOpenHandler opens an overlay on the shopper's stack and renders its fragment.
func (a *app) overlayOpenHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	name := chi.URLParam(r, "name")

	var render func()
	switch name {
	case shopper.OverlayAddress:
		render = func() {
			a.views.Fragment(w, r, "frag_address_modal", AddressModalView{Values: ws.AddressForm.Values()})
		}
	case shopper.OverlayQuestion:
		p, err := a.catalog.Product(r.URL.Query().Get("product"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		render = func() {
			a.views.Fragment(w, r, "frag_question_modal", questionModalView(p, ws.QuestionForm.Values()))
		}
	case shopper.OverlaySearch:
		render = func() {
			a.views.Fragment(w, r, "frag_search_modal", a.buildSearchView(""))
		}
	case shopper.OverlayCart:
		render = func() {
			a.views.Fragment(w, r, "frag_cart_sidebar", buildCartView(ws))
		}
	default:
		a.fail(w, r, overlay.ErrUnknownOverlay)
		return
	}
	if err := ws.Overlays.Open(name); err != nil {
		a.fail(w, r, err)
		return
	}
	overlayChanged(mw.Triggers{}, ws).Write(w)
	render()
}

// overlayCloseHandler handles close buttons and backdrop clicks. The swap empties the slot.
func (a *app) overlayCloseHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	if err := ws.Overlays.ClickBackdrop(chi.URLParam(r, "name")); err != nil {
		a.fail(w, r, err)
		return
	}
	overlayChanged(mw.Triggers{}, ws).Write(w)
	w.WriteHeader(http.StatusOK)
}

// overlayEscapeHandler routes Escape to the topmost open overlay only and retargets the
// swap at its slot. With nothing open there is nothing to swap.
func (a *app) overlayEscapeHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	name, ok := ws.Overlays.HandleKey(overlay.KeyEscape)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("HX-Retarget", "#overlay-"+name)
	w.Header().Set("HX-Reswap", "innerHTML")
	overlayChanged(mw.Triggers{}, ws).Write(w)
	w.WriteHeader(http.StatusOK)
}

// SearchView is the search modal and its results.
type SearchView struct {
	Query    string
	Popular  []string
	Results  []SearchResultView
	Searched bool
}

type SearchResultView struct {
	Name  string
	Brand string
	Href  string
	Image string
	Price string
}

func (a *app) buildSearchView(query string) SearchView {
	query = strings.TrimSpace(query)
	view := SearchView{Query: query, Popular: a.catalog.PopularSearches, Searched: query != ""}
	for _, p := range a.catalog.Search(query) {
		view.Results = append(view.Results, SearchResultView{
			Name:  p.Name,
			Brand: p.Brand,
			Href:  "/products/" + p.Slug,
			Image: p.Thumbnail,
			Price: pricing.FormatMoney(p.SalePrice),
		})
	}
	return view
}

func (a *app) searchHandler(w http.ResponseWriter, r *http.Request) {
	a.views.Fragment(w, r, "frag_search_results", a.buildSearchView(r.URL.Query().Get("q")))
}
