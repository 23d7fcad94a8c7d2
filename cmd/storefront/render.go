package main

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/cart"
	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/httpx"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/nav"
	"finitefield.org/elevates-web/internal/overlay"
	"finitefield.org/elevates-web/internal/requestctx"
	"finitefield.org/elevates-web/internal/seo"
	"finitefield.org/elevates-web/internal/shopper"
	"finitefield.org/elevates-web/internal/views"
)

// StatusView is the payload of the error page.
type StatusView struct {
	Code    int
	Title   string
	Message string
}

var errorMappings = []httpx.Mapping{
	{Target: catalog.ErrProductNotFound, Error: httpx.NewError("product_not_found", "product not found", http.StatusNotFound)},
	{Target: cart.ErrItemNotFound, Error: httpx.NewError("cart_item_not_found", "cart item not found", http.StatusNotFound)},
	{Target: cart.ErrInvalidInput, Error: httpx.NewError("invalid_cart_input", "invalid cart input", http.StatusBadRequest)},
	{Target: overlay.ErrUnknownOverlay, Error: httpx.NewError("overlay_not_found", "overlay not found", http.StatusNotFound)},
}

// workspace returns the shopper state for the current session.
func (a *app) workspace(r *http.Request) *shopper.Workspace {
	return a.shoppers.Get(mw.GetSession(r).ID)
}

// pageData fills the layout fields shared by every page. crumb overrides the label of
// the last breadcrumb.
func (a *app) pageData(r *http.Request, title, crumb string) views.PageData {
	ws := a.workspace(r)
	store := a.catalog.Store
	vm := views.PageData{
		Title:     title,
		Path:      r.URL.Path,
		Nav:       nav.Build(r.URL.Path),
		Store:     store,
		CSRFToken: mw.CSRFToken(r),
		CartCount: ws.Cart.Count(),
	}
	if r.URL.Path != "/" {
		vm.Breadcrumbs = nav.Breadcrumbs(r.URL.Path, crumb)
	}
	vm.SEO.Title = title + " | " + store.Name
	vm.SEO.Description = store.Blurb
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.JSONLD = []template.JS{seo.JSON(seo.Organization(store.Name, baseURL(r)))}
	if len(vm.Breadcrumbs) > 0 {
		vm.JSONLD = append(vm.JSONLD, seo.JSON(seo.BreadcrumbList(baseURL(r), vm.Breadcrumbs)))
	}
	return vm
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}

func absoluteURL(r *http.Request) string {
	return baseURL(r) + r.URL.Path
}

func (a *app) notFound(w http.ResponseWriter, r *http.Request) {
	a.statusPage(w, r, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}

func (a *app) statusPage(w http.ResponseWriter, r *http.Request, code int, title, message string) {
	if mw.IsHTMX(r.Context()) {
		httpx.WriteError(r.Context(), w, httpx.NewError(strings.ReplaceAll(strings.ToLower(title), " ", "_"), message, code))
		return
	}
	vm := a.pageData(r, title, "")
	vm.Breadcrumbs = nil
	vm.SEO.Robots = "noindex, nofollow"
	vm.Status = StatusView{Code: code, Title: title, Message: message}
	a.views.Page(w, r, code, "status", vm)
}

// fail maps domain errors onto an HTTP response and logs anything unexpected.
func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	herr := httpx.FromError(err, errorMappings...)
	if herr.Status >= http.StatusInternalServerError {
		requestctx.Logger(r.Context()).Error("request failed", zap.Error(err))
	}
	if errors.Is(err, catalog.ErrProductNotFound) && !mw.IsHTMX(r.Context()) && r.Method == http.MethodGet {
		a.notFound(w, r)
		return
	}
	httpx.WriteError(r.Context(), w, herr)
}

// cartChanged lets the header badge follow the cart.
func cartChanged(t mw.Triggers, ws *shopper.Workspace) mw.Triggers {
	return t.Add("cart:changed", map[string]int{"count": ws.Cart.Count()})
}

// overlayChanged reports the open overlays so the page can lock scrolling.
func overlayChanged(t mw.Triggers, ws *shopper.Workspace) mw.Triggers {
	return t.Add("overlay:changed", map[string]any{
		"open":         ws.Overlays.OpenNames(),
		"scrollLocked": ws.Overlays.ScrollLocked(),
	})
}
