package views

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/nav"
)

func TestEmbeddedTemplatesParse(t *testing.T) {
	r, err := New("", true)
	require.NoError(t, err)
	require.False(t, r.reload, "embedded templates never reload")
	for _, page := range []string{"home", "products", "product", "checkout", "profile", "login", "status"} {
		require.Contains(t, r.set.pages, page)
	}
}

func TestFragmentRendersCounterState(t *testing.T) {
	r, err := New("", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.Fragment(rec, httptest.NewRequest(http.MethodPost, "/", nil), "frag_card_counter", map[string]any{
		"ProductID": "1", "Qty": 5, "Idle": false, "CanInc": false, "CanDec": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "active", doc.Find("#card-counter-1").AttrOr("data-state", ""))
	require.Equal(t, "5", doc.Find(".qty").Text())
	_, disabled := doc.Find("button.inc").Attr("disabled")
	require.True(t, disabled)
}

func TestPageRendersLayout(t *testing.T) {
	r, err := New("", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.Page(rec, httptest.NewRequest(http.MethodGet, "/missing", nil), http.StatusNotFound, "status", PageData{
		Title:     "Not Found",
		Nav:       nav.Build("/missing"),
		Store:     catalog.Store{Name: "Elevates"},
		CSRFToken: "tok",
		CartCount: 3,
		Status:    map[string]any{"Code": 404, "Title": "Page not found", "Message": "Nothing here."},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "Not Found | Elevates", doc.Find("title").Text())
	require.Equal(t, "3", doc.Find("#cart-count").Text())
	require.Contains(t, doc.Find("body").AttrOr("hx-headers", ""), "tok")
	require.Contains(t, doc.Find(".status-page").Text(), "Page not found")
}

func TestUnknownPageFails(t *testing.T) {
	r, err := New("", false)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	r.Page(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "nope", PageData{})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReloadPicksUpEdits(t *testing.T) {
	sub, err := fs.Sub(embedded, "templates")
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, sub))

	r, err := New(dir, true)
	require.NoError(t, err)

	page := filepath.Join(dir, "pages", "products.tmpl")
	require.NoError(t, os.WriteFile(page, []byte(`{{define "content"}}<p id="edited">edited</p>{{end}}`), 0o644))

	rec := httptest.NewRecorder()
	r.Page(rec, httptest.NewRequest(http.MethodGet, "/products", nil), http.StatusOK, "products", PageData{})
	require.Contains(t, rec.Body.String(), `id="edited"`)
}

func TestMoneyFunc(t *testing.T) {
	money := Funcs()["money"].(func(decimal.Decimal) string)
	require.Equal(t, "₹1,108.46", money(decimal.RequireFromString("1108.46")))
}
