package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	return c
}

func TestDefaultCatalogLoads(t *testing.T) {
	c := mustDefault(t)
	if got := len(c.Products()); got != 4 {
		t.Fatalf("expected 4 products, got %d", got)
	}
	if got := len(c.NewArrivals()); got != 4 {
		t.Fatalf("expected 4 new arrivals, got %d", got)
	}
	if len(c.PopularSearches) != 14 {
		t.Fatalf("expected 14 popular searches, got %d", len(c.PopularSearches))
	}
	if c.Store.Name != "Elevates" {
		t.Fatalf("unexpected store %+v", c.Store)
	}
}

func TestProductDefaultsAndPricing(t *testing.T) {
	c := mustDefault(t)
	p, err := c.Product("stay-wild-stay-free-wolf-graphic-t-shirt")
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if p.DefaultSize() != "M" {
		t.Fatalf("expected default size M, got %q", p.DefaultSize())
	}
	if p.DefaultColor().Name != "Sage Green" {
		t.Fatalf("expected default color Sage Green, got %+v", p.DefaultColor())
	}
	if !p.SalePrice.Equal(decimal.NewFromInt(299)) {
		t.Fatalf("unexpected sale price %s", p.SalePrice)
	}
	if p.DiscountPercent() != 50 {
		t.Fatalf("expected 50%% off, got %d", p.DiscountPercent())
	}
	if _, ok := p.ColorByName("black"); !ok {
		t.Fatalf("expected case-insensitive color lookup")
	}
	if !p.HasSize("XXL") || p.HasSize("XS") {
		t.Fatalf("unexpected size membership")
	}
}

func TestDescriptionIsRenderedAndSanitized(t *testing.T) {
	c, err := Load([]byte(`
products:
  - id: "9"
    slug: test
    name: Test
    salePrice: "10"
    description: |
      **bold** <script>alert(1)</script> [link](https://example.com)
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, _ := c.Product("test")
	html := string(p.DescriptionHTML)
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Fatalf("expected markdown rendered, got %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script stripped, got %s", html)
	}
	if !strings.Contains(html, `rel="nofollow"`) {
		t.Fatalf("expected nofollow links, got %s", html)
	}
	if !p.OriginalPrice.Equal(p.SalePrice) {
		t.Fatalf("original price should default to sale price")
	}
}

func TestLoadRejectsBadData(t *testing.T) {
	cases := map[string]string{
		"missing slug": "products:\n  - id: \"1\"\n    salePrice: \"1\"\n",
		"bad price":    "products:\n  - id: \"1\"\n    slug: a\n    salePrice: abc\n",
		"duplicate id": "products:\n  - {id: \"1\", slug: a, salePrice: \"1\"}\n  - {id: \"1\", slug: b, salePrice: \"1\"}\n",
	}
	for name, doc := range cases {
		if _, err := Load([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLookupMisses(t *testing.T) {
	c := mustDefault(t)
	if _, err := c.Product("nope"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := c.ProductByID("99"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestRelatedExcludesSelf(t *testing.T) {
	c := mustDefault(t)
	p, _ := c.ProductByID("3")
	related := c.Related(p)
	if len(related) != 3 {
		t.Fatalf("expected 3 related, got %d", len(related))
	}
	for _, r := range related {
		if r.ID == p.ID {
			t.Fatalf("related list contains the product itself")
		}
	}
}

func TestSearch(t *testing.T) {
	c := mustDefault(t)
	if got := c.Search("   "); got != nil {
		t.Fatalf("blank query should match nothing, got %d", len(got))
	}
	got := c.Search("typography t-shirt")
	if len(got) != 2 {
		t.Fatalf("expected 2 typography tees, got %d", len(got))
	}
	got = c.Search("wolf")
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("expected wolf tee, got %+v", got)
	}
}

func TestAccountFixtures(t *testing.T) {
	c := mustDefault(t)
	if len(c.Account.Orders) != 2 || c.Account.PendingOrders() != 1 {
		t.Fatalf("unexpected orders %+v", c.Account.Orders)
	}
	if !c.Account.Orders[0].Total.Equal(decimal.NewFromInt(599)) {
		t.Fatalf("expected first order total 599, got %s", c.Account.Orders[0].Total)
	}
	if len(c.Account.Addresses) != 2 || c.Account.Addresses[0].ID != "addr-1" {
		t.Fatalf("unexpected addresses %+v", c.Account.Addresses)
	}
}
