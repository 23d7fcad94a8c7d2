package seo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/nav"
)

func TestProductOfferUsesFixedPrice(t *testing.T) {
	p := catalog.Product{ID: "1", Name: "Tee", Brand: "Elevates", SalePrice: decimal.NewFromInt(299)}
	raw := JSON(Product(p, "https://example.test/products/tee"))

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	offers := decoded["offers"].(map[string]any)
	if offers["price"] != "299.00" || offers["priceCurrency"] != "INR" {
		t.Fatalf("unexpected offer %v", offers)
	}
	if _, ok := decoded["image"]; ok {
		t.Fatalf("image must be omitted when the product has none")
	}
}

func TestJSONEscapesScriptBreakout(t *testing.T) {
	raw := string(JSON(map[string]string{"name": "</script><b>"}))
	if strings.Contains(raw, "</script>") {
		t.Fatalf("expected escaped output, got %s", raw)
	}
}

func TestBreadcrumbListPositions(t *testing.T) {
	list := BreadcrumbList("https://example.test", nav.Breadcrumbs("/profile/orders", ""))
	items := list["itemListElement"].([]map[string]any)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[2]["position"] != 3 || items[2]["item"] != "https://example.test/profile/orders" {
		t.Fatalf("unexpected last item %v", items[2])
	}
}
