// Package catalog loads the storefront's products and account fixtures from YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrProductNotFound is returned when a slug or id does not resolve.
var ErrProductNotFound = errors.New("catalog: product not found")

// Detail is a label/value row on the product page.
type Detail struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Color is a selectable product color.
type Color struct {
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
}

// Product is one sellable item.
type Product struct {
	ID              string
	Slug            string
	Brand           string
	Name            string
	Thumbnail       string
	Images          []string
	SalePrice       decimal.Decimal
	OriginalPrice   decimal.Decimal
	Sizes           []string
	Colors          []Color
	Details         []Detail
	Specifications  []Detail
	Description     string
	DescriptionHTML template.HTML
	RelatedIDs      []string
}

// DefaultSize is the second size when there is one, matching the most common fit.
func (p Product) DefaultSize() string {
	switch len(p.Sizes) {
	case 0:
		return ""
	case 1:
		return p.Sizes[0]
	default:
		return p.Sizes[1]
	}
}

// DefaultColor is the first listed color.
func (p Product) DefaultColor() Color {
	if len(p.Colors) == 0 {
		return Color{}
	}
	return p.Colors[0]
}

// HasSize reports whether size is offered.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ColorByName finds a color case-insensitively.
func (p Product) ColorByName(name string) (Color, bool) {
	for _, c := range p.Colors {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Color{}, false
}

// DiscountPercent is the whole-number markdown from the original price.
func (p Product) DiscountPercent() int {
	if !p.OriginalPrice.IsPositive() || p.SalePrice.GreaterThanOrEqual(p.OriginalPrice) {
		return 0
	}
	off := p.OriginalPrice.Sub(p.SalePrice).Div(p.OriginalPrice).Shift(2)
	return int(off.Round(0).IntPart())
}

// Store is the brand copy used by the home page.
type Store struct {
	Name      string `yaml:"name"`
	Tagline   string `yaml:"tagline"`
	Headline  string `yaml:"headline"`
	Blurb     string `yaml:"blurb"`
	HeroImage string `yaml:"heroImage"`
}

// SavedAddress is a pre-existing shopper address.
type SavedAddress struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Line    string `yaml:"line"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Pincode string `yaml:"pincode"`
	Kind    string `yaml:"kind"`
}

// OrderItem is a line on a past order.
type OrderItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Image    string
}

// Order is a past order shown on the profile page.
type Order struct {
	ID     string
	Date   string
	Status string
	Items  []OrderItem
	Total  decimal.Decimal
}

// PaymentMethod is a saved card.
type PaymentMethod struct {
	ID     string `yaml:"id"`
	Brand  string `yaml:"brand"`
	Last4  string `yaml:"last4"`
	Expiry string `yaml:"expiry"`
}

// Account is the signed-in shopper shown on the profile page.
type Account struct {
	Name           string
	Email          string
	MemberSince    string
	WishlistCount  int
	Addresses      []SavedAddress
	Orders         []Order
	PaymentMethods []PaymentMethod
}

// PendingOrders counts orders still processing.
func (a Account) PendingOrders() int {
	n := 0
	for _, o := range a.Orders {
		if o.Status == "Processing" {
			n++
		}
	}
	return n
}

// Catalog is read-only after Load.
type Catalog struct {
	Store           Store
	Account         Account
	PopularSearches []string

	products    []Product
	bySlug      map[string]int
	byID        map[string]int
	newArrivals []string
}

type rawProduct struct {
	ID             string   `yaml:"id"`
	Slug           string   `yaml:"slug"`
	Brand          string   `yaml:"brand"`
	Name           string   `yaml:"name"`
	Thumbnail      string   `yaml:"thumbnail"`
	Images         []string `yaml:"images"`
	SalePrice      string   `yaml:"salePrice"`
	OriginalPrice  string   `yaml:"originalPrice"`
	Sizes          []string `yaml:"sizes"`
	Colors         []Color  `yaml:"colors"`
	Details        []Detail `yaml:"details"`
	Specifications []Detail `yaml:"specifications"`
	Description    string   `yaml:"description"`
	Related        []string `yaml:"related"`
}

type rawOrderItem struct {
	Name     string `yaml:"name"`
	Quantity int    `yaml:"quantity"`
	Price    string `yaml:"price"`
	Image    string `yaml:"image"`
}

type rawOrder struct {
	ID     string         `yaml:"id"`
	Date   string         `yaml:"date"`
	Status string         `yaml:"status"`
	Items  []rawOrderItem `yaml:"items"`
}

type rawCatalog struct {
	Store           Store        `yaml:"store"`
	Products        []rawProduct `yaml:"products"`
	NewArrivals     []string     `yaml:"newArrivals"`
	PopularSearches []string     `yaml:"popularSearches"`
	Account         struct {
		Name           string          `yaml:"name"`
		Email          string          `yaml:"email"`
		MemberSince    string          `yaml:"memberSince"`
		WishlistCount  int             `yaml:"wishlistCount"`
		Addresses      []SavedAddress  `yaml:"addresses"`
		Orders         []rawOrder      `yaml:"orders"`
		PaymentMethods []PaymentMethod `yaml:"paymentMethods"`
	} `yaml:"account"`
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// LoadFile loads a catalog from disk, falling back to the embedded one when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses YAML catalog data.
func Load(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy := newDescriptionPolicy()

	c := &Catalog{
		Store:           raw.Store,
		PopularSearches: raw.PopularSearches,
		bySlug:          make(map[string]int, len(raw.Products)),
		byID:            make(map[string]int, len(raw.Products)),
		newArrivals:     raw.NewArrivals,
	}
	for i, rp := range raw.Products {
		p, err := rp.toProduct(md, policy)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %d: %w", i, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate product slug %q", p.Slug)
		}
		c.byID[p.ID] = len(c.products)
		c.bySlug[p.Slug] = len(c.products)
		c.products = append(c.products, p)
	}

	acct := Account{
		Name:           raw.Account.Name,
		Email:          raw.Account.Email,
		MemberSince:    raw.Account.MemberSince,
		WishlistCount:  raw.Account.WishlistCount,
		Addresses:      raw.Account.Addresses,
		PaymentMethods: raw.Account.PaymentMethods,
	}
	for _, ro := range raw.Account.Orders {
		order := Order{ID: ro.ID, Date: ro.Date, Status: ro.Status, Total: decimal.Zero}
		for _, ri := range ro.Items {
			price, err := decimal.NewFromString(strings.TrimSpace(ri.Price))
			if err != nil {
				return nil, fmt.Errorf("catalog: order %s price: %w", ro.ID, err)
			}
			order.Items = append(order.Items, OrderItem{Name: ri.Name, Quantity: ri.Quantity, Price: price, Image: ri.Image})
			order.Total = order.Total.Add(price.Mul(decimal.NewFromInt(int64(ri.Quantity))))
		}
		acct.Orders = append(acct.Orders, order)
	}
	c.Account = acct
	return c, nil
}

func (rp rawProduct) toProduct(md goldmark.Markdown, policy *bluemonday.Policy) (Product, error) {
	id := strings.TrimSpace(rp.ID)
	slug := strings.TrimSpace(rp.Slug)
	if id == "" || slug == "" {
		return Product{}, errors.New("id and slug are required")
	}
	sale, err := decimal.NewFromString(strings.TrimSpace(rp.SalePrice))
	if err != nil {
		return Product{}, fmt.Errorf("sale price: %w", err)
	}
	original := sale
	if strings.TrimSpace(rp.OriginalPrice) != "" {
		if original, err = decimal.NewFromString(strings.TrimSpace(rp.OriginalPrice)); err != nil {
			return Product{}, fmt.Errorf("original price: %w", err)
		}
	}
	descHTML, err := renderDescription(md, policy, rp.Description)
	if err != nil {
		return Product{}, err
	}
	thumb := rp.Thumbnail
	if thumb == "" && len(rp.Images) > 0 {
		thumb = rp.Images[0]
	}
	return Product{
		ID:              id,
		Slug:            slug,
		Brand:           rp.Brand,
		Name:            rp.Name,
		Thumbnail:       thumb,
		Images:          rp.Images,
		SalePrice:       sale,
		OriginalPrice:   original,
		Sizes:           rp.Sizes,
		Colors:          rp.Colors,
		Details:         rp.Details,
		Specifications:  rp.Specifications,
		Description:     rp.Description,
		DescriptionHTML: descHTML,
		RelatedIDs:      rp.Related,
	}, nil
}

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

func renderDescription(md goldmark.Markdown, policy *bluemonday.Policy, src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("description: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks a product up by slug.
func (c *Catalog) Product(slug string) (Product, error) {
	idx, ok := c.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, slug)
	}
	return c.products[idx], nil
}

// ProductByID looks a product up by id.
func (c *Catalog) ProductByID(id string) (Product, error) {
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, fmt.Errorf("%w: id %q", ErrProductNotFound, id)
	}
	return c.products[idx], nil
}

// NewArrivals lists the featured products for the home page. Unknown ids are skipped.
func (c *Catalog) NewArrivals() []Product {
	return c.resolve(c.newArrivals, "")
}

// Related lists products linked from p, never p itself.
func (c *Catalog) Related(p Product) []Product {
	return c.resolve(p.RelatedIDs, p.ID)
}

func (c *Catalog) resolve(ids []string, exclude string) []Product {
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if idx, ok := c.byID[id]; ok {
			out = append(out, c.products[idx])
		}
	}
	return out
}

// Search matches every whitespace-separated term against the product name and brand.
// Results keep catalog order. A blank query matches nothing.
func (c *Catalog) Search(query string) []Product {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}
	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i, p := range c.products {
		haystack := strings.ToLower(p.Name + " " + p.Brand)
		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		score := 0
		if strings.HasPrefix(strings.ToLower(p.Name), terms[0]) {
			score = 1
		}
		hits = append(hits, hit{idx: i, score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	out := make([]Product, len(hits))
	for i, h := range hits {
		out[i] = c.products[h.idx]
	}
	return out
}
