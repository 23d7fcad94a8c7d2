package main

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/quantity"
	"finitefield.org/elevates-web/internal/questions"
	"finitefield.org/elevates-web/internal/selection"
	"finitefield.org/elevates-web/internal/shopper"
)

// OptionView is a rendered selection entry.
type OptionView struct {
	ID       string
	Label    string
	Detail   string
	Extra    string
	Href     string
	Hex      string
	Selected bool
}

// CardCounterView is the product card quantity widget.
type CardCounterView struct {
	ProductID string
	Qty       int
	Idle      bool
	CanInc    bool
	CanDec    bool
}

type ProductCardView struct {
	ID            string
	Slug          string
	Name          string
	Brand         string
	Image         string
	Price         string
	OriginalPrice string
	Discount      int
	Counter       CardCounterView
}

// QuantityView is the product page quantity widget.
type QuantityView struct {
	Slug   string
	Qty    int
	Max    int
	CanInc bool
	CanDec bool
}

type QuestionEntry struct {
	Text string
	When string
}

type ProductView struct {
	ID              string
	Slug            string
	Name            string
	Brand           string
	Price           string
	OriginalPrice   string
	Discount        int
	Image           string
	Images          []OptionView
	Size            string
	Sizes           []OptionView
	Color           string
	Colors          []OptionView
	Tab             string
	Tabs            []OptionView
	Details         []catalog.Detail
	Specifications  []catalog.Detail
	DescriptionHTML template.HTML
	Quantity        QuantityView
	Questions       []QuestionEntry
	Related         []ProductCardView
}

type HomeView struct {
	Store       catalog.Store
	NewArrivals []ProductCardView
}

type ProductsView struct {
	Cards []ProductCardView
}

var productTabs = []selection.Option[string]{
	{ID: "description", Label: "Description"},
	{ID: "specification", Label: "Specification"},
	{ID: "qna", Label: "Q&A"},
	{ID: "reviews", Label: "Reviews"},
}

// productQuery is the product page state carried in the URL.
type productQuery struct {
	Size  string
	Color string
	Image string
	Tab   string
	Qty   int
}

func parseProductQuery(p catalog.Product, q url.Values) productQuery {
	pq := productQuery{
		Size:  strings.TrimSpace(q.Get("size")),
		Color: strings.TrimSpace(q.Get("color")),
		Image: strings.TrimSpace(q.Get("image")),
		Tab:   strings.ToLower(strings.TrimSpace(q.Get("tab"))),
		Qty:   1,
	}
	if pq.Size == "" {
		pq.Size = p.DefaultSize()
	}
	if pq.Color == "" {
		pq.Color = p.DefaultColor().Name
	}
	if pq.Image == "" && len(p.Images) > 0 {
		pq.Image = p.Images[0]
	}
	if pq.Tab == "" {
		pq.Tab = "description"
	}
	if n, err := strconv.Atoi(q.Get("qty")); err == nil {
		pq.Qty = n
	}
	pq.Qty = quantity.ProductDetailPolicy.Clamp(pq.Qty)
	return pq
}

func (pq productQuery) href(slug string, mutate func(*productQuery)) string {
	next := pq
	mutate(&next)
	v := url.Values{}
	v.Set("size", next.Size)
	v.Set("color", next.Color)
	v.Set("image", next.Image)
	v.Set("tab", next.Tab)
	v.Set("qty", strconv.Itoa(next.Qty))
	return "/products/" + slug + "?" + v.Encode()
}

// markedViews renders a choice, letting each entry build its own link.
func markedViews(c *selection.Choice[string], href func(id string) string) []OptionView {
	marked := c.Marked()
	out := make([]OptionView, 0, len(marked))
	for _, m := range marked {
		out = append(out, OptionView{
			ID:       m.ID,
			Label:    m.Label,
			Detail:   m.Detail,
			Href:     href(m.ID),
			Selected: m.Selected,
		})
	}
	return out
}

func buildQuantityView(slug string, sel *quantity.Selector) QuantityView {
	return QuantityView{
		Slug:   slug,
		Qty:    sel.Quantity(),
		Max:    sel.Policy().Max,
		CanInc: sel.CanIncrement(),
		CanDec: sel.CanDecrement(),
	}
}

func buildProductView(p catalog.Product, pq productQuery, ws *shopper.Workspace, related []catalog.Product, asked []questions.RecordedQuestion) ProductView {
	sizeOpts := make([]selection.Option[string], 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizeOpts = append(sizeOpts, selection.Option[string]{ID: s, Label: s})
	}
	colorOpts := make([]selection.Option[string], 0, len(p.Colors))
	for _, c := range p.Colors {
		colorOpts = append(colorOpts, selection.Option[string]{ID: c.Name, Label: c.Name, Detail: c.Hex})
	}
	imageOpts := make([]selection.Option[string], 0, len(p.Images))
	for i, img := range p.Images {
		imageOpts = append(imageOpts, selection.Option[string]{ID: img, Label: p.Name + " image " + strconv.Itoa(i+1)})
	}

	sizes := selection.New(sizeOpts, pq.Size)
	colors := selection.New(colorOpts, pq.Color)
	images := selection.New(imageOpts, pq.Image)
	tabs := selection.New(productTabs, pq.Tab)

	vm := ProductView{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Brand:           p.Brand,
		Price:           pricing.FormatMoney(p.SalePrice),
		OriginalPrice:   pricing.FormatMoney(p.OriginalPrice),
		Discount:        p.DiscountPercent(),
		Image:           pq.Image,
		Size:            pq.Size,
		Color:           pq.Color,
		Tab:             pq.Tab,
		Details:         p.Details,
		Specifications:  p.Specifications,
		DescriptionHTML: p.DescriptionHTML,
		Quantity:        buildQuantityView(p.Slug, quantity.NewSelector(p.Slug, pq.Qty, quantity.ProductDetailPolicy, nil)),
		Related:         buildProductCards(related, ws),
	}
	vm.Sizes = markedViews(sizes, func(id string) string {
		return pq.href(p.Slug, func(n *productQuery) { n.Size = id })
	})
	vm.Colors = markedViews(colors, func(id string) string {
		return pq.href(p.Slug, func(n *productQuery) { n.Color = id })
	})
	for i := range vm.Colors {
		vm.Colors[i].Hex = vm.Colors[i].Detail
	}
	vm.Images = markedViews(images, func(id string) string {
		return pq.href(p.Slug, func(n *productQuery) { n.Image = id })
	})
	vm.Tabs = markedViews(tabs, func(id string) string {
		return pq.href(p.Slug, func(n *productQuery) { n.Tab = id })
	})
	for _, q := range asked {
		vm.Questions = append(vm.Questions, QuestionEntry{
			Text: q.Text,
			When: q.Receipt.SubmittedAt.Format("2 Jan 2006"),
		})
	}
	return vm
}

// buildProductCards renders cards with their counters read from the cart.
func buildProductCards(products []catalog.Product, ws *shopper.Workspace) []ProductCardView {
	out := make([]ProductCardView, 0, len(products))
	for _, p := range products {
		out = append(out, ProductCardView{
			ID:            p.ID,
			Slug:          p.Slug,
			Name:          p.Name,
			Brand:         p.Brand,
			Image:         p.Thumbnail,
			Price:         pricing.FormatMoney(p.SalePrice),
			OriginalPrice: pricing.FormatMoney(p.OriginalPrice),
			Discount:      p.DiscountPercent(),
			Counter:       buildCardCounter(p.ID, cardSelector(p.ID, ws)),
		})
	}
	return out
}

// cardSelector reads a product card counter from the card's cart line.
func cardSelector(productID string, ws *shopper.Workspace) *quantity.Selector {
	current := 0
	if line, ok := ws.Cart.Find(productID, "", ""); ok {
		current = line.Quantity
	}
	return quantity.NewSelector(productID, current, quantity.ProductCardPolicy, nil)
}

func buildCardCounter(productID string, sel *quantity.Selector) CardCounterView {
	return CardCounterView{
		ProductID: productID,
		Qty:       sel.Quantity(),
		Idle:      sel.State() == quantity.Idle,
		CanInc:    sel.CanIncrement(),
		CanDec:    sel.CanDecrement(),
	}
}
