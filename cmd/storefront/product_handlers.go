package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/cart"
	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/forms"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/quantity"
	"finitefield.org/elevates-web/internal/questions"
	"finitefield.org/elevates-web/internal/requestctx"
	"finitefield.org/elevates-web/internal/seo"
	"finitefield.org/elevates-web/internal/shopper"
)

// homeHandler renders the hero and new arrivals.
func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(r)
	vm := a.pageData(r, a.catalog.Store.Tagline, "")
	vm.Home = HomeView{
		Store:       a.catalog.Store,
		NewArrivals: buildProductCards(a.catalog.NewArrivals(), ws),
	}
	a.views.Page(w, r, http.StatusOK, "home", vm)
}

func (a *app) productsHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.pageData(r, "All Products", "")
	vm.Products = ProductsView{Cards: buildProductCards(a.catalog.Products(), a.workspace(r))}
	a.views.Page(w, r, http.StatusOK, "products", vm)
}

func (a *app) productFromURL(r *http.Request) (catalog.Product, error) {
	return a.catalog.Product(chi.URLParam(r, "product"))
}

// productHandler renders the product page. Size, color, image, tab and quantity come from
// the query string so every selection is a plain link.
func (a *app) productHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.productFromURL(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ws := a.workspace(r)
	var asked []questions.RecordedQuestion
	if a.asked != nil {
		asked = a.asked.ForProduct(p.ID)
	}
	view := buildProductView(p, parseProductQuery(p, r.URL.Query()), ws, a.catalog.Related(p), asked)

	vm := a.pageData(r, p.Name, p.Name)
	vm.SEO.Description = p.Brand + " · " + p.Name
	vm.SEO.OG.Type = "product"
	if len(p.Images) > 0 {
		vm.SEO.OG.Image = p.Images[0]
	}
	vm.JSONLD = append(vm.JSONLD, seo.JSON(seo.Product(p, absoluteURL(r))))
	vm.Product = view
	a.views.Page(w, r, http.StatusOK, "product", vm)
}

// productQuantityFrag steps the product page counter within 1..10.
func (a *app) productQuantityFrag(w http.ResponseWriter, r *http.Request) {
	p, err := a.productFromURL(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	qty, _ := strconv.Atoi(r.URL.Query().Get("qty"))
	sel := quantity.NewSelector(p.Slug, quantity.ProductDetailPolicy.Clamp(qty), quantity.ProductDetailPolicy, nil)
	switch strings.ToLower(r.URL.Query().Get("op")) {
	case "inc":
		sel.Increment()
	case "dec":
		sel.Decrement()
	}
	a.views.Fragment(w, r, "frag_product_quantity", buildQuantityView(p.Slug, sel))
}

// addSelected validates the posted variant and writes it to the cart.
func (a *app) addSelected(w http.ResponseWriter, r *http.Request) (*shopper.Workspace, bool) {
	p, err := a.productFromURL(r)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return nil, false
	}
	size := strings.TrimSpace(r.PostForm.Get("size"))
	if len(p.Sizes) > 0 && !p.HasSize(size) {
		mw.Triggers{}.Toast("error", "Please select a size.").Write(w)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return nil, false
	}
	color := p.DefaultColor()
	if raw := strings.TrimSpace(r.PostForm.Get("color")); raw != "" {
		c, ok := p.ColorByName(raw)
		if !ok {
			mw.Triggers{}.Toast("error", "Please select a color.").Write(w)
			w.WriteHeader(http.StatusUnprocessableEntity)
			return nil, false
		}
		color = c
	}
	qty, _ := strconv.Atoi(r.PostForm.Get("qty"))
	qty = quantity.ProductDetailPolicy.Clamp(qty)

	ws := a.workspace(r)
	line, err := ws.Cart.AddItem(cart.AddItemInput{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.SalePrice,
		Quantity:  qty,
		Variant:   size,
		Color:     color.Name,
		ImageURL:  p.Thumbnail,
	})
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	requestctx.Logger(r.Context()).Info("added to cart",
		zap.String("product_id", p.ID),
		zap.String("item_id", line.ID),
		zap.String("size", size),
		zap.String("color", color.Name),
		zap.Int("quantity", qty),
	)
	return ws, true
}

func (a *app) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	ws, ok := a.addSelected(w, r)
	if !ok {
		return
	}
	cartChanged(mw.Triggers{}.Toast("success", "Added to cart"), ws).Write(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) buyNowHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.addSelected(w, r); !ok {
		return
	}
	mw.Redirect(w, r, "/checkout")
}

// productCardHandler drives the card counter: add moves Idle to 1, inc caps at 5, dec to 0
// removes the line and returns the card to Idle.
func (a *app) productCardHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.catalog.ProductByID(chi.URLParam(r, "product"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	op := chi.URLParam(r, "op")
	if op != "add" && op != "inc" && op != "dec" {
		a.notFound(w, r)
		return
	}
	ws := a.workspace(r)
	// step from the line's real quantity; the sidebar may have raised it past the card cap
	_, _, err = ws.Cart.Step(cart.AddItemInput{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.SalePrice,
		ImageURL:  p.Thumbnail,
	}, func(current int) int {
		sel := quantity.NewSelector(p.ID, current, quantity.ProductCardPolicy, nil)
		switch op {
		case "add":
			sel.AddToCart()
		case "inc":
			sel.Increment()
		case "dec":
			sel.Decrement()
		}
		return sel.Quantity()
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	cartChanged(mw.Triggers{}, ws).Write(w)
	a.views.Fragment(w, r, "frag_card_counter", buildCardCounter(p.ID, cardSelector(p.ID, ws)))
}

// QuestionModalView is the "Ask a Question" modal.
type QuestionModalView struct {
	Slug        string
	ProductName string
	Text        string
	Error       string
	MinLength   int
}

func questionModalView(p catalog.Product, form forms.Question) QuestionModalView {
	return QuestionModalView{
		Slug:        p.Slug,
		ProductName: p.Name,
		Text:        form.Text,
		MinLength:   forms.MinQuestionLength,
	}
}

// questionSubmitHandler validates the question modal and sends it to the Q&A backend.
// The modal only closes after the backend accepted the question.
func (a *app) questionSubmitHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.productFromURL(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ws := a.workspace(r)
	logger := requestctx.Logger(r.Context())
	form := forms.ParseQuestion(r.PostForm)
	ws.QuestionForm.SetValues(form)

	var submitErr error
	err = ws.QuestionForm.Submit(func(q forms.Question) {
		_, submitErr = a.questions.Submit(r.Context(), questions.Question{
			ProductID:   p.ID,
			ProductName: p.Name,
			Text:        q.Trimmed(),
			ShopperID:   ws.ID,
		})
	})
	view := questionModalView(p, form)
	if err != nil {
		view.Error = forms.FieldErrors(err)["question"]
		mw.Triggers{}.Toast("error", forms.QuestionTooShortMessage).Write(w)
		a.views.Fragment(w, r, "frag_question_modal", view)
		return
	}
	if submitErr != nil {
		logger.Warn("question submit failed", zap.String("product_id", p.ID), zap.Error(submitErr))
		mw.Triggers{}.Toast("error", "We couldn't submit your question. Please try again.").Write(w)
		a.views.Fragment(w, r, "frag_question_modal", view)
		return
	}

	logger.Info("question submitted", zap.String("product_id", p.ID), zap.String("question", form.Trimmed()))
	_ = ws.Overlays.Close(shopper.OverlayQuestion)
	overlayChanged(mw.Triggers{}.Toast("success", "Your question has been submitted."), ws).Write(w)
	w.WriteHeader(http.StatusOK)
}
