package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/forms"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/nav"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/requestctx"
)

type OrderItemView struct {
	Name  string
	Qty   int
	Price string
	Image string
}

type OrderView struct {
	ID     string
	Date   string
	Status string
	Total  string
	Items  []OrderItemView
}

// ProfileView is the account page with its section sidebar.
type ProfileView struct {
	Name           string
	Email          string
	Mobile         string
	MemberSince    string
	Sections       []OptionView
	Section        string
	Orders         []OrderView
	OrdersCount    int
	PendingOrders  int
	WishlistCount  int
	Addresses      AddressListView
	PaymentMethods []catalog.PaymentMethod
}

func buildOrders(orders []catalog.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		items := make([]OrderItemView, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, OrderItemView{
				Name:  it.Name,
				Qty:   it.Quantity,
				Price: pricing.FormatMoney(it.Price),
				Image: it.Image,
			})
		}
		out = append(out, OrderView{
			ID:     o.ID,
			Date:   o.Date,
			Status: o.Status,
			Total:  pricing.FormatMoney(o.Total),
			Items:  items,
		})
	}
	return out
}

// profileHandler renders a profile section. An unknown section shows the dashboard with
// no sidebar entry marked.
func (a *app) profileHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	account := a.catalog.Account
	sections := nav.Profile(chi.URLParam(r, "section"))

	marked := sections.Marked()
	sidebar := make([]OptionView, 0, len(marked))
	for _, m := range marked {
		sidebar = append(sidebar, OptionView{
			ID:       string(m.ID),
			Label:    m.Label,
			Href:     "/profile/" + string(m.ID),
			Selected: m.Selected,
		})
	}
	section, title := nav.SectionDashboard, "My Account"
	if current, ok := sections.Current(); ok {
		section = current.ID
		if section != nav.SectionDashboard {
			title = current.Label
		}
	}

	vm := a.pageData(r, title, "")
	vm.SEO.Robots = "noindex, nofollow"
	vm.Profile = ProfileView{
		Name:           account.Name,
		Email:          account.Email,
		Mobile:         sess.Mobile,
		MemberSince:    account.MemberSince,
		Sections:       sidebar,
		Section:        string(section),
		Orders:         buildOrders(account.Orders),
		OrdersCount:    len(account.Orders),
		PendingOrders:  account.PendingOrders(),
		WishlistCount:  account.WishlistCount,
		Addresses:      buildAddressList(account, sess),
		PaymentMethods: account.PaymentMethods,
	}
	a.views.Page(w, r, http.StatusOK, "profile", vm)
}

// LoginView is the mobile number form.
type LoginView struct {
	CSRFToken string
	Mobile    string
	Error     string
	Notice    string
}

func (a *app) loginHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.pageData(r, "Login", "")
	vm.SEO.Robots = "noindex, nofollow"
	vm.Login = LoginView{CSRFToken: mw.CSRFToken(r), Mobile: mw.GetSession(r).Mobile}
	a.views.Page(w, r, http.StatusOK, "login", vm)
}

// loginSubmitHandler only acknowledges the number; there is no OTP delivery.
func (a *app) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.ParseLogin(r.PostForm)
	view := LoginView{CSRFToken: mw.CSRFToken(r), Mobile: form.Mobile}
	status := http.StatusOK
	if err := form.Validate(); err != nil {
		view.Error = forms.FieldErrors(err)["mobile"]
		status = http.StatusUnprocessableEntity
	} else {
		mobile := form.Normalized().Mobile
		sess := mw.GetSession(r)
		sess.Mobile = mobile
		sess.MarkDirty()
		view.Mobile = mobile
		view.Notice = "OTP sent to +91 " + mobile
		requestctx.Logger(r.Context()).Info("login requested", zap.Int("mobile_digits", len(mobile)))
	}

	if mw.IsHTMX(r.Context()) {
		if view.Notice != "" {
			mw.Triggers{}.Toast("success", view.Notice).Write(w)
		}
		// htmx only swaps 2xx responses
		a.views.Fragment(w, r, "frag_login_form", view)
		return
	}
	vm := a.pageData(r, "Login", "")
	vm.SEO.Robots = "noindex, nofollow"
	vm.Login = view
	a.views.Page(w, r, status, "login", vm)
}

