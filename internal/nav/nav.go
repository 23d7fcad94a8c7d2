package nav

import (
	"path"
	"strings"

	"finitefield.org/elevates-web/internal/selection"
)

// Item represents a top-level navigation item.
type Item struct {
	Path  string // e.g. "/profile"
	Label string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// Main is the header navigation.
var Main = []Item{
	{Path: "/", Label: "Home"},
	{Path: "/products", Label: "Shop"},
	{Path: "/checkout", Label: "Checkout"},
	{Path: "/profile", Label: "Account"},
}

// Section is a profile page section.
type Section string

const (
	SectionDashboard      Section = "dashboard"
	SectionOrders         Section = "orders"
	SectionAddresses      Section = "addresses"
	SectionPaymentMethods Section = "payment-methods"
	SectionSettings       Section = "settings"
	SectionWishlist       Section = "wishlist"
)

// ProfileSections lists the profile sidebar in display order.
var ProfileSections = []selection.Option[Section]{
	{ID: SectionDashboard, Label: "Dashboard"},
	{ID: SectionOrders, Label: "My Orders"},
	{ID: SectionAddresses, Label: "Addresses"},
	{ID: SectionPaymentMethods, Label: "Payment Methods"},
	{ID: SectionSettings, Label: "Settings"},
	{ID: SectionWishlist, Label: "Wishlist"},
}

// Profile returns the section choice for a raw path segment. An unknown segment is kept
// as the current id, so nothing is marked and callers fall back to the dashboard.
func Profile(raw string) *selection.Choice[Section] {
	id := Section(strings.ToLower(strings.TrimSpace(raw)))
	if id == "" {
		id = SectionDashboard
	}
	return selection.New(ProfileSections, id)
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:   it.Path,
			Label:  it.Label,
			Active: isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/profile" or "/profile/..."
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path. The last crumb can be
// given an explicit label (e.g. a product name instead of its slug).
func Breadcrumbs(currentPath, lastLabel string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", Label: "Home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	href := ""
	for i, seg := range parts {
		if seg == "" {
			continue
		}
		href += "/" + seg
		label := titleFromSegment(seg)
		if i == 0 {
			for _, it := range Main {
				if it.Path == href {
					label = it.Label
					break
				}
			}
		}
		last := i == len(parts)-1
		if last && lastLabel != "" {
			label = lastLabel
		}
		crumbs = append(crumbs, Crumb{Href: href, Label: label, Active: last})
	}
	return crumbs
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
