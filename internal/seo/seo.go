// Package seo builds page metadata and schema.org payloads for the storefront.
package seo

import (
	"encoding/json"
	"html/template"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/nav"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
}

// JSON marshals v to a compact JSON string safe for a ld+json script block.
// It returns an empty string on error.
func JSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// BreadcrumbList builds schema.org BreadcrumbList from rendered crumbs. baseURL is
// prefixed to each href.
func BreadcrumbList(baseURL string, crumbs []nav.Crumb) map[string]any {
	el := make([]map[string]any, 0, len(crumbs))
	for i, c := range crumbs {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Label,
			"item":     baseURL + c.Href,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Product returns a product schema with an INR offer at the sale price.
func Product(p catalog.Product, url string) map[string]any {
	m := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        p.Name,
		"sku":         p.ID,
		"description": p.Description,
		"brand":       map[string]any{"@type": "Brand", "name": p.Brand},
		"offers": map[string]any{
			"@type":         "Offer",
			"priceCurrency": "INR",
			"price":         p.SalePrice.StringFixed(2),
			"availability":  "https://schema.org/InStock",
		},
	}
	if url != "" {
		m["url"] = url
	}
	if len(p.Images) > 0 {
		m["image"] = p.Images
	}
	return m
}
