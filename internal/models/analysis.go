package models

import "strings"

// ProductAnalysis is the structured description extracted from a reference
// image before an edit. The edit prompt inventories these fields explicitly
// so the image model preserves product identity instead of drifting into an
// unrelated design.
type ProductAnalysis struct {
	ProductType string   `json:"product_type"`
	Category    string   `json:"category"`
	Color       string   `json:"color"`
	KeyFeatures []string `json:"key_features"`
	Style       string   `json:"style"`
}

// PreservationClause renders the "must not change" inventory injected into
// edit prompts.
func (a ProductAnalysis) PreservationClause() string {
	var b strings.Builder
	b.WriteString("Preserve the exact product identity: it is a ")
	if a.Color != "" {
		b.WriteString(a.Color)
		b.WriteString(" ")
	}
	b.WriteString(a.ProductType)
	if a.Category != "" {
		b.WriteString(" (")
		b.WriteString(a.Category)
		b.WriteString(")")
	}
	if a.Style != "" {
		b.WriteString(" in a ")
		b.WriteString(a.Style)
		b.WriteString(" style")
	}
	b.WriteString(".")
	if len(a.KeyFeatures) > 0 {
		b.WriteString(" Keep all of these features unchanged: ")
		b.WriteString(strings.Join(a.KeyFeatures, ", "))
		b.WriteString(".")
	}
	b.WriteString(" Change only what the edit instruction asks for.")
	return b.String()
}

// ExtractedProductData is the result of scanning a tech-pack style PDF.
type ExtractedProductData struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Materials    []string `json:"materials,omitempty"`
	Measurements []string `json:"measurements,omitempty"`
	Colors       []string `json:"colors,omitempty"`
	RawText      string   `json:"raw_text,omitempty"`
}
