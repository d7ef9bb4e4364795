package models

import "sort"

// Category groups formats handled by the same family of converters.
type Category string

const (
	CategoryImages       Category = "images"
	CategoryDocuments    Category = "documents"
	CategorySpreadsheets Category = "spreadsheets"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryImages, CategoryDocuments, CategorySpreadsheets}

// FormatRegistry maps categories to the extensions they accept. It is built once
// and never mutated; accessors return copies.
type FormatRegistry struct {
	formats map[Category][]string
	index   map[string][]Category
}

// NewRegistry builds a registry from the given table. Formats are normalized.
func NewRegistry(table map[Category][]string) FormatRegistry {
	r := FormatRegistry{
		formats: make(map[Category][]string, len(table)),
		index:   make(map[string][]Category),
	}
	for cat, list := range table {
		seen := make(map[string]bool, len(list))
		for _, f := range list {
			f = NormalizeFormat(f)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			r.formats[cat] = append(r.formats[cat], f)
			r.index[f] = append(r.index[f], cat)
		}
	}
	return r
}

// DefaultRegistry returns the formats the service supports out of the box.
func DefaultRegistry() FormatRegistry {
	return NewRegistry(map[Category][]string{
		CategoryImages:       {"png", "jpg", "jpeg", "webp", "bmp", "gif", "avif"},
		CategoryDocuments:    {"pdf", "docx", "doc"},
		CategorySpreadsheets: {"xlsx", "xls", "pdf"},
	})
}

// Formats returns the formats of a category.
func (r FormatRegistry) Formats(cat Category) []string {
	out := make([]string, len(r.formats[cat]))
	copy(out, r.formats[cat])
	return out
}

// Supports reports whether any category accepts format.
func (r FormatRegistry) Supports(format string) bool {
	return len(r.index[NormalizeFormat(format)]) > 0
}

// In reports whether format belongs to cat.
func (r FormatRegistry) In(cat Category, format string) bool {
	for _, c := range r.index[NormalizeFormat(format)] {
		if c == cat {
			return true
		}
	}
	return false
}

// All returns every distinct format, sorted.
func (r FormatRegistry) All() []string {
	out := make([]string, 0, len(r.index))
	for f := range r.index {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the registry keyed by category name, ready for JSON.
func (r FormatRegistry) Map() map[string][]string {
	out := make(map[string][]string, len(r.formats))
	for _, cat := range Categories {
		out[string(cat)] = r.Formats(cat)
	}
	return out
}
