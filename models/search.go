package models

import "strings"

// SearchType selects which field a free-text search matches against.
type SearchType string

const (
	SearchByCustomer SearchType = "customer"
	SearchByCompany  SearchType = "company"
	SearchByAddress  SearchType = "address"
)

// IsValid reports whether the search type is one the catalog supports.
func (s SearchType) IsValid() bool {
	switch s {
	case SearchByCustomer, SearchByCompany, SearchByAddress:
		return true
	}
	return false
}

// NormalizeSearchQuery trims and lower-cases q and turns inner spaces into
// SQL wildcards.
func NormalizeSearchQuery(q string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q)), " ", "%")
}

// Pattern returns the LIKE pattern bound for the search type.
// Customer searches match a last-name prefix; the others match anywhere.
func (s SearchType) Pattern(q string) string {
	norm := NormalizeSearchQuery(q)
	if s == SearchByCustomer {
		return norm + "%"
	}
	return "%" + norm + "%"
}
