package directory

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the listings whose name, phone or address contains term,
// ignoring case. An empty term returns records unchanged.
func Filter(records []Record, term string) []Record {
	if term == "" {
		return records
	}
	folder := cases.Fold()
	needle := folder.String(term)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if containsFolded(folder, r.BusinessName, needle) ||
			containsFolded(folder, r.Phone, needle) ||
			containsFolded(folder, r.Address, needle) {
			out = append(out, r)
		}
	}
	return out
}

// FilterApproved keeps only approved listings, preserving order.
func FilterApproved(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Approved.IsApproved() {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the listing with the given identifier.
func Find(records []Record, id string) (Record, bool) {
	for _, r := range records {
		if r.ID == id && id != "" {
			return r, true
		}
	}
	return Record{}, false
}

func containsFolded(folder cases.Caser, haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(folder.String(haystack), needle)
}
