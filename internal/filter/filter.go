// Package filter narrows collections and open tabs by a search term.
package filter

import (
	"strings"

	"github.com/hpungsan/tabshelf/internal/collection"
)

// Collections returns the collections whose name, or any tab title or url,
// contains term case-insensitively. Order is preserved. A blank term
// returns list itself.
func Collections(list []collection.Collection, term string) []collection.Collection {
	term = collection.NormalizeTerm(term)
	if term == "" {
		return list
	}
	out := make([]collection.Collection, 0, len(list))
	for _, c := range list {
		if MatchCollection(c, term) {
			out = append(out, c)
		}
	}
	return out
}

// MatchCollection reports whether c matches an already-normalized term.
func MatchCollection(c collection.Collection, term string) bool {
	if contains(c.Name, term) {
		return true
	}
	for _, t := range c.Tabs {
		if contains(t.Title, term) || contains(t.URL, term) {
			return true
		}
	}
	return false
}

// Tab is the part of an open tab the sidebar filter looks at.
type Tab interface {
	FilterTitle() string
	FilterURL() string
}

// OpenTabs returns a visibility mask parallel to tabs.
func OpenTabs[T Tab](tabs []T, term string) []bool {
	term = collection.NormalizeTerm(term)
	mask := make([]bool, len(tabs))
	for i, t := range tabs {
		mask[i] = term == "" || contains(t.FilterTitle(), term) || contains(t.FilterURL(), term)
	}
	return mask
}

// CountVisible returns how many entries of mask are set.
func CountVisible(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

func contains(field, term string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), term)
}
