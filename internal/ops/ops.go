// Package ops holds the Collection Store and the flows built on it.
package ops

import (
	"strings"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/filter"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Address names a collection by id or by name.
type Address struct {
	ByID bool
	ID   string
	Name string // normalized
}

// ValidateAddress requires exactly one of id or name.
func ValidateAddress(id, name string) (*Address, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	if id != "" && name != "" {
		return nil, errors.NewInvalidRequest("specify either id or name, not both")
	}
	if id == "" && name == "" {
		return nil, errors.NewInvalidRequest("must specify either id or name")
	}
	if id != "" {
		return &Address{ByID: true, ID: id}, nil
	}
	return &Address{Name: collection.NormalizeTerm(name)}, nil
}

// Resolve finds the collection an address names. Names match
// case-insensitively and must be unique.
func (s *Store) Resolve(addr *Address) (collection.Collection, error) {
	if addr.ByID {
		return s.Get(addr.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	match := -1
	for i, c := range s.list {
		if collection.NormalizeTerm(c.Name) != addr.Name {
			continue
		}
		if match >= 0 {
			return collection.Collection{}, errors.NewInvalidRequest("name matches more than one collection; use id")
		}
		match = i
	}
	if match < 0 {
		return collection.Collection{}, errors.NewNotFound("collection", addr.Name)
	}
	return s.list[match].Clone(), nil
}

// SearchInput filters and pages the collection list.
type SearchInput struct {
	Query  string
	Limit  int
	Offset int
}

// SearchOutput holds one page of matching collections in display order.
type SearchOutput struct {
	Items      []collection.Collection `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

// Search returns the collections matching Query (all of them when blank).
func (s *Store) Search(input SearchInput) (*SearchOutput, error) {
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	matched := filter.Collections(s.Snapshot(), input.Query)
	total := len(matched)
	start := min(input.Offset, total)
	end := min(start+limit, total)

	return &SearchOutput{
		Items: matched[start:end],
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: end < total,
			Total:   total,
		},
	}, nil
}
