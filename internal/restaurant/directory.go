package restaurant

import (
	"fmt"
	"strings"
)

// Directory indexes restaurants by ID and keeps their registration order.
type Directory struct {
	order []*Restaurant
	byID  map[string]*Restaurant
}

func NewDirectory(rs ...*Restaurant) (*Directory, error) {
	d := &Directory{byID: make(map[string]*Restaurant, len(rs))}
	for _, r := range rs {
		if _, dup := d.byID[r.ID()]; dup {
			return nil, fmt.Errorf("duplicate restaurant id %s", r.ID())
		}
		d.byID[r.ID()] = r
		d.order = append(d.order, r)
	}
	return d, nil
}

func (d *Directory) Get(id string) (*Restaurant, error) {
	r, ok := d.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownRestaurant)
	}
	return r, nil
}

func (d *Directory) All() []*Restaurant {
	return append([]*Restaurant(nil), d.order...)
}

// ByCode finds the restaurant owning a confirmation code via its prefix.
func (d *Directory) ByCode(code string) (*Restaurant, error) {
	prefix, _, ok := strings.Cut(strings.ToUpper(code), "-")
	if ok {
		for _, r := range d.order {
			if r.info.CodePrefix == prefix {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("code %q: %w", code, ErrUnknownRestaurant)
}
