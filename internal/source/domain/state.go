package domain

import "github.com/smallbiznis/profitlens/internal/record"

// State is an immutable view of the registry at one version. Record and
// order slices are never mutated after publication.
type State struct {
	Version uint64
	View    string
	Sources []DataSource
	Records map[string][]record.Record
	Orders  map[string][]record.Order
}

// Collective reports whether the union view is selected.
func (s State) Collective() bool {
	return s.View == "" || s.View == CollectiveView
}

func (s State) Source(id string) (DataSource, bool) {
	for _, ds := range s.Sources {
		if ds.ID == id {
			return ds, true
		}
	}
	return DataSource{}, false
}

// ActiveSourceIDs lists the sources whose rows form the current view, in
// connection order.
func (s State) ActiveSourceIDs() []string {
	if !s.Collective() {
		if _, ok := s.Source(s.View); ok {
			return []string{s.View}
		}
		return nil
	}
	ids := make([]string, 0, len(s.Sources))
	for _, ds := range s.Sources {
		ids = append(ids, ds.ID)
	}
	return ids
}

// ActiveOrders concatenates the projected rows of the current view.
func (s State) ActiveOrders() []record.Order {
	var out []record.Order
	for _, id := range s.ActiveSourceIDs() {
		out = append(out, s.Orders[id]...)
	}
	return out
}

// LinkedOrders returns the rows of the sources linked to the selected
// single source. It is empty for the collective view.
func (s State) LinkedOrders() []record.Order {
	if s.Collective() {
		return nil
	}
	shop, ok := s.Source(s.View)
	if !ok {
		return nil
	}
	var out []record.Order
	for _, id := range shop.LinkedSourceIDs {
		if id == shop.ID {
			continue
		}
		out = append(out, s.Orders[id]...)
	}
	return out
}
