package billing

import "strings"

// SelectionSet tracks which orders are ticked for a merge.
type SelectionSet struct {
	order []string
	ids   map[string]struct{}
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: make(map[string]struct{})}
}

// SelectAll ticks every order of the current snapshot, replacing any previous selection.
func (s *SelectionSet) SelectAll(orders []Order) {
	s.SelectNone()
	for _, o := range orders {
		s.add(o.ID)
	}
}

func (s *SelectionSet) SelectNone() {
	s.order = nil
	s.ids = make(map[string]struct{})
}

// Select ticks one order. Blank and repeated ids are ignored.
func (s *SelectionSet) Select(id string) {
	s.add(strings.TrimSpace(id))
}

// Toggle flips one order and reports whether it is now selected.
func (s *SelectionSet) Toggle(id string) bool {
	if s.Contains(id) {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

func (s *SelectionSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *SelectionSet) Len() int {
	return len(s.order)
}

// IDs returns the selected ids in selection order.
func (s *SelectionSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Filter returns the orders of the snapshot that are selected.
func (s *SelectionSet) Filter(orders []Order) []Order {
	out := make([]Order, 0, len(s.order))
	for _, o := range orders {
		if s.Contains(o.ID) {
			out = append(out, o)
		}
	}
	return out
}

func (s *SelectionSet) add(id string) {
	if id == "" || s.Contains(id) {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *SelectionSet) remove(id string) {
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// LineSelection accumulates the quantities picked per line for a split.
// Repeated lines are summed; quantities are kept as given so range checks
// still see them.
type LineSelection struct {
	order []string
	qty   map[string]int
}

func NewLineSelection() *LineSelection {
	return &LineSelection{qty: make(map[string]int)}
}

func (s *LineSelection) Add(lineID string, qty int) {
	if _, ok := s.qty[lineID]; !ok {
		s.order = append(s.order, lineID)
	}
	s.qty[lineID] += qty
}

func (s *LineSelection) Len() int {
	return len(s.order)
}

// Selections returns one entry per line in first-picked order.
func (s *LineSelection) Selections() []Selection {
	out := make([]Selection, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Selection{LineID: id, Quantity: s.qty[id]})
	}
	return out
}
