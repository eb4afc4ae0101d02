package lists

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultListName is materialized whenever the store would otherwise be empty.
const DefaultListName = "Default"

// ErrListNotFound is returned when selecting a list that does not exist.
var ErrListNotFound = errors.New("list not found")

// Store maps list names to ordered card entries and tracks the current list.
// Store is not safe for concurrent use; callers serialize access.
type Store struct {
	lists   map[string][]*CardEntry
	current string
}

// NewStore wraps loaded lists. The current list is the lexically first
// name, or a fresh "Default" list when lists is empty.
func NewStore(lists map[string][]*CardEntry) *Store {
	if lists == nil {
		lists = make(map[string][]*CardEntry)
	}
	for name, entries := range lists {
		if entries == nil {
			lists[name] = []*CardEntry{}
		}
	}

	s := &Store{lists: lists}
	s.repairCurrent()
	return s
}

func (s *Store) repairCurrent() {
	if _, ok := s.lists[s.current]; ok && s.current != "" {
		return
	}
	names := s.Names()
	if len(names) == 0 {
		s.lists[DefaultListName] = []*CardEntry{}
		s.current = DefaultListName
		return
	}
	s.current = names[0]
}

// Data returns the underlying mapping for persistence.
func (s *Store) Data() map[string][]*CardEntry {
	return s.lists
}

// Names returns list names in lexical order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.lists))
	for name := range s.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Current returns the name of the current list.
func (s *Store) Current() string {
	return s.current
}

// Entries returns copies of the entries in the current list.
func (s *Store) Entries() []CardEntry {
	return s.EntriesOf(s.current)
}

// EntriesOf returns copies of the entries in the named list, or nil.
func (s *Store) EntriesOf(name string) []CardEntry {
	entries, ok := s.lists[name]
	if !ok {
		return nil
	}
	out := make([]CardEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out
}

// Find returns a copy of the entry with id, searching every list.
func (s *Store) Find(id string) (CardEntry, bool) {
	if e := s.find(id); e != nil {
		return *e, true
	}
	return CardEntry{}, false
}

func (s *Store) find(id string) *CardEntry {
	for _, entries := range s.lists {
		for _, e := range entries {
			if e.ID == id {
				return e
			}
		}
	}
	return nil
}

// CreateList adds an empty list and makes it current. Empty or existing
// names are ignored. Reports whether a list was created.
func (s *Store) CreateList(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, exists := s.lists[name]; exists {
		return false
	}
	s.lists[name] = []*CardEntry{}
	s.current = name
	return true
}

// SelectList makes name the current list.
func (s *Store) SelectList(name string) error {
	if _, ok := s.lists[name]; !ok {
		return fmt.Errorf("%w: %s", ErrListNotFound, name)
	}
	s.current = name
	return nil
}

// DeleteList removes name. If it was current, the lexically first remaining
// list becomes current, or "Default" is recreated.
func (s *Store) DeleteList(name string) bool {
	if _, ok := s.lists[name]; !ok {
		return false
	}
	delete(s.lists, name)
	s.repairCurrent()
	return true
}

// ImportDeckList merges a pasted deck list into the current list and
// returns copies of the current-list entries still lacking both price and
// mana cost.
func (s *Store) ImportDeckList(text string) []CardEntry {
	parsed := ParseDeckList(text)
	entries := s.lists[s.current]

	for _, card := range parsed {
		merged := false
		for _, e := range entries {
			if e.Name == card.Name {
				e.Quantity = addQuantity(e.Quantity, card.Quantity)
				merged = true
				break
			}
		}
		if !merged {
			entries = append(entries, NewCardEntry(card.Name, card.Quantity))
		}
	}
	s.lists[s.current] = entries

	var pending []CardEntry
	for _, e := range entries {
		if e.NeedsLookup() {
			pending = append(pending, *e)
		}
	}
	return pending
}

// DeleteEntry removes the entry with id from whichever list holds it.
func (s *Store) DeleteEntry(id string) bool {
	for name, entries := range s.lists {
		for i, e := range entries {
			if e.ID == id {
				s.lists[name] = append(entries[:i:i], entries[i+1:]...)
				return true
			}
		}
	}
	return false
}

// SetSelected sets the selected flag of the entry with id.
func (s *Store) SetSelected(id string, selected bool) bool {
	e := s.find(id)
	if e == nil {
		return false
	}
	e.Selected = selected
	return true
}

// SetQuantity sets the quantity of the entry with id. Negative values are
// ignored; values above MaxQuantity are capped.
func (s *Store) SetQuantity(id string, quantity int) bool {
	if quantity < 0 {
		return false
	}
	quantity = min(quantity, MaxQuantity)
	e := s.find(id)
	if e == nil {
		return false
	}
	e.Quantity = quantity
	return true
}

// SetOrderDetails replaces the free-text order details of the entry with id.
func (s *Store) SetOrderDetails(id, details string) bool {
	e := s.find(id)
	if e == nil {
		return false
	}
	e.OrderDetails = details
	return true
}

// ToggleBought flips the bought flag of the entry with id. Marking an entry
// bought assigns the next purchase order if it has none; unmarking clears it.
func (s *Store) ToggleBought(id string, seq *Sequencer) bool {
	e := s.find(id)
	if e == nil {
		return false
	}

	e.Bought = !e.Bought
	if e.Bought {
		if e.PurchaseOrder == nil {
			order := seq.Next()
			e.PurchaseOrder = &order
		}
	} else {
		e.PurchaseOrder = nil
	}
	return true
}

// BulkDeleteSelected removes every selected entry from the current list and
// returns how many were removed.
func (s *Store) BulkDeleteSelected() int {
	entries := s.lists[s.current]
	kept := entries[:0]
	for _, e := range entries {
		if !e.Selected {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	// Clear the tail so dropped entries can be collected.
	for i := len(kept); i < len(entries); i++ {
		entries[i] = nil
	}
	s.lists[s.current] = kept
	return removed
}

// SetAllSelected sets the selected flag on every entry of the current list.
func (s *Store) SetAllSelected(selected bool) int {
	entries := s.lists[s.current]
	for _, e := range entries {
		e.Selected = selected
	}
	return len(entries)
}

// ApplyLookup stores looked-up card data on the entry with id and returns
// the name of the list holding it. A missing entry (deleted while the lookup
// was in flight) is not an error and reports false.
func (s *Store) ApplyLookup(id string, result LookupResult) (string, bool) {
	for name, entries := range s.lists {
		for _, e := range entries {
			if e.ID != id {
				continue
			}
			e.UnitPrice = result.Price
			e.ManaCost = result.ManaCost
			e.ConvertedManaCost = result.ConvertedManaCost
			return name, true
		}
	}
	return "", false
}
