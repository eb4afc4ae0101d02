// Package view filters, sorts and paginates card entries for display and
// computes list totals.
package view

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortName       SortKey = "name"
	SortManaCost   SortKey = "manaCost"
	SortQuantity   SortKey = "quantity"
	SortUnitPrice  SortKey = "unitPrice"
	SortTotalPrice SortKey = "totalPrice"
)

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortName, SortManaCost, SortQuantity, SortUnitPrice, SortTotalPrice:
		return k, true
	}
	return "", false
}

// Direction is +1 for ascending and -1 for descending.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Sort is the active sort column and direction.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort orders by name ascending.
func DefaultSort() Sort {
	return Sort{Key: SortName, Direction: Ascending}
}

// Select returns the sort after the user picks key: the same key flips the
// direction, a new key starts ascending.
func (s Sort) Select(key SortKey) Sort {
	if s.Key == key {
		return Sort{Key: key, Direction: -s.normalized().Direction}
	}
	return Sort{Key: key, Direction: Ascending}
}

func (s Sort) normalized() Sort {
	if s.Key == "" {
		s.Key = SortName
	}
	if s.Direction != Descending {
		s.Direction = Ascending
	}
	return s
}

// Query holds view parameters. PageSize <= 0 disables pagination.
type Query struct {
	Filter   string
	Sort     Sort
	Page     int
	PageSize int
}

// Page is one computed page of a view.
type Page struct {
	Cards        []lists.CardEntry `json:"cards"`
	TotalMatches int               `json:"totalMatches"`
	PageCount    int               `json:"pageCount"`
	Page         int               `json:"page"`
}

// ComputeView filters, sorts and paginates cards. The input is not modified.
func ComputeView(cards []lists.CardEntry, q Query) Page {
	filtered := Filter(cards, q.Filter)
	SortEntries(filtered, q.Sort)

	page := Page{
		TotalMatches: len(filtered),
		Page:         q.Page,
		Cards:        []lists.CardEntry{},
	}

	if q.PageSize <= 0 {
		page.Cards = filtered
		if len(filtered) > 0 {
			page.PageCount = 1
		}
		return page
	}

	page.PageCount = (len(filtered) + q.PageSize - 1) / q.PageSize
	if q.Page < 0 {
		return page
	}
	start := q.Page * q.PageSize
	if start >= len(filtered) {
		return page
	}
	end := min(start+q.PageSize, len(filtered))
	page.Cards = filtered[start:end]
	return page
}

// Filter keeps entries whose name contains text, case-insensitively.
// It always returns a new slice.
func Filter(cards []lists.CardEntry, text string) []lists.CardEntry {
	needle := strings.ToLower(text)
	out := make([]lists.CardEntry, 0, len(cards))
	for _, c := range cards {
		if needle == "" || strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}

// SortEntries stable-sorts cards in place. Entries with no value for the key
// sort after those with one, whichever the direction.
func SortEntries(cards []lists.CardEntry, s Sort) {
	s = s.normalized()
	dir := int(s.Direction)

	sort.SliceStable(cards, func(i, j int) bool {
		a, aok := sortValue(&cards[i], s.Key)
		b, bok := sortValue(&cards[j], s.Key)
		if !aok || !bok {
			return aok
		}
		return compare(a, b)*dir < 0
	})
}

// sortable is either a string or a decimal.
type sortable struct {
	str string
	num decimal.Decimal
	isS bool
}

func compare(a, b sortable) int {
	if a.isS {
		return strings.Compare(a.str, b.str)
	}
	return a.num.Cmp(b.num)
}

// manaCostRank orders costed cards lacking a rank after all ranked cards.
const manaCostRank = 999

func sortValue(c *lists.CardEntry, key SortKey) (sortable, bool) {
	switch key {
	case SortManaCost:
		switch {
		case c.ConvertedManaCost != nil:
			return sortable{num: decimal.NewFromFloat(*c.ConvertedManaCost)}, true
		case c.ManaCost != nil && *c.ManaCost != "":
			return sortable{num: decimal.NewFromInt(manaCostRank)}, true
		default:
			return sortable{num: decimal.Zero}, true
		}
	case SortQuantity:
		return sortable{num: decimal.NewFromInt(int64(c.Quantity))}, true
	case SortUnitPrice:
		if c.UnitPrice == nil {
			return sortable{}, false
		}
		return sortable{num: *c.UnitPrice}, true
	case SortTotalPrice:
		total := c.TotalPrice()
		if total == nil {
			return sortable{}, false
		}
		return sortable{num: *total}, true
	default:
		return sortable{str: strings.ToLower(c.Name), isS: true}, true
	}
}
