package view

import (
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
)

// Totals is the outstanding spend of a list.
type Totals struct {
	RunningTotal decimal.Decimal `json:"runningTotal"`
	CardCount    int             `json:"cardCount"`
}

// ComputeTotals sums quantity and quantity × price over selected, unbought
// entries. Entries without a price still count toward CardCount.
func ComputeTotals(cards []lists.CardEntry) Totals {
	t := Totals{RunningTotal: decimal.Zero}
	for i := range cards {
		c := &cards[i]
		if !c.Selected || c.Bought {
			continue
		}
		t.CardCount += c.Quantity
		if total := c.TotalPrice(); total != nil {
			t.RunningTotal = t.RunningTotal.Add(*total)
		}
	}
	return t
}

// Progress summarizes how much of a list has been bought.
type Progress struct {
	BoughtCards     int             `json:"boughtCards"`
	RemainingCards  int             `json:"remainingCards"`
	BoughtEntries   int             `json:"boughtEntries"`
	TotalEntries    int             `json:"totalEntries"`
	SpentTotal      decimal.Decimal `json:"spentTotal"`
	RemainingTotal  decimal.Decimal `json:"remainingTotal"`
	UnpricedEntries int             `json:"unpricedEntries"`
}

// Percent returns the bought share of cards, 0 to 100.
func (p Progress) Percent() float64 {
	all := p.BoughtCards + p.RemainingCards
	if all == 0 {
		return 0
	}
	return float64(p.BoughtCards) * 100 / float64(all)
}

// ComputeProgress tallies bought against remaining over every entry,
// regardless of selection.
func ComputeProgress(cards []lists.CardEntry) Progress {
	p := Progress{
		TotalEntries:   len(cards),
		SpentTotal:     decimal.Zero,
		RemainingTotal: decimal.Zero,
	}
	for i := range cards {
		c := &cards[i]
		total := c.TotalPrice()
		if total == nil {
			p.UnpricedEntries++
		}
		if c.Bought {
			p.BoughtEntries++
			p.BoughtCards += c.Quantity
			if total != nil {
				p.SpentTotal = p.SpentTotal.Add(*total)
			}
			continue
		}
		p.RemainingCards += c.Quantity
		if total != nil {
			p.RemainingTotal = p.RemainingTotal.Add(*total)
		}
	}
	return p
}
