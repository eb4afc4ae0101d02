// Package lists holds named buylists of card entries and the operations
// that mutate them.
package lists

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardEntry is one card line in a list.
type CardEntry struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Quantity          int              `json:"quantity"`
	UnitPrice         *decimal.Decimal `json:"unitPrice"`
	ManaCost          *string          `json:"manaCost"`
	ConvertedManaCost *float64         `json:"convertedManaCost"`
	Selected          bool             `json:"selected"`
	Bought            bool             `json:"bought"`
	PurchaseOrder     *int             `json:"purchaseOrder"`
	OrderDetails      string           `json:"orderDetails"`
}

// NewCardEntry creates a selected, unbought entry with a fresh id.
func NewCardEntry(name string, quantity int) *CardEntry {
	return &CardEntry{
		ID:       uuid.NewString(),
		Name:     name,
		Quantity: quantity,
		Selected: true,
	}
}

// TotalPrice returns UnitPrice × Quantity, or nil when the price is absent.
func (e *CardEntry) TotalPrice() *decimal.Decimal {
	if e.UnitPrice == nil {
		return nil
	}
	total := e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
	return &total
}

// NeedsLookup reports whether neither price nor mana cost is known yet.
func (e *CardEntry) NeedsLookup() bool {
	return e.UnitPrice == nil && e.ManaCost == nil
}

// LookupResult carries the card data applied by ApplyLookup.
type LookupResult struct {
	Price             *decimal.Decimal
	ManaCost          *string
	ConvertedManaCost *float64
}
