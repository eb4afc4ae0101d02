package export

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
)

// Row is one exported card line. The csv tags are the column headers.
type Row struct {
	Name          string `csv:"Name" json:"name"`
	ManaCost      string `csv:"Mana Cost" json:"manaCost"`
	Quantity      int    `csv:"Qty" json:"quantity"`
	PerCardPrice  string `csv:"Per Card Price" json:"perCardPrice"`
	TotalPrice    string `csv:"Total Price" json:"totalPrice"`
	PurchaseOrder *int   `csv:"Purchase Order" json:"purchaseOrder"`
	OrderDetails  string `csv:"Order Details" json:"orderDetails"`
}

func (r Row) record() []string {
	order := ""
	if r.PurchaseOrder != nil {
		order = strconv.Itoa(*r.PurchaseOrder)
	}
	return []string{
		r.Name,
		r.ManaCost,
		strconv.Itoa(r.Quantity),
		r.PerCardPrice,
		r.TotalPrice,
		order,
		r.OrderDetails,
	}
}

// BuildRows selects and orders the entries to export. Without bought
// entries only unbought ones are kept, in list order. With them, unbought
// entries come first in list order, then bought ones by purchase order.
func BuildRows(entries []lists.CardEntry, includeBought bool) []Row {
	var unbought, bought []lists.CardEntry
	for _, e := range entries {
		if e.Bought {
			bought = append(bought, e)
		} else {
			unbought = append(unbought, e)
		}
	}

	ordered := unbought
	if includeBought {
		sort.SliceStable(bought, func(i, j int) bool {
			return purchaseOrder(bought[i]) < purchaseOrder(bought[j])
		})
		ordered = append(ordered, bought...)
	}

	rows := make([]Row, 0, len(ordered))
	for i := range ordered {
		rows = append(rows, toRow(&ordered[i]))
	}
	return rows
}

// purchaseOrder returns the entry's order, placing unnumbered entries last.
func purchaseOrder(e lists.CardEntry) int {
	if e.PurchaseOrder == nil {
		return int(^uint(0) >> 1)
	}
	return *e.PurchaseOrder
}

func toRow(e *lists.CardEntry) Row {
	row := Row{
		Name:          e.Name,
		Quantity:      e.Quantity,
		PerCardPrice:  formatPrice(e.UnitPrice),
		TotalPrice:    formatPrice(e.TotalPrice()),
		PurchaseOrder: e.PurchaseOrder,
		OrderDetails:  e.OrderDetails,
	}
	if e.ManaCost != nil {
		row.ManaCost = *e.ManaCost
	}
	return row
}

func formatPrice(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
