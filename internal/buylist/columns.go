package buylist

import (
	"errors"
	"fmt"
)

// Column keys whose visibility is persisted.
const (
	ColumnManaCost     = "manaCost"
	ColumnQty          = "qty"
	ColumnPrice        = "price"
	ColumnTotalPrice   = "totalPrice"
	ColumnBought       = "bought"
	ColumnOrderDetails = "orderDetails"
)

// ColumnKeys lists the toggleable columns in display order.
var ColumnKeys = []string{
	ColumnManaCost,
	ColumnQty,
	ColumnPrice,
	ColumnTotalPrice,
	ColumnBought,
	ColumnOrderDetails,
}

// ErrUnknownColumn is returned for a column key outside ColumnKeys.
var ErrUnknownColumn = errors.New("unknown column")

// DefaultColumns returns every column visible.
func DefaultColumns() map[string]bool {
	cols := make(map[string]bool, len(ColumnKeys))
	for _, k := range ColumnKeys {
		cols[k] = true
	}
	return cols
}

func validColumn(key string) error {
	for _, k := range ColumnKeys {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
}

// mergeColumns overlays loaded values on the defaults, dropping unknown keys.
func mergeColumns(loaded map[string]bool) map[string]bool {
	cols := DefaultColumns()
	for k, v := range loaded {
		if _, ok := cols[k]; ok {
			cols[k] = v
		}
	}
	return cols
}
