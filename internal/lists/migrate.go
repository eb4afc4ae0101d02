package lists

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schema versions of the persisted lists blob.
const (
	// SchemaV1 is the legacy record shape: qty, price (number|null), sel, cmc.
	SchemaV1 = 1
	// SchemaV2 is the CardEntry shape.
	SchemaV2 = 2

	CurrentSchemaVersion = SchemaV2
)

// legacyEntry is a v1 card record. Field names match the legacy shape;
// v2 names present in partially upgraded records are honored too.
type legacyEntry struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Qty           flexibleNumber `json:"qty"`
	Price         *float64       `json:"price"`
	Sel           *bool          `json:"sel"`
	CMC           *float64       `json:"cmc"`
	ManaCost      *string        `json:"manaCost"`
	Bought        bool           `json:"bought"`
	PurchaseOrder *int           `json:"purchaseOrder"`
	OrderDetails  string         `json:"orderDetails"`
}

// flexibleNumber accepts a JSON number or a numeric string; legacy
// quantities were sometimes stored as form input strings.
type flexibleNumber struct {
	Value float64
	Set   bool
}

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", s, err)
		}
		n.Value, n.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value, n.Set = v, true
	return nil
}

// Migrate decodes a persisted lists blob written at schema version `version`
// into the current shape. Version 0 is treated as version 1 (the legacy
// shape predates version tracking).
func Migrate(raw []byte, version int) (map[string][]*CardEntry, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string][]*CardEntry{}, nil
	}

	switch version {
	case 0, SchemaV1:
		return migrateV1(raw)
	case SchemaV2:
		var lists map[string][]*CardEntry
		if err := json.Unmarshal(raw, &lists); err != nil {
			return nil, fmt.Errorf("failed to decode lists: %w", err)
		}
		if lists == nil {
			lists = map[string][]*CardEntry{}
		}
		return lists, nil
	default:
		return nil, fmt.Errorf("unsupported lists schema version %d", version)
	}
}

func migrateV1(raw []byte) (map[string][]*CardEntry, error) {
	var legacy map[string][]legacyEntry
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy lists: %w", err)
	}

	lists := make(map[string][]*CardEntry, len(legacy))
	for name, records := range legacy {
		entries := make([]*CardEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, r.upgrade())
		}
		lists[name] = entries
	}
	return lists, nil
}

func (r legacyEntry) upgrade() *CardEntry {
	e := &CardEntry{
		ID:                r.ID,
		Name:              r.Name,
		Selected:          true,
		ManaCost:          r.ManaCost,
		ConvertedManaCost: r.CMC,
		Bought:            r.Bought,
		OrderDetails:      r.OrderDetails,
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if r.Qty.Set && r.Qty.Value > 0 {
		e.Quantity = int(r.Qty.Value)
	}
	if r.Price != nil {
		price := decimal.NewFromFloat(*r.Price)
		e.UnitPrice = &price
	}
	if r.Sel != nil {
		e.Selected = *r.Sel
	}
	if r.Bought && r.PurchaseOrder != nil && *r.PurchaseOrder > 0 {
		order := *r.PurchaseOrder
		e.PurchaseOrder = &order
	}
	return e
}
