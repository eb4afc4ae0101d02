package events

// Event types published by the buylist service.
const (
	// TypeListUpdated fires after any change to the entries of a list.
	TypeListUpdated = "list:updated"
	// TypeListsChanged fires when lists are created, deleted or selected.
	TypeListsChanged = "lists:changed"
	// TypeLookupCompleted fires when a card price lookup finishes.
	TypeLookupCompleted = "lookup:completed"
	// TypeColumnsChanged fires when column visibility changes.
	TypeColumnsChanged = "columns:changed"
)

// ListUpdatedEvent is the payload for list:updated events.
type ListUpdatedEvent struct {
	List    string `json:"list"`
	Reason  string `json:"reason"`  // Operation that caused the change (e.g., "import", "toggle_bought")
	Entries int    `json:"entries"` // Entries in the list after the change
}

// ListsChangedEvent is the payload for lists:changed events.
type ListsChangedEvent struct {
	Current string   `json:"current"`
	Lists   []string `json:"lists"`
}

// LookupCompletedEvent is the payload for lookup:completed events.
type LookupCompletedEvent struct {
	EntryID string `json:"entryId"`
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Applied bool   `json:"applied"`         // False when the entry was deleted while in flight
	Error   string `json:"error,omitempty"` // Lookup failure, if any
}

// ColumnsChangedEvent is the payload for columns:changed events.
type ColumnsChangedEvent struct {
	Columns map[string]bool `json:"columns"`
}
