package domain

// ChangeType is the kind of row change delivered by a change feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// PositionChange is one positions-table event. Record is set for inserts
// and updates, OldRecord for deletes (it may carry only the primary key).
type PositionChange struct {
	Type      ChangeType `json:"type"`
	Table     string     `json:"table,omitempty"`
	Record    *Position  `json:"record,omitempty"`
	OldRecord *Position  `json:"old_record,omitempty"`
}
