package game

// SnapshotStore keeps the latest display snapshot of a table.
type SnapshotStore interface {
	Load(tableCode string) (*Snapshot, error)
	Save(tableCode string, snapshot *Snapshot) error
	Remove(tableCode string) error
}
