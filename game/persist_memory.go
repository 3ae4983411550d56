package game

import (
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type MemorySnapshotTracker struct {
	lock      sync.RWMutex
	snapshots map[string][]byte
}

func NewMemorySnapshotTracker() *MemorySnapshotTracker {
	return &MemorySnapshotTracker{
		snapshots: make(map[string][]byte),
	}
}

func (m *MemorySnapshotTracker) Load(tableCode string) (*Snapshot, error) {
	m.lock.RLock()
	snapshotBytes, ok := m.snapshots[tableCode]
	m.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("Snapshot for table: %s is not found", tableCode)
	}
	snapshot := &Snapshot{}
	err := json.Unmarshal(snapshotBytes, snapshot)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (m *MemorySnapshotTracker) Save(tableCode string, snapshot *Snapshot) error {
	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	m.lock.Lock()
	m.snapshots[tableCode] = snapshotBytes
	m.lock.Unlock()
	return nil
}

func (m *MemorySnapshotTracker) Remove(tableCode string) error {
	m.lock.Lock()
	delete(m.snapshots, tableCode)
	m.lock.Unlock()
	return nil
}
