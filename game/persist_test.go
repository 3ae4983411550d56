package game

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotTracker(t *testing.T) {
	tracker := NewMemorySnapshotTracker()
	_, err := tracker.Load("main")
	assert.Error(t, err)

	snapshot := &Snapshot{
		TableCode:  "main",
		RoundNo:    4,
		Phase:      RoundState__PLAYER_TURNS,
		ActiveSeat: 2,
		Dealer:     HandSnapshot{Cards: []string{"XX", "KH"}, Total: 10},
		Players: []PlayerSnapshot{
			{PlayerID: "p1", Name: "alice", SeatNo: 1, Balance: 990, Bet: 10, Hand: HandSnapshot{Cards: []string{"TD", "KC"}, Total: 20}},
		},
		Spectators: 3,
		UpdatedAt:  time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, tracker.Save("main", snapshot))

	loaded, err := tracker.Load("main")
	require.NoError(t, err)
	if diff := cmp.Diff(snapshot, loaded); diff != "" {
		t.Errorf("Loaded snapshot mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, tracker.Remove("main"))
	_, err = tracker.Load("main")
	assert.Error(t, err)
}
