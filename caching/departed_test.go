package caches

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartedLedger(t *testing.T) {
	ledger, err := NewDepartedLedger(2)
	require.NoError(t, err)

	assert.Error(t, ledger.Add(DepartedPlayer{}))

	require.NoError(t, ledger.Add(DepartedPlayer{PlayerID: "a", SeatNo: 1, Balance: 0, Reason: "insufficient_funds"}))
	require.NoError(t, ledger.Add(DepartedPlayer{PlayerID: "b", SeatNo: 2, Balance: 450, Reason: "quit"}))

	entry, ok := ledger.Get("b")
	require.True(t, ok)
	assert.Equal(t, 450, entry.Balance)
	assert.False(t, entry.LeftAt.IsZero())

	// "a" is the least recently used entry and gets evicted
	require.NoError(t, ledger.Add(DepartedPlayer{PlayerID: "c", SeatNo: 3, Balance: 10}))
	_, ok = ledger.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, ledger.Len())

	ledger.Forget("c")
	_, ok = ledger.Get("c")
	assert.False(t, ok)
}

func TestDepartedLedgerUpdateBalance(t *testing.T) {
	ledger, err := NewDepartedLedger(0)
	require.NoError(t, err)

	assert.False(t, ledger.UpdateBalance("a", 900))

	require.NoError(t, ledger.Add(DepartedPlayer{PlayerID: "a", SeatNo: 2, Balance: 1000, Reason: "disconnected"}))
	before, _ := ledger.Get("a")
	assert.True(t, ledger.UpdateBalance("a", 900))

	after, ok := ledger.Get("a")
	require.True(t, ok)
	assert.Equal(t, 900, after.Balance)
	assert.Equal(t, before.LeftAt, after.LeftAt)
	assert.Equal(t, "disconnected", after.Reason)
}
