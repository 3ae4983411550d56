package caches

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

const DefaultDepartedLedgerSize = 10000

// DepartedPlayer is the last known state of a player that left the table.
type DepartedPlayer struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	SeatNo   uint32    `json:"seatNo"`
	Balance  int       `json:"balance"`
	Reason   string    `json:"reason"`
	LeftAt   time.Time `json:"leftAt"`
}

// DepartedLedger keeps a bounded record of departed players keyed by player ID.
type DepartedLedger struct {
	byPlayerID *lru.Cache
}

func NewDepartedLedger(size int) (*DepartedLedger, error) {
	if size <= 0 {
		size = DefaultDepartedLedgerSize
	}
	byPlayerID, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize departed players cache")
	}
	return &DepartedLedger{
		byPlayerID: byPlayerID,
	}, nil
}

func (c *DepartedLedger) Add(entry DepartedPlayer) error {
	if entry.PlayerID == "" {
		return fmt.Errorf("Invalid player ID [%s]", entry.PlayerID)
	}
	if entry.LeftAt.IsZero() {
		entry.LeftAt = time.Now().UTC()
	}
	c.byPlayerID.Add(entry.PlayerID, entry)
	return nil
}

func (c *DepartedLedger) Get(playerID string) (DepartedPlayer, bool) {
	v, exists := c.byPlayerID.Get(playerID)
	if !exists {
		return DepartedPlayer{}, false
	}
	return v.(DepartedPlayer), true
}

// UpdateBalance corrects the balance of an existing entry, e.g. once the bet
// of a player that left mid-round has been settled.
func (c *DepartedLedger) UpdateBalance(playerID string, balance int) bool {
	v, exists := c.byPlayerID.Peek(playerID)
	if !exists {
		return false
	}
	entry := v.(DepartedPlayer)
	entry.Balance = balance
	c.byPlayerID.Add(playerID, entry)
	return true
}

// Forget drops the entry, e.g. when the same player ID joins again.
func (c *DepartedLedger) Forget(playerID string) {
	c.byPlayerID.Remove(playerID)
}

func (c *DepartedLedger) Len() int {
	return c.byPlayerID.Len()
}
