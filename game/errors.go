package game

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPlayerLeft     = errors.New("player left the table")
	ErrBettingClosed  = errors.New("betting window is not open")
	ErrNotSeated      = errors.New("player is not seated")
	errActionTimedOut = errors.New("action timed out")
)

type InvalidCommandError struct {
	Command string
}

func (e InvalidCommandError) Error() string {
	return fmt.Sprintf("Unrecognized command [%s]", e.Command)
}

type InvalidBetError struct {
	Amount  int
	Balance int
}

func (e InvalidBetError) Error() string {
	return fmt.Sprintf("Invalid bet %d with balance %d", e.Amount, e.Balance)
}
