package gamescript

import (
	"fmt"
	"io/ioutil"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Script is a single scripted round: the top of the shoe, what every seat
// does and what the table must broadcast.
type Script struct {
	Name     string   `yaml:"name"`
	Rules    Rules    `yaml:"rules"`
	Deck     []string `yaml:"deck"`
	Seats    []Seat   `yaml:"seats"`
	Expected Expected `yaml:"expected"`
}

// Rules overrides the table rules for the script. Unset keys keep the
// values the runner starts from.
type Rules struct {
	NumberOfDecks         *int     `yaml:"number-of-decks"`
	MinimumCardsPerPlayer *int     `yaml:"minimum-cards-per-player"`
	ShuffleChance         *int     `yaml:"shuffle-chance"`
	MinimumBet            *int     `yaml:"minimum-bet"`
	BettingWindowSec      *float64 `yaml:"betting-window-sec"`
	ActionTimeSec         *float64 `yaml:"action-time-sec"`
}

type Seat struct {
	Seat    uint32 `yaml:"seat"`
	Player  string `yaml:"player"`
	Balance int    `yaml:"balance"`
	// Bet of 0 means the seat never bets.
	Bet     int      `yaml:"bet"`
	Actions []Action `yaml:"actions"`
}

// Expected is what the table must have sent by the end of the round.
//
//	expected:
//	  lines:
//	    - "% NEWROUND"
//	  balances:
//	    - seat: 1
//	      balance: 990
//	  removed:
//	    - seat: 2
//	      reason: no_bet
type Expected struct {
	Lines    []string      `yaml:"lines"`
	Private  []string      `yaml:"private"`
	Balances []SeatBalance `yaml:"balances"`
	Removed  []RemovedSeat `yaml:"removed"`
}

type SeatBalance struct {
	Seat    uint32 `yaml:"seat"`
	Balance int    `yaml:"balance"`
}

type RemovedSeat struct {
	Seat   uint32 `yaml:"seat"`
	Reason string `yaml:"reason"`
}

// Action is what a seat answers to its turn announcement.
type Action string

const (
	ActionHit        Action = "hit"
	ActionStand      Action = "stand"
	ActionDoubleDown Action = "doubledown"
	// ActionLeave drops the connection instead of answering.
	ActionLeave Action = "leave"
)

var validActions = mapset.NewSet(ActionHit, ActionStand, ActionDoubleDown, ActionLeave)

// Custom unmarshaller for action expression. Case insensitive.
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var s string
	err := value.Decode(&s)
	if err != nil {
		return errors.Wrapf(err, "Cannot parse action expression at line %d", value.Line)
	}
	action := Action(strings.ToLower(strings.TrimSpace(s)))
	if !validActions.Contains(action) {
		return fmt.Errorf("Invalid action [%s] at line %d", s, value.Line)
	}
	*a = action
	return nil
}

// ReadGameScript reads a round script yaml file.
func ReadGameScript(fileName string) (*Script, error) {
	bytes, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading game script file [%s]", fileName)
	}

	var script Script
	err = yaml.Unmarshal(bytes, &script)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing YAML file [%s]", fileName)
	}

	err = script.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "Error validating script [%s]", fileName)
	}
	return &script, nil
}

func (s *Script) Validate() error {
	seats := mapset.NewSet()
	playerNames := mapset.NewSet()

	if len(s.Seats) == 0 {
		return fmt.Errorf("Script [%s] has no seats", s.Name)
	}

	// Check seat numbers and player names are unique.
	for _, seat := range s.Seats {
		if seat.Seat == 0 {
			return fmt.Errorf("Seat 0 belongs to the dealer")
		}
		if seats.Contains(seat.Seat) {
			return fmt.Errorf("Duplicate seat number [%d] in seats", seat.Seat)
		}
		seats.Add(seat.Seat)
		if playerNames.Contains(seat.Player) {
			return fmt.Errorf("Duplicate player name [%s] in seats", seat.Player)
		}
		playerNames.Add(seat.Player)
		if seat.Bet < 0 || seat.Bet > seat.Balance {
			return fmt.Errorf("Seat %d bets %d with balance %d", seat.Seat, seat.Bet, seat.Balance)
		}
	}

	for _, b := range s.Expected.Balances {
		if !seats.Contains(b.Seat) {
			return fmt.Errorf("Expected balance for unknown seat [%d]", b.Seat)
		}
	}
	for _, r := range s.Expected.Removed {
		if !seats.Contains(r.Seat) {
			return fmt.Errorf("Expected removal of unknown seat [%d]", r.Seat)
		}
	}
	return nil
}

func (s *Script) GetSeat(seatNo uint32) *Seat {
	for i := range s.Seats {
		if s.Seats[i].Seat == seatNo {
			return &s.Seats[i]
		}
	}
	return nil
}
