package game

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	NumberOfDecks         = 6
	MinimumCardsPerPlayer = 21
	BettingWindowSec      = 60
	ShuffleChance         = 20
	DealerStandsOn        = 17
	BlackjackTotal        = 21
)

// Delays are pauses in milliseconds between broadcast events so clients can
// animate the table.
type Delays struct {
	DealSingleCard  uint32 `yaml:"dealSingleCard"`
	PlayerActed     uint32 `yaml:"playerActed"`
	DealerDraw      uint32 `yaml:"dealerDraw"`
	MoveToNextRound uint32 `yaml:"moveToNextRound"`
}

type Rules struct {
	NumberOfDecks         int     `yaml:"numberOfDecks"`
	MinimumCardsPerPlayer int     `yaml:"minimumCardsPerPlayer"`
	ShuffleChance         int     `yaml:"shuffleChance"`
	BettingWindowSec      float64 `yaml:"bettingWindowSec"`
	PollIntervalMs        uint32  `yaml:"pollIntervalMs"`
	StartingBalance       int     `yaml:"startingBalance"`
	MinimumBet            int     `yaml:"minimumBet"`
	MaxSeats              int     `yaml:"maxSeats"`
	MinPlayers            int     `yaml:"minPlayers"`
	// ActionTimeSec of 0 waits for a decision forever.
	ActionTimeSec float64 `yaml:"actionTimeSec"`
	Delays        Delays  `yaml:"delays"`
}

func DefaultRules() Rules {
	return Rules{
		NumberOfDecks:         NumberOfDecks,
		MinimumCardsPerPlayer: MinimumCardsPerPlayer,
		ShuffleChance:         ShuffleChance,
		BettingWindowSec:      BettingWindowSec,
		PollIntervalMs:        100,
		StartingBalance:       1000,
		MinimumBet:            1,
		MaxSeats:              7,
		MinPlayers:            1,
		ActionTimeSec:         0,
	}
}

// ParseRulesConfig reads a YAML rules file on top of the defaults. An empty
// path returns the defaults.
func ParseRulesConfig(rulesFile string) (Rules, error) {
	rules := DefaultRules()
	if rulesFile == "" {
		return rules, nil
	}
	bytes, err := ioutil.ReadFile(rulesFile)
	if err != nil {
		return Rules{}, errors.Wrap(err, fmt.Sprintf("Error reading rules config file [%s]", rulesFile))
	}

	err = yaml.Unmarshal(bytes, &rules)
	if err != nil {
		return Rules{}, errors.Wrap(err, fmt.Sprintf("Error parsing rules YAML file [%s]", rulesFile))
	}

	err = rules.Validate()
	if err != nil {
		return Rules{}, errors.Wrap(err, fmt.Sprintf("Invalid rules in [%s]", rulesFile))
	}
	return rules, nil
}

func (r Rules) Validate() error {
	switch {
	case r.NumberOfDecks <= 0:
		return fmt.Errorf("numberOfDecks must be positive, got %d", r.NumberOfDecks)
	case r.MinimumCardsPerPlayer < 0:
		return fmt.Errorf("minimumCardsPerPlayer must not be negative, got %d", r.MinimumCardsPerPlayer)
	case r.ShuffleChance < 0 || r.ShuffleChance > 100:
		return fmt.Errorf("shuffleChance must be within [0,100], got %d", r.ShuffleChance)
	case r.BettingWindowSec <= 0:
		return fmt.Errorf("bettingWindowSec must be positive, got %v", r.BettingWindowSec)
	case r.StartingBalance <= 0:
		return fmt.Errorf("startingBalance must be positive, got %d", r.StartingBalance)
	case r.MinimumBet <= 0:
		return fmt.Errorf("minimumBet must be positive, got %d", r.MinimumBet)
	case r.MaxSeats <= 0:
		return fmt.Errorf("maxSeats must be positive, got %d", r.MaxSeats)
	case r.MinPlayers <= 0 || r.MinPlayers > r.MaxSeats:
		return fmt.Errorf("minPlayers must be within [1,%d], got %d", r.MaxSeats, r.MinPlayers)
	case r.ActionTimeSec < 0:
		return fmt.Errorf("actionTimeSec must not be negative, got %v", r.ActionTimeSec)
	}
	return nil
}

func (r Rules) BettingWindow() time.Duration {
	return time.Duration(r.BettingWindowSec * float64(time.Second))
}

func (r Rules) PollInterval() time.Duration {
	if r.PollIntervalMs == 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

func (r Rules) ActionTime() time.Duration {
	return time.Duration(r.ActionTimeSec * float64(time.Second))
}
