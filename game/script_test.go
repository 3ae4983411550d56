package game

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Williamxu98/Blackjack-Server/gamescript"
)

func applyScriptRules(rules Rules, overrides gamescript.Rules) Rules {
	if overrides.NumberOfDecks != nil {
		rules.NumberOfDecks = *overrides.NumberOfDecks
	}
	if overrides.MinimumCardsPerPlayer != nil {
		rules.MinimumCardsPerPlayer = *overrides.MinimumCardsPerPlayer
	}
	if overrides.ShuffleChance != nil {
		rules.ShuffleChance = *overrides.ShuffleChance
	}
	if overrides.MinimumBet != nil {
		rules.MinimumBet = *overrides.MinimumBet
	}
	if overrides.BettingWindowSec != nil {
		rules.BettingWindowSec = *overrides.BettingWindowSec
	}
	if overrides.ActionTimeSec != nil {
		rules.ActionTimeSec = *overrides.ActionTimeSec
	}
	return rules
}

func TestRoundScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scripts", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		script, err := gamescript.ReadGameScript(file)
		require.NoError(t, err)

		t.Run(script.Name, func(t *testing.T) {
			players := make([]*Player, 0, len(script.Seats))
			actions := make(map[uint32][]string)
			for _, seat := range script.Seats {
				players = append(players, NewPlayer(seat.Player, seat.Player, seat.Seat, RoleSeated, seat.Balance))
				for _, action := range seat.Actions {
					actions[seat.Seat] = append(actions[seat.Seat], string(action))
				}
			}

			rules := applyScriptRules(testRules(), script.Rules)
			tt := newTestTable(t, rules, script.Deck, actions, players...)
			for _, seat := range script.Seats {
				if seat.Bet > 0 {
					betWhenOpen(tt.driver, tt.roster.player(seat.Seat), seat.Bet)
				}
			}
			tt.run(t)

			if diff := cmp.Diff(script.Expected.Lines, tt.sink.Lines()); diff != "" {
				t.Errorf("Broadcast lines mismatch (-want +got):\n%s", diff)
			}
			if len(script.Expected.Private) > 0 {
				if diff := cmp.Diff(script.Expected.Private, tt.sink.Private()); diff != "" {
					t.Errorf("Private lines mismatch (-want +got):\n%s", diff)
				}
			}
			for _, b := range script.Expected.Balances {
				if got := tt.roster.player(b.Seat).Balance(); got != b.Balance {
					t.Errorf("Seat %d balance: expected %d, got %d", b.Seat, b.Balance, got)
				}
			}
			for _, r := range script.Expected.Removed {
				reason, ok := tt.roster.reason(r.Seat)
				if !ok {
					t.Errorf("Seat %d was expected to be removed", r.Seat)
				} else if string(reason) != r.Reason {
					t.Errorf("Seat %d removed with [%s], expected [%s]", r.Seat, reason, r.Reason)
				}
			}
		})
	}
}
