package game

import (
	"testing"

	"github.com/Williamxu98/Blackjack-Server/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFormats(t *testing.T) {
	testCases := []struct {
		actual   string
		expected string
	}{
		{NewRoundMsg(), "% NEWROUND"},
		{ShuffleMsg(), "% SHUFFLE"},
		{FormatErrorMsg(), "% FORMATERROR"},
		{TurnMsg(3), "% 3 turn"},
		{CardMsg(2, cards.MustNewCard("TD")), "# 2 TD"},
		{CardMsg(DealerSeat, cards.MustNewCard("AS")), "# 0 AS"},
		{HiddenDealerCardMsg(), "# 0 X X"},
		{OutcomeMsg(1, OutcomeBlackjack, 1100), "& 1 blackjack 1100"},
		{OutcomeMsg(4, OutcomeBust, 0), "& 4 bust 0"},
		{DealerOutcomeMsg(OutcomeStand), "& 0 stand X"},
		{StandingsMsg([]Standing{{SeatNo: 1, Balance: 900}, {SeatNo: 3, Balance: 1200}}), "+ 1 900 3 1200"},
		{StandingsMsg(nil), "+"},
	}
	for i, tc := range testCases {
		assert.Equalf(t, tc.expected, tc.actual, "test case %d", i)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("bet 25")
	require.NoError(t, err)
	assert.Equal(t, Command{Kind: CommandBet, Amount: 25}, cmd)

	cmd, err = ParseCommand("  HIT ")
	require.NoError(t, err)
	assert.Equal(t, Command{Kind: CommandDecision, Decision: DecisionHit}, cmd)

	cmd, err = ParseCommand("doubledown")
	require.NoError(t, err)
	assert.Equal(t, DecisionDoubleDown, cmd.Decision)

	cmd, err = ParseCommand("quit")
	require.NoError(t, err)
	assert.Equal(t, CommandQuit, cmd.Kind)

	for _, bad := range []string{"", "bet", "bet ten", "hit me", "split", "stand stand"} {
		_, err := ParseCommand(bad)
		assert.Errorf(t, err, "line %q", bad)
	}
}
