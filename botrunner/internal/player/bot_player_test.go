package player

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Williamxu98/Blackjack-Server/connection"
	"github.com/Williamxu98/Blackjack-Server/game"
)

func newTestBot(config Config) *BotPlayer {
	logger := zerolog.Nop()
	return NewBotPlayer(config, &logger)
}

type exchange struct {
	line  string
	reply string
	state string
}

func playLines(t *testing.T, bp *BotPlayer, exchanges []exchange) {
	for i, e := range exchanges {
		reply := bp.HandleLine(e.line)
		if reply != e.reply {
			t.Errorf("Step %d [%s] replied [%s], expected [%s]", i, e.line, reply, e.reply)
		}
		if e.state != "" && bp.State() != e.state {
			t.Errorf("Step %d [%s] state %s, expected %s", i, e.line, bp.State(), e.state)
		}
	}
}

func TestBotPlaysARound(t *testing.T) {
	bp := newTestBot(Config{Name: "bot", BetAmount: 25, MaxRounds: 2})
	playLines(t, bp, []exchange{
		{"% SEAT 2", "", BotState__SEATED},
		{"% NEWROUND", "bet 25", BotState__WAITING_FOR_MY_TURN},
		{"# 0 X X", "", ""},
		{"# 0 9H", "", ""},
		{"# 1 KD", "", ""},
		{"# 1 QD", "", ""},
		{"# 2 5C", "", ""},
		{"# 2 7C", "", ""},
		{"% 1 turn", "", BotState__WAITING_FOR_MY_TURN},
		{"& 1 stand 1000", "", ""},
		{"% 2 turn", "hit", BotState__ACTED},
		{"# 2 3S", "", ""},
		{"% 2 turn", "hit", BotState__ACTED},
		{"# 2 4S", "", ""},
		{"% 2 turn", "stand", BotState__ACTED},
		{"& 2 stand 1000", "", BotState__ACTED},
		{"# 0 9S", "", ""},
		{"& 0 stand X", "", ""},
		{"+ 1 990 2 1025", "", BotState__SEATED},
	})
	assert.Equal(t, 1025, bp.Balance())
	assert.Equal(t, 1, bp.RoundsPlayed())

	playLines(t, bp, []exchange{
		{"% NEWROUND", "bet 25", BotState__WAITING_FOR_MY_TURN},
		{"# 2 AS", "", ""},
		{"# 2 KS", "", ""},
		{"& 2 blackjack 1050", "", BotState__SEATED},
		{"+ 2 1050", "quit", BotState__SEATED},
		{"% REMOVED quit", "", BotState__NOT_IN_GAME},
	})
	assert.True(t, bp.Done())
	assert.Equal(t, 1050, bp.Balance())
}

func TestBotDoubleDown(t *testing.T) {
	bp := newTestBot(Config{Name: "bot", BetAmount: 10, DoubleDown: true, StartingBalance: 15})
	playLines(t, bp, []exchange{
		{"% SEAT 1", "", BotState__SEATED},
		{"% NEWROUND", "bet 10", ""},
		{"# 1 5C", "", ""},
		{"# 1 6C", "", ""},
		{"% 1 turn", "hit", BotState__ACTED},
	})

	bp = newTestBot(Config{Name: "bot", BetAmount: 10, DoubleDown: true})
	playLines(t, bp, []exchange{
		{"% SEAT 1", "", ""},
		{"% NEWROUND", "bet 10", ""},
		{"# 1 5C", "", ""},
		{"# 1 6C", "", ""},
		{"% 1 turn", "doubledown", BotState__ACTED},
		{"% FORMATERROR", "", ""},
		{"% 1 turn", "hit", BotState__ACTED},
	})
}

func TestSpectatorBotNeverBets(t *testing.T) {
	bp := newTestBot(Config{Name: "watcher"})
	playLines(t, bp, []exchange{
		{"% SPECTATOR", "", BotState__OBSERVING},
		{"% NEWROUND", "", BotState__OBSERVING},
		{"% 1 turn", "", BotState__OBSERVING},
		{"+ 1 1000", "", BotState__OBSERVING},
	})
	assert.Equal(t, 0, bp.RoundsPlayed())
}

func TestPromotedSpectatorBotPlays(t *testing.T) {
	bp := newTestBot(Config{Name: "watcher"})
	playLines(t, bp, []exchange{
		{"% SPECTATOR", "", BotState__OBSERVING},
		{"% SEAT 2", "", BotState__SEATED},
		{"% NEWROUND", "bet 10", BotState__WAITING_FOR_MY_TURN},
	})
	assert.Equal(t, uint32(2), bp.SeatNo())
}

func TestBotAgainstTable(t *testing.T) {
	rules := game.DefaultRules()
	rules.BettingWindowSec = 5
	rules.ShuffleChance = 0
	hub := connection.NewHub(connection.HubConfig{})
	table := game.NewTable(game.TableConfig{Code: "bots", Rules: rules, Seed: 3, Hub: hub})
	hub.Bind(table)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	table.Start(ctx)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go hub.ServeTCP(ctx, listener)

	bp := newTestBot(Config{Name: "bot", Addr: listener.Addr().String(), BetAmount: 10, MaxRounds: 3, DoubleDown: true})
	require.NoError(t, bp.Run(ctx))
	assert.True(t, bp.Done())
	assert.Equal(t, 3, bp.RoundsPlayed())

	assert.Eventually(t, func() bool { return table.PlayerCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	table.Wait()
}
