package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Williamxu98/Blackjack-Server/botrunner/internal/player"
	"github.com/Williamxu98/Blackjack-Server/logging"
	"github.com/Williamxu98/Blackjack-Server/util"
)

var (
	cmdArgs    arg
	mainLogger = log.With().Str("logger_name", "main::main").Logger()
)

type arg struct {
	addr        string
	numBots     int
	betAmount   int
	rounds      int
	standOn     int
	doubleDown  bool
	minActionMs uint
	maxActionMs uint
}

func init() {
	flag.StringVar(&cmdArgs.addr, "addr", "127.0.0.1:5000", "Table server address")
	flag.IntVar(&cmdArgs.numBots, "bots", 1, "Number of bots to connect")
	flag.IntVar(&cmdArgs.betAmount, "bet", 10, "Bet placed every round")
	flag.IntVar(&cmdArgs.rounds, "rounds", 0, "Rounds to play before quitting (0 plays until removed)")
	flag.IntVar(&cmdArgs.standOn, "stand-on", 17, "Total at which a bot stops hitting")
	flag.BoolVar(&cmdArgs.doubleDown, "double-down", true, "Double down on 10 or 11")
	flag.UintVar(&cmdArgs.minActionMs, "min-action-ms", 200, "Minimum delay before each command")
	flag.UintVar(&cmdArgs.maxActionMs, "max-action-ms", 1500, "Maximum delay before each command")
	flag.Parse()
}

func main() {
	os.Exit(botrunner())
}

func botrunner() int {
	zerolog.SetGlobalLevel(logging.ParseLevel(util.Env.GetLogLevel()))
	mainLogger.Info().Msgf("Table server: %s Bots: %d", cmdArgs.addr, cmdArgs.numBots)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	playerLogger := log.With().Str("logger_name", "BotPlayer").Logger()
	var wg sync.WaitGroup
	failed := make(chan error, cmdArgs.numBots)
	for i := 1; i <= cmdArgs.numBots; i++ {
		bp := player.NewBotPlayer(player.Config{
			Name:        fmt.Sprintf("bot-%d", i),
			Addr:        cmdArgs.addr,
			BetAmount:   cmdArgs.betAmount,
			StandOn:     cmdArgs.standOn,
			DoubleDown:  cmdArgs.doubleDown,
			MaxRounds:   cmdArgs.rounds,
			MinActionMs: uint32(cmdArgs.minActionMs),
			MaxActionMs: uint32(cmdArgs.maxActionMs),
		}, &playerLogger)
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			err := bp.Run(ctx)
			if err != nil {
				failed <- err
				return
			}
			mainLogger.Info().Msgf("%s finished with balance %d after %d rounds", name, bp.Balance(), bp.RoundsPlayed())
		}(fmt.Sprintf("bot-%d", i))
	}
	wg.Wait()
	close(failed)

	ret := 0
	for err := range failed {
		mainLogger.Error().Msgf("Bot failed: %s", err)
		ret = 1
	}
	return ret
}
