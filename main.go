package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	caches "github.com/Williamxu98/Blackjack-Server/caching"
	"github.com/Williamxu98/Blackjack-Server/connection"
	"github.com/Williamxu98/Blackjack-Server/game"
	"github.com/Williamxu98/Blackjack-Server/logging"
	"github.com/Williamxu98/Blackjack-Server/nats"
	"github.com/Williamxu98/Blackjack-Server/rest"
	"github.com/Williamxu98/Blackjack-Server/util"
)

var rulesFile *string
var seed *int64
var mainLogger = logging.GetZeroLogger("main::main", nil)

func init() {
	rulesFile = flag.String("rules", "", "YAML file containing the table rules")
	seed = flag.Int64("seed", 0, "seed for reproducible shuffles (0 picks a random seed)")
}

func main() {
	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := logging.ParseLevel(util.Env.GetLogLevel())
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()

	rules, err := game.ParseRulesConfig(*rulesFile)
	if err != nil {
		return errors.Wrap(err, "Error while parsing rules config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store game.SnapshotStore
	switch util.Env.GetPersistMethod() {
	case "redis":
		redisAddr := util.Env.GetRedisAddr()
		mainLogger.Info().Msgf("Saving table snapshots to redis at %s", redisAddr)
		tracker := game.NewRedisSnapshotTracker(redisAddr, util.Env.GetRedisPW(), util.Env.GetRedisDB())
		defer tracker.Close()
		store = tracker
	case "memory":
		store = game.NewMemorySnapshotTracker()
	default:
		return fmt.Errorf("Unsupported persist method %s", util.Env.GetPersistMethod())
	}

	var publisher game.EventPublisher
	if natsURL := util.Env.GetNatsURL(); natsURL != "" {
		mainLogger.Info().Msgf("NATS URL: %s", natsURL)
		p, err := nats.NewPublisher(natsURL)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	departed, err := caches.NewDepartedLedger(caches.DefaultDepartedLedgerSize)
	if err != nil {
		return err
	}

	hub := connection.NewHub(connection.HubConfig{})
	table := game.NewTable(game.TableConfig{
		Code:      util.Env.GetTableCode(),
		Rules:     rules,
		Seed:      *seed,
		Hub:       hub,
		Store:     store,
		Publisher: publisher,
		Departed:  departed,
	})
	hub.Bind(table)
	table.Start(ctx)
	defer func() {
		if err := store.Remove(table.Code()); err != nil {
			mainLogger.Warn().Err(err).Msg("Could not remove table snapshot")
		}
	}()

	chErr := make(chan error, 2)
	go func() {
		router := rest.NewRouter(table, hub.WebsocketHandler())
		chErr <- rest.RunRestServer(ctx, util.Env.GetHTTPAddr(), router)
	}()
	go func() {
		chErr <- hub.ListenTCP(ctx, util.Env.GetListenAddr())
	}()

	mainLogger.Info().
		Str(logging.TableCodeKey, table.Code()).
		Msgf("Table server is running. Decks: %d Seats: %d Betting window: %.0fs",
			rules.NumberOfDecks, rules.MaxSeats, rules.BettingWindowSec)

	select {
	case err = <-chErr:
		stop()
	case <-ctx.Done():
		mainLogger.Info().Msg("Shutting down")
	}
	table.Wait()
	return err
}
