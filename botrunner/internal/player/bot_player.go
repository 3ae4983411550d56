package player

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Williamxu98/Blackjack-Server/cards"
	"github.com/Williamxu98/Blackjack-Server/game"
	"github.com/Williamxu98/Blackjack-Server/logging"
)

// Config holds the configuration for a bot object.
type Config struct {
	Name            string
	Addr            string
	StartingBalance int
	BetAmount       int
	// StandOn is the total the bot stops hitting at.
	StandOn     int
	DoubleDown  bool
	MaxRounds   int
	MinActionMs uint32
	MaxActionMs uint32
}

// BotPlayer plays one seat over the line protocol with a fixed strategy.
type BotPlayer struct {
	logger *zerolog.Logger
	config Config

	// state of the bot
	sm *fsm.FSM

	seatNo        uint32
	balance       int
	bet           int
	hand          game.Hand
	dealerUpCard  string
	lastAction    string
	doubleRefused bool
	roundsPlayed  int
	removedReason string
}

func NewBotPlayer(config Config, logger *zerolog.Logger) *BotPlayer {
	if config.BetAmount <= 0 {
		config.BetAmount = 10
	}
	if config.StandOn <= 0 {
		config.StandOn = game.DealerStandsOn
	}
	if config.StartingBalance <= 0 {
		config.StartingBalance = game.DefaultRules().StartingBalance
	}
	botLogger := logger.With().Str(logging.PlayerNameKey, config.Name).Logger()
	bp := &BotPlayer{
		logger:  &botLogger,
		config:  config,
		balance: config.StartingBalance,
	}

	bp.sm = fsm.NewFSM(
		BotState__NOT_IN_GAME,
		fsm.Events{
			{
				Name: BotEvent__RECEIVE_SEAT,
				Src:  []string{BotState__NOT_IN_GAME, BotState__OBSERVING},
				Dst:  BotState__SEATED,
			},
			{
				Name: BotEvent__RECEIVE_SPECTATOR,
				Src:  []string{BotState__NOT_IN_GAME},
				Dst:  BotState__OBSERVING,
			},
			{
				Name: BotEvent__NEW_ROUND,
				Src:  []string{BotState__SEATED, BotState__WAITING_FOR_MY_TURN, BotState__ACTED},
				Dst:  BotState__BETTING,
			},
			{
				Name: BotEvent__SEND_BET,
				Src:  []string{BotState__BETTING},
				Dst:  BotState__WAITING_FOR_MY_TURN,
			},
			{
				Name: BotEvent__RECEIVE_YOUR_ACTION,
				Src:  []string{BotState__WAITING_FOR_MY_TURN, BotState__ACTED},
				Dst:  BotState__MY_TURN,
			},
			{
				Name: BotEvent__SEND_MY_ACTION,
				Src:  []string{BotState__MY_TURN},
				Dst:  BotState__ACTED,
			},
			{
				Name: BotEvent__TURN_OVER,
				Src:  []string{BotState__WAITING_FOR_MY_TURN, BotState__ACTED},
				Dst:  BotState__SEATED,
			},
			{
				Name: BotEvent__ROUND_OVER,
				Src:  []string{BotState__WAITING_FOR_MY_TURN, BotState__ACTED},
				Dst:  BotState__SEATED,
			},
			{
				Name: BotEvent__REMOVED,
				Src: []string{
					BotState__OBSERVING,
					BotState__SEATED,
					BotState__BETTING,
					BotState__WAITING_FOR_MY_TURN,
					BotState__MY_TURN,
					BotState__ACTED,
				},
				Dst: BotState__NOT_IN_GAME,
			},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { bp.enterState(e) },
		},
	)
	return bp
}

func (bp *BotPlayer) enterState(e *fsm.Event) {
	bp.logger.Debug().Uint32(logging.SeatNumKey, bp.seatNo).Msgf("[%s] ===> [%s]", e.Src, e.Dst)
}

func (bp *BotPlayer) event(event string) error {
	err := bp.sm.Event(event)
	if err != nil {
		bp.logger.Warn().Msgf("Error from state machine: %s", err.Error())
	}
	return err
}

func (bp *BotPlayer) State() string {
	return bp.sm.Current()
}

func (bp *BotPlayer) SeatNo() uint32 {
	return bp.seatNo
}

func (bp *BotPlayer) Balance() int {
	return bp.balance
}

func (bp *BotPlayer) RoundsPlayed() int {
	return bp.roundsPlayed
}

// Done is true once the server has removed the bot from the table.
func (bp *BotPlayer) Done() bool {
	return bp.removedReason != ""
}

// HandleLine consumes one server line and returns the command to send back,
// or an empty string.
func (bp *BotPlayer) HandleLine(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	switch fields[0] {
	case game.PrefixStatus:
		return bp.handleStatus(fields[1:])
	case game.PrefixCard:
		bp.handleCard(fields[1:])
	case game.PrefixOutcome:
		bp.handleOutcome(fields[1:])
	case game.PrefixStandings:
		return bp.handleStandings(fields[1:])
	}
	return ""
}

func (bp *BotPlayer) handleStatus(fields []string) string {
	switch fields[0] {
	case game.StatusSeat:
		if len(fields) == 2 {
			seatNo, _ := strconv.ParseUint(fields[1], 10, 32)
			bp.seatNo = uint32(seatNo)
			bp.event(BotEvent__RECEIVE_SEAT)
		}
	case game.StatusSpectator:
		bp.event(BotEvent__RECEIVE_SPECTATOR)
	case game.StatusNewRound:
		return bp.newRound()
	case game.StatusFormatError:
		if bp.lastAction == game.DecisionDoubleDown.String() {
			bp.doubleRefused = true
			bp.bet /= 2
		}
		bp.logger.Info().Msgf("Server rejected [%s]", bp.lastAction)
	case game.StatusRemoved:
		bp.removedReason = "unknown"
		if len(fields) > 1 {
			bp.removedReason = fields[1]
		}
		bp.logger.Info().Msgf("Removed from the table: %s", bp.removedReason)
		bp.event(BotEvent__REMOVED)
	case game.StatusShuffle:
	default:
		if len(fields) == 2 && fields[1] == game.StatusTurn && fields[0] == strconv.Itoa(int(bp.seatNo)) {
			return bp.myTurn()
		}
	}
	return ""
}

func (bp *BotPlayer) newRound() string {
	bp.hand.Clear()
	bp.dealerUpCard = ""
	bp.doubleRefused = false
	bp.lastAction = ""
	switch bp.sm.Current() {
	case BotState__SEATED, BotState__WAITING_FOR_MY_TURN, BotState__ACTED:
	default:
		return ""
	}
	bp.event(BotEvent__NEW_ROUND)

	bp.bet = bp.config.BetAmount
	if bp.bet > bp.balance {
		bp.bet = bp.balance
	}
	if bp.bet <= 0 {
		return ""
	}
	bp.event(BotEvent__SEND_BET)
	bp.lastAction = "bet"
	return fmt.Sprintf("bet %d", bp.bet)
}

func (bp *BotPlayer) myTurn() string {
	if bp.event(BotEvent__RECEIVE_YOUR_ACTION) != nil {
		return ""
	}
	decision := bp.decide()
	bp.lastAction = decision.String()
	if decision == game.DecisionDoubleDown {
		bp.bet *= 2
	}
	bp.event(BotEvent__SEND_MY_ACTION)
	bp.logger.Debug().Msgf("Total %d against %s: %s", bp.hand.Total(), bp.dealerUpCard, decision)
	return decision.String()
}

func (bp *BotPlayer) decide() game.Decision {
	total := bp.hand.Total()
	if bp.config.DoubleDown && !bp.doubleRefused && bp.hand.Len() == 2 &&
		(total == 10 || total == 11) && bp.balance >= 2*bp.bet {
		return game.DecisionDoubleDown
	}
	if total < bp.config.StandOn {
		return game.DecisionHit
	}
	return game.DecisionStand
}

func (bp *BotPlayer) handleCard(fields []string) {
	if len(fields) < 2 {
		return
	}
	seatNo, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	if uint32(seatNo) == game.DealerSeat {
		if bp.dealerUpCard == "" && fields[1] != "X" {
			bp.dealerUpCard = fields[1]
		}
		return
	}
	if uint32(seatNo) != bp.seatNo {
		return
	}
	card, err := cards.NewCard(fields[1])
	if err != nil {
		bp.logger.Warn().Err(err).Msg("Unreadable card")
		return
	}
	bp.hand.AddCard(card)
}

func (bp *BotPlayer) handleOutcome(fields []string) {
	if len(fields) < 3 || fields[0] != strconv.Itoa(int(bp.seatNo)) || bp.seatNo == game.DealerSeat {
		return
	}
	if balance, err := strconv.Atoi(fields[2]); err == nil {
		bp.balance = balance
	}
	if fields[1] != string(game.OutcomeStand) {
		bp.event(BotEvent__TURN_OVER)
	}
}

func (bp *BotPlayer) handleStandings(fields []string) string {
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i] != strconv.Itoa(int(bp.seatNo)) {
			continue
		}
		if balance, err := strconv.Atoi(fields[i+1]); err == nil {
			bp.balance = balance
		}
	}
	current := bp.sm.Current()
	if current == BotState__OBSERVING || current == BotState__NOT_IN_GAME {
		return ""
	}
	bp.roundsPlayed++
	if current != BotState__SEATED {
		bp.event(BotEvent__ROUND_OVER)
	}
	if bp.config.MaxRounds > 0 && bp.roundsPlayed >= bp.config.MaxRounds {
		bp.logger.Info().Msgf("Played %d rounds. Leaving with %d", bp.roundsPlayed, bp.balance)
		bp.lastAction = "quit"
		return "quit"
	}
	return ""
}

func (bp *BotPlayer) actionDelay() time.Duration {
	lo, hi := bp.config.MinActionMs, bp.config.MaxActionMs
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	return time.Duration(lo+uint32(rand.Int63n(int64(hi-lo)))) * time.Millisecond
}

// Run connects to the table and plays until the bot is removed, the server
// hangs up or ctx is done.
func (bp *BotPlayer) Run(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", bp.config.Addr)
	if err != nil {
		return errors.Wrapf(err, "Unable to connect to %s", bp.config.Addr)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return bp.play(ctx, conn)
}

func (bp *BotPlayer) play(ctx context.Context, conn net.Conn) error {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		bp.logger.Trace().Msgf("<== %s", line)
		reply := bp.HandleLine(line)
		if reply != "" {
			select {
			case <-time.After(bp.actionDelay()):
			case <-ctx.Done():
				return nil
			}
			_, err := conn.Write([]byte(reply + "\n"))
			if err != nil {
				return errors.Wrap(err, "Unable to send command")
			}
		}
		if bp.Done() {
			return nil
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}
