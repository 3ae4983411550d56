package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Williamxu98/Blackjack-Server/cards"
	"github.com/Williamxu98/Blackjack-Server/logging"
	"github.com/Williamxu98/Blackjack-Server/util"
)

var roundLogger = log.With().Str("logger_name", "game::round").Logger()

// dealerBustValue loses to every hand still standing.
const dealerBustValue = -1

// MessageSink delivers protocol lines. Broadcast order is the order clients see.
type MessageSink interface {
	Broadcast(line string)
	SendToSeat(seatNo uint32, line string)
}

// Roster is the set of connected seated players.
type Roster interface {
	// SeatedPlayers returns the seated players ordered by seat number.
	SeatedPlayers() []*Player
	RemovePlayer(p *Player, reason RemoveReason)
}

type RoundListener interface {
	RoundStarted(roundNo uint32)
	PhaseChanged(roundNo uint32, phase string)
	RoundEnded(roundNo uint32, standings []Standing)
	GameEnded(rounds uint32)
}

type RemoveReason string

const (
	ReasonNoBet             RemoveReason = "no_bet"
	ReasonInsufficientFunds RemoveReason = "insufficient_funds"
	ReasonDisconnected      RemoveReason = "disconnected"
	ReasonQuit              RemoveReason = "quit"
)

type turnResult int

const (
	turnPending turnResult = iota
	turnBlackjack
	turnBust
	turnStood
	turnForfeit
)

type DriverConfig struct {
	TableCode string
	Rules     Rules
	// Source drives both the shuffle order and the shuffle-chance roll.
	Source rand.Source
	// Deck overrides the shoe built from Rules and Source.
	Deck     *cards.Deck
	Sink     MessageSink
	Roster   Roster
	Listener RoundListener
	// Running is checked before every round. Nil means always running.
	Running func() bool
}

// RoundDriver runs rounds on a single goroutine until no seated player is
// left. It exclusively owns the deck.
type RoundDriver struct {
	tableCode string
	rules     Rules
	deck      *cards.Deck
	randGen   *rand.Rand
	sink      MessageSink
	roster    Roster
	listener  RoundListener
	running   func() bool
	sm        *fsm.FSM
	chBet     chan struct{}
	logger    zerolog.Logger

	// per-round state. Snapshot reads it from other goroutines.
	lock         sync.Mutex
	roundNo      uint32
	dealer       Hand
	hiddenCard   *cards.Card
	dealerValue  int
	window       *BettingWindow
	activeSeat   uint32
	participants []*Player
	results      map[string]turnResult
}

func NewRoundDriver(config DriverConfig) (*RoundDriver, error) {
	if config.Sink == nil || config.Roster == nil {
		return nil, fmt.Errorf("Round driver for table %s needs a message sink and a roster", config.TableCode)
	}
	if err := config.Rules.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid rules")
	}
	source := config.Source
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	randGen := rand.New(source)
	deck := config.Deck
	if deck == nil {
		deck = cards.NewDeck(config.Rules.NumberOfDecks, randGen)
	}
	running := config.Running
	if running == nil {
		running = func() bool { return true }
	}
	listener := config.Listener
	if listener == nil {
		listener = nopListener{}
	}

	d := &RoundDriver{
		tableCode: config.TableCode,
		rules:     config.Rules,
		deck:      deck,
		randGen:   randGen,
		sink:      config.Sink,
		roster:    config.Roster,
		listener:  listener,
		running:   running,
		chBet:     make(chan struct{}, 1),
		logger:    roundLogger.With().Str(logging.TableCodeKey, config.TableCode).Logger(),
	}
	d.sm = newRoundFSM(d.enterState)
	return d, nil
}

func (d *RoundDriver) enterState(e *fsm.Event) {
	roundNo := d.RoundNum()
	d.logger.Debug().Uint32(logging.RoundNumKey, roundNo).Str(logging.PhaseKey, e.Dst).Msgf("[%s] ===> [%s]", e.Src, e.Dst)
	d.listener.PhaseChanged(roundNo, e.Dst)
}

func (d *RoundDriver) event(event string) error {
	err := d.sm.Event(event)
	if err != nil {
		return errors.Wrapf(err, "Round state machine rejected %s in %s", event, d.sm.Current())
	}
	return nil
}

func (d *RoundDriver) Phase() string {
	return d.sm.Current()
}

func (d *RoundDriver) RoundNum() uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.roundNo
}

// NotifyBet wakes the betting phase so it can check whether everyone has bet.
func (d *RoundDriver) NotifyBet() {
	select {
	case d.chBet <- struct{}{}:
	default:
	}
}

// PlaceBet accepts a bet only while the current betting window is open.
func (d *RoundDriver) PlaceBet(p *Player, amount int) error {
	if !p.IsSeated() {
		return ErrNotSeated
	}
	d.lock.Lock()
	window := d.window
	d.lock.Unlock()
	if window == nil {
		return ErrBettingClosed
	}
	err := window.PlaceBet(p, amount)
	if err != nil {
		return err
	}
	d.NotifyBet()
	return nil
}

// Run plays rounds until the running predicate turns false, nobody is seated
// or ctx is done. A deck running dry is returned as an error.
func (d *RoundDriver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch d.sm.Current() {
		case RoundState__IDLE, RoundState__SHUFFLE_CHECK:
			if !d.running() || len(d.roster.SeatedPlayers()) == 0 {
				err = d.event(RoundEvent__END_GAME)
				if err == nil {
					d.gameEnded()
				}
				return err
			}
			err = d.event(RoundEvent__OPEN_BETTING)
		case RoundState__BETTING:
			var bettors int
			bettors, err = d.runBetting(ctx)
			if err == nil {
				if bettors == 0 {
					err = d.event(RoundEvent__CLEANUP)
				} else {
					err = d.event(RoundEvent__DEAL)
				}
			}
		case RoundState__INITIAL_DEAL:
			err = d.runInitialDeal(ctx)
			if err == nil {
				err = d.event(RoundEvent__START_TURNS)
			}
		case RoundState__PLAYER_TURNS:
			err = d.runPlayerTurns(ctx)
			if err == nil {
				err = d.event(RoundEvent__DEALER_PLAY)
			}
		case RoundState__DEALER_PLAY:
			err = d.runDealerPlay(ctx)
			if err == nil {
				err = d.event(RoundEvent__SETTLE)
			}
		case RoundState__SETTLEMENT:
			d.runSettlement()
			err = d.event(RoundEvent__POST_STANDINGS)
		case RoundState__STANDINGS:
			d.runStandings()
			err = d.event(RoundEvent__CLEANUP)
		case RoundState__CLEANUP:
			d.runCleanup()
			err = d.event(RoundEvent__CHECK_SHUFFLE)
			if err == nil {
				d.runShuffleCheck()
				d.pause(ctx, d.rules.Delays.MoveToNextRound)
			}
		default:
			err = fmt.Errorf("Unexpected round state %s", d.sm.Current())
		}
		if err != nil {
			d.logger.Error().Err(err).Uint32(logging.RoundNumKey, d.RoundNum()).Msg("Round driver stopped")
			return err
		}
	}
}

func (d *RoundDriver) gameEnded() {
	rounds := d.RoundNum()
	d.logger.Info().Msgf("Game ended after %d rounds", rounds)
	d.listener.GameEnded(rounds)
}

func (d *RoundDriver) runBetting(ctx context.Context) (int, error) {
	d.lock.Lock()
	d.roundNo++
	roundNo := d.roundNo
	d.results = make(map[string]turnResult)
	d.lock.Unlock()

	util.Metrics.RoundStarted()
	d.listener.RoundStarted(roundNo)

	participants := d.roster.SeatedPlayers()
	for _, p := range participants {
		p.resetBet()
	}

	// the window is open before NEWROUND goes out so an immediate bet is accepted
	window := NewBettingWindow(fmt.Sprintf("%s:betting:%d", d.tableCode, roundNo), d.rules.BettingWindow(), d.rules.PollInterval())
	d.lock.Lock()
	d.window = window
	d.lock.Unlock()
	window.Start()
	d.sink.Broadcast(NewRoundMsg())

	var err error
	for window.Active() {
		if allBet(participants) {
			window.Close()
			break
		}
		select {
		case <-window.Done():
		case <-d.chBet:
		case <-ctx.Done():
			window.Close()
			err = ctx.Err()
		}
	}
	window.Wait()

	d.lock.Lock()
	d.window = nil
	d.lock.Unlock()
	if err != nil {
		return 0, err
	}

	d.logger.Info().Uint32(logging.RoundNumKey, roundNo).
		Bool("expired", window.Expired()).
		Msg("Betting closed")

	bettors := make([]*Player, 0, len(participants))
	for _, p := range participants {
		if p.Gone() {
			continue
		}
		if p.Bet() == 0 {
			d.logger.Info().Uint32(logging.SeatNumKey, p.SeatNo()).Msg("No bet in time. Removing from the table")
			d.roster.RemovePlayer(p, ReasonNoBet)
			continue
		}
		bettors = append(bettors, p)
	}

	d.lock.Lock()
	d.participants = bettors
	d.lock.Unlock()
	return len(bettors), nil
}

func allBet(players []*Player) bool {
	for _, p := range players {
		if p.Gone() {
			continue
		}
		if p.Bet() == 0 {
			return false
		}
	}
	return true
}

func (d *RoundDriver) draw() (*cards.Card, error) {
	c, err := d.deck.Draw()
	if err != nil {
		return nil, errors.Wrapf(err, "Table %s round %d", d.tableCode, d.RoundNum())
	}
	return c, nil
}

func (d *RoundDriver) runInitialDeal(ctx context.Context) error {
	hidden, err := d.draw()
	if err != nil {
		return err
	}
	d.lock.Lock()
	d.hiddenCard = hidden
	d.lock.Unlock()
	d.sink.Broadcast(HiddenDealerCardMsg())
	d.pause(ctx, d.rules.Delays.DealSingleCard)

	visible, err := d.draw()
	if err != nil {
		return err
	}
	d.lock.Lock()
	d.dealer.AddCard(visible)
	d.lock.Unlock()
	d.sink.Broadcast(CardMsg(DealerSeat, visible))
	d.pause(ctx, d.rules.Delays.DealSingleCard)

	for _, p := range d.currentParticipants() {
		for i := 0; i < 2; i++ {
			c, err := d.draw()
			if err != nil {
				return err
			}
			p.addCard(c)
			d.sink.Broadcast(CardMsg(p.SeatNo(), c))
			d.pause(ctx, d.rules.Delays.DealSingleCard)
		}
	}
	return nil
}

func (d *RoundDriver) runPlayerTurns(ctx context.Context) error {
	defer d.setActiveSeat(0)
	for _, p := range d.currentParticipants() {
		if p.Gone() {
			d.forfeit(p)
			continue
		}
		if p.HandTotal() == BlackjackTotal {
			balance := p.creditBet()
			d.setResult(p, turnBlackjack)
			util.Metrics.Outcome(string(OutcomeBlackjack))
			d.sink.Broadcast(OutcomeMsg(p.SeatNo(), OutcomeBlackjack, balance))
			continue
		}
		err := d.playTurn(ctx, p)
		if err != nil {
			return err
		}
		d.pause(ctx, d.rules.Delays.PlayerActed)
	}
	return nil
}

// playTurn serves one seat's decision loop. Only this seat is consulted until
// the loop ends.
func (d *RoundDriver) playTurn(ctx context.Context, p *Player) error {
	d.setActiveSeat(p.SeatNo())
	logger := d.logger.With().Uint32(logging.RoundNumKey, d.RoundNum()).Uint32(logging.SeatNumKey, p.SeatNo()).Logger()
	for {
		p.resetDecision()
		d.sink.Broadcast(TurnMsg(p.SeatNo()))

		decision, err := p.awaitDecision(ctx, d.rules.ActionTime())
		if err == ErrPlayerLeft {
			logger.Info().Msg("Player left during the turn. Bet is forfeited")
			d.forfeit(p)
			return nil
		} else if err == errActionTimedOut {
			logger.Info().Msg("Action timed out. Forcing stand")
			decision = DecisionStand
		} else if err != nil {
			return err
		}

		logger.Debug().Msgf("Decision: %s", decision)
		switch decision {
		case DecisionHit:
			resolved, err := d.hit(p)
			if err != nil || resolved {
				return err
			}
		case DecisionStand:
			d.stand(p)
			return nil
		case DecisionDoubleDown:
			if !p.canDoubleDown() {
				logger.Info().Msgf("Balance %d does not cover doubling bet %d", p.Balance(), p.Bet())
				d.sink.SendToSeat(p.SeatNo(), FormatErrorMsg())
				continue
			}
			p.doubleBet()
			resolved, err := d.hit(p)
			if err != nil || resolved {
				return err
			}
			d.stand(p)
			return nil
		}
	}
}

// hit deals one card to the seat and settles it right away on a bust or 21.
func (d *RoundDriver) hit(p *Player) (bool, error) {
	c, err := d.draw()
	if err != nil {
		return false, err
	}
	total := p.addCard(c)
	d.sink.Broadcast(CardMsg(p.SeatNo(), c))

	if total > BlackjackTotal {
		balance := p.debitBet()
		d.setResult(p, turnBust)
		util.Metrics.Outcome(string(OutcomeBust))
		d.sink.Broadcast(OutcomeMsg(p.SeatNo(), OutcomeBust, balance))
		return true, nil
	}
	if total == BlackjackTotal {
		balance := p.creditBet()
		d.setResult(p, turnBlackjack)
		util.Metrics.Outcome(string(OutcomeBlackjack))
		d.sink.Broadcast(OutcomeMsg(p.SeatNo(), OutcomeBlackjack, balance))
		return true, nil
	}
	return false, nil
}

func (d *RoundDriver) stand(p *Player) {
	p.forceDecision(DecisionStand)
	d.setResult(p, turnStood)
	d.sink.Broadcast(OutcomeMsg(p.SeatNo(), OutcomeStand, p.Balance()))
}

func (d *RoundDriver) forfeit(p *Player) {
	if d.result(p) != turnPending {
		return
	}
	p.debitBet()
	d.setResult(p, turnForfeit)
	util.Metrics.Outcome("forfeit")
}

func (d *RoundDriver) runDealerPlay(ctx context.Context) error {
	d.lock.Lock()
	hidden := d.hiddenCard
	d.hiddenCard = nil
	if hidden != nil {
		d.dealer.AddCard(hidden)
	}
	d.lock.Unlock()
	if hidden != nil {
		d.sink.Broadcast(CardMsg(DealerSeat, hidden))
		d.pause(ctx, d.rules.Delays.DealerDraw)
	}

	for d.dealerTotal() < DealerStandsOn {
		c, err := d.draw()
		if err != nil {
			return err
		}
		d.lock.Lock()
		d.dealer.AddCard(c)
		d.lock.Unlock()
		d.sink.Broadcast(CardMsg(DealerSeat, c))
		d.pause(ctx, d.rules.Delays.DealerDraw)
	}

	total := d.dealerTotal()
	d.lock.Lock()
	d.dealerValue = total
	if total > BlackjackTotal {
		d.dealerValue = dealerBustValue
	}
	d.lock.Unlock()

	switch {
	case total > BlackjackTotal:
		d.sink.Broadcast(DealerOutcomeMsg(OutcomeBust))
	case total == BlackjackTotal:
		d.sink.Broadcast(DealerOutcomeMsg(OutcomeBlackjack))
	default:
		d.sink.Broadcast(DealerOutcomeMsg(OutcomeStand))
	}
	d.logger.Debug().Uint32(logging.RoundNumKey, d.RoundNum()).Msgf("Dealer total: %d", total)
	return nil
}

// runSettlement compares standing hands with the dealer. Ties go to the dealer.
func (d *RoundDriver) runSettlement() {
	d.lock.Lock()
	dealerValue := d.dealerValue
	d.lock.Unlock()

	for _, p := range d.currentParticipants() {
		if p.Gone() || d.result(p) != turnStood {
			continue
		}
		if p.HandTotal() > dealerValue {
			p.creditBet()
			util.Metrics.Outcome("win")
		} else {
			p.debitBet()
			util.Metrics.Outcome("lose")
		}
	}
}

func (d *RoundDriver) runStandings() {
	standings := standingsOf(d.roster.SeatedPlayers())
	d.sink.Broadcast(StandingsMsg(standings))
	d.listener.RoundEnded(d.RoundNum(), standings)
}

func (d *RoundDriver) runCleanup() {
	d.lock.Lock()
	d.dealer.Clear()
	d.dealerValue = 0
	d.hiddenCard = nil
	d.participants = nil
	d.lock.Unlock()

	for _, p := range d.roster.SeatedPlayers() {
		p.clearHand()
		if p.Balance() < d.rules.MinimumBet {
			d.logger.Info().Uint32(logging.SeatNumKey, p.SeatNo()).
				Msgf("Balance %d is below the minimum bet %d. Removing from the table", p.Balance(), d.rules.MinimumBet)
			d.roster.RemovePlayer(p, ReasonInsufficientFunds)
		}
	}
}

// runShuffleCheck reloads the shoe when it runs low for the seats left, or
// by chance.
func (d *RoundDriver) runShuffleCheck() bool {
	seated := len(d.roster.SeatedPlayers())
	if d.deck.Remaining() < d.rules.MinimumCardsPerPlayer*seated ||
		d.randGen.Intn(100) < d.rules.ShuffleChance {
		d.deck.Reload()
		util.Metrics.DeckShuffled()
		d.sink.Broadcast(ShuffleMsg())
		return true
	}
	return false
}

func (d *RoundDriver) pause(ctx context.Context, ms uint32) {
	if ms == 0 {
		return
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (d *RoundDriver) dealerTotal() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.dealer.Total()
}

func (d *RoundDriver) currentParticipants() []*Player {
	d.lock.Lock()
	defer d.lock.Unlock()
	ret := make([]*Player, len(d.participants))
	copy(ret, d.participants)
	return ret
}

func (d *RoundDriver) setActiveSeat(seatNo uint32) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.activeSeat = seatNo
}

func (d *RoundDriver) setResult(p *Player, r turnResult) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.results[p.ID] = r
}

func (d *RoundDriver) result(p *Player) turnResult {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.results[p.ID]
}

func (d *RoundDriver) Snapshot() *Snapshot {
	players := d.roster.SeatedPlayers()

	d.lock.Lock()
	defer d.lock.Unlock()
	dealerCards := d.dealer.CardStrings()
	if d.hiddenCard != nil {
		dealerCards = append([]string{"XX"}, dealerCards...)
	}
	snapshot := &Snapshot{
		TableCode:  d.tableCode,
		RoundNo:    d.roundNo,
		Phase:      d.sm.Current(),
		ActiveSeat: d.activeSeat,
		Dealer: HandSnapshot{
			Cards: dealerCards,
			Total: d.dealer.Total(),
		},
		Players:   snapshotPlayers(players),
		UpdatedAt: time.Now().UTC(),
	}
	if d.window != nil {
		snapshot.BettingRemainingSec = d.window.Remaining().Seconds()
	}
	return snapshot
}

type nopListener struct{}

func (nopListener) RoundStarted(uint32)           {}
func (nopListener) PhaseChanged(uint32, string)   {}
func (nopListener) RoundEnded(uint32, []Standing) {}
func (nopListener) GameEnded(uint32)              {}
