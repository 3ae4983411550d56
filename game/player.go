package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Williamxu98/Blackjack-Server/cards"
)

/**
NOTE: Seat numbers start at 1. Seat 0 is the dealer.
**/

type Role int

const (
	RoleSpectator Role = iota
	RoleSeated
)

func (r Role) String() string {
	if r == RoleSeated {
		return "seated"
	}
	return "spectator"
}

type Decision int

const (
	DecisionNone Decision = iota
	DecisionHit
	DecisionStand
	DecisionDoubleDown
)

func (d Decision) String() string {
	switch d {
	case DecisionHit:
		return "hit"
	case DecisionStand:
		return "stand"
	case DecisionDoubleDown:
		return "doubledown"
	default:
		return "none"
	}
}

func ParseDecision(s string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hit":
		return DecisionHit, true
	case "stand":
		return DecisionStand, true
	case "doubledown":
		return DecisionDoubleDown, true
	}
	return DecisionNone, false
}

// Player is a connected client. Seated players play rounds; spectators only
// receive broadcasts. Bet and decision are written by the player's connection
// goroutine and read by the round driver, so every field sits behind lock.
// A spectator becomes seated when the table promotes it into a free seat.
type Player struct {
	ID   string
	Name string

	lock     sync.Mutex
	seatNo   uint32
	role     Role
	balance  int
	bet      int
	decision Decision
	hand     Hand

	chDecision chan struct{}
	chLeft     chan struct{}
	leaveOnce  sync.Once
}

func NewPlayer(id string, name string, seatNo uint32, role Role, balance int) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		seatNo:     seatNo,
		role:       role,
		balance:    balance,
		chDecision: make(chan struct{}, 1),
		chLeft:     make(chan struct{}),
	}
}

func (p *Player) SeatNo() uint32 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.seatNo
}

func (p *Player) Role() Role {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.role
}

func (p *Player) IsSeated() bool {
	return p.Role() == RoleSeated
}

// promote seats a spectator with a fresh balance.
func (p *Player) promote(seatNo uint32, balance int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.seatNo = seatNo
	p.role = RoleSeated
	p.balance = balance
	p.bet = 0
	p.decision = DecisionNone
	p.hand.Clear()
}

func (p *Player) Balance() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.balance
}

func (p *Player) Bet() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.bet
}

func (p *Player) Decision() Decision {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.decision
}

func (p *Player) HandTotal() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.hand.Total()
}

func (p *Player) HandCards() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.hand.CardStrings()
}

// PlaceBet records this round's bet. The amount must be positive and covered
// by the balance.
func (p *Player) PlaceBet(amount int) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if amount <= 0 || amount > p.balance {
		return InvalidBetError{Amount: amount, Balance: p.balance}
	}
	p.bet = amount
	return nil
}

// SetDecision is called by the connection goroutine. Only the seat named in
// the current turn announcement is ever consulted.
func (p *Player) SetDecision(d Decision) {
	p.lock.Lock()
	p.decision = d
	p.lock.Unlock()

	select {
	case p.chDecision <- struct{}{}:
	default:
	}
}

// Leave marks the player as gone and releases any wait on it.
func (p *Player) Leave() {
	p.leaveOnce.Do(func() {
		close(p.chLeft)
	})
}

func (p *Player) Gone() bool {
	select {
	case <-p.chLeft:
		return true
	default:
		return false
	}
}

func (p *Player) Left() <-chan struct{} {
	return p.chLeft
}

// resetDecision marks a turn boundary so a decision sent for an earlier turn
// is never applied to the next one.
func (p *Player) resetDecision() {
	p.lock.Lock()
	p.decision = DecisionNone
	p.lock.Unlock()

	select {
	case <-p.chDecision:
	default:
	}
}

func (p *Player) forceDecision(d Decision) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.decision = d
}

// awaitDecision blocks until the decision moves away from None. A zero
// timeout waits until the player leaves or ctx is done.
func (p *Player) awaitDecision(ctx context.Context, timeout time.Duration) (Decision, error) {
	var chTimeout <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		chTimeout = t.C
	}
	for {
		if d := p.Decision(); d != DecisionNone {
			return d, nil
		}
		select {
		case <-p.chDecision:
		case <-p.chLeft:
			return DecisionNone, ErrPlayerLeft
		case <-chTimeout:
			return DecisionNone, errActionTimedOut
		case <-ctx.Done():
			return DecisionNone, ctx.Err()
		}
	}
}

func (p *Player) resetBet() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.bet = 0
}

// creditBet pays the bet, clears it and returns the new balance.
func (p *Player) creditBet() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.balance += p.bet
	p.bet = 0
	return p.balance
}

// debitBet takes the bet, clears it and returns the new balance.
func (p *Player) debitBet() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.balance -= p.bet
	p.bet = 0
	return p.balance
}

func (p *Player) canDoubleDown() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.bet > 0 && p.balance >= 2*p.bet
}

func (p *Player) doubleBet() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.bet *= 2
}

func (p *Player) addCard(c *cards.Card) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.hand.AddCard(c)
}

func (p *Player) clearHand() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.hand.Clear()
}
