package game

import (
	"sync"
	"time"

	"github.com/Williamxu98/Blackjack-Server/timer"
)

// BettingWindow is open from Start until either the countdown expires or the
// round driver closes it because everyone has bet. Exactly one Close call
// performs the terminal write. Bets are accepted under the same lock, so no
// bet can land after the window has closed.
type BettingWindow struct {
	lock   sync.Mutex
	active bool
	closed chan struct{}

	countdown *timer.Countdown
}

func NewBettingWindow(name string, limit time.Duration, poll time.Duration) *BettingWindow {
	w := &BettingWindow{
		closed: make(chan struct{}),
	}
	w.countdown = timer.NewCountdown(name, limit, poll, func() {
		w.Close()
	})
	return w
}

func (w *BettingWindow) Start() {
	w.lock.Lock()
	w.active = true
	w.lock.Unlock()
	w.countdown.Run()
}

func (w *BettingWindow) Active() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.active
}

// Close ends the window. It returns true only for the call that closed it.
func (w *BettingWindow) Close() bool {
	w.lock.Lock()
	if !w.active {
		w.lock.Unlock()
		return false
	}
	w.active = false
	close(w.closed)
	w.lock.Unlock()

	w.countdown.Stop()
	return true
}

// Done is closed when the window closes.
func (w *BettingWindow) Done() <-chan struct{} {
	return w.closed
}

// Wait returns once the countdown goroutine has terminated.
func (w *BettingWindow) Wait() {
	w.countdown.Wait()
}

func (w *BettingWindow) Expired() bool {
	return w.countdown.Expired()
}

func (w *BettingWindow) Remaining() time.Duration {
	if !w.Active() {
		return 0
	}
	return w.countdown.Remaining()
}

func (w *BettingWindow) PlaceBet(p *Player, amount int) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if !w.active {
		return ErrBettingClosed
	}
	return p.PlaceBet(amount)
}
