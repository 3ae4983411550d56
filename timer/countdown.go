package timer

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var countdownLogger = log.With().Str("logger_name", "timer::countdown").Logger()

// Countdown runs on its own goroutine and checks the elapsed time every poll
// interval. When the limit is reached it calls onExpire once and returns.
type Countdown struct {
	name     string
	limit    time.Duration
	poll     time.Duration
	onExpire func()

	chEndLoop chan bool
	done      chan struct{}
	stopOnce  sync.Once

	lock      sync.Mutex
	startedAt time.Time
	expired   bool
}

func NewCountdown(name string, limit time.Duration, poll time.Duration, onExpire func()) *Countdown {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &Countdown{
		name:      name,
		limit:     limit,
		poll:      poll,
		onExpire:  onExpire,
		chEndLoop: make(chan bool),
		done:      make(chan struct{}),
	}
}

func (c *Countdown) Run() {
	c.lock.Lock()
	c.startedAt = time.Now()
	c.lock.Unlock()
	go c.loop()
}

// Stop ends the loop without calling onExpire. Safe to call more than once
// and after the countdown has expired.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.chEndLoop)
	})
}

// Wait blocks until the countdown goroutine has returned.
func (c *Countdown) Wait() {
	<-c.done
}

func (c *Countdown) Expired() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.expired
}

func (c *Countdown) Elapsed() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.startedAt.IsZero() {
		return 0
	}
	return time.Since(c.startedAt)
}

func (c *Countdown) Remaining() time.Duration {
	remaining := c.limit - c.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Countdown) loop() {
	defer close(c.done)
	defer func() {
		err := recover()
		if err != nil {
			countdownLogger.Error().
				Str("countdown", c.name).
				Msgf("Countdown loop returning due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack()))
		} else {
			countdownLogger.Debug().Str("countdown", c.name).Msg("Countdown loop returning")
		}
	}()

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		select {
		case <-c.chEndLoop:
			return
		case <-ticker.C:
			if c.Elapsed() >= c.limit {
				c.lock.Lock()
				c.expired = true
				c.lock.Unlock()
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
		}
	}
}
