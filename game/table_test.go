package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	lock         sync.Mutex
	lines        map[string][]string
	broadcasts   []string
	disconnected []string
	onBroadcast  func(line string)
}

func newRecordingHub() *recordingHub {
	return &recordingHub{lines: make(map[string][]string)}
}

func (h *recordingHub) Deliver(playerID string, line string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.lines[playerID] = append(h.lines[playerID], line)
}

func (h *recordingHub) DeliverAll(line string) {
	h.lock.Lock()
	h.broadcasts = append(h.broadcasts, line)
	onBroadcast := h.onBroadcast
	h.lock.Unlock()
	if onBroadcast != nil {
		onBroadcast(line)
	}
}

func (h *recordingHub) Disconnect(playerID string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.disconnected = append(h.disconnected, playerID)
}

func (h *recordingHub) linesFor(playerID string) []string {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]string(nil), h.lines[playerID]...)
}

func (h *recordingHub) allBroadcasts() []string {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]string(nil), h.broadcasts...)
}

type recordingPublisher struct {
	lock      sync.Mutex
	events    []string
	standings [][]Standing
}

func (p *recordingPublisher) PublishEvent(tableCode string, line string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, tableCode+":"+line)
}

func (p *recordingPublisher) PublishStandings(tableCode string, roundNo uint32, standings []Standing) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.standings = append(p.standings, standings)
}

func tableRules() Rules {
	rules := testRules()
	rules.MaxSeats = 2
	rules.BettingWindowSec = 0.3
	return rules
}

func TestSeatAssignment(t *testing.T) {
	hub := newRecordingHub()
	table := NewTable(TableConfig{Code: "main", Rules: tableRules(), Hub: hub})

	a := table.Join("a", "alice")
	b := table.Join("b", "bob")
	c := table.Join("c", "carol")

	assert.Equal(t, uint32(1), a.SeatNo())
	assert.Equal(t, uint32(2), b.SeatNo())
	assert.False(t, c.IsSeated())
	assert.Equal(t, []string{"% SEAT 1"}, hub.linesFor("a"))
	assert.Equal(t, []string{"% SPECTATOR"}, hub.linesFor("c"))
	assert.Same(t, a, table.Join("a", "alice"))

	// the spectator that has waited longest takes the freed seat
	d := table.Join("d", "dave")
	table.Leave(a, ReasonDisconnected)
	assert.Empty(t, hub.disconnected)
	assert.True(t, c.IsSeated())
	assert.Equal(t, uint32(1), c.SeatNo())
	assert.Equal(t, 1000, c.Balance())
	assert.Equal(t, []string{"% SPECTATOR", "% SEAT 1"}, hub.linesFor("c"))
	assert.False(t, d.IsSeated())

	seated := table.SeatedPlayers()
	require.Len(t, seated, 2)
	assert.Equal(t, "c", seated[0].ID)
	assert.Equal(t, "b", seated[1].ID)

	snapshot := table.Snapshot()
	assert.Equal(t, RoundState__IDLE, snapshot.Phase)
	assert.Equal(t, 1, snapshot.Spectators)
	assert.Len(t, snapshot.Players, 2)

	table.Leave(d, ReasonQuit)
	table.Leave(b, ReasonDisconnected)
	e := table.Join("e", "erin")
	assert.Equal(t, uint32(2), e.SeatNo())
}

func TestHandleCommandErrors(t *testing.T) {
	hub := newRecordingHub()
	table := NewTable(TableConfig{Code: "main", Rules: tableRules(), Hub: hub})
	a := table.Join("a", "alice")
	table.Join("b", "bob")
	spectator := table.Join("c", "carol")

	testCases := []struct {
		player *Player
		line   string
	}{
		{a, "split"},
		{a, "bet ten"},
		{a, "bet 10"},
		{spectator, "hit"},
	}
	for i, testCase := range testCases {
		before := len(hub.linesFor(testCase.player.ID))
		table.HandleCommand(testCase.player, testCase.line)
		lines := hub.linesFor(testCase.player.ID)
		if len(lines) != before+1 || lines[len(lines)-1] != "% FORMATERROR" {
			t.Errorf("Test case %d [%s] expected a format error, got %v", i, testCase.line, lines)
		}
	}

	table.HandleCommand(a, "hit")
	assert.Equal(t, DecisionHit, a.Decision())
}

func TestQuitIsRecorded(t *testing.T) {
	hub := newRecordingHub()
	table := NewTable(TableConfig{Code: "main", Rules: tableRules(), Hub: hub})
	a := table.Join("a", "alice")

	table.HandleCommand(a, "quit")
	assert.True(t, a.Gone())
	assert.Equal(t, []string{"% SEAT 1", "% REMOVED quit"}, hub.linesFor("a"))
	assert.Equal(t, []string{"a"}, hub.disconnected)
	_, ok := table.Player("a")
	assert.False(t, ok)

	entry, ok := table.Departed("a")
	require.True(t, ok)
	assert.Equal(t, 1000, entry.Balance)
	assert.Equal(t, string(ReasonQuit), entry.Reason)
}

func TestTablePlaysRounds(t *testing.T) {
	hub := newRecordingHub()
	publisher := &recordingPublisher{}
	store := NewMemorySnapshotTracker()
	rules := tableRules()
	rules.BettingWindowSec = 5
	table := NewTable(TableConfig{Code: "main", Rules: rules, Seed: 42, Hub: hub, Store: store, Publisher: publisher})

	var a *Player
	var joined sync.WaitGroup
	joined.Add(1)
	rounds := 0
	hub.onBroadcast = func(line string) {
		joined.Wait()
		switch {
		case line == NewRoundMsg():
			go func() {
				for i := 0; i < 200 && a.Bet() == 0 && !a.Gone(); i++ {
					table.HandleCommand(a, "bet 10")
					time.Sleep(5 * time.Millisecond)
				}
			}()
		case line == TurnMsg(a.SeatNo()):
			go table.HandleCommand(a, "stand")
		case strings.HasPrefix(line, PrefixStandings):
			rounds++
			if rounds == 2 {
				go table.HandleCommand(a, "quit")
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	table.Start(ctx)
	a = table.Join("a", "alice")
	joined.Done()

	require.Eventually(t, func() bool { return a.Gone() }, 8*time.Second, 10*time.Millisecond)
	table.Wait()

	standings := 0
	for _, line := range hub.allBroadcasts() {
		if strings.HasPrefix(line, PrefixStandings) {
			standings++
		}
	}
	assert.GreaterOrEqual(t, standings, 2)

	publisher.lock.Lock()
	assert.GreaterOrEqual(t, len(publisher.standings), 2)
	assert.Contains(t, publisher.events, fmt.Sprintf("main:%s", NewRoundMsg()))
	publisher.lock.Unlock()

	snapshot, err := store.Load("main")
	require.NoError(t, err)
	assert.Equal(t, "main", snapshot.TableCode)
	assert.GreaterOrEqual(t, snapshot.RoundNo, uint32(2))
}

func TestDepartureMidRound(t *testing.T) {
	hub := newRecordingHub()
	rules := tableRules()
	rules.BettingWindowSec = 5
	table := NewTable(TableConfig{Code: "main", Rules: rules, Seed: 42, Hub: hub})

	alice := table.Join("a", "alice")
	bob := table.Join("b", "bob")
	carol := table.Join("c", "carol")
	require.False(t, carol.IsSeated())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lock sync.Mutex
	var dave *Player
	var standings []string
	var leaveOnce, standingsOnce sync.Once
	bet := func(p *Player) {
		for i := 0; i < 200 && p.Bet() == 0 && !p.Gone(); i++ {
			table.HandleCommand(p, "bet 100")
			time.Sleep(5 * time.Millisecond)
		}
	}
	hub.onBroadcast = func(line string) {
		switch {
		case line == NewRoundMsg():
			go bet(alice)
			lock.Lock()
			if len(standings) == 0 {
				go bet(bob)
			}
			lock.Unlock()
		case line == TurnMsg(1) || strings.HasPrefix(line, "& 1 "):
			// bob drops before his turn comes up and a newcomer arrives
			leaveOnce.Do(func() {
				table.Leave(bob, ReasonDisconnected)
				d := table.Join("d", "dave")
				lock.Lock()
				dave = d
				lock.Unlock()
			})
			if line == TurnMsg(1) {
				go table.HandleCommand(alice, "stand")
			}
		case strings.HasPrefix(line, PrefixStandings):
			lock.Lock()
			standings = append(standings, line)
			lock.Unlock()
			standingsOnce.Do(func() {
				go func() {
					assert.Eventually(t, func() bool { return carol.IsSeated() }, 2*time.Second, 5*time.Millisecond)
					cancel()
				}()
			})
		}
	}

	table.Start(ctx)
	require.Eventually(t, func() bool { return ctx.Err() != nil }, 9*time.Second, 10*time.Millisecond)
	table.Wait()

	lock.Lock()
	defer lock.Unlock()
	require.NotEmpty(t, standings)
	fields := strings.Fields(standings[0])
	require.Len(t, fields, 3, "only seat 1 stands in [%s]", standings[0])
	assert.Equal(t, "1", fields[1])

	entry, ok := table.Departed("b")
	require.True(t, ok)
	assert.Equal(t, string(ReasonDisconnected), entry.Reason)
	assert.Equal(t, 900, entry.Balance)
	assert.Equal(t, 900, bob.Balance())

	require.NotNil(t, dave)
	assert.Equal(t, uint32(2), carol.SeatNo())
	assert.Equal(t, []string{"% SPECTATOR", "% SEAT 2"}, hub.linesFor("c"))
	assert.False(t, dave.IsSeated())
	assert.Equal(t, []string{"% SPECTATOR"}, hub.linesFor("d"))
}
