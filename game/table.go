package game

import (
	"context"
	"sort"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/rs/zerolog/log"

	caches "github.com/Williamxu98/Blackjack-Server/caching"
	"github.com/Williamxu98/Blackjack-Server/logging"
	"github.com/Williamxu98/Blackjack-Server/util"
	"github.com/Williamxu98/Blackjack-Server/util/random"
)

var tableLogger = log.With().Str("logger_name", "game::table").Logger()

// Hub delivers lines to connected clients.
type Hub interface {
	Deliver(playerID string, line string)
	DeliverAll(line string)
	// Disconnect closes the client's connection once its pending lines are written.
	Disconnect(playerID string)
}

// EventPublisher mirrors table events to an outside subscriber.
type EventPublisher interface {
	PublishEvent(tableCode string, line string)
	PublishStandings(tableCode string, roundNo uint32, standings []Standing)
}

type TableConfig struct {
	Code  string
	Rules Rules
	// Seed makes every game at this table reproducible. 0 picks a random seed.
	Seed      int64
	Hub       Hub
	Store     SnapshotStore
	Publisher EventPublisher
	Departed  *caches.DepartedLedger
}

// Table is the single table served by this process. It seats connected
// players, relays their commands and runs one game at a time.
type Table struct {
	code      string
	rules     Rules
	seed      int64
	hub       Hub
	store     SnapshotStore
	publisher EventPublisher
	departed  *caches.DepartedLedger

	players cmap.ConcurrentMap

	lock  sync.Mutex
	seats map[uint32]*Player
	// seats freed while a round is in play stay held until cleanup
	held map[uint32]bool
	// spectators in join order, first in line for a free seat
	waiting []*Player
	// seated players that left while their bet could still be settled
	unsettled map[string]*Player
	phase     string
	driver    *RoundDriver
	gameNo    int64
	ctx       context.Context
	wg        sync.WaitGroup
}

func NewTable(config TableConfig) *Table {
	store := config.Store
	if store == nil {
		store = NewMemorySnapshotTracker()
	}
	departed := config.Departed
	if departed == nil {
		var err error
		departed, err = caches.NewDepartedLedger(0)
		if err != nil {
			panic(err)
		}
	}
	return &Table{
		code:      config.Code,
		rules:     config.Rules,
		seed:      config.Seed,
		hub:       config.Hub,
		store:     store,
		publisher: config.Publisher,
		departed:  departed,
		players:   cmap.New(),
		seats:     make(map[uint32]*Player),
		held:      make(map[uint32]bool),
		unsettled: make(map[string]*Player),
		phase:     RoundState__IDLE,
	}
}

func (t *Table) Code() string {
	return t.code
}

func (t *Table) Rules() Rules {
	return t.rules
}

// Start allows games to run until ctx is done. Games start as soon as
// enough players are seated.
func (t *Table) Start(ctx context.Context) {
	t.lock.Lock()
	t.ctx = ctx
	t.lock.Unlock()
	t.maybeStartGame()
}

// Wait returns once the running game, if any, has ended.
func (t *Table) Wait() {
	t.wg.Wait()
}

// Join adds a connected client. It takes the lowest free seat or becomes a
// spectator when the table is full.
func (t *Table) Join(playerID string, name string) *Player {
	if v, ok := t.players.Get(playerID); ok {
		return v.(*Player)
	}

	t.lock.Lock()
	seatNo := t.freeSeat()
	var p *Player
	if seatNo != 0 {
		p = NewPlayer(playerID, name, seatNo, RoleSeated, t.rules.StartingBalance)
		t.seats[seatNo] = p
	} else {
		p = NewPlayer(playerID, name, 0, RoleSpectator, 0)
		t.waiting = append(t.waiting, p)
	}
	t.players.Set(playerID, p)
	seated := len(t.seats)
	t.lock.Unlock()

	t.departed.Forget(playerID)
	util.Metrics.SetSeatedPlayers(seated)

	logger := tableLogger.With().
		Str(logging.TableCodeKey, t.code).
		Str(logging.PlayerIDKey, playerID).
		Str(logging.PlayerNameKey, name).
		Logger()
	if p.IsSeated() {
		logger.Info().Uint32(logging.SeatNumKey, seatNo).Msg("Player took a seat")
		t.deliver(playerID, SeatMsg(seatNo))
	} else {
		logger.Info().Msg("Table is full. Player joined as a spectator")
		t.deliver(playerID, SpectatorMsg())
	}

	t.maybeStartGame()
	return p
}

// Leave removes the player from the table. Removals other than a lost
// connection are reported to the client before its connection is closed.
func (t *Table) Leave(p *Player, reason RemoveReason) {
	if _, ok := t.players.Pop(p.ID); !ok {
		return
	}

	t.lock.Lock()
	seatNo := p.SeatNo()
	seatedPlayer := p.IsSeated()
	if seatedPlayer && t.seats[seatNo] == p {
		delete(t.seats, seatNo)
		if t.roundInPlay() {
			t.held[seatNo] = true
			t.unsettled[p.ID] = p
		}
	} else {
		t.dropWaiting(p)
	}
	if seatedPlayer {
		// recorded under the table lock so a settling round finds the entry
		err := t.departed.Add(caches.DepartedPlayer{
			PlayerID: p.ID,
			Name:     p.Name,
			SeatNo:   seatNo,
			Balance:  p.Balance(),
			Reason:   string(reason),
		})
		if err != nil {
			tableLogger.Warn().Err(err).Msg("Could not record departed player")
		}
	}
	promoted := t.promoteWaiting()
	seated := len(t.seats)
	t.lock.Unlock()

	p.Leave()
	util.Metrics.SetSeatedPlayers(seated)
	if seatedPlayer {
		util.Metrics.SeatRemoved(string(reason))
	}

	tableLogger.Info().
		Str(logging.TableCodeKey, t.code).
		Str(logging.PlayerIDKey, p.ID).
		Uint32(logging.SeatNumKey, seatNo).
		Str("reason", string(reason)).
		Msgf("Player left the table with balance %d", p.Balance())

	if reason != ReasonDisconnected && t.hub != nil {
		t.hub.Deliver(p.ID, RemovedMsg(reason))
		t.hub.Disconnect(p.ID)
	}
	t.seatPromoted(promoted)
}

// freeSeat returns the lowest seat that is neither taken nor held, or 0.
func (t *Table) freeSeat() uint32 {
	for i := 1; i <= t.rules.MaxSeats; i++ {
		seatNo := uint32(i)
		if _, taken := t.seats[seatNo]; !taken && !t.held[seatNo] {
			return seatNo
		}
	}
	return 0
}

// roundInPlay is true from betting until the round is settled. Seats freed in
// that span still belong to the round's participants.
func (t *Table) roundInPlay() bool {
	if t.driver == nil {
		return false
	}
	switch t.phase {
	case RoundState__BETTING, RoundState__INITIAL_DEAL, RoundState__PLAYER_TURNS,
		RoundState__DEALER_PLAY, RoundState__SETTLEMENT, RoundState__STANDINGS:
		return true
	}
	return false
}

func (t *Table) dropWaiting(p *Player) {
	for i, w := range t.waiting {
		if w == p {
			t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
			return
		}
	}
}

// promoteWaiting moves spectators into free seats, oldest first.
func (t *Table) promoteWaiting() []*Player {
	var promoted []*Player
	for len(t.waiting) > 0 {
		seatNo := t.freeSeat()
		if seatNo == 0 {
			break
		}
		p := t.waiting[0]
		t.waiting = t.waiting[1:]
		p.promote(seatNo, t.rules.StartingBalance)
		t.seats[seatNo] = p
		promoted = append(promoted, p)
	}
	return promoted
}

func (t *Table) seatPromoted(promoted []*Player) {
	if len(promoted) == 0 {
		return
	}
	for _, p := range promoted {
		tableLogger.Info().
			Str(logging.TableCodeKey, t.code).
			Str(logging.PlayerIDKey, p.ID).
			Uint32(logging.SeatNumKey, p.SeatNo()).
			Msg("Spectator took a free seat")
		t.deliver(p.ID, SeatMsg(p.SeatNo()))
	}
	t.lock.Lock()
	seated := len(t.seats)
	t.lock.Unlock()
	util.Metrics.SetSeatedPlayers(seated)
	t.maybeStartGame()
}

// releaseHeldSeats records the settled balance of players that left mid-round
// and hands their seats to waiting spectators.
func (t *Table) releaseHeldSeats() {
	t.lock.Lock()
	unsettled := t.unsettled
	t.unsettled = make(map[string]*Player)
	t.held = make(map[uint32]bool)
	promoted := t.promoteWaiting()
	t.lock.Unlock()

	for _, p := range unsettled {
		t.departed.UpdateBalance(p.ID, p.Balance())
	}
	t.seatPromoted(promoted)
}

// HandleCommand dispatches one line received from the player's connection.
func (t *Table) HandleCommand(p *Player, line string) {
	cmd, err := ParseCommand(line)
	if err != nil {
		tableLogger.Debug().Str(logging.PlayerIDKey, p.ID).Err(err).Msg("Invalid command")
		t.deliver(p.ID, FormatErrorMsg())
		return
	}

	switch cmd.Kind {
	case CommandQuit:
		t.Leave(p, ReasonQuit)
	case CommandBet:
		driver := t.currentDriver()
		if driver == nil {
			err = ErrBettingClosed
		} else {
			err = driver.PlaceBet(p, cmd.Amount)
		}
	case CommandDecision:
		if !p.IsSeated() {
			err = ErrNotSeated
		} else {
			p.SetDecision(cmd.Decision)
		}
	}
	if err != nil {
		tableLogger.Debug().Str(logging.PlayerIDKey, p.ID).Err(err).Msgf("Rejected command [%s]", line)
		t.deliver(p.ID, FormatErrorMsg())
	}
}

func (t *Table) Player(playerID string) (*Player, bool) {
	v, ok := t.players.Get(playerID)
	if !ok {
		return nil, false
	}
	return v.(*Player), true
}

func (t *Table) Departed(playerID string) (caches.DepartedPlayer, bool) {
	return t.departed.Get(playerID)
}

func (t *Table) PlayerCount() int {
	return t.players.Count()
}

func (t *Table) spectatorCount() int {
	count := 0
	for _, v := range t.players.Items() {
		if !v.(*Player).IsSeated() {
			count++
		}
	}
	return count
}

func (t *Table) currentDriver() *RoundDriver {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.driver
}

func (t *Table) maybeStartGame() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.driver != nil || t.ctx == nil || t.ctx.Err() != nil {
		return
	}
	if len(t.seats) < t.rules.MinPlayers {
		return
	}

	t.gameNo++
	var seed int64
	if t.seed != 0 {
		seed = t.seed + t.gameNo
	}
	ctx := t.ctx
	driver, err := NewRoundDriver(DriverConfig{
		TableCode: t.code,
		Rules:     t.rules,
		Source:    random.NewSource(seed),
		Sink:      t,
		Roster:    t,
		Listener:  t,
		Running:   func() bool { return ctx.Err() == nil },
	})
	if err != nil {
		tableLogger.Error().Err(err).Str(logging.TableCodeKey, t.code).Msg("Unable to create round driver")
		return
	}
	t.driver = driver
	tableLogger.Info().Str(logging.TableCodeKey, t.code).Msgf("Starting game %d", t.gameNo)

	t.wg.Add(1)
	go t.runGame(ctx, driver)
}

func (t *Table) runGame(ctx context.Context, driver *RoundDriver) {
	defer t.wg.Done()
	err := driver.Run(ctx)
	if err != nil && ctx.Err() == nil {
		tableLogger.Error().Err(err).Str(logging.TableCodeKey, t.code).Msg("Game ended with an error")
	}

	t.lock.Lock()
	t.driver = nil
	t.phase = RoundState__IDLE
	t.lock.Unlock()

	t.releaseHeldSeats()
	// players may have joined while the previous game was ending
	t.maybeStartGame()
}

// SeatedPlayers implements Roster.
func (t *Table) SeatedPlayers() []*Player {
	t.lock.Lock()
	players := make([]*Player, 0, len(t.seats))
	for _, p := range t.seats {
		if !p.Gone() {
			players = append(players, p)
		}
	}
	t.lock.Unlock()
	sort.Slice(players, func(i, j int) bool { return players[i].SeatNo() < players[j].SeatNo() })
	return players
}

// RemovePlayer implements Roster.
func (t *Table) RemovePlayer(p *Player, reason RemoveReason) {
	t.Leave(p, reason)
}

// Broadcast implements MessageSink.
func (t *Table) Broadcast(line string) {
	if t.hub != nil {
		t.hub.DeliverAll(line)
	}
	if t.publisher != nil {
		t.publisher.PublishEvent(t.code, line)
	}
}

// SendToSeat implements MessageSink.
func (t *Table) SendToSeat(seatNo uint32, line string) {
	t.lock.Lock()
	p, ok := t.seats[seatNo]
	t.lock.Unlock()
	if ok {
		t.deliver(p.ID, line)
	}
}

func (t *Table) deliver(playerID string, line string) {
	if t.hub != nil {
		t.hub.Deliver(playerID, line)
	}
}

func (t *Table) RoundStarted(roundNo uint32) {
	tableLogger.Info().Str(logging.TableCodeKey, t.code).Uint32(logging.RoundNumKey, roundNo).Msg("Round started")
}

func (t *Table) PhaseChanged(roundNo uint32, phase string) {
	t.lock.Lock()
	t.phase = phase
	t.lock.Unlock()
	if phase == RoundState__CLEANUP {
		t.releaseHeldSeats()
	}
	t.saveSnapshot()
}

func (t *Table) RoundEnded(roundNo uint32, standings []Standing) {
	t.lock.Lock()
	unsettled := make([]*Player, 0, len(t.unsettled))
	for _, p := range t.unsettled {
		unsettled = append(unsettled, p)
	}
	t.lock.Unlock()
	for _, p := range unsettled {
		t.departed.UpdateBalance(p.ID, p.Balance())
	}
	t.saveSnapshot()
	if t.publisher != nil {
		t.publisher.PublishStandings(t.code, roundNo, standings)
	}
}

func (t *Table) GameEnded(rounds uint32) {
	tableLogger.Info().Str(logging.TableCodeKey, t.code).Msgf("Game over after %d rounds", rounds)
}

// Snapshot returns the table as a display client would draw it.
func (t *Table) Snapshot() *Snapshot {
	var snapshot *Snapshot
	if driver := t.currentDriver(); driver != nil {
		snapshot = driver.Snapshot()
	} else {
		snapshot = &Snapshot{
			TableCode: t.code,
			Phase:     RoundState__IDLE,
			Players:   snapshotPlayers(t.SeatedPlayers()),
			UpdatedAt: time.Now().UTC(),
		}
	}
	snapshot.Spectators = t.spectatorCount()
	return snapshot
}

func (t *Table) saveSnapshot() {
	err := t.store.Save(t.code, t.Snapshot())
	if err != nil {
		tableLogger.Warn().Err(err).Str(logging.TableCodeKey, t.code).Msg("Could not save table snapshot")
	}
}
