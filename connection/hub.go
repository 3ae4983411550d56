package connection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Williamxu98/Blackjack-Server/game"
	"github.com/Williamxu98/Blackjack-Server/logging"
	"github.com/Williamxu98/Blackjack-Server/util"
)

var hubLogger = log.With().Str("logger_name", "connection::hub").Logger()

const (
	DefaultSendQueueSize     = 256
	DefaultCommandsPerSecond = 10
	DefaultCommandBurst      = 20
)

// Table is what a connection needs from the game table.
type Table interface {
	Join(playerID string, name string) *game.Player
	Leave(p *game.Player, reason game.RemoveReason)
	HandleCommand(p *game.Player, line string)
}

type HubConfig struct {
	SendQueueSize     int
	CommandsPerSecond float64
	CommandBurst      int
}

// Hub tracks open connections by player ID and fans out table lines.
type Hub struct {
	config  HubConfig
	clients cmap.ConcurrentMap
	table   Table
}

func NewHub(config HubConfig) *Hub {
	if config.SendQueueSize <= 0 {
		config.SendQueueSize = DefaultSendQueueSize
	}
	if config.CommandsPerSecond <= 0 {
		config.CommandsPerSecond = DefaultCommandsPerSecond
	}
	if config.CommandBurst <= 0 {
		config.CommandBurst = DefaultCommandBurst
	}
	return &Hub{
		config:  config,
		clients: cmap.New(),
	}
}

// Bind sets the table that new connections join. Must be called before serving.
func (h *Hub) Bind(table Table) {
	h.table = table
}

func (h *Hub) Deliver(playerID string, line string) {
	if v, ok := h.clients.Get(playerID); ok {
		v.(*client).enqueue(line)
	}
}

func (h *Hub) DeliverAll(line string) {
	for _, v := range h.clients.Items() {
		v.(*client).enqueue(line)
	}
}

func (h *Hub) Disconnect(playerID string) {
	if v, ok := h.clients.Get(playerID); ok {
		v.(*client).close()
	}
}

func (h *Hub) Count() int {
	return h.clients.Count()
}

// Serve runs the connection until the client goes away. The calling
// goroutine becomes the reader.
func (h *Hub) Serve(ctx context.Context, transport Transport, name string) {
	id := uuid.New().String()
	if name == "" {
		name = fmt.Sprintf("player-%s", id[:8])
	}
	logger := hubLogger.With().
		Str(logging.PlayerIDKey, id).
		Str(logging.RemoteAddrKey, transport.RemoteAddr()).
		Logger()

	c := newClient(id, transport, h.config.SendQueueSize, logger)
	h.clients.Set(id, c)
	util.Metrics.ConnectionOpened()
	defer util.Metrics.ConnectionClosed()

	writerDone := make(chan struct{})
	go func() {
		c.writeLoop(ctx)
		close(writerDone)
	}()

	logger.Info().Msg("Client connected")
	p := h.table.Join(id, name)

	limiter := rate.NewLimiter(rate.Limit(h.config.CommandsPerSecond), h.config.CommandBurst)
	for {
		line, err := transport.ReadLine(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("Read ended")
			break
		}
		if !limiter.Allow() {
			logger.Warn().Msgf("Too many commands. Dropped [%s]", line)
			continue
		}
		if line == "" {
			continue
		}
		h.table.HandleCommand(p, line)
		if p.Gone() {
			break
		}
	}

	h.table.Leave(p, game.ReasonDisconnected)
	c.close()
	<-writerDone
	h.clients.Remove(id)
	logger.Info().Msg("Client disconnected")
}
