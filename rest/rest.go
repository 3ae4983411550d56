package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	caches "github.com/Williamxu98/Blackjack-Server/caching"
	"github.com/Williamxu98/Blackjack-Server/game"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()

// TableStatus is the read side of the table served over HTTP.
type TableStatus interface {
	Code() string
	Snapshot() *game.Snapshot
	Player(playerID string) (*game.Player, bool)
	Departed(playerID string) (caches.DepartedPlayer, bool)
	PlayerCount() int
}

// APP error definition
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type playerStatus struct {
	PlayerID string   `json:"playerId"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	SeatNo   uint32   `json:"seatNo"`
	Balance  int      `json:"balance"`
	Bet      int      `json:"bet"`
	Hand     []string `json:"hand"`
	Present  bool     `json:"present"`
	Reason   string   `json:"reason,omitempty"`
}

type server struct {
	table TableStatus
}

// NewRouter builds the status API. wsHandler, when set, serves websocket
// clients on /ws.
func NewRouter(table TableStatus, wsHandler http.Handler) *gin.Engine {
	s := &server{table: table}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ready", s.ready)
	r.GET("/table", s.snapshot)
	r.GET("/players/:id", s.player)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if wsHandler != nil {
		r.GET("/ws", gin.WrapH(wsHandler))
	}
	return r
}

// RunRestServer serves the router on addr until ctx is done.
func RunRestServer(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	restLogger.Info().Msgf("Status API listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "Status API on %s failed", addr)
	}
	return nil
}

func (s *server) ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "table": s.table.Code(), "players": s.table.PlayerCount()})
}

func (s *server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.table.Snapshot())
}

func (s *server) player(c *gin.Context) {
	playerID := c.Param("id")
	if p, ok := s.table.Player(playerID); ok {
		c.JSON(http.StatusOK, playerStatus{
			PlayerID: p.ID,
			Name:     p.Name,
			Role:     p.Role().String(),
			SeatNo:   p.SeatNo(),
			Balance:  p.Balance(),
			Bet:      p.Bet(),
			Hand:     p.HandCards(),
			Present:  true,
		})
		return
	}
	if entry, ok := s.table.Departed(playerID); ok {
		c.JSON(http.StatusOK, playerStatus{
			PlayerID: entry.PlayerID,
			Name:     entry.Name,
			Role:     game.RoleSeated.String(),
			SeatNo:   entry.SeatNo,
			Balance:  entry.Balance,
			Present:  false,
			Reason:   entry.Reason,
		})
		return
	}
	restLogger.Debug().Msgf("Player %s is not found", playerID)
	c.JSON(http.StatusNotFound, appError{Code: http.StatusNotFound, Message: "player not found"})
}
