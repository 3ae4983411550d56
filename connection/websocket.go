package connection

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/Williamxu98/Blackjack-Server/logging"
)

var wsLogger = log.With().Str("logger_name", "connection::websocket").Logger()

// wsTransport treats every text message as one or more protocol lines.
type wsTransport struct {
	conn       *websocket.Conn
	remoteAddr string
	pending    []string
}

func NewWebsocketTransport(conn *websocket.Conn, remoteAddr string) Transport {
	return &wsTransport{
		conn:       conn,
		remoteAddr: remoteAddr,
	}
}

func (t *wsTransport) ReadLine(ctx context.Context) (string, error) {
	for len(t.pending) == 0 {
		typ, data, err := t.conn.Read(ctx)
		if err != nil {
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if line != "" {
				t.pending = append(t.pending, line)
			}
		}
	}
	line := t.pending[0]
	t.pending = t.pending[1:]
	return line, nil
}

func (t *wsTransport) WriteLine(ctx context.Context, line string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return t.conn.Write(ctx, websocket.MessageText, []byte(line))
}

func (t *wsTransport) RemoteAddr() string {
	return t.remoteAddr
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "bye")
}

// WebsocketHandler upgrades the request and serves the client until it
// disconnects. The optional "name" query parameter names the player.
func (h *Hub) WebsocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			wsLogger.Warn().Err(err).Str(logging.RemoteAddrKey, r.RemoteAddr).Msg("Websocket upgrade failed")
			return
		}
		h.Serve(r.Context(), NewWebsocketTransport(conn, r.RemoteAddr), r.URL.Query().Get("name"))
	}
}
