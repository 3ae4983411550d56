package connection

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Williamxu98/Blackjack-Server/logging"
)

var tcpLogger = log.With().Str("logger_name", "connection::tcp").Logger()

const writeTimeout = 10 * time.Second

type tcpTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

func NewTCPTransport(conn net.Conn) Transport {
	return &tcpTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

func (t *tcpTransport) ReadLine(ctx context.Context) (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *tcpTransport) WriteLine(ctx context.Context, line string) error {
	err := t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err != nil {
		return err
	}
	_, err = t.writer.WriteString(line + "\n")
	if err != nil {
		return err
	}
	return t.writer.Flush()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// ListenTCP accepts line protocol clients on addr until ctx is done.
func (h *Hub) ListenTCP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "Unable to listen on %s", addr)
	}
	return h.ServeTCP(ctx, listener)
}

func (h *Hub) ServeTCP(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	tcpLogger.Info().Msgf("Accepting table connections on %s", listener.Addr().String())
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				tcpLogger.Warn().Err(err).Msg("Temporary accept error")
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return errors.Wrap(err, "Accept failed")
		}
		tcpLogger.Debug().Str(logging.RemoteAddrKey, conn.RemoteAddr().String()).Msg("New connection")
		go h.Serve(ctx, NewTCPTransport(conn), "")
	}
}
