package connection

import "context"

// Transport carries protocol lines for one client. One goroutine reads and
// one goroutine writes.
type Transport interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(ctx context.Context, line string) error
	RemoteAddr() string
	Close() error
}
