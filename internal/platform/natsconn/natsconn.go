// Package natsconn dials NATS with a bounded reconnect policy. Callers pass
// an explicit URL from their service config; a dial failure is returned
// immediately so the service can decide whether to degrade or abort.
package natsconn

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// DefaultMaxReconnects bounds how often an established connection is
	// re-dialled after a drop before it is declared dead.
	DefaultMaxReconnects = 5
	// DefaultReconnectWait is the pause between those re-dial attempts.
	DefaultReconnectWait = 2 * time.Second
)

// Options configures a NATS connection. URL is required; the remaining
// fields take the package defaults when left zero.
type Options struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = DefaultMaxReconnects
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = DefaultReconnectWait
	}
	return o
}

// Connect dials the configured server. The initial dial is not retried;
// reconnect options only govern an already-established connection.
func Connect(opts Options) (*nats.Conn, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("natsconn: URL is required")
	}
	opts = opts.withDefaults()

	nc, err := nats.Connect(opts.URL,
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return nc, nil
}
