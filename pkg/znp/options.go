package znp

import (
	"log/slog"
	"time"

	"github.com/znp-host/znp-go/pkg/log"
)

// Defaults.
const (
	// DefaultTimeout bounds the wait for an SRSP.
	DefaultTimeout = time.Second

	// DefaultStaleWindow is how long a timed out request keeps its orphan.
	DefaultStaleWindow = 2 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the SRSP timeout. Values <= 0 are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithStaleWindow sets how long late replies of timed out requests are
// recognized. Zero disables orphan tracking.
func WithStaleWindow(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.staleWindow = d
		}
	}
}

// WithLogger sets the operational logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProtocolLogger enables protocol capture.
func WithProtocolLogger(l log.Logger) Option {
	return func(c *Client) {
		c.capture = l
	}
}

// WithSessionID sets the session id used in capture events. By default
// a random UUID is used.
func WithSessionID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithPort records the device name in capture events and log lines.
func WithPort(port string) Option {
	return func(c *Client) {
		c.port = port
	}
}
