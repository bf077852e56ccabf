package znp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/log"
	"github.com/znp-host/znp-go/pkg/transport"
	"github.com/znp-host/znp-go/pkg/wire"
)

// Ticket states reported in capture events.
const (
	stateIdle     = "IDLE"
	stateAwaiting = "AWAITING_REPLY"
)

// Connection states reported in capture events.
const (
	stateOpen   = "OPEN"
	stateLost   = "LOST"
	stateClosed = "CLOSED"
)

// ticket tracks the one outstanding synchronous request.
type ticket struct {
	key  wire.Key
	resp chan wire.Frame

	// ateOrphan is set when a reply with this key was dropped as the late
	// reply of an earlier request.
	ateOrphan bool
}

// orphan remembers a timed out request whose reply may still arrive.
type orphan struct {
	key     wire.Key
	expires time.Time
}

// Client is a ZNP session over one byte stream.
type Client struct {
	rw     io.ReadWriter
	framer *transport.Framer

	timeout     time.Duration
	staleWindow time.Duration
	logger      *slog.Logger
	capture     log.Logger
	sessionID   string
	port        string

	// slot holds a token while a synchronous request is in flight.
	slot chan struct{}

	mu      sync.Mutex
	ticket  *ticket
	orphans []orphan
	subs    map[*Subscription]struct{}
	err     error

	done      chan struct{}
	closeOnce sync.Once

	stats counters

	// now is replaced in tests.
	now func() time.Time
}

// NewClient starts a session on rw. The receive loop runs until the
// stream fails or Close is called. If rw is an io.Closer it is closed
// when the session ends.
func NewClient(rw io.ReadWriter, opts ...Option) *Client {
	c := &Client{
		rw:          rw,
		framer:      transport.NewFramer(rw),
		timeout:     DefaultTimeout,
		staleWindow: DefaultStaleWindow,
		logger:      slog.New(slog.DiscardHandler),
		sessionID:   uuid.New().String(),
		slot:        make(chan struct{}, 1),
		subs:        make(map[*Subscription]struct{}),
		done:        make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.port != "" {
		c.logger = c.logger.With("port", c.port)
	}
	if c.capture != nil {
		c.framer.SetLogger(c.capture, c.sessionID, c.port)
	}

	c.logState(log.StateEntityConnection, "", stateOpen, "")
	go c.receive()
	return c
}

// SessionID returns the id used in capture events.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Done is closed when the session has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns nil while the session is alive, and afterwards an error
// matching ErrConnectionLost that wraps the cause.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	return c.stats.snapshot()
}

// Close ends the session. Pending calls fail with ErrConnectionLost
// wrapping ErrClosed.
func (c *Client) Close() error {
	c.terminate(ErrClosed)
	return nil
}

// Call sends req as an SREQ and waits for its SRSP.
//
// Calls are serialized: a call waits until the previous one has been
// answered or has timed out. Besides ctx errors, Call returns a
// *TimeoutError (matching ErrTimeout), an error matching
// ErrConnectionLost, or a *command.PayloadError if the reply did not
// decode. Requests are never retried.
func Call[R command.Command](ctx context.Context, c *Client, req command.SyncRequest[R]) (R, error) {
	var zero R

	f, err := command.Frame(wire.TypeSyncReq, req)
	if err != nil {
		return zero, err
	}
	raw, err := c.roundTrip(ctx, f)
	if err != nil {
		return zero, err
	}

	resp := req.NewResponse()
	if err := command.Decode(raw, resp); err != nil {
		c.logger.Warn("undecodable response", "cmd", raw.Key(), "error", err)
		return zero, err
	}
	return resp, nil
}

// Send writes req as an AREQ. It returns once the frame is written; the
// device does not acknowledge AREQs.
func (c *Client) Send(ctx context.Context, req command.Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Err(); err != nil {
		return err
	}
	f, err := command.Frame(wire.TypeAsyncReq, req)
	if err != nil {
		return err
	}
	return c.write(f)
}

func (c *Client) write(f wire.Frame) error {
	if err := c.framer.WriteFrame(f); err != nil {
		c.terminate(err)
		return connectionLost(err)
	}
	c.stats.sent.Add(1)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, f wire.Frame) (wire.Frame, error) {
	select {
	case c.slot <- struct{}{}:
	case <-c.done:
		return wire.Frame{}, c.Err()
	case <-ctx.Done():
		return wire.Frame{}, ctx.Err()
	}
	defer func() { <-c.slot }()

	t := &ticket{key: f.Key(), resp: make(chan wire.Frame, 1)}

	// The ticket must be live before the request hits the wire; a fast
	// device can answer before Write returns.
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return wire.Frame{}, err
	}
	c.ticket = t
	c.mu.Unlock()
	c.logState(log.StateEntityTicket, stateIdle, stateAwaiting, t.key.String())

	if err := c.write(f); err != nil {
		c.release(t, false)
		return wire.Frame{}, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-t.resp:
		return resp, nil
	case <-timer.C:
		if resp, ok := c.release(t, true); ok {
			return resp, nil
		}
		if err := c.Err(); err != nil {
			return wire.Frame{}, err
		}
		c.stats.timeouts.Add(1)
		c.logger.Warn("request timed out", "cmd", t.key, "timeout", c.timeout)
		return wire.Frame{}, &TimeoutError{Key: t.key}
	case <-ctx.Done():
		if resp, ok := c.release(t, true); ok {
			return resp, nil
		}
		return wire.Frame{}, ctx.Err()
	case <-c.done:
		return wire.Frame{}, c.Err()
	}
}

// release retires t if it is still live. If the reply was delivered in
// the meantime it is returned. With orphan set, a retired ticket leaves an
// orphan for its key.
func (c *Client) release(t *ticket, leaveOrphan bool) (wire.Frame, bool) {
	c.mu.Lock()
	live := c.ticket == t
	if live {
		c.ticket = nil
		if leaveOrphan && !t.ateOrphan && c.staleWindow > 0 {
			c.orphans = append(c.orphans, orphan{key: t.key, expires: c.now().Add(c.staleWindow)})
		}
	}
	c.mu.Unlock()

	if !live {
		select {
		case resp := <-t.resp:
			return resp, true
		default:
			return wire.Frame{}, false
		}
	}
	c.logState(log.StateEntityTicket, stateAwaiting, stateIdle, "released")
	return wire.Frame{}, false
}

// receive is the only reader of the stream.
func (c *Client) receive() {
	for {
		f, err := c.framer.ReadFrame()
		if err != nil {
			c.terminate(err)
			return
		}
		c.stats.received.Add(1)

		switch f.Type {
		case wire.TypeSyncResp:
			c.handleResponse(f)
		case wire.TypeAsyncReq:
			c.handleNotification(f)
		default:
			c.terminate(fmt.Errorf("%w: inbound %s %s", ErrProtocolViolation, f.Type, f.Key()))
			return
		}
	}
}

func (c *Client) handleResponse(f wire.Frame) {
	key := f.Key()

	c.mu.Lock()
	now := c.now()
	c.pruneOrphansLocked(now)

	if i := c.orphanIndexLocked(key); i >= 0 {
		c.orphans = append(c.orphans[:i], c.orphans[i+1:]...)
		if c.ticket != nil && c.ticket.key == key {
			c.ticket.ateOrphan = true
		}
		c.mu.Unlock()
		c.stale(f, "late reply")
		return
	}

	t := c.ticket
	if t == nil || t.key != key {
		c.mu.Unlock()
		c.stale(f, "no matching request")
		return
	}
	c.ticket = nil
	t.resp <- f
	c.mu.Unlock()

	c.stats.responses.Add(1)
	c.logState(log.StateEntityTicket, stateAwaiting, stateIdle, key.String())
}

func (c *Client) pruneOrphansLocked(now time.Time) {
	n := 0
	for _, o := range c.orphans {
		if now.Before(o.expires) {
			c.orphans[n] = o
			n++
		}
	}
	c.orphans = c.orphans[:n]
}

func (c *Client) orphanIndexLocked(key wire.Key) int {
	for i, o := range c.orphans {
		if o.key == key {
			return i
		}
	}
	return -1
}

func (c *Client) stale(f wire.Frame, reason string) {
	c.stats.stale.Add(1)
	c.logger.Warn("dropping stale reply", "cmd", f.Key(), "reason", reason)
	c.logError(log.LayerClient, fmt.Errorf("stale reply %s: %s", f.Key(), reason), "stale reply", false)
}

func (c *Client) handleNotification(f wire.Frame) {
	n, err := command.Classify(f)
	if err != nil {
		var ue *command.UnimplementedError
		if errors.As(err, &ue) {
			c.stats.unclassified.Add(1)
			c.logger.Debug("unclassified notification", "cmd", f.Key(), "kind", ue.Kind)
		} else {
			c.stats.decodeErrors.Add(1)
			c.logger.Warn("dropping malformed notification", "cmd", f.Key(), "error", err)
		}
		c.logError(log.LayerCommand, err, "classify", false)
		return
	}
	c.stats.notifications.Add(1)

	delivered, dropped := c.publish(n)
	if dropped > 0 {
		c.logger.Warn("subscriber buffer full", "cmd", f.Key(), "dropped", dropped)
	}
	if c.capture != nil {
		c.capture.Log(log.Event{
			Timestamp: time.Now(),
			SessionID: c.sessionID,
			Direction: log.DirectionIn,
			Layer:     log.LayerCommand,
			Category:  log.CategoryNotification,
			Port:      c.port,
			Notification: &log.NotificationEvent{
				Name:      command.Name(n),
				Subsystem: f.Subsystem,
				CommandID: f.CommandID,
				Delivered: delivered,
				Dropped:   dropped,
			},
		})
	}
	if sc, ok := n.(*command.ZDOStateChangeInd); ok {
		c.logger.Info("device state changed", "state", sc.State)
		c.logState(log.StateEntityNetwork, "", sc.State.String(), "")
	}
}

// terminate ends the session with cause. Only the first call has effect.
func (c *Client) terminate(cause error) {
	c.closeOnce.Do(func() {
		err := connectionLost(cause)

		c.mu.Lock()
		c.err = err
		c.ticket = nil
		subs := c.subs
		c.subs = nil
		c.mu.Unlock()

		close(c.done)
		for s := range subs {
			s.close()
		}
		if cl, ok := c.rw.(io.Closer); ok {
			_ = cl.Close()
		}

		if errors.Is(cause, ErrClosed) {
			c.logger.Debug("session closed")
			c.logState(log.StateEntityConnection, stateOpen, stateClosed, "")
			return
		}
		c.logger.Error("session ended", "error", cause)
		c.logError(log.LayerClient, cause, "receive", true)
		c.logState(log.StateEntityConnection, stateOpen, stateLost, cause.Error())
	})
}

func (c *Client) logState(entity log.StateEntity, from, to, reason string) {
	if c.capture == nil {
		return
	}
	c.capture.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Layer:     log.LayerClient,
		Category:  log.CategoryState,
		Port:      c.port,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

func (c *Client) logError(layer log.Layer, err error, op string, fatal bool) {
	if c.capture == nil {
		return
	}
	c.capture.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: log.DirectionIn,
		Layer:     layer,
		Category:  log.CategoryError,
		Port:      c.port,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: op,
			Fatal:   fatal,
		},
	})
}
