package znp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/wire"
)

// DefaultSubscriptionBuffer is used when Subscribe is given a buffer <= 0.
const DefaultSubscriptionBuffer = 16

// Subscription receives notifications from a Client.
//
// Delivery never blocks the receive loop: a notification that does not
// fit into the buffer is dropped for this subscriber and counted.
type Subscription struct {
	client *Client
	ch     chan command.Notification
	keys   map[wire.Key]struct{}

	dropped atomic.Uint64

	closeOnce sync.Once
}

// Subscribe registers a subscriber for notifications with the given keys,
// or for all notifications when no key is given. If the session has
// already ended the returned channel is closed.
func (c *Client) Subscribe(buffer int, keys ...wire.Key) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	s := &Subscription{
		client: c,
		ch:     make(chan command.Notification, buffer),
	}
	if len(keys) > 0 {
		s.keys = make(map[wire.Key]struct{}, len(keys))
		for _, k := range keys {
			s.keys[k] = struct{}{}
		}
	}

	c.mu.Lock()
	if c.subs == nil {
		c.mu.Unlock()
		s.close()
		return s
	}
	c.subs[s] = struct{}{}
	c.mu.Unlock()
	return s
}

// C returns the notification channel. It is closed by Unsubscribe or
// when the session ends.
func (s *Subscription) C() <-chan command.Notification {
	return s.ch
}

// Dropped returns how many notifications were lost to a full buffer.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Unsubscribe stops delivery and closes the channel.
func (s *Subscription) Unsubscribe() {
	c := s.client
	c.mu.Lock()
	if c.subs != nil {
		delete(c.subs, s)
	}
	c.mu.Unlock()
	s.close()
}

// Next waits for the next notification. It returns the session error
// once the channel is closed by the end of the session.
func (s *Subscription) Next(ctx context.Context) (command.Notification, error) {
	select {
	case n, ok := <-s.ch:
		if !ok {
			if err := s.client.Err(); err != nil {
				return nil, err
			}
			return nil, ErrClosed
		}
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Subscription) wants(n command.Notification) bool {
	if s.keys == nil {
		return true
	}
	_, ok := s.keys[command.KeyOf(n)]
	return ok
}

// close must only be called once the subscription is no longer in
// client.subs, so that publish never sends on a closed channel.
func (s *Subscription) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// publish delivers n to every interested subscriber without blocking.
func (c *Client) publish(n command.Notification) (delivered, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for s := range c.subs {
		if !s.wants(n) {
			continue
		}
		select {
		case s.ch <- n:
			delivered++
		default:
			s.dropped.Add(1)
			c.stats.dropped.Add(1)
			dropped++
		}
	}
	return delivered, dropped
}

// Await waits on sub for the first notification of type N accepted by
// match. A nil match accepts any N. Other notifications are discarded.
func Await[N command.Notification](ctx context.Context, sub *Subscription, match func(N) bool) (N, error) {
	for {
		n, err := sub.Next(ctx)
		if err != nil {
			var zero N
			return zero, err
		}
		if v, ok := n.(N); ok && (match == nil || match(v)) {
			return v, nil
		}
	}
}
