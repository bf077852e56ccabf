package znp

import "sync/atomic"

// Stats is a snapshot of client counters.
type Stats struct {
	FramesSent     uint64
	FramesReceived uint64

	Responses uint64
	Timeouts  uint64

	// StaleReplies counts SRSPs that matched no live request.
	StaleReplies uint64

	Notifications uint64

	// DroppedNotifications counts deliveries skipped because a
	// subscriber's buffer was full.
	DroppedNotifications uint64

	// Unclassified counts AREQs without a registered type.
	Unclassified uint64

	// DecodeErrors counts notifications whose payload did not decode.
	DecodeErrors uint64
}

type counters struct {
	sent          atomic.Uint64
	received      atomic.Uint64
	responses     atomic.Uint64
	timeouts      atomic.Uint64
	stale         atomic.Uint64
	notifications atomic.Uint64
	dropped       atomic.Uint64
	unclassified  atomic.Uint64
	decodeErrors  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		FramesSent:           c.sent.Load(),
		FramesReceived:       c.received.Load(),
		Responses:            c.responses.Load(),
		Timeouts:             c.timeouts.Load(),
		StaleReplies:         c.stale.Load(),
		Notifications:        c.notifications.Load(),
		DroppedNotifications: c.dropped.Load(),
		Unclassified:         c.unclassified.Load(),
		DecodeErrors:         c.decodeErrors.Load(),
	}
}
