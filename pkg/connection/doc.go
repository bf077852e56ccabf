// Package connection keeps a ZNP session alive across link failures.
//
// A Supervisor opens the transport, starts a znp.Client on it and waits
// for the session to end. When the link drops (the dongle is unplugged,
// the TCP bridge restarts, the stream desynchronizes) it reopens the
// transport after an exponential backoff:
//
//	delay = base + random(0, base * 0.25)
//	base  = 0.5s, 1s, 2s, 4s ... capped at 30s
//
// The backoff resets only after the session setup hook succeeds.
//
// Requests are never retried. A call in flight when the link drops fails
// with znp.ErrConnectionLost and the caller decides what to do.
package connection
