// Package znp correlates synchronous ZNP requests with their replies and
// fans out asynchronous notifications.
//
// A Client owns one byte stream to the network processor. A single
// goroutine reads frames; writes are serialized by a mutex. At most one
// synchronous request is outstanding at a time, as the firmware processes
// SREQs strictly in order and answers each with one SRSP.
//
//	c := znp.NewClient(port, znp.WithLogger(logger))
//	defer c.Close()
//
//	ping, err := znp.Call(ctx, c, &command.SysPing{})
//
//	sub := c.Subscribe(16)
//	for n := range sub.C() {
//		...
//	}
//
// # Late replies
//
// A request that times out leaves an orphan for its key. The next reply
// with that key within the stale window is taken to be the late reply and
// is dropped, even if a newer request with the same key is waiting.
//
// # Failure
//
// Framing errors, unexpected inbound POLL or SREQ frames and stream errors
// end the session: every waiting and future call fails with
// ErrConnectionLost and all subscription channels are closed.
package znp
