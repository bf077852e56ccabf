package znp

import (
	"errors"
	"fmt"

	"github.com/znp-host/znp-go/pkg/wire"
)

// Client errors.
var (
	// ErrTimeout is returned when no matching SRSP arrives in time.
	ErrTimeout = errors.New("znp: request timed out")

	// ErrConnectionLost is returned once the session has ended. The error
	// returned by Err and by failed calls also wraps the cause.
	ErrConnectionLost = errors.New("znp: connection lost")

	// ErrProtocolViolation indicates the device sent a frame type only the
	// host may send.
	ErrProtocolViolation = errors.New("znp: protocol violation")

	// ErrClosed is the cause recorded when Close ends the session.
	ErrClosed = errors.New("znp: client closed")
)

// TimeoutError is returned when a synchronous request times out.
// It matches ErrTimeout with errors.Is.
type TimeoutError struct {
	Key wire.Key
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("znp: %s request timed out", e.Key)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func connectionLost(cause error) error {
	return fmt.Errorf("%w: %w", ErrConnectionLost, cause)
}
