package command

import (
	"errors"
	"fmt"

	"github.com/znp-host/znp-go/pkg/payload"
	"github.com/znp-host/znp-go/pkg/wire"
)

// Command is implemented by every request, response and notification.
type Command interface {
	Subsystem() wire.Subsystem
	CommandID() uint8
}

// Outbound is a command the host can send.
type Outbound interface {
	Command

	// MaxSize is the largest payload the command can produce.
	MaxSize() int
}

// SyncRequest is an outbound command answered by exactly one R.
type SyncRequest[R Command] interface {
	Outbound

	// NewResponse allocates an empty response.
	NewResponse() R
}

// Notification is an unsolicited AREQ from the device.
type Notification interface {
	Command
	notification()
}

// KeyOf returns the subsystem and command id of c.
func KeyOf(c Command) wire.Key {
	return wire.Key{Subsystem: c.Subsystem(), CommandID: c.CommandID()}
}

// Errors.
var (
	// ErrNotAsync is returned by Classify for frames that are not AREQs.
	ErrNotAsync = errors.New("frame is not an AREQ")

	// ErrKeyMismatch indicates a frame does not belong to the target type.
	ErrKeyMismatch = errors.New("frame key does not match command")
)

// PayloadError reports a payload that could not be encoded or decoded.
type PayloadError struct {
	Key wire.Key
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s payload: %v", e.Key, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Frame encodes c into a frame of type t.
//
// A payload over wire.MaxPayloadSize is returned as an error. A payload that
// exceeds the command's own MaxSize means the declaration is wrong and
// causes a panic.
func Frame(t wire.Type, c Outbound) (wire.Frame, error) {
	buf, err := payload.Append(make([]byte, 0, c.MaxSize()), c)
	if err != nil {
		return wire.Frame{}, &PayloadError{Key: KeyOf(c), Err: err}
	}
	if len(buf) > wire.MaxPayloadSize {
		return wire.Frame{}, &PayloadError{
			Key: KeyOf(c),
			Err: fmt.Errorf("%w: %d > %d", wire.ErrPayloadTooLarge, len(buf), wire.MaxPayloadSize),
		}
	}
	if len(buf) > c.MaxSize() {
		panic(fmt.Sprintf("command %T: payload %d exceeds declared max size %d", c, len(buf), c.MaxSize()))
	}
	return wire.Frame{
		Type:      t,
		Subsystem: c.Subsystem(),
		CommandID: c.CommandID(),
		Payload:   buf,
	}, nil
}

// Decode unmarshals the payload of f into c.
func Decode(f wire.Frame, c Command) error {
	if f.Key() != KeyOf(c) {
		return &PayloadError{Key: f.Key(), Err: fmt.Errorf("%w: want %s", ErrKeyMismatch, KeyOf(c))}
	}
	if err := payload.Unmarshal(f.Payload, c); err != nil {
		return &PayloadError{Key: f.Key(), Err: err}
	}
	return nil
}
