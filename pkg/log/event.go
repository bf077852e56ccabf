package log

import (
	"time"

	"github.com/znp-host/znp-go/pkg/wire"
)

// Event is one entry in a protocol capture.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one client session (UUID).
	SessionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// Port is the serial device or network address of the coordinator.
	Port string `cbor:"6,keyasint,omitempty"`

	// One of these is set.
	Frame        *FrameEvent        `cbor:"10,keyasint,omitempty"`
	Notification *NotificationEvent `cbor:"11,keyasint,omitempty"`
	StateChange  *StateChangeEvent  `cbor:"12,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"`
}

// Direction indicates message flow relative to the host.
type Direction uint8

const (
	// DirectionIn is device to host.
	DirectionIn Direction = 0
	// DirectionOut is host to device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerWire is the frame codec (raw frames).
	LayerWire Layer = 0
	// LayerCommand is the command registry (classified notifications).
	LayerCommand Layer = 1
	// LayerClient is the correlation engine.
	LayerClient Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerWire:
		return "WIRE"
	case LayerCommand:
		return "COMMAND"
	case LayerClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	CategoryFrame        Category = 0
	CategoryNotification Category = 1
	CategoryState        Category = 2
	CategoryError        Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one frame as it crossed the wire.
type FrameEvent struct {
	Type      wire.Type      `cbor:"1,keyasint"`
	Subsystem wire.Subsystem `cbor:"2,keyasint"`
	CommandID uint8          `cbor:"3,keyasint"`

	// Payload bytes, without envelope.
	Payload []byte `cbor:"4,keyasint,omitempty"`

	// Size is the encoded frame size including SOF and FCS.
	Size int `cbor:"5,keyasint"`
}

// Key returns the subsystem and command id of the frame.
func (f *FrameEvent) Key() wire.Key {
	return wire.Key{Subsystem: f.Subsystem, CommandID: f.CommandID}
}

// NotificationEvent captures a classified AREQ and its fan-out.
type NotificationEvent struct {
	// Name is the Go type name of the notification.
	Name      string         `cbor:"1,keyasint"`
	Subsystem wire.Subsystem `cbor:"2,keyasint"`
	CommandID uint8          `cbor:"3,keyasint"`

	// Delivered and Dropped count subscribers that did or did not take it.
	Delivered int `cbor:"4,keyasint"`
	Dropped   int `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures client lifecycle and ticket transitions.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityConnection is the client connection (open, lost, closed).
	StateEntityConnection StateEntity = 0
	// StateEntityTicket is the synchronous request slot (idle, awaiting reply).
	StateEntityTicket StateEntity = 1
	// StateEntityNetwork is the ZDO device state reported by the coordinator.
	StateEntityNetwork StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityTicket:
		return "TICKET"
	case StateEntityNetwork:
		return "NETWORK"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes what was being done, e.g. "classify" or "stale reply".
	Context string `cbor:"3,keyasint,omitempty"`

	// Fatal is set when the error ended the session.
	Fatal bool `cbor:"4,keyasint,omitempty"`
}
