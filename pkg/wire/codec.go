package wire

import (
	"errors"
	"fmt"
)

// Framing constants.
const (
	// SOF is the start-of-frame marker.
	SOF byte = 0xFE

	// HeaderSize is SOF + Length + Cmd0 + Cmd1.
	HeaderSize = 4

	// MinFrameSize is the size of a frame with an empty payload.
	MinFrameSize = HeaderSize + 1

	// MaxPayloadSize is the largest payload the single-byte length field allows
	// the device to accept.
	MaxPayloadSize = 250
)

// Decode and encode errors.
var (
	// ErrNeedMoreData indicates the buffer does not yet hold a complete frame.
	// It is the only non-fatal decode outcome.
	ErrNeedMoreData = errors.New("need more data")

	// ErrDesync indicates the byte stream lost frame alignment. Fatal.
	ErrDesync = errors.New("stream desynchronized")

	// ErrChecksum indicates an FCS mismatch. It wraps ErrDesync.
	ErrChecksum = fmt.Errorf("%w: checksum mismatch", ErrDesync)

	// ErrUnknownType indicates Cmd0 carries an undefined frame type.
	ErrUnknownType = errors.New("unknown frame type")

	// ErrUnknownSubsystem indicates Cmd0 carries an undefined subsystem.
	ErrUnknownSubsystem = errors.New("unknown subsystem")

	// ErrPayloadTooLarge indicates a payload over MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Key identifies a command within the protocol.
type Key struct {
	Subsystem Subsystem
	CommandID uint8
}

// String returns the key as SUBSYS/0xID.
func (k Key) String() string {
	return fmt.Sprintf("%s/0x%02X", k.Subsystem, k.CommandID)
}

// Frame is one decoded MT message.
type Frame struct {
	Type      Type
	Subsystem Subsystem
	CommandID uint8
	Payload   []byte
}

// Key returns the subsystem and command id of the frame.
func (f Frame) Key() Key {
	return Key{Subsystem: f.Subsystem, CommandID: f.CommandID}
}

// Cmd0 returns the combined type and subsystem byte.
func (f Frame) Cmd0() byte {
	return byte(f.Type) | byte(f.Subsystem)
}

// String formats the frame for diagnostics.
func (f Frame) String() string {
	return fmt.Sprintf("%s %s len=%d % X", f.Type, f.Key(), len(f.Payload), f.Payload)
}

// FCS computes the frame check sequence over b.
func FCS(b []byte) byte {
	var x byte
	for _, c := range b {
		x ^= c
	}
	return x
}

// Size returns the encoded size of a frame with the given payload length.
func Size(payloadLen int) int {
	return MinFrameSize + payloadLen
}

// Encode serializes f into a new buffer.
func Encode(f Frame) ([]byte, error) {
	return Append(make([]byte, 0, Size(len(f.Payload))), f)
}

// Append appends the encoded frame to dst. On error dst is returned unchanged.
func Append(dst []byte, f Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(f.Payload), MaxPayloadSize)
	}
	if !f.Type.IsValid() {
		return dst, fmt.Errorf("%w: 0x%02X", ErrUnknownType, byte(f.Type))
	}
	if !f.Subsystem.IsValid() {
		return dst, fmt.Errorf("%w: 0x%02X", ErrUnknownSubsystem, byte(f.Subsystem))
	}

	start := len(dst)
	dst = append(dst, SOF, byte(len(f.Payload)), f.Cmd0(), f.CommandID)
	dst = append(dst, f.Payload...)
	return append(dst, FCS(dst[start+1:])), nil
}

// Decode parses one frame from the start of buf.
//
// On success it returns the frame and the number of bytes consumed. The
// returned payload is a copy and does not alias buf. If buf holds only part
// of a frame, ErrNeedMoreData is returned. Any other error means the stream
// is unusable. Nothing is consumed unless a complete, valid frame is present.
func Decode(buf []byte) (Frame, int, error) {
	if len(buf) < MinFrameSize {
		return Frame{}, 0, ErrNeedMoreData
	}
	if buf[0] != SOF {
		return Frame{}, 0, fmt.Errorf("%w: expected SOF, got 0x%02X", ErrDesync, buf[0])
	}

	length := int(buf[1])
	if length > MaxPayloadSize {
		return Frame{}, 0, fmt.Errorf("%w: length %d > %d", ErrDesync, length, MaxPayloadSize)
	}
	n := Size(length)
	if len(buf) < n {
		return Frame{}, 0, ErrNeedMoreData
	}

	// XOR over Length..FCS inclusive
	if FCS(buf[1:n]) != 0 {
		return Frame{}, 0, fmt.Errorf("%w (fcs 0x%02X)", ErrChecksum, buf[n-1])
	}

	cmd0 := buf[2]
	typ := Type(cmd0 & 0xF0)
	if !typ.IsValid() {
		return Frame{}, 0, fmt.Errorf("%w: cmd0=0x%02X", ErrUnknownType, cmd0)
	}
	subsys := Subsystem(cmd0 & 0x0F)
	if !subsys.IsValid() {
		return Frame{}, 0, fmt.Errorf("%w: cmd0=0x%02X", ErrUnknownSubsystem, cmd0)
	}

	payload := make([]byte, length)
	copy(payload, buf[HeaderSize:HeaderSize+length])

	return Frame{
		Type:      typ,
		Subsystem: subsys,
		CommandID: buf[3],
		Payload:   payload,
	}, n, nil
}

// IsFatal reports whether a Decode error leaves the stream unusable.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrNeedMoreData)
}
