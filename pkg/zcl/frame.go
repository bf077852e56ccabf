package zcl

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortFrame indicates a frame shorter than its header.
var ErrShortFrame = errors.New("zcl: short frame")

// FrameType is bits 0-1 of the frame control field.
type FrameType uint8

const (
	// FrameTypeGeneral frames carry foundation commands.
	FrameTypeGeneral FrameType = 0x00

	// FrameTypeCluster frames carry cluster specific commands.
	FrameTypeCluster FrameType = 0x01
)

// String returns the frame type name.
func (t FrameType) String() string {
	switch t {
	case FrameTypeGeneral:
		return "general"
	case FrameTypeCluster:
		return "cluster"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(t))
	}
}

// Direction is bit 3 of the frame control field.
type Direction uint8

const (
	DirectionClientToServer Direction = 0
	DirectionServerToClient Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionServerToClient {
		return "server->client"
	}
	return "client->server"
}

// Frame control bits.
const (
	controlTypeMask     = 0x03
	controlManufacturer = 0x04
	controlDirection    = 0x08
	controlNoDefaultRsp = 0x10
)

// FrameControl is the unpacked frame control byte. Reserved bits are
// ignored on parse and written as zero.
type FrameControl struct {
	Type                   FrameType
	ManufacturerSpecific   bool
	Direction              Direction
	DisableDefaultResponse bool
}

// ParseFrameControl unpacks b.
func ParseFrameControl(b byte) FrameControl {
	fc := FrameControl{
		Type:                   FrameType(b & controlTypeMask),
		ManufacturerSpecific:   b&controlManufacturer != 0,
		DisableDefaultResponse: b&controlNoDefaultRsp != 0,
	}
	if b&controlDirection != 0 {
		fc.Direction = DirectionServerToClient
	}
	return fc
}

// Byte packs the frame control field.
func (fc FrameControl) Byte() byte {
	b := byte(fc.Type) & controlTypeMask
	if fc.ManufacturerSpecific {
		b |= controlManufacturer
	}
	if fc.Direction == DirectionServerToClient {
		b |= controlDirection
	}
	if fc.DisableDefaultResponse {
		b |= controlNoDefaultRsp
	}
	return b
}

// Frame is one ZCL frame.
type Frame struct {
	Control FrameControl

	// ManufacturerCode is set iff Control.ManufacturerSpecific.
	ManufacturerCode *uint16

	Sequence  uint8
	CommandID uint8
	Payload   []byte
}

// ParseFrame decodes the frame header of b. The payload aliases b.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < 1 {
		return Frame{}, fmt.Errorf("%w: empty", ErrShortFrame)
	}
	f := Frame{Control: ParseFrameControl(b[0])}
	off := 1
	if f.Control.ManufacturerSpecific {
		if len(b) < off+2 {
			return Frame{}, fmt.Errorf("%w: manufacturer code missing", ErrShortFrame)
		}
		code := binary.LittleEndian.Uint16(b[off:])
		f.ManufacturerCode = &code
		off += 2
	}
	if len(b) < off+2 {
		return Frame{}, fmt.Errorf("%w: need %d header bytes, have %d", ErrShortFrame, off+2, len(b))
	}
	f.Sequence = b[off]
	f.CommandID = b[off+1]
	f.Payload = b[off+2:]
	return f, nil
}

// MarshalBinary encodes f. The manufacturer bit follows ManufacturerCode.
func (f Frame) MarshalBinary() ([]byte, error) {
	fc := f.Control
	fc.ManufacturerSpecific = f.ManufacturerCode != nil

	buf := make([]byte, 0, 5+len(f.Payload))
	buf = append(buf, fc.Byte())
	if f.ManufacturerCode != nil {
		buf = binary.LittleEndian.AppendUint16(buf, *f.ManufacturerCode)
	}
	buf = append(buf, f.Sequence, f.CommandID)
	return append(buf, f.Payload...), nil
}

// String returns a short description of the header.
func (f Frame) String() string {
	s := fmt.Sprintf("%s seq=%d cmd=0x%02X %s", f.Control.Type, f.Sequence, f.CommandID, f.Control.Direction)
	if f.ManufacturerCode != nil {
		s += fmt.Sprintf(" mfr=0x%04X", *f.ManufacturerCode)
	}
	return s
}
