package transport

import (
	"github.com/znp-host/znp-go/pkg/wire"
)

// FrameReadWriter provides frame level I/O on a byte stream.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame blocks until a complete frame has been decoded.
	ReadFrame() (wire.Frame, error)

	// WriteFrame encodes and writes one frame.
	WriteFrame(f wire.Frame) error
}

var _ FrameReadWriter = (*Framer)(nil)
