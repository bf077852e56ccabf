package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/znp-host/znp-go/pkg/log"
	"github.com/znp-host/znp-go/pkg/wire"
)

// readChunkSize is the size of a single read from the stream. Serial
// drivers rarely deliver more than a few dozen bytes at once.
const readChunkSize = 256

// ErrFrameTruncated indicates the stream ended in the middle of a frame.
var ErrFrameTruncated = errors.New("frame truncated")

// capture holds the optional protocol logger shared by reader and writer.
type capture struct {
	logger    log.Logger
	sessionID string
	port      string
}

func (c *capture) frameEvent(f wire.Frame, dir log.Direction) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryFrame,
		Port:      c.port,
		Frame: &log.FrameEvent{
			Type:      f.Type,
			Subsystem: f.Subsystem,
			CommandID: f.CommandID,
			Payload:   f.Payload,
			Size:      wire.Size(len(f.Payload)),
		},
	}
}

func (c *capture) errorEvent(err error, dir log.Direction, context string) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Port:      c.port,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: context,
			Fatal:   wire.IsFatal(err),
		},
	}
}

// FrameWriter encodes frames onto a byte stream.
type FrameWriter struct {
	w   io.Writer
	mu  sync.Mutex
	buf []byte

	capture
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:   w,
		buf: make([]byte, 0, wire.Size(wire.MaxPayloadSize)),
	}
}

// SetLogger configures protocol capture for this writer.
// Pass nil to disable it.
func (fw *FrameWriter) SetLogger(logger log.Logger, sessionID, port string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.capture = capture{logger: logger, sessionID: sessionID, port: port}
}

// WriteFrame encodes f and writes it with a single Write call.
// Thread-safe: frames from concurrent callers never interleave.
func (fw *FrameWriter) WriteFrame(f wire.Frame) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	b, err := wire.Append(fw.buf[:0], f)
	if err != nil {
		return err
	}
	fw.buf = b

	if _, err := fw.w.Write(b); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	if fw.logger != nil {
		fw.logger.Log(fw.frameEvent(f, log.DirectionOut))
	}
	return nil
}

// FrameReader decodes frames from a byte stream that has no message
// boundaries of its own. It is not safe for concurrent use.
type FrameReader struct {
	r     io.Reader
	buf   []byte
	chunk [readChunkSize]byte

	// err is a read error held back until buffered frames are drained.
	err error

	capture
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:   r,
		buf: make([]byte, 0, 2*wire.Size(wire.MaxPayloadSize)),
	}
}

// SetLogger configures protocol capture for this reader.
// Pass nil to disable it.
func (fr *FrameReader) SetLogger(logger log.Logger, sessionID, port string) {
	fr.capture = capture{logger: logger, sessionID: sessionID, port: port}
}

// ReadFrame returns the next complete frame.
//
// Framing errors (missing SOF, checksum mismatch, unknown codes) are
// returned as is and leave the reader unusable; see wire.IsFatal. A
// stream that ends between frames returns io.EOF, one that ends inside
// a frame returns ErrFrameTruncated.
func (fr *FrameReader) ReadFrame() (wire.Frame, error) {
	for {
		if len(fr.buf) > 0 {
			f, n, err := wire.Decode(fr.buf)
			if err == nil {
				fr.buf = append(fr.buf[:0], fr.buf[n:]...)
				if fr.logger != nil {
					fr.logger.Log(fr.frameEvent(f, log.DirectionIn))
				}
				return f, nil
			}
			if !errors.Is(err, wire.ErrNeedMoreData) {
				if fr.logger != nil {
					fr.logger.Log(fr.errorEvent(err, log.DirectionIn, "read"))
				}
				return wire.Frame{}, err
			}
		}

		if fr.err != nil {
			return wire.Frame{}, fr.streamError()
		}

		n, err := fr.r.Read(fr.chunk[:])
		fr.buf = append(fr.buf, fr.chunk[:n]...)
		if err != nil {
			fr.err = err
		}
	}
}

// streamError converts the held read error, accounting for a partial frame.
func (fr *FrameReader) streamError() error {
	if errors.Is(fr.err, io.EOF) {
		if len(fr.buf) > 0 {
			return fmt.Errorf("%w: %d bytes pending", ErrFrameTruncated, len(fr.buf))
		}
		return io.EOF
	}
	return fmt.Errorf("read frame: %w", fr.err)
}

// Buffered returns the number of bytes read but not yet decoded.
func (fr *FrameReader) Buffered() int {
	return len(fr.buf)
}

// Framer combines frame reading and writing on one stream.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// SetLogger configures capture for both directions.
func (f *Framer) SetLogger(logger log.Logger, sessionID, port string) {
	f.FrameReader.SetLogger(logger, sessionID, port)
	f.FrameWriter.SetLogger(logger, sessionID, port)
}
