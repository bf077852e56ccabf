package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Defaults for Config.
const (
	// DefaultBaud is the rate of the CC253x/CC26x2 ZNP firmware UART.
	DefaultBaud = 115200

	DefaultDialTimeout = 5 * time.Second
	DefaultKeepAlive   = 30 * time.Second
)

// Schemes accepted in Config.Device.
const (
	SchemeSerial = "serial"
	SchemeTCP    = "tcp"
)

// Transport errors.
var (
	// ErrNoDevice indicates an empty Config.Device.
	ErrNoDevice = errors.New("no device configured")

	// ErrUnsupportedScheme indicates a device URL with an unknown scheme.
	ErrUnsupportedScheme = errors.New("unsupported device scheme")
)

// Config selects and configures the byte stream to the coordinator.
type Config struct {
	// Device is a serial device path (/dev/ttyACM0), a serial:// URL or a
	// tcp://host:port address of a network attached coordinator.
	Device string

	// Baud rate for serial devices. Zero means DefaultBaud.
	Baud int

	// DialTimeout bounds TCP connection setup. Zero means DefaultDialTimeout.
	DialTimeout time.Duration
}

// Endpoint is a parsed Config.Device.
type Endpoint struct {
	Scheme  string
	Address string
}

// String returns the endpoint in URL form.
func (e Endpoint) String() string {
	return e.Scheme + "://" + e.Address
}

// ParseDevice splits a device string into scheme and address.
// A string without a scheme is taken as a serial device path.
func ParseDevice(device string) (Endpoint, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return Endpoint{}, ErrNoDevice
	}
	if !strings.Contains(device, "://") {
		return Endpoint{Scheme: SchemeSerial, Address: device}, nil
	}

	u, err := url.Parse(device)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse device %q: %w", device, err)
	}
	switch u.Scheme {
	case SchemeSerial:
		path := u.Host + u.Path
		if path == "" {
			return Endpoint{}, fmt.Errorf("%w: %q", ErrNoDevice, device)
		}
		return Endpoint{Scheme: SchemeSerial, Address: path}, nil
	case SchemeTCP:
		if _, _, err := net.SplitHostPort(u.Host); err != nil {
			return Endpoint{}, fmt.Errorf("parse device %q: %w", device, err)
		}
		return Endpoint{Scheme: SchemeTCP, Address: u.Host}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// Open opens the byte stream described by cfg.
//
// Serial ports are opened 8N1 without a read timeout; the returned stream
// blocks in Read until data arrives or it is closed.
func Open(ctx context.Context, cfg Config) (io.ReadWriteCloser, error) {
	ep, err := ParseDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch ep.Scheme {
	case SchemeTCP:
		return dialTCP(ctx, ep.Address, cfg.DialTimeout)
	default:
		return openSerial(ep.Address, cfg.Baud)
	}
}

func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:     path,
		Baud:     baud,
		Size:     serial.DefaultSize,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return port, nil
}

func dialTCP(ctx context.Context, addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	d := net.Dialer{
		Timeout:   timeout,
		KeepAlive: DefaultKeepAlive,
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Frames are small and latency sensitive.
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}
