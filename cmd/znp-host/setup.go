package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/znp-host/znp-go/pkg/config"
	"github.com/znp-host/znp-go/pkg/log"
	"github.com/znp-host/znp-go/pkg/transport"
	"github.com/znp-host/znp-go/pkg/znp"
)

// host holds what every command needs: configuration, the operational
// logger and the optional capture file.
type host struct {
	cfg     *config.Config
	logger  *slog.Logger
	capture log.Logger

	file *log.FileLogger
}

func newHost(cfg *config.Config, stderr io.Writer) (*host, error) {
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}
	h := &host{cfg: cfg, logger: logger}

	var sinks []log.Logger
	if cfg.Capture.File != "" {
		fl, err := log.NewFileLogger(cfg.Capture.File)
		if err != nil {
			return nil, err
		}
		h.file = fl
		sinks = append(sinks, fl)
		logger.Info("capturing protocol events", "file", cfg.Capture.File)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}
	switch len(sinks) {
	case 0:
	case 1:
		h.capture = sinks[0]
	default:
		h.capture = log.NewMultiLogger(sinks...)
	}
	return h, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// Close flushes and closes the capture file.
func (h *host) Close() {
	if h.file == nil {
		return
	}
	if n := h.file.WriteErrors(); n > 0 {
		h.logger.Warn("capture events lost", "count", n)
	}
	if err := h.file.Close(); err != nil {
		h.logger.Warn("close capture file", "error", err)
	}
}

func (h *host) clientOptions() []znp.Option {
	opts := []znp.Option{
		znp.WithTimeout(h.cfg.Client.Timeout),
		znp.WithStaleWindow(h.cfg.Client.StaleWindow),
		znp.WithLogger(h.logger),
		znp.WithPort(h.cfg.Device.Path),
	}
	if h.capture != nil {
		opts = append(opts, znp.WithProtocolLogger(h.capture))
	}
	return opts
}

func (h *host) dial(ctx context.Context) (io.ReadWriteCloser, error) {
	return transport.Open(ctx, transport.Config{
		Device:      h.cfg.Device.Path,
		Baud:        h.cfg.Device.Baud,
		DialTimeout: h.cfg.Device.DialTimeout,
	})
}

// connect opens a single unsupervised session. Closing the client closes
// the transport.
func (h *host) connect(ctx context.Context) (*znp.Client, error) {
	rw, err := h.dial(ctx)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("link open", "device", h.cfg.Device.Path)
	return znp.NewClient(rw, h.clientOptions()...), nil
}
