// Command znp-host drives a Z-Stack coordinator over its serial or TCP
// network processor interface.
//
// Usage:
//
//	znp-host [flags] <command> [command flags]
//
// Commands:
//
//	run        Provision the coordinator and log network traffic, reopening the link when it drops
//	info       Print firmware version and device identity
//	provision  Verify and write the network configuration, register endpoints, start the network
//	blink      LED demo: query device parameters, start OSAL timers, blink LED 1
//	shell      Interactive command shell
//	discover   Browse the local network for network attached coordinators
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-device string      Serial device, serial:// or tcp:// URL
//	-baud int           Serial baud rate
//	-timeout duration   SRSP timeout
//	-capture string     Protocol capture file (.zlog)
//	-log-level string   Log level: debug, info, warn, error
//	-log-format string  Log format: text, json
//
// Examples:
//
//	# Run a coordinator on the default serial port
//	znp-host run
//
//	# Use a network attached coordinator and capture the session
//	znp-host -device tcp://192.168.1.40:6638 -capture session.zlog run
//
//	# Query the device
//	znp-host -device /dev/ttyUSB0 info
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/znp-host/znp-go/pkg/config"
)

const usage = `znp-host - Z-Stack coordinator host

Usage:
  znp-host [flags] <command> [command flags]

Commands:
  run        Provision the coordinator and log network traffic
  info       Print firmware version and device identity
  provision  Configure and start the network, then exit
  blink      LED demo
  shell      Interactive command shell
  discover   Browse for network attached coordinators

Flags:
`

// Flags holds the global command line flags. Set flags override the
// configuration file.
type Flags struct {
	ConfigFile string
	Device     string
	Baud       int
	Timeout    time.Duration
	Capture    string
	LogLevel   string
	LogFormat  string
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.Device, "device", "", "Serial device, serial:// or tcp:// URL")
	flag.IntVar(&flags.Baud, "baud", 0, "Serial baud rate")
	flag.DurationVar(&flags.Timeout, "timeout", 0, "SRSP timeout")
	flag.StringVar(&flags.Capture, "capture", "", "Protocol capture file (.zlog)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.LogFormat, "log-format", "", "Log format: text, json")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if cmd == "help" {
		flag.Usage()
		return
	}

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	h, err := newHost(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, h, args)
	cancel()
	h.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type commandFunc func(ctx context.Context, h *host, args []string) error

var commands = map[string]commandFunc{
	"run":       runHost,
	"info":      runInfo,
	"provision": runProvision,
	"blink":     runBlink,
	"shell":     runShell,
	"discover":  runDiscover,
}

// loadConfig reads the configuration file, or the defaults, and applies
// the flags on top.
func loadConfig(f Flags) (*config.Config, error) {
	cfg := config.Default()
	if f.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(f.ConfigFile); err != nil {
			return nil, err
		}
	}

	if f.Device != "" {
		cfg.Device.Path = f.Device
	}
	if f.Baud != 0 {
		cfg.Device.Baud = f.Baud
	}
	if f.Timeout != 0 {
		cfg.Client.Timeout = f.Timeout
	}
	if f.Capture != "" {
		cfg.Capture.File = f.Capture
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFormat != "" {
		cfg.Log.Format = f.LogFormat
	}
	return cfg, cfg.Validate()
}
