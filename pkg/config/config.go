package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/znp-host/znp-go/pkg/transport"
	"github.com/znp-host/znp-go/pkg/znp"
)

// Zigbee channel range on 2.4 GHz.
const (
	MinChannel = 11
	MaxChannel = 26
)

// Home Automation profile and the configuration tool device id.
const (
	ProfileHomeAutomation uint16 = 0x0104
	DeviceConfigTool      uint16 = 0x0005
)

// MaxEndpointClusters bounds each cluster list of an endpoint.
const MaxEndpointClusters = 16

// Config is the root of the configuration file.
type Config struct {
	Device    DeviceConfig     `yaml:"device"`
	Client    ClientConfig     `yaml:"client"`
	Reconnect ReconnectConfig  `yaml:"reconnect"`
	Capture   CaptureConfig    `yaml:"capture"`
	Log       LogConfig        `yaml:"log"`
	Network   NetworkConfig    `yaml:"network"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// DeviceConfig selects the transport.
type DeviceConfig struct {
	// Path is a serial device, serial:// or tcp:// URL.
	Path        string        `yaml:"path"`
	Baud        int           `yaml:"baud"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// ClientConfig tunes the correlation engine.
type ClientConfig struct {
	Timeout            time.Duration `yaml:"timeout"`
	StaleWindow        time.Duration `yaml:"stale_window"`
	SubscriptionBuffer int           `yaml:"subscription_buffer"`
}

// ReconnectConfig controls link supervision.
type ReconnectConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Initial     time.Duration `yaml:"initial"`
	Max         time.Duration `yaml:"max"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// CaptureConfig enables protocol capture to a file.
type CaptureConfig struct {
	File string `yaml:"file"`
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NetworkConfig is what provisioning writes to the coordinator.
type NetworkConfig struct {
	// PANID 0xFFFF lets the coordinator pick one.
	PANID uint16 `yaml:"pan_id"`

	// ExtendedPANID is 16 hex digits, most significant first.
	ExtendedPANID string `yaml:"extended_pan_id"`

	Channels []int `yaml:"channels"`

	// NetworkKey is 32 hex digits. If empty and NetworkKeySecret is set
	// the key is derived from the secret.
	NetworkKey       string `yaml:"network_key"`
	NetworkKeySecret string `yaml:"network_key_secret"`

	// DistributeKey sets PRECFGKEYS_ENABLE: every joining device must
	// already know the key.
	DistributeKey bool `yaml:"distribute_key"`

	StartTimeout time.Duration `yaml:"start_timeout"`
}

// EndpointConfig is one AF endpoint registered at startup.
type EndpointConfig struct {
	Endpoint    uint8    `yaml:"endpoint"`
	ProfileID   uint16   `yaml:"profile_id"`
	DeviceID    uint16   `yaml:"device_id"`
	InClusters  []uint16 `yaml:"in_clusters"`
	OutClusters []uint16 `yaml:"out_clusters"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Path:        "/dev/ttyACM0",
			Baud:        transport.DefaultBaud,
			DialTimeout: transport.DefaultDialTimeout,
		},
		Client: ClientConfig{
			Timeout:            znp.DefaultTimeout,
			StaleWindow:        znp.DefaultStaleWindow,
			SubscriptionBuffer: znp.DefaultSubscriptionBuffer,
		},
		Reconnect: ReconnectConfig{
			Enabled: true,
			Initial: 500 * time.Millisecond,
			Max:     30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Network: NetworkConfig{
			PANID:         0xFFFF,
			ExtendedPANID: "DDDDDDDDDDDDDDDD",
			Channels:      []int{11},
			StartTimeout:  10 * time.Second,
		},
		Endpoints: []EndpointConfig{{
			Endpoint:    1,
			ProfileID:   ProfileHomeAutomation,
			DeviceID:    DeviceConfigTool,
			InClusters:  []uint16{0x0000, 0x0006},
			OutClusters: []uint16{0x0000, 0x0006, 0x0402, 0x0405},
		}},
	}
}

// Load reads the file at path on top of Default and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidationError names an invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the configuration. All problems are reported, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Device.Path) == "" {
		add("device.path", "required")
	} else if _, err := transport.ParseDevice(c.Device.Path); err != nil {
		add("device.path", "%v", err)
	}
	if c.Device.Baud <= 0 {
		add("device.baud", "must be positive")
	}
	if c.Client.Timeout <= 0 {
		add("client.timeout", "must be positive")
	}
	if c.Client.StaleWindow < 0 {
		add("client.stale_window", "must not be negative")
	}
	if c.Reconnect.Enabled && c.Reconnect.Max < c.Reconnect.Initial {
		add("reconnect.max", "must not be below reconnect.initial")
	}
	if c.Reconnect.MaxAttempts < 0 {
		add("reconnect.max_attempts", "must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		add("log.level", "%v", err)
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		add("log.format", "must be text or json, got %q", f)
	}

	n := c.Network
	if len(n.Channels) == 0 {
		add("network.channels", "at least one channel required")
	}
	for _, ch := range n.Channels {
		if ch < MinChannel || ch > MaxChannel {
			add("network.channels", "channel %d outside %d-%d", ch, MinChannel, MaxChannel)
		}
	}
	if _, err := n.ExtendedPANIDValue(); err != nil {
		add("network.extended_pan_id", "%v", err)
	}
	if n.NetworkKey != "" {
		if _, err := n.NetworkKeyBytes(); err != nil {
			add("network.network_key", "%v", err)
		}
		if n.NetworkKeySecret != "" {
			add("network.network_key_secret", "conflicts with network.network_key")
		}
	}
	if n.StartTimeout <= 0 {
		add("network.start_timeout", "must be positive")
	}

	seen := make(map[uint8]bool)
	for i, ep := range c.Endpoints {
		field := fmt.Sprintf("endpoints[%d]", i)
		if ep.Endpoint < 1 || ep.Endpoint > 240 {
			add(field+".endpoint", "must be 1-240, got %d", ep.Endpoint)
		}
		if seen[ep.Endpoint] {
			add(field+".endpoint", "duplicate endpoint %d", ep.Endpoint)
		}
		seen[ep.Endpoint] = true
		if len(ep.InClusters) > MaxEndpointClusters {
			add(field+".in_clusters", "at most %d clusters", MaxEndpointClusters)
		}
		if len(ep.OutClusters) > MaxEndpointClusters {
			add(field+".out_clusters", "at most %d clusters", MaxEndpointClusters)
		}
	}

	return errors.Join(errs...)
}

// ChannelMask returns the CHANLIST bit mask.
func (n NetworkConfig) ChannelMask() uint32 {
	var mask uint32
	for _, ch := range n.Channels {
		if ch >= MinChannel && ch <= MaxChannel {
			mask |= 1 << ch
		}
	}
	return mask
}

// ExtendedPANIDValue parses ExtendedPANID.
func (n NetworkConfig) ExtendedPANIDValue() (uint64, error) {
	b, err := decodeHex(n.ExtendedPANID, 8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

// NetworkKeyBytes parses NetworkKey.
func (n NetworkConfig) NetworkKeyBytes() ([16]byte, error) {
	var key [16]byte
	b, err := decodeHex(n.NetworkKey, 16)
	if err != nil {
		return key, err
	}
	copy(key[:], b)
	return key, nil
}

func decodeHex(s string, size int) ([]byte, error) {
	s = strings.NewReplacer(":", "", " ", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("want %d bytes, got %d", size, len(b))
	}
	return b, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}
