package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/config"
	"github.com/znp-host/znp-go/pkg/provision"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(Flags{})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	cfg, err := loadConfig(Flags{
		Device:    "tcp://192.168.1.40:6638",
		Baud:      57600,
		Timeout:   3 * time.Second,
		Capture:   "session.zlog",
		LogLevel:  "debug",
		LogFormat: "json",
	})
	require.NoError(t, err)
	assert.Equal(t, "tcp://192.168.1.40:6638", cfg.Device.Path)
	assert.Equal(t, 57600, cfg.Device.Baud)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "session.zlog", cfg.Capture.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "znp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device:\n  path: /dev/ttyUSB1\n  baud: 115200\n"), 0o600))

	cfg, err := loadConfig(Flags{ConfigFile: path, Baud: 38400})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Device.Path)
	assert.Equal(t, 38400, cfg.Device.Baud)
}

func TestLoadConfigInvalidFlag(t *testing.T) {
	_, err := loadConfig(Flags{LogFormat: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "n", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, float64(1), entry["n"])

	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"}, &buf)
	assert.Error(t, err)
}

func TestNewHostCapture(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.File = filepath.Join(t.TempDir(), "session.zlog")
	cfg.Log.Level = "debug"

	var stderr bytes.Buffer
	h, err := newHost(cfg, &stderr)
	require.NoError(t, err)
	assert.NotNil(t, h.file)
	assert.NotNil(t, h.capture)
	assert.Contains(t, stderr.String(), "capturing protocol events")

	h.Close()
	assert.FileExists(t, cfg.Capture.File)
}

func TestNewHostNoCapture(t *testing.T) {
	var stderr bytes.Buffer
	h, err := newHost(config.Default(), &stderr)
	require.NoError(t, err)
	assert.Nil(t, h.file)
	assert.Nil(t, h.capture)
	h.Close()
}

func TestDeviceTypes(t *testing.T) {
	assert.Equal(t, "coordinator, router, end device", deviceTypes(0x07))
	assert.Equal(t, "router", deviceTypes(command.DeviceTypeRouter))
	assert.Equal(t, "none (0x00)", deviceTypes(0))
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &provision.Report{
		Verified:   []provision.ConfigID{provision.ConfigPANID, provision.ConfigChannelList},
		Registered: []uint8{1},
		Startup:    command.StartupRestored,
		State:      command.DeviceStateCoordinator,
	})

	out := buf.String()
	assert.Regexp(t, `Verified:\s+PANID, CHANLIST\n`, out)
	assert.Regexp(t, `Written:\s+-\n`, out)
	assert.Regexp(t, `Registered endpoints:\s+\[1\]\n`, out)
	assert.Regexp(t, `Startup:\s+RESTORED\n`, out)
	assert.Regexp(t, `State:\s+ZB_COORD\n`, out)
}

func TestLogNotification(t *testing.T) {
	tests := []struct {
		name string
		n    command.Notification
		want []string
	}{
		{
			name: "measurement",
			n: &command.AFIncomingMsg{
				ClusterID: 0x0402, SrcAddr: 0x1234, SrcEndpoint: 1, DstEndpoint: 1,
				Data: []byte{0x18, 0x01, 0x0A, 0x00, 0x00, 0x29, 0x10, 0x09},
			},
			want: []string{"msg=measurement", "src.addr=0x1234", "src.endpoint=1", "cluster=Temperature", "value=23.2"},
		},
		{
			name: "malformed zcl",
			n:    &command.AFIncomingMsg{ClusterID: 0x0006, SrcAddr: 0x1234, Data: []byte{0x18}},
			want: []string{"level=WARN", `msg="malformed ZCL frame"`, "cluster=OnOff"},
		},
		{
			name: "state change",
			n:    &command.ZDOStateChangeInd{State: command.DeviceStateCoordinator},
			want: []string{`msg="network state"`, "state=ZB_COORD"},
		},
		{
			name: "confirm failure",
			n:    &command.AFDataConfirm{Status: command.StatusMACNoAck, Endpoint: 1, TransID: 7},
			want: []string{"level=WARN", `msg="data request failed"`, "trans=7", `error="device status MAC_NO_ACK"`},
		},
		{
			name: "confirm success",
			n:    &command.AFDataConfirm{Endpoint: 1, TransID: 7},
			want: []string{"level=DEBUG", `msg="data request confirmed"`},
		},
		{
			name: "other",
			n:    &command.SysTimerExpired{TimerID: 2},
			want: []string{"level=DEBUG", "name=SysTimerExpired", "TimerID:2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			logNotification(logger, tt.n)

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
