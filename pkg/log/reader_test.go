package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znp-host/znp-go/pkg/wire"
)

func writeCapture(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture"+FileExt)
	l, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		l.Log(e)
	}
	require.NoError(t, l.Close())
	return path
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, SessionID: "a", Direction: DirectionOut, Layer: LayerWire, Category: CategoryFrame,
			Frame: &FrameEvent{Type: wire.TypeSyncReq, Subsystem: wire.SubsystemSYS, CommandID: 0x01}},
		{Timestamp: base.Add(time.Second), SessionID: "a", Direction: DirectionIn, Layer: LayerWire, Category: CategoryFrame,
			Frame: &FrameEvent{Type: wire.TypeSyncResp, Subsystem: wire.SubsystemSYS, CommandID: 0x01}},
		{Timestamp: base.Add(2 * time.Second), SessionID: "a", Direction: DirectionIn, Layer: LayerCommand, Category: CategoryNotification,
			Notification: &NotificationEvent{Name: "ZDOStateChangeInd", Subsystem: wire.SubsystemZDO, CommandID: 0xC0}},
		{Timestamp: base.Add(3 * time.Second), SessionID: "b", Port: "tcp://10.0.0.2:6638", Layer: LayerClient, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityConnection, NewState: "LOST"}},
	}
	path := writeCapture(t, events)

	in := DirectionIn
	cmdLayer := LayerCommand
	state := CategoryState
	sys := wire.SubsystemSYS
	zdo := wire.SubsystemZDO
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionID: "a"}, 3},
		{"port", Filter{Port: "tcp://10.0.0.2:6638"}, 1},
		{"direction", Filter{Direction: &in}, 3},
		{"layer", Filter{Layer: &cmdLayer}, 1},
		{"category", Filter{Category: &state}, 1},
		{"subsystem frames", Filter{Subsystem: &sys}, 2},
		{"subsystem notifications", Filter{Subsystem: &zdo}, 1},
		{"time range", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{SessionID: "a", Direction: &in, Subsystem: &sys}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, readAll(t, path, tt.filter), tt.want)
		})
	}
}

func TestReaderEmptyFile(t *testing.T) {
	path := writeCapture(t, nil)

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderTruncatedFile(t *testing.T) {
	path := writeCapture(t, []Event{{SessionID: "whole"}, {SessionID: "cut off"}})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0o644))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "whole", e.SessionID)

	_, err = r.Next()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope"+FileExt))
	assert.Error(t, err)
}
