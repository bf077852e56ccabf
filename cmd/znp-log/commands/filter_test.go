package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/znp-host/znp-go/pkg/log"
	"github.com/znp-host/znp-go/pkg/wire"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
}

func TestFilterBySessionID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, SessionID: "session-1", Category: log.CategoryFrame},
		{Timestamp: ts, SessionID: "session-2", Category: log.CategoryFrame},
		{Timestamp: ts, SessionID: "session-1", Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.zlog")

	n, err := RunFilter(path, FilterOptions{Output: outPath, SessionID: "session-1"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events written, got %d", n)
	}

	got := readAll(t, outPath)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	for _, e := range got {
		if e.SessionID != "session-1" {
			t.Errorf("expected session-1, got %s", e.SessionID)
		}
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base},
		{Timestamp: base.Add(time.Minute)},
		{Timestamp: base.Add(2 * time.Minute)},
		{Timestamp: base.Add(3 * time.Minute)},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.zlog")

	_, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: base.Add(time.Minute).Format(time.RFC3339),
		TimeEnd:   base.Add(3 * time.Minute).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readAll(t, outPath)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("unexpected first event at %s", got[0].Timestamp)
	}
}

func TestFilterBySubsystem(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Frame: &log.FrameEvent{Type: wire.TypeAsyncReq, Subsystem: wire.SubsystemZDO, CommandID: 0xC0}},
		{Timestamp: ts, Frame: &log.FrameEvent{Type: wire.TypeSyncReq, Subsystem: wire.SubsystemSYS, CommandID: 0x01}},
		{Timestamp: ts, Category: log.CategoryNotification, Notification: &log.NotificationEvent{Name: "ZDOStateChangeInd", Subsystem: wire.SubsystemZDO, CommandID: 0xC0}},
		{Timestamp: ts, Category: log.CategoryState, StateChange: &log.StateChangeEvent{NewState: "OPEN"}},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.zlog")

	n, err := RunFilter(path, FilterOptions{Output: outPath, Subsystem: "zdo"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 ZDO events, got %d", n)
	}
}

func TestFilterByLayerAndDirection(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerWire, Direction: log.DirectionIn},
		{Timestamp: ts, Layer: log.LayerWire, Direction: log.DirectionOut},
		{Timestamp: ts, Layer: log.LayerClient, Direction: log.DirectionIn},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.zlog")

	n, err := RunFilter(path, FilterOptions{Output: outPath, Layer: "wire", Direction: "in"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}

func TestFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.zlog")

	tests := []struct {
		name string
		opts FilterOptions
	}{
		{"bad time", FilterOptions{Output: outPath, TimeStart: "yesterday"}},
		{"bad layer", FilterOptions{Output: outPath, Layer: "service"}},
		{"bad direction", FilterOptions{Output: outPath, Direction: "up"}},
		{"bad category", FilterOptions{Output: outPath, Category: "message"}},
		{"bad subsystem", FilterOptions{Output: outPath, Subsystem: "mesh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RunFilter(path, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
