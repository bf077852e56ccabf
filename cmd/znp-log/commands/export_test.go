package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/znp-host/znp-go/pkg/log"
	"github.com/znp-host/znp-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test"+log.FileExt)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp: ts,
			SessionID: "abc12345-6789",
			Port:      "/dev/ttyACM0",
			Direction: log.DirectionOut,
			Layer:     log.LayerWire,
			Category:  log.CategoryFrame,
			Frame: &log.FrameEvent{
				Type:      wire.TypeSyncReq,
				Subsystem: wire.SubsystemSYS,
				CommandID: 0x01,
				Size:      5,
			},
		},
		{
			Timestamp: ts.Add(time.Millisecond),
			SessionID: "abc12345-6789",
			Port:      "/dev/ttyACM0",
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryFrame,
			Frame: &log.FrameEvent{
				Type:      wire.TypeSyncResp,
				Subsystem: wire.SubsystemSYS,
				CommandID: 0x01,
				Payload:   []byte{0x79, 0x06},
				Size:      7,
			},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond),
			SessionID: "abc12345-6789",
			Direction: log.DirectionIn,
			Layer:     log.LayerClient,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerWire,
				Message: "stream desynchronized",
				Context: "read",
				Fatal:   true,
			},
		},
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, m)
	}

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0]["SessionID"] != "abc12345-6789" {
		t.Errorf("expected SessionID, got %v", lines[0]["SessionID"])
	}
	if lines[0]["Frame"] == nil {
		t.Error("expected Frame in first line")
	}
	if lines[2]["Error"] == nil {
		t.Error("expected Error in last line")
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("unexpected header: %v", records[0])
	}

	resp := records[2]
	if resp[6] != "SRSP" || resp[7] != "SYS/0x01" || resp[8] != "7" || resp[9] != "7906" {
		t.Errorf("unexpected frame row: %v", resp)
	}
	if records[3][6] != "error" || records[3][9] != "stream desynchronized" {
		t.Errorf("unexpected error row: %v", records[3])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExportMissingFile(t *testing.T) {
	err := RunExport(filepath.Join(t.TempDir(), "missing.zlog"), "jsonl", "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
