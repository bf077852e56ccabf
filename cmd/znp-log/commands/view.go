// Package commands implements the znp-log CLI commands.
package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/log"
	"github.com/znp-host/znp-go/pkg/wire"
	"github.com/znp-host/znp-go/pkg/zcl"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	Subsystem *wire.Subsystem

	// Decode classifies AREQ frames and decodes ZCL payloads.
	Decode bool
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		Layer:     f.Layer,
		Direction: f.Direction,
		Category:  f.Category,
		Subsystem: f.Subsystem,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event, decode bool) {
	// Header line: timestamp [session:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sid := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = event.Frame.Type.String() + " " + event.Frame.Key().String()
	case event.Notification != nil:
		typeLabel = event.Notification.Name
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s\n", ts, sid, event.Direction, event.Layer, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame, decode)
	case event.Notification != nil:
		formatNotificationDetails(w, event.Notification)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent, decode bool) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Payload) > 0 {
		fmt.Fprintf(w, "  Payload: %s\n", hex.EncodeToString(frame.Payload))
	}
	if !decode || frame.Type != wire.TypeAsyncReq {
		return
	}

	n, err := command.Classify(wire.Frame{
		Type:      frame.Type,
		Subsystem: frame.Subsystem,
		CommandID: frame.CommandID,
		Payload:   frame.Payload,
	})
	if err != nil {
		fmt.Fprintf(w, "  Decode: %v\n", err)
		return
	}
	fmt.Fprintf(w, "  %s: %+v\n", command.Name(n), n)

	if msg, ok := n.(*command.AFIncomingMsg); ok {
		formatZCL(w, msg)
	}
}

func formatZCL(w io.Writer, msg *command.AFIncomingMsg) {
	m, err := zcl.Decode(msg)
	if m == nil {
		fmt.Fprintf(w, "  ZCL: %v\n", err)
		return
	}
	fmt.Fprintf(w, "  ZCL: %s %s\n", m.Cluster, m.Frame)

	if r, ok := m.Command.(*zcl.AttributeReport); ok {
		for _, rec := range r.Records {
			fmt.Fprintf(w, "    attr 0x%04X = %s", rec.ID, rec.Value)
			if v, ok := zcl.Measurement(m.Cluster, rec.Value); ok && rec.ID == zcl.AttrMeasuredValue {
				fmt.Fprintf(w, " (%.2f)", v)
			}
			fmt.Fprintln(w)
		}
	} else if m.Command != nil {
		fmt.Fprintf(w, "    %+v\n", m.Command)
	}

	var de *zcl.DecodeError
	switch {
	case errors.As(err, &de):
		fmt.Fprintf(w, "    report truncated: %v\n", de)
	case err != nil:
		fmt.Fprintf(w, "    %v\n", err)
	}
}

func formatNotificationDetails(w io.Writer, n *log.NotificationEvent) {
	fmt.Fprintf(w, "  Command: %s\n", wire.Key{Subsystem: n.Subsystem, CommandID: n.CommandID})
	fmt.Fprintf(w, "  Delivered: %d", n.Delivered)
	if n.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped: %d", n.Dropped)
	}
	fmt.Fprintln(w)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
	if err.Fatal {
		fmt.Fprintln(w, "  Fatal: session ended")
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "wire":
		return log.LayerWire, nil
	case "command":
		return log.LayerCommand, nil
	case "client":
		return log.LayerClient, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be wire, command, or client)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "notification":
		return log.CategoryNotification, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, notification, state, or error)", s)
	}
}

// ParseSubsystemFlag parses a subsystem name such as "zdo" or "AF".
func ParseSubsystemFlag(s string) (wire.Subsystem, error) {
	name := strings.ToUpper(s)
	for sub := wire.SubsystemReserved; sub <= wire.SubsystemAPP; sub++ {
		if sub.String() == name {
			return sub, nil
		}
	}
	return 0, fmt.Errorf("invalid subsystem: %s", s)
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event, filter.Decode)
	}

	return nil
}
