package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znp-host/znp-go/pkg/wire"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "frame",
			event: Event{
				Timestamp: ts,
				SessionID: "5f0e7c1a-2b3d-4e5f-8a9b-0c1d2e3f4a5b",
				Direction: DirectionIn,
				Layer:     LayerWire,
				Category:  CategoryFrame,
				Port:      "/dev/ttyACM0",
				Frame: &FrameEvent{
					Type:      wire.TypeSyncResp,
					Subsystem: wire.SubsystemSYS,
					CommandID: 0x01,
					Payload:   []byte{0x59, 0x06},
					Size:      7,
				},
			},
		},
		{
			name: "notification",
			event: Event{
				Timestamp: ts,
				SessionID: "s",
				Layer:     LayerCommand,
				Category:  CategoryNotification,
				Notification: &NotificationEvent{
					Name:      "ZDOStateChangeInd",
					Subsystem: wire.SubsystemZDO,
					CommandID: 0xC0,
					Delivered: 2,
					Dropped:   1,
				},
			},
		},
		{
			name: "state change",
			event: Event{
				Timestamp: ts,
				SessionID: "s",
				Layer:     LayerClient,
				Category:  CategoryState,
				StateChange: &StateChangeEvent{
					Entity:   StateEntityTicket,
					OldState: "IDLE",
					NewState: "AWAITING_REPLY",
					Reason:   "SYS/0x01",
				},
			},
		},
		{
			name: "error",
			event: Event{
				Timestamp: ts,
				SessionID: "s",
				Direction: DirectionIn,
				Layer:     LayerWire,
				Category:  CategoryError,
				Error: &ErrorEventData{
					Layer:   LayerWire,
					Message: "frame desync: checksum mismatch",
					Context: "read",
					Fatal:   true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			require.NoError(t, err)

			got, err := DecodeEvent(data)
			require.NoError(t, err)

			assert.True(t, tt.event.Timestamp.Equal(got.Timestamp))
			got.Timestamp = tt.event.Timestamp
			assert.Equal(t, tt.event, got)
		})
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	data, err := EncodeEvent(Event{SessionID: "abc", Category: CategoryState})
	require.NoError(t, err)

	var m map[any]any
	require.NoError(t, cbor.Unmarshal(data, &m))
	for k := range m {
		_, ok := k.(uint64)
		assert.True(t, ok, "key %v (%T) is not an integer", k, k)
	}
	assert.Equal(t, "abc", m[uint64(2)])
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := range 3 {
		require.NoError(t, enc.Encode(Event{SessionID: "s", Frame: &FrameEvent{CommandID: uint8(i)}}))
	}

	dec := NewDecoder(&buf)
	for i := range 3 {
		var e Event
		require.NoError(t, dec.Decode(&e))
		require.NotNil(t, e.Frame)
		assert.Equal(t, uint8(i), e.Frame.CommandID)
	}
}

func TestDecodeEventLenient(t *testing.T) {
	// Indefinite length map with key 2 (session id) repeated.
	data := []byte{0xBF, 0x02, 0x61, 'a', 0x02, 0x61, 'b', 0x04, 0x01, 0xFF}

	event, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, event.SessionID)
	assert.Equal(t, Layer(1), event.Layer)
}

func TestDecodeEventGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xFF, 0x00})
	assert.Error(t, err)
}
