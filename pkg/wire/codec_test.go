package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSysResponse(t *testing.T) {
	// SRSP SYS/0x00 with payload 05 00 00. FCS = 03^61^00^05^00^00 = 0x67.
	in := []byte{0xFE, 0x03, 0x61, 0x00, 0x05, 0x00, 0x00, 0x67}

	f, n, err := Decode(in)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, Frame{
		Type:      TypeSyncResp,
		Subsystem: SubsystemSYS,
		CommandID: 0x00,
		Payload:   []byte{0x05, 0x00, 0x00},
	}, f)
}

func TestDecodeRejectsWrongFCS(t *testing.T) {
	in := []byte{0xFE, 0x03, 0x61, 0x00, 0x05, 0x00, 0x00, 0x65}

	_, n, err := Decode(in)
	assert.ErrorIs(t, err, ErrChecksum)
	assert.ErrorIs(t, err, ErrDesync)
	assert.Zero(t, n)
	assert.True(t, IsFatal(err))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"empty payload", Frame{Type: TypeSyncReq, Subsystem: SubsystemSYS, CommandID: 0x01, Payload: []byte{}}},
		{"areq zdo", Frame{Type: TypeAsyncReq, Subsystem: SubsystemZDO, CommandID: 0xC0, Payload: []byte{0x09}}},
		{"srsp app", Frame{Type: TypeSyncResp, Subsystem: SubsystemAPP, CommandID: 0xFF, Payload: []byte{1, 2, 3, 4}}},
		{"max payload", Frame{Type: TypeAsyncReq, Subsystem: SubsystemAF, CommandID: 0x81, Payload: bytes.Repeat([]byte{0xAA}, MaxPayloadSize)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.frame)
			require.NoError(t, err)
			require.Len(t, data, Size(len(tt.frame.Payload)))

			assert.Equal(t, SOF, data[0])
			assert.Zero(t, FCS(data[1:]), "XOR over length..fcs must be zero")

			got, n, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, len(data), n)
			assert.Equal(t, tt.frame, got)
		})
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	f := Frame{Type: TypeSyncReq, Subsystem: SubsystemAF, CommandID: 0x01, Payload: make([]byte, MaxPayloadSize+1)}

	data, err := Encode(f)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Empty(t, data)
}

func TestEncodeRejectsInvalidCodes(t *testing.T) {
	_, err := Encode(Frame{Type: Type(0x80), Subsystem: SubsystemSYS})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Encode(Frame{Type: TypeSyncReq, Subsystem: Subsystem(0x0A)})
	assert.ErrorIs(t, err, ErrUnknownSubsystem)
}

func TestDecodeCorruptedPayloadByte(t *testing.T) {
	f := Frame{Type: TypeAsyncReq, Subsystem: SubsystemAF, CommandID: 0x81, Payload: []byte{0, 1, 2, 3, 4, 5, 6, 7}}
	data, err := Encode(f)
	require.NoError(t, err)

	for i := HeaderSize; i < len(data)-1; i++ {
		corrupt := bytes.Clone(data)
		corrupt[i] ^= 0x10

		_, n, err := Decode(corrupt)
		assert.ErrorIs(t, err, ErrChecksum, "byte %d", i)
		assert.Zero(t, n)
	}
}

func TestDecodeNeedMoreData(t *testing.T) {
	data, err := Encode(Frame{Type: TypeSyncResp, Subsystem: SubsystemUTIL, CommandID: 0x0A, Payload: []byte{0x00}})
	require.NoError(t, err)

	for i := 0; i < len(data); i++ {
		_, n, err := Decode(data[:i])
		assert.ErrorIs(t, err, ErrNeedMoreData, "prefix %d", i)
		assert.Zero(t, n)
		assert.False(t, IsFatal(err))
	}
}

func TestDecodeMissingSOF(t *testing.T) {
	_, n, err := Decode([]byte{0x00, 0xFE, 0x00, 0x61, 0x01, 0x60})
	assert.ErrorIs(t, err, ErrDesync)
	assert.False(t, errors.Is(err, ErrChecksum))
	assert.Zero(t, n)
}

func TestDecodeUnknownCodes(t *testing.T) {
	withFCS := func(b []byte) []byte {
		return append(b, FCS(b[1:]))
	}

	_, _, err := Decode(withFCS([]byte{0xFE, 0x00, 0x81, 0x00}))
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.NotErrorIs(t, err, ErrNeedMoreData)

	_, _, err = Decode(withFCS([]byte{0xFE, 0x00, 0x6C, 0x00}))
	assert.ErrorIs(t, err, ErrUnknownSubsystem)
}

func TestDecodeOverlongLength(t *testing.T) {
	for _, length := range []int{MaxPayloadSize + 1, 0xFF} {
		buf := append([]byte{SOF, byte(length), 0x61, 0x00}, make([]byte, length)...)
		buf = append(buf, FCS(buf[1:]))

		_, n, err := Decode(buf)
		assert.ErrorIs(t, err, ErrDesync, "length %d", length)
		assert.True(t, IsFatal(err))
		assert.Zero(t, n)

		// The header alone is enough to reject it.
		_, _, err = Decode(buf[:MinFrameSize])
		assert.ErrorIs(t, err, ErrDesync, "length %d header only", length)
	}

	buf := append([]byte{SOF, MaxPayloadSize, 0x61, 0x00}, make([]byte, MaxPayloadSize)...)
	buf = append(buf, FCS(buf[1:]))
	f, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Len(t, f.Payload, MaxPayloadSize)
	assert.Equal(t, len(buf), n)
}

func TestDecodeConsecutiveFrames(t *testing.T) {
	a, _ := Encode(Frame{Type: TypeAsyncReq, Subsystem: SubsystemZDO, CommandID: 0xC0, Payload: []byte{0x02}})
	b, _ := Encode(Frame{Type: TypeSyncResp, Subsystem: SubsystemSYS, CommandID: 0x01, Payload: []byte{0x79, 0x07}})
	buf := append(append([]byte{}, a...), b...)

	f1, n1, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(a), n1)
	assert.Equal(t, TypeAsyncReq, f1.Type)

	f2, n2, err := Decode(buf[n1:])
	require.NoError(t, err)
	assert.Equal(t, len(b), n2)
	assert.Equal(t, Key{SubsystemSYS, 0x01}, f2.Key())
}

func TestDecodedPayloadDoesNotAlias(t *testing.T) {
	data, _ := Encode(Frame{Type: TypeSyncResp, Subsystem: SubsystemSYS, CommandID: 0x01, Payload: []byte{0x79, 0x07}})
	f, _, err := Decode(data)
	require.NoError(t, err)

	data[HeaderSize] = 0x00
	assert.Equal(t, byte(0x79), f.Payload[0])
}

func TestKnownPingResponse(t *testing.T) {
	// Capability response captured from a CC2531.
	data, err := Encode(Frame{Type: TypeSyncResp, Subsystem: SubsystemSYS, CommandID: 0x01, Payload: []byte{0x79, 0x07}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0x02, 0x61, 0x01, 0x79, 0x07, 0x1C}, data)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "SRSP", TypeSyncResp.String())
	assert.Equal(t, "ZDO", SubsystemZDO.String())
	assert.Equal(t, "AF/0x81", Key{SubsystemAF, 0x81}.String())
	assert.Equal(t, "UNKNOWN", Type(0x10).String())
}
