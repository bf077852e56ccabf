package zcl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte{0x18, 0x05, 0x0A, 0x00, 0x00, 0x20, 0x07})
	require.NoError(t, err)

	assert.Equal(t, FrameControl{
		Type:                   FrameTypeGeneral,
		Direction:              DirectionServerToClient,
		DisableDefaultResponse: true,
	}, f.Control)
	assert.Nil(t, f.ManufacturerCode)
	assert.Equal(t, uint8(5), f.Sequence)
	assert.Equal(t, CmdReportAttributes, f.CommandID)
	assert.Equal(t, []byte{0x00, 0x00, 0x20, 0x07}, f.Payload)
}

func TestParseFrameManufacturerSpecific(t *testing.T) {
	f, err := ParseFrame([]byte{0x05, 0x34, 0x12, 0x01, 0x02})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeCluster, f.Control.Type)
	assert.True(t, f.Control.ManufacturerSpecific)
	require.NotNil(t, f.ManufacturerCode)
	assert.Equal(t, uint16(0x1234), *f.ManufacturerCode)
	assert.Equal(t, uint8(1), f.Sequence)
	assert.Equal(t, uint8(2), f.CommandID)
	assert.Empty(t, f.Payload)
	assert.Equal(t, "cluster seq=1 cmd=0x02 client->server mfr=0x1234", f.String())
}

func TestParseFrameIgnoresReservedBits(t *testing.T) {
	f, err := ParseFrame([]byte{0xE1, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, FrameControl{Type: FrameTypeCluster}, f.Control)
}

func TestParseFrameShort(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"control only", []byte{0x00}},
		{"no command id", []byte{0x00, 0x01}},
		{"manufacturer code cut", []byte{0x04, 0x34}},
		{"manufacturer frame without sequence", []byte{0x04, 0x34, 0x12, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame(tt.data)
			assert.ErrorIs(t, err, ErrShortFrame)
		})
	}
}

func TestFrameMarshalBinary(t *testing.T) {
	code := uint16(0x115F)
	f := Frame{
		Control: FrameControl{
			Type:      FrameTypeCluster,
			Direction: DirectionServerToClient,
		},
		ManufacturerCode: &code,
		Sequence:         9,
		CommandID:        0x42,
		Payload:          []byte{0xAA, 0xBB},
	}

	b, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0D, 0x5F, 0x11, 0x09, 0x42, 0xAA, 0xBB}, b)

	back, err := ParseFrame(b)
	require.NoError(t, err)
	f.Control.ManufacturerSpecific = true
	assert.Equal(t, f, back)
}

func TestFrameMarshalBinaryClearsManufacturerBit(t *testing.T) {
	f := Frame{Control: FrameControl{ManufacturerSpecific: true}, Sequence: 1, CommandID: 2}
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, b)
}

func TestFrameControlByte(t *testing.T) {
	for b := range 0x20 {
		assert.Equal(t, byte(b), ParseFrameControl(byte(b)).Byte(), "control 0x%02X", b)
	}
}

func TestNewOnOffFrame(t *testing.T) {
	b, err := NewOnOffFrame(3, OnOffOn).MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x01}, b)
}
