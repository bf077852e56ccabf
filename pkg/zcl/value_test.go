package zcl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadValue(t *testing.T) {
	tests := []struct {
		name string
		typ  DataType
		data []byte
		want Value
		n    int
	}{
		{"uint8", TypeUint8, []byte{0x07}, Value{Type: TypeUint8, Uint: 7}, 1},
		{"uint16", TypeUint16, []byte{0x34, 0x12, 0xFF}, Value{Type: TypeUint16, Uint: 0x1234}, 2},
		{"uint24", TypeUint24, []byte{0x01, 0x02, 0x03}, Value{Type: TypeUint24, Uint: 0x030201}, 3},
		{"uint40", TypeUint40, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, Value{Type: TypeUint40, Uint: 0x0504030201}, 5},
		{"uint64", TypeUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, Value{Type: TypeUint64, Uint: 1<<64 - 1}, 8},
		{"int8", TypeInt8, []byte{0x80}, Value{Type: TypeInt8, Int: -128}, 1},
		{"int16", TypeInt16, []byte{0x18, 0xFC}, Value{Type: TypeInt16, Int: -1000}, 2},
		{"int24", TypeInt24, []byte{0xFF, 0xFF, 0xFF}, Value{Type: TypeInt24, Int: -1}, 3},
		{"int24 positive", TypeInt24, []byte{0xFF, 0xFF, 0x7F}, Value{Type: TypeInt24, Int: 0x7FFFFF}, 3},
		{"int64", TypeInt64, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, Value{Type: TypeInt64, Int: -2}, 8},
		{"bool", TypeBool, []byte{0x01}, Value{Type: TypeBool, Bool: true}, 1},
		{"data8", TypeData8, []byte{0xA5}, Value{Type: TypeData8, Uint: 0xA5}, 1},
		{"bitmap16", TypeBitmap16, []byte{0x01, 0x80}, Value{Type: TypeBitmap16, Uint: 0x8001}, 2},
		{"enum8", TypeEnum8, []byte{0x03}, Value{Type: TypeEnum8, Uint: 3}, 1},
		{"enum16", TypeEnum16, []byte{0x34, 0x12}, Value{Type: TypeEnum16, Uint: 0x1234}, 2},
		{"single", TypeSingle, []byte{0x00, 0x00, 0xC0, 0x3F}, Value{Type: TypeSingle, Float: 1.5}, 4},
		{"double", TypeDouble, []byte{0, 0, 0, 0, 0, 0, 0x04, 0xC0}, Value{Type: TypeDouble, Float: -2.5}, 8},
		{"octet string", TypeOctetString, []byte{0x03, 0x0A, 0x0B, 0x0C, 0xFF}, Value{Type: TypeOctetString, Bytes: []byte{0x0A, 0x0B, 0x0C}}, 4},
		{"char string", TypeCharString, []byte{0x05, 'h', 'e', 'l', 'l', 'o'}, Value{Type: TypeCharString, Text: "hello"}, 6},
		{"invalid char string", TypeCharString, []byte{0xFF}, Value{Type: TypeCharString}, 1},
		{
			"struct", TypeStruct,
			[]byte{0x02, 0x00, 0x20, 0x07, 0x42, 0x02, 'h', 'i'},
			Value{Type: TypeStruct, Fields: []Value{
				{Type: TypeUint8, Uint: 7},
				{Type: TypeCharString, Text: "hi"},
			}},
			8,
		},
		{
			"nested struct", TypeStruct,
			[]byte{0x01, 0x00, 0x4C, 0x01, 0x00, 0x10, 0x00},
			Value{Type: TypeStruct, Fields: []Value{
				{Type: TypeStruct, Fields: []Value{{Type: TypeBool}}},
			}},
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, n, err := ReadValue(tt.data, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.n, n)
		})
	}
}

func TestReadValueErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  DataType
		data []byte
		want error
	}{
		{"unknown type", DataType(0xFE), []byte{0x00}, ErrUnknownType},
		{"no data type", TypeNoData, nil, ErrUnknownType},
		{"short uint16", TypeUint16, []byte{0x01}, ErrTruncated},
		{"short int40", TypeInt40, []byte{0x01, 0x02}, ErrTruncated},
		{"missing string length", TypeCharString, nil, ErrTruncated},
		{"short string", TypeOctetString, []byte{0x04, 0x01}, ErrTruncated},
		{"short struct count", TypeStruct, []byte{0x01}, ErrTruncated},
		{"struct missing element", TypeStruct, []byte{0x02, 0x00, 0x20, 0x07}, ErrTruncated},
		{"struct unknown element", TypeStruct, []byte{0x01, 0x00, 0xFE, 0x00}, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadValue(tt.data, tt.typ)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadTaggedValue(t *testing.T) {
	v, n, err := ReadTaggedValue([]byte{0x21, 0x10, 0x27})
	require.NoError(t, err)
	assert.Equal(t, Value{Type: TypeUint16, Uint: 10000}, v)
	assert.Equal(t, 3, n)

	_, _, err = ReadTaggedValue(nil)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestAppendTaggedValueRoundTrip(t *testing.T) {
	values := []Value{
		{Type: TypeUint8, Uint: 200},
		{Type: TypeUint48, Uint: 0xA1B2C3D4E5F6},
		{Type: TypeInt16, Int: -2},
		{Type: TypeInt56, Int: -(1 << 40)},
		{Type: TypeBool, Bool: true},
		{Type: TypeBitmap8, Uint: 0x81},
		{Type: TypeEnum16, Uint: 0xBEEF},
		{Type: TypeSingle, Float: 0.25},
		{Type: TypeDouble, Float: 1e100},
		{Type: TypeOctetString, Bytes: []byte{0xDE, 0xAD}},
		{Type: TypeCharString, Text: "lumi.weather"},
		{Type: TypeStruct, Fields: []Value{
			{Type: TypeUint8, Uint: 1},
			{Type: TypeStruct, Fields: []Value{{Type: TypeInt8, Int: -5}}},
		}},
	}

	for _, v := range values {
		t.Run(v.Type.String(), func(t *testing.T) {
			b, err := AppendTaggedValue(nil, v)
			require.NoError(t, err)
			assert.Equal(t, byte(v.Type), b[0])

			back, n, err := ReadTaggedValue(b)
			require.NoError(t, err)
			assert.Equal(t, len(b), n)
			assert.Equal(t, v, back)
		})
	}
}

func TestAppendValueRange(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		ok   bool
	}{
		{"uint8 max", Value{Type: TypeUint8, Uint: 0xFF}, true},
		{"uint8 overflow", Value{Type: TypeUint8, Uint: 0x100}, false},
		{"uint24 overflow", Value{Type: TypeUint24, Uint: 1 << 24}, false},
		{"int8 min", Value{Type: TypeInt8, Int: -128}, true},
		{"int8 underflow", Value{Type: TypeInt8, Int: -129}, false},
		{"int8 overflow", Value{Type: TypeInt8, Int: 128}, false},
		{"long string", Value{Type: TypeCharString, Text: string(make([]byte, 255))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AppendValue(nil, tt.v)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValueRange)
			}
		})
	}

	_, err := AppendValue(nil, Value{Type: DataType(0xFE)})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "uint8", TypeUint8.String())
	assert.Equal(t, "int24", TypeInt24.String())
	assert.Equal(t, "data8", TypeData8.String())
	assert.Equal(t, "bitmap64", TypeBitmap64.String())
	assert.Equal(t, "enum16", TypeEnum16.String())
	assert.Equal(t, "single", TypeSingle.String())
	assert.Equal(t, "string", TypeCharString.String())
	assert.Equal(t, "struct", TypeStruct.String())
	assert.Equal(t, "type(0xFE)", DataType(0xFE).String())
	assert.True(t, TypeOctetString.Known())
	assert.False(t, DataType(0x48).Known())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "uint8(7)", Value{Type: TypeUint8, Uint: 7}.String())
	assert.Equal(t, "int16(-3)", Value{Type: TypeInt16, Int: -3}.String())
	assert.Equal(t, `string("hi")`, Value{Type: TypeCharString, Text: "hi"}.String())
	assert.Equal(t, "octstr(0102)", Value{Type: TypeOctetString, Bytes: []byte{1, 2}}.String())
	assert.Equal(t, "struct{bool(true), uint8(1)}", Value{Type: TypeStruct, Fields: []Value{
		{Type: TypeBool, Bool: true},
		{Type: TypeUint8, Uint: 1},
	}}.String())
	assert.Nil(t, Value{Type: DataType(0xFE)}.Any())
}
