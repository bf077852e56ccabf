package zcl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Value errors.
var (
	ErrUnknownType = errors.New("zcl: unknown data type")
	ErrTruncated   = errors.New("zcl: truncated value")
	ErrValueRange  = errors.New("zcl: value out of range")
)

// DataType is the type tag preceding attribute values.
type DataType uint8

const (
	TypeNoData DataType = 0x00

	TypeData8  DataType = 0x08
	TypeData16 DataType = 0x09
	TypeData24 DataType = 0x0A
	TypeData32 DataType = 0x0B
	TypeData40 DataType = 0x0C
	TypeData48 DataType = 0x0D
	TypeData56 DataType = 0x0E
	TypeData64 DataType = 0x0F

	TypeBool DataType = 0x10

	TypeBitmap8  DataType = 0x18
	TypeBitmap16 DataType = 0x19
	TypeBitmap24 DataType = 0x1A
	TypeBitmap32 DataType = 0x1B
	TypeBitmap40 DataType = 0x1C
	TypeBitmap48 DataType = 0x1D
	TypeBitmap56 DataType = 0x1E
	TypeBitmap64 DataType = 0x1F

	TypeUint8  DataType = 0x20
	TypeUint16 DataType = 0x21
	TypeUint24 DataType = 0x22
	TypeUint32 DataType = 0x23
	TypeUint40 DataType = 0x24
	TypeUint48 DataType = 0x25
	TypeUint56 DataType = 0x26
	TypeUint64 DataType = 0x27

	TypeInt8  DataType = 0x28
	TypeInt16 DataType = 0x29
	TypeInt24 DataType = 0x2A
	TypeInt32 DataType = 0x2B
	TypeInt40 DataType = 0x2C
	TypeInt48 DataType = 0x2D
	TypeInt56 DataType = 0x2E
	TypeInt64 DataType = 0x2F

	TypeEnum8  DataType = 0x30
	TypeEnum16 DataType = 0x31

	TypeSingle DataType = 0x39
	TypeDouble DataType = 0x3A

	TypeOctetString DataType = 0x41
	TypeCharString  DataType = 0x42

	TypeStruct DataType = 0x4C
)

type valueKind uint8

const (
	kindUnknown valueKind = iota
	kindUnsigned
	kindSigned
	kindBool
	kindFloat
	kindOctets
	kindString
	kindStruct
)

// layout returns how values of t are encoded. Size is zero for variable
// length kinds.
func (t DataType) layout() (valueKind, int) {
	switch {
	case t >= TypeData8 && t <= TypeData64:
		return kindUnsigned, int(t-TypeData8) + 1
	case t == TypeBool:
		return kindBool, 1
	case t >= TypeBitmap8 && t <= TypeBitmap64:
		return kindUnsigned, int(t-TypeBitmap8) + 1
	case t >= TypeUint8 && t <= TypeUint64:
		return kindUnsigned, int(t-TypeUint8) + 1
	case t >= TypeInt8 && t <= TypeInt64:
		return kindSigned, int(t-TypeInt8) + 1
	case t == TypeEnum8:
		return kindUnsigned, 1
	case t == TypeEnum16:
		return kindUnsigned, 2
	case t == TypeSingle:
		return kindFloat, 4
	case t == TypeDouble:
		return kindFloat, 8
	case t == TypeOctetString:
		return kindOctets, 0
	case t == TypeCharString:
		return kindString, 0
	case t == TypeStruct:
		return kindStruct, 0
	}
	return kindUnknown, 0
}

// Known reports whether values of t can be decoded.
func (t DataType) Known() bool {
	k, _ := t.layout()
	return k != kindUnknown
}

// String returns the type name, e.g. "uint16".
func (t DataType) String() string {
	k, size := t.layout()
	bits := strconv.Itoa(size * 8)
	switch {
	case t >= TypeData8 && t <= TypeData64:
		return "data" + bits
	case t >= TypeBitmap8 && t <= TypeBitmap64:
		return "bitmap" + bits
	case t == TypeEnum8 || t == TypeEnum16:
		return "enum" + bits
	}
	switch k {
	case kindUnsigned:
		return "uint" + bits
	case kindSigned:
		return "int" + bits
	case kindBool:
		return "bool"
	case kindFloat:
		if size == 4 {
			return "single"
		}
		return "double"
	case kindOctets:
		return "octstr"
	case kindString:
		return "string"
	case kindStruct:
		return "struct"
	}
	return fmt.Sprintf("type(0x%02X)", uint8(t))
}

// Value is a decoded attribute value. Which field holds the value depends
// on Type: Uint for data, bitmap, unsigned and enum types, Int for signed
// types, Bool, Float, Bytes for octet strings, Text for character strings
// and Fields for structs.
type Value struct {
	Type   DataType
	Uint   uint64
	Int    int64
	Bool   bool
	Float  float64
	Bytes  []byte
	Text   string
	Fields []Value
}

// Any returns the Go value held by v.
func (v Value) Any() any {
	k, _ := v.Type.layout()
	switch k {
	case kindUnsigned:
		return v.Uint
	case kindSigned:
		return v.Int
	case kindBool:
		return v.Bool
	case kindFloat:
		return v.Float
	case kindOctets:
		return v.Bytes
	case kindString:
		return v.Text
	case kindStruct:
		return v.Fields
	}
	return nil
}

// String formats the value with its type, e.g. "uint8(7)".
func (v Value) String() string {
	k, _ := v.Type.layout()
	switch k {
	case kindOctets:
		return fmt.Sprintf("%s(%X)", v.Type, v.Bytes)
	case kindString:
		return fmt.Sprintf("%s(%q)", v.Type, v.Text)
	case kindStruct:
		s := v.Type.String() + "{"
		for i, f := range v.Fields {
			if i > 0 {
				s += ", "
			}
			s += f.String()
		}
		return s + "}"
	}
	return fmt.Sprintf("%s(%v)", v.Type, v.Any())
}

// ReadValue decodes one value of type t from the start of b and returns
// the number of bytes it occupied.
func ReadValue(b []byte, t DataType) (Value, int, error) {
	k, size := t.layout()
	v := Value{Type: t}

	switch k {
	case kindUnsigned, kindSigned, kindBool, kindFloat:
		if len(b) < size {
			return Value{}, 0, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrTruncated, t, size, len(b))
		}
		u := readUint(b[:size])
		switch k {
		case kindUnsigned:
			v.Uint = u
		case kindSigned:
			shift := 64 - 8*size
			v.Int = int64(u<<shift) >> shift
		case kindBool:
			v.Bool = u != 0
		case kindFloat:
			if size == 4 {
				v.Float = float64(math.Float32frombits(uint32(u)))
			} else {
				v.Float = math.Float64frombits(u)
			}
		}
		return v, size, nil

	case kindOctets, kindString:
		if len(b) < 1 {
			return Value{}, 0, fmt.Errorf("%w: %s length", ErrTruncated, t)
		}
		n := int(b[0])
		if n == 0xFF {
			// Invalid string marker.
			n = 0
		}
		if len(b) < 1+n {
			return Value{}, 0, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrTruncated, t, n, len(b)-1)
		}
		if k == kindOctets {
			v.Bytes = append([]byte{}, b[1:1+n]...)
		} else {
			v.Text = string(b[1 : 1+n])
		}
		return v, 1 + n, nil

	case kindStruct:
		if len(b) < 2 {
			return Value{}, 0, fmt.Errorf("%w: struct count", ErrTruncated)
		}
		count := int(binary.LittleEndian.Uint16(b))
		if count == 0xFFFF {
			count = 0
		}
		off := 2
		v.Fields = make([]Value, 0, min(count, len(b)/2))
		for i := range count {
			f, n, err := ReadTaggedValue(b[off:])
			if err != nil {
				return Value{}, 0, fmt.Errorf("struct element %d: %w", i, err)
			}
			v.Fields = append(v.Fields, f)
			off += n
		}
		return v, off, nil
	}

	return Value{}, 0, fmt.Errorf("%w: 0x%02X", ErrUnknownType, uint8(t))
}

// ReadTaggedValue decodes a type tag followed by a value.
func ReadTaggedValue(b []byte) (Value, int, error) {
	if len(b) < 1 {
		return Value{}, 0, fmt.Errorf("%w: type tag", ErrTruncated)
	}
	v, n, err := ReadValue(b[1:], DataType(b[0]))
	if err != nil {
		return Value{}, 0, err
	}
	return v, n + 1, nil
}

// AppendValue encodes v without its type tag.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	k, size := v.Type.layout()
	switch k {
	case kindUnsigned:
		if size < 8 && v.Uint>>(8*size) != 0 {
			return nil, fmt.Errorf("%w: %d does not fit %s", ErrValueRange, v.Uint, v.Type)
		}
		return appendUint(dst, v.Uint, size), nil
	case kindSigned:
		if size < 8 {
			limit := int64(1) << (8*size - 1)
			if v.Int < -limit || v.Int >= limit {
				return nil, fmt.Errorf("%w: %d does not fit %s", ErrValueRange, v.Int, v.Type)
			}
		}
		return appendUint(dst, uint64(v.Int), size), nil
	case kindBool:
		if v.Bool {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case kindFloat:
		if size == 4 {
			return appendUint(dst, uint64(math.Float32bits(float32(v.Float))), 4), nil
		}
		return appendUint(dst, math.Float64bits(v.Float), 8), nil
	case kindOctets:
		if len(v.Bytes) >= 0xFF {
			return nil, fmt.Errorf("%w: octet string of %d bytes", ErrValueRange, len(v.Bytes))
		}
		dst = append(dst, byte(len(v.Bytes)))
		return append(dst, v.Bytes...), nil
	case kindString:
		if len(v.Text) >= 0xFF {
			return nil, fmt.Errorf("%w: string of %d bytes", ErrValueRange, len(v.Text))
		}
		dst = append(dst, byte(len(v.Text)))
		return append(dst, v.Text...), nil
	case kindStruct:
		if len(v.Fields) >= 0xFFFF {
			return nil, fmt.Errorf("%w: struct of %d elements", ErrValueRange, len(v.Fields))
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(len(v.Fields)))
		for _, f := range v.Fields {
			var err error
			if dst, err = AppendTaggedValue(dst, f); err != nil {
				return nil, err
			}
		}
		return dst, nil
	}
	return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownType, uint8(v.Type))
}

// AppendTaggedValue encodes the type tag of v followed by the value.
func AppendTaggedValue(dst []byte, v Value) ([]byte, error) {
	return AppendValue(append(dst, byte(v.Type)), v)
}

func readUint(b []byte) uint64 {
	var u uint64
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	return u
}

func appendUint(dst []byte, u uint64, size int) []byte {
	for i := range size {
		dst = append(dst, byte(u>>(8*i)))
	}
	return dst
}
