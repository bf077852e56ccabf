package payload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Codec errors.
var (
	// ErrShortBuffer indicates fewer bytes remain than a field requires.
	ErrShortBuffer = errors.New("short buffer")

	// ErrTrailingBytes indicates bytes remain after the last field was decoded.
	ErrTrailingBytes = errors.New("trailing bytes")

	// ErrCountOverflow indicates a counted sequence longer than 255 elements.
	ErrCountOverflow = errors.New("sequence count exceeds 255")

	// ErrUnsupportedType indicates a Go type with no wire representation.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Error describes a failure to encode or decode a specific field.
type Error struct {
	Type   string
	Field  string
	Offset int
	Err    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("payload %s at offset %d: %v", e.Type, e.Offset, e.Err)
	}
	return fmt.Sprintf("payload %s.%s at offset %d: %v", e.Type, e.Field, e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Marshaler is implemented by types that encode themselves.
type Marshaler interface {
	// AppendPayload appends the encoding of the receiver to dst.
	AppendPayload(dst []byte) ([]byte, error)
}

// Unmarshaler is implemented by types that decode themselves.
type Unmarshaler interface {
	// UnmarshalPayload decodes from the front of data and returns the
	// number of bytes consumed. tail is true when the value may consume
	// the remainder of the payload.
	UnmarshalPayload(data []byte, tail bool) (int, error)
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

const tagName = "znp"

// Marshal encodes v, which must be a struct or a pointer to one.
func Marshal(v any) ([]byte, error) {
	return Append(nil, v)
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return dst, &Error{Type: fmt.Sprintf("%T", v), Err: fmt.Errorf("%w: nil pointer", ErrUnsupportedType)}
		}
		rv = rv.Elem()
	}
	e := &encoder{buf: dst}
	if err := e.value(rv, true, ""); err != nil {
		return dst, err
	}
	return e.buf, nil
}

// Unmarshal decodes data into v, which must be a non-nil pointer. All of
// data must be consumed.
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Type: fmt.Sprintf("%T", v), Err: fmt.Errorf("%w: need non-nil pointer", ErrUnsupportedType)}
	}
	d := &decoder{buf: data}
	if err := d.value(rv.Elem(), true, ""); err != nil {
		return err
	}
	if d.off != len(d.buf) {
		return &Error{Type: rv.Elem().Type().String(), Offset: d.off, Err: fmt.Errorf("%w: %d", ErrTrailingBytes, len(d.buf)-d.off)}
	}
	return nil
}

// fieldInfo is the parsed znp struct tag.
type fieldInfo struct {
	skip    bool
	counted bool
}

func parseTag(f reflect.StructField) fieldInfo {
	if !f.IsExported() {
		return fieldInfo{skip: true}
	}
	var fi fieldInfo
	for _, opt := range strings.Split(f.Tag.Get(tagName), ",") {
		switch opt {
		case "-":
			fi.skip = true
		case "counted":
			fi.counted = true
		}
	}
	return fi
}

// lastField returns the index of the last encoded field of t, or -1.
func lastField(t reflect.Type) int {
	for i := t.NumField() - 1; i >= 0; i-- {
		if !parseTag(t.Field(i)).skip {
			return i
		}
	}
	return -1
}

type encoder struct {
	buf []byte
}

func (e *encoder) fail(t reflect.Type, field string, err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Type: t.String(), Field: field, Offset: len(e.buf), Err: err}
}

func (e *encoder) value(v reflect.Value, tail bool, field string) error {
	if m, ok := asMarshaler(v); ok {
		out, err := m.AppendPayload(e.buf)
		if err != nil {
			return e.fail(v.Type(), field, err)
		}
		e.buf = out
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case reflect.Uint8:
		e.buf = append(e.buf, uint8(v.Uint()))
	case reflect.Uint16:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v.Uint()))
	case reflect.Uint32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v.Uint()))
	case reflect.Uint64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, v.Uint())
	case reflect.Int8:
		e.buf = append(e.buf, uint8(v.Int()))
	case reflect.Int16:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v.Int()))
	case reflect.Int32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v.Int()))
	case reflect.Int64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v.Int()))
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := e.value(v.Index(i), false, field); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.String:
		return e.sequence(v, tail, field)
	case reflect.Struct:
		t := v.Type()
		last := lastField(t)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			fi := parseTag(sf)
			if fi.skip {
				continue
			}
			if err := e.value(v.Field(i), tail && i == last && !fi.counted, sf.Name); err != nil {
				return e.fail(t, sf.Name, err)
			}
		}
	default:
		return e.fail(v.Type(), field, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Kind()))
	}
	return nil
}

func (e *encoder) sequence(v reflect.Value, tail bool, field string) error {
	n := v.Len()
	if !tail {
		if n > 0xFF {
			return e.fail(v.Type(), field, fmt.Errorf("%w: %d", ErrCountOverflow, n))
		}
		e.buf = append(e.buf, byte(n))
	}
	if v.Kind() == reflect.String {
		e.buf = append(e.buf, v.String()...)
		return nil
	}
	if v.Type().Elem().Kind() == reflect.Uint8 && !v.Type().Elem().Implements(marshalerType) {
		e.buf = append(e.buf, v.Bytes()...)
		return nil
	}
	for i := 0; i < n; i++ {
		if err := e.value(v.Index(i), false, field); err != nil {
			return err
		}
	}
	return nil
}

func asMarshaler(v reflect.Value) (Marshaler, bool) {
	if v.Type().Implements(marshalerType) {
		return v.Interface().(Marshaler), true
	}
	if v.CanAddr() && v.Addr().Type().Implements(marshalerType) {
		return v.Addr().Interface().(Marshaler), true
	}
	return nil, false
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) fail(t reflect.Type, field string, err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Type: t.String(), Field: field, Offset: d.off, Err: err}
}

func (d *decoder) take(n int) ([]byte, error) {
	if len(d.buf)-d.off < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrShortBuffer, n, len(d.buf)-d.off)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) value(v reflect.Value, tail bool, field string) error {
	if v.CanAddr() && v.Addr().Type().Implements(unmarshalerType) {
		n, err := v.Addr().Interface().(Unmarshaler).UnmarshalPayload(d.buf[d.off:], tail)
		if err != nil {
			return d.fail(v.Type(), field, err)
		}
		d.off += n
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := d.take(1)
		if err != nil {
			return d.fail(v.Type(), field, err)
		}
		v.SetBool(b[0] != 0)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b, err := d.take(int(v.Type().Size()))
		if err != nil {
			return d.fail(v.Type(), field, err)
		}
		v.SetUint(readUint(b))
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b, err := d.take(int(v.Type().Size()))
		if err != nil {
			return d.fail(v.Type(), field, err)
		}
		size := uint(len(b) * 8)
		v.SetInt(int64(readUint(b)<<(64-size)) >> (64 - size))
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := d.value(v.Index(i), false, field); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.String:
		return d.sequence(v, tail, field)
	case reflect.Struct:
		t := v.Type()
		last := lastField(t)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			fi := parseTag(sf)
			if fi.skip {
				continue
			}
			if err := d.value(v.Field(i), tail && i == last && !fi.counted, sf.Name); err != nil {
				return d.fail(t, sf.Name, err)
			}
		}
	default:
		return d.fail(v.Type(), field, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Kind()))
	}
	return nil
}

func (d *decoder) sequence(v reflect.Value, tail bool, field string) error {
	bytesLike := v.Kind() == reflect.String ||
		(v.Type().Elem().Kind() == reflect.Uint8 && !reflect.PointerTo(v.Type().Elem()).Implements(unmarshalerType))

	if tail {
		if bytesLike {
			rest, _ := d.take(len(d.buf) - d.off)
			setBytes(v, rest)
			return nil
		}
		s := reflect.MakeSlice(v.Type(), 0, 0)
		for d.off < len(d.buf) {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := d.value(elem, false, field); err != nil {
				return err
			}
			s = reflect.Append(s, elem)
		}
		v.Set(s)
		return nil
	}

	cnt, err := d.take(1)
	if err != nil {
		return d.fail(v.Type(), field, err)
	}
	n := int(cnt[0])
	if bytesLike {
		b, err := d.take(n)
		if err != nil {
			return d.fail(v.Type(), field, err)
		}
		setBytes(v, b)
		return nil
	}
	s := reflect.MakeSlice(v.Type(), n, n)
	for i := 0; i < n; i++ {
		if err := d.value(s.Index(i), false, field); err != nil {
			return err
		}
	}
	v.Set(s)
	return nil
}

func setBytes(v reflect.Value, b []byte) {
	if v.Kind() == reflect.String {
		v.SetString(string(b))
		return
	}
	s := reflect.MakeSlice(v.Type(), len(b), len(b))
	if v.Type().Elem() == reflect.TypeFor[byte]() {
		reflect.Copy(s, reflect.ValueOf(b))
	} else {
		for i, c := range b {
			s.Index(i).SetUint(uint64(c))
		}
	}
	v.Set(s)
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}
