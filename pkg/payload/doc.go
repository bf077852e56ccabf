// Package payload converts Go structs to and from MT frame payloads.
//
// Encoding rules:
//   - uint8..uint64, int8..int64: little-endian, fixed width
//   - bool: one byte, zero is false
//   - named integer types (enumerations): encoded as their underlying type
//   - arrays: elements in order, no count
//   - structs: exported fields in declaration order, no padding
//   - slices and strings: one-byte element count followed by the elements
//
// A slice or string in the last field of a struct in tail position (the
// top-level value, or the last field of a tail struct) carries no count and
// consumes the rest of the payload. Tag such a field `znp:"counted"` when the
// vendor layout does carry a count there. Fields tagged `znp:"-"` and
// unexported fields are ignored.
//
// Types with a layout the rules cannot express implement Marshaler and
// Unmarshaler.
package payload
