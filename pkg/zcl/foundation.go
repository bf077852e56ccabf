package zcl

import (
	"encoding/binary"
	"fmt"
)

// Foundation command ids, carried in general frames.
const (
	CmdReadAttributes                   uint8 = 0x00
	CmdReadAttributesResponse           uint8 = 0x01
	CmdWriteAttributes                  uint8 = 0x02
	CmdWriteAttributesResponse          uint8 = 0x04
	CmdConfigureReporting               uint8 = 0x06
	CmdConfigureReportingResponse       uint8 = 0x07
	CmdReportAttributes                 uint8 = 0x0A
	CmdDefaultResponse                  uint8 = 0x0B
	CmdDiscoverAttributes               uint8 = 0x0C
	CmdDiscoverCommandsReceived         uint8 = 0x11
	CmdDiscoverCommandsReceivedResponse uint8 = 0x12
)

// Status is a ZCL status code.
type Status uint8

const (
	StatusSuccess                  Status = 0x00
	StatusFailure                  Status = 0x01
	StatusNotAuthorized            Status = 0x7E
	StatusMalformedCommand         Status = 0x80
	StatusUnsupClusterCommand      Status = 0x81
	StatusUnsupGeneralCommand      Status = 0x82
	StatusUnsupManufClusterCommand Status = 0x83
	StatusUnsupManufGeneralCommand Status = 0x84
	StatusInvalidField             Status = 0x85
	StatusUnsupportedAttribute     Status = 0x86
	StatusInvalidValue             Status = 0x87
	StatusReadOnly                 Status = 0x88
	StatusInsufficientSpace        Status = 0x89
	StatusNotFound                 Status = 0x8B
	StatusUnreportableAttribute    Status = 0x8C
	StatusInvalidDataType          Status = 0x8D
	StatusTimeout                  Status = 0x94
)

var statusNames = map[Status]string{
	StatusSuccess:                  "SUCCESS",
	StatusFailure:                  "FAILURE",
	StatusNotAuthorized:            "NOT_AUTHORIZED",
	StatusMalformedCommand:         "MALFORMED_COMMAND",
	StatusUnsupClusterCommand:      "UNSUP_CLUSTER_COMMAND",
	StatusUnsupGeneralCommand:      "UNSUP_GENERAL_COMMAND",
	StatusUnsupManufClusterCommand: "UNSUP_MANUF_CLUSTER_COMMAND",
	StatusUnsupManufGeneralCommand: "UNSUP_MANUF_GENERAL_COMMAND",
	StatusInvalidField:             "INVALID_FIELD",
	StatusUnsupportedAttribute:     "UNSUPPORTED_ATTRIBUTE",
	StatusInvalidValue:             "INVALID_VALUE",
	StatusReadOnly:                 "READ_ONLY",
	StatusInsufficientSpace:        "INSUFFICIENT_SPACE",
	StatusNotFound:                 "NOT_FOUND",
	StatusUnreportableAttribute:    "UNREPORTABLE_ATTRIBUTE",
	StatusInvalidDataType:          "INVALID_DATA_TYPE",
	StatusTimeout:                  "TIMEOUT",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(0x%02X)", uint8(s))
}

// Command is a decoded ZCL command. The set of implementations is closed.
type Command interface {
	zclCommand()
}

// AttributeRecord is one entry of an attribute report.
type AttributeRecord struct {
	ID    uint16
	Value Value
}

// AttributeReport is the payload of a report attributes command.
type AttributeReport struct {
	Records []AttributeRecord
}

func (*AttributeReport) zclCommand() {}

// Get returns the value reported for attribute id.
func (r *AttributeReport) Get(id uint16) (Value, bool) {
	for _, rec := range r.Records {
		if rec.ID == id {
			return rec.Value, true
		}
	}
	return Value{}, false
}

// MarshalBinary encodes the report payload.
func (r *AttributeReport) MarshalBinary() ([]byte, error) {
	var buf []byte
	for _, rec := range r.Records {
		buf = binary.LittleEndian.AppendUint16(buf, rec.ID)
		var err error
		if buf, err = AppendTaggedValue(buf, rec.Value); err != nil {
			return nil, fmt.Errorf("attribute 0x%04X: %w", rec.ID, err)
		}
	}
	return buf, nil
}

// DecodeError reports where an attribute report stopped decoding.
type DecodeError struct {
	// Offset of the entry within the payload.
	Offset int
	// Attribute is the id of the failing entry, if it could be read.
	Attribute uint16
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("zcl: attribute report entry at offset %d (attribute 0x%04X): %v", e.Offset, e.Attribute, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseAttributeReport decodes {u16 id}{u8 type}{value} entries until b is
// exhausted. On failure the entries decoded so far are returned with a
// *DecodeError.
func ParseAttributeReport(b []byte) (AttributeReport, error) {
	var r AttributeReport
	off := 0
	for off < len(b) {
		if len(b)-off < 3 {
			return r, &DecodeError{Offset: off, Err: fmt.Errorf("%w: entry header", ErrTruncated)}
		}
		id := binary.LittleEndian.Uint16(b[off:])
		v, n, err := ReadValue(b[off+3:], DataType(b[off+2]))
		if err != nil {
			return r, &DecodeError{Offset: off, Attribute: id, Err: err}
		}
		r.Records = append(r.Records, AttributeRecord{ID: id, Value: v})
		off += 3 + n
	}
	return r, nil
}

// DiscoverCommandsReceivedResponse lists the cluster commands a device
// accepts.
type DiscoverCommandsReceivedResponse struct {
	Complete bool
	Commands []uint8
}

func (*DiscoverCommandsReceivedResponse) zclCommand() {}

// ParseDiscoverCommandsReceivedResponse decodes the response payload.
func ParseDiscoverCommandsReceivedResponse(b []byte) (DiscoverCommandsReceivedResponse, error) {
	if len(b) < 1 {
		return DiscoverCommandsReceivedResponse{}, fmt.Errorf("%w: discovery complete flag", ErrTruncated)
	}
	return DiscoverCommandsReceivedResponse{
		Complete: b[0] != 0,
		Commands: append([]uint8{}, b[1:]...),
	}, nil
}

// DefaultResponse reports the status of a command that has no specific
// response.
type DefaultResponse struct {
	CommandID uint8
	Status    Status
}

func (*DefaultResponse) zclCommand() {}

// ParseDefaultResponse decodes the response payload.
func ParseDefaultResponse(b []byte) (DefaultResponse, error) {
	if len(b) < 2 {
		return DefaultResponse{}, fmt.Errorf("%w: default response needs 2 bytes, have %d", ErrTruncated, len(b))
	}
	return DefaultResponse{CommandID: b[0], Status: Status(b[1])}, nil
}
