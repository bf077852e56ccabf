package command

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/znp-host/znp-go/pkg/payload"
	"github.com/znp-host/znp-go/pkg/wire"
)

// AF command ids.
const (
	AFRegisterID    uint8 = 0x00
	AFDataRequestID uint8 = 0x01
	AFDataConfirmID uint8 = 0x80
	AFIncomingMsgID uint8 = 0x81
)

// AFRegister (AF_REGISTER) registers an application endpoint.
type AFRegister struct {
	Endpoint    uint8
	AppProfID   uint16
	AppDeviceID uint16
	AppDevVer   uint8
	LatencyReq  uint8
	InClusters  []uint16
	OutClusters []uint16 `znp:"counted"`
}

func (*AFRegister) Subsystem() wire.Subsystem        { return wire.SubsystemAF }
func (*AFRegister) CommandID() uint8                 { return AFRegisterID }
func (*AFRegister) MaxSize() int                     { return 0x49 }
func (*AFRegister) NewResponse() *AFRegisterResponse { return &AFRegisterResponse{} }

// AFRegisterResponse reports StatusSuccess, or StatusAPSDuplicate when the
// endpoint already exists.
type AFRegisterResponse struct {
	Status Status
}

func (*AFRegisterResponse) Subsystem() wire.Subsystem { return wire.SubsystemAF }
func (*AFRegisterResponse) CommandID() uint8          { return AFRegisterID }

// AF transmit options.
const (
	AFOptWildcardProfile uint8 = 0x02
	AFOptAckRequest      uint8 = 0x10
	AFOptDiscoverRoute   uint8 = 0x20
	AFOptEnableSecurity  uint8 = 0x40
	AFOptSkipRouting     uint8 = 0x80
)

// AFDataRequest (AF_DATA_REQUEST) sends application data to a remote endpoint.
type AFDataRequest struct {
	DstAddr     ShortAddr
	DstEndpoint uint8
	SrcEndpoint uint8
	ClusterID   uint16
	TransID     uint8
	Options     uint8
	Radius      uint8
	Data        []byte `znp:"counted"`
}

func (*AFDataRequest) Subsystem() wire.Subsystem           { return wire.SubsystemAF }
func (*AFDataRequest) CommandID() uint8                    { return AFDataRequestID }
func (*AFDataRequest) MaxSize() int                        { return wire.MaxPayloadSize }
func (*AFDataRequest) NewResponse() *AFDataRequestResponse { return &AFDataRequestResponse{} }

// AFDataRequestResponse reports whether the request was queued.
type AFDataRequestResponse struct {
	Status Status
}

func (*AFDataRequestResponse) Subsystem() wire.Subsystem { return wire.SubsystemAF }
func (*AFDataRequestResponse) CommandID() uint8          { return AFDataRequestID }

// AFDataConfirm (AF_DATA_CONFIRM) reports the delivery result of an AFDataRequest.
type AFDataConfirm struct {
	Status   Status
	Endpoint uint8
	TransID  uint8
}

func (*AFDataConfirm) Subsystem() wire.Subsystem { return wire.SubsystemAF }
func (*AFDataConfirm) CommandID() uint8          { return AFDataConfirmID }
func (*AFDataConfirm) notification()             {}

// AFIncomingMsg (AF_INCOMING_MSG) delivers data received on a registered endpoint.
// Data is length prefixed and usually a ZCL frame. It is followed by the MAC
// source address and radius; firmware that omits them decodes with both zero.
type AFIncomingMsg struct {
	GroupID      uint16
	ClusterID    uint16
	SrcAddr      ShortAddr
	SrcEndpoint  uint8
	DstEndpoint  uint8
	WasBroadcast bool
	LinkQuality  uint8
	SecurityUse  bool
	Timestamp    uint32
	TransSeq     uint8
	Data         []byte
	MACSrcAddr   ShortAddr
	Radius       uint8
}

const (
	afIncomingHeaderSize  = 17
	afIncomingTrailerSize = 3
)

func (*AFIncomingMsg) Subsystem() wire.Subsystem { return wire.SubsystemAF }
func (*AFIncomingMsg) CommandID() uint8          { return AFIncomingMsgID }
func (*AFIncomingMsg) notification()             {}

// AppendPayload implements payload.Marshaler. The trailer is always written.
func (m *AFIncomingMsg) AppendPayload(dst []byte) ([]byte, error) {
	if len(m.Data) > 0xFF {
		return dst, fmt.Errorf("%w: data is %d bytes", payload.ErrCountOverflow, len(m.Data))
	}
	dst = binary.LittleEndian.AppendUint16(dst, m.GroupID)
	dst = binary.LittleEndian.AppendUint16(dst, m.ClusterID)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(m.SrcAddr))
	dst = append(dst, m.SrcEndpoint, m.DstEndpoint, boolByte(m.WasBroadcast), m.LinkQuality, boolByte(m.SecurityUse))
	dst = binary.LittleEndian.AppendUint32(dst, m.Timestamp)
	dst = append(dst, m.TransSeq, uint8(len(m.Data)))
	dst = append(dst, m.Data...)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(m.MACSrcAddr))
	return append(dst, m.Radius), nil
}

// UnmarshalPayload implements payload.Unmarshaler.
func (m *AFIncomingMsg) UnmarshalPayload(data []byte, _ bool) (int, error) {
	if len(data) < afIncomingHeaderSize {
		return 0, fmt.Errorf("%w: incoming message needs %d bytes, have %d", payload.ErrShortBuffer, afIncomingHeaderSize, len(data))
	}
	end := afIncomingHeaderSize + int(data[afIncomingHeaderSize-1])
	if len(data) < end {
		return 0, fmt.Errorf("%w: data needs %d bytes, have %d", payload.ErrShortBuffer, end-afIncomingHeaderSize, len(data)-afIncomingHeaderSize)
	}

	m.GroupID = binary.LittleEndian.Uint16(data[0:])
	m.ClusterID = binary.LittleEndian.Uint16(data[2:])
	m.SrcAddr = ShortAddr(binary.LittleEndian.Uint16(data[4:]))
	m.SrcEndpoint, m.DstEndpoint = data[6], data[7]
	m.WasBroadcast, m.LinkQuality, m.SecurityUse = data[8] != 0, data[9], data[10] != 0
	m.Timestamp = binary.LittleEndian.Uint32(data[11:])
	m.TransSeq = data[15]
	m.Data = bytes.Clone(data[afIncomingHeaderSize:end])

	switch rest := len(data) - end; {
	case rest == 0:
		m.MACSrcAddr, m.Radius = 0, 0
		return end, nil
	case rest >= afIncomingTrailerSize:
		m.MACSrcAddr = ShortAddr(binary.LittleEndian.Uint16(data[end:]))
		m.Radius = data[end+2]
		return end + afIncomingTrailerSize, nil
	default:
		return 0, fmt.Errorf("%w: trailer needs %d bytes, have %d", payload.ErrShortBuffer, afIncomingTrailerSize, rest)
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
