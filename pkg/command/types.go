package command

import (
	"fmt"
)

// ShortAddr is a 16-bit network address.
type ShortAddr uint16

// String formats the address as 0xABCD.
func (a ShortAddr) String() string {
	return fmt.Sprintf("0x%04X", uint16(a))
}

// Broadcast addresses.
const (
	BroadcastAll          ShortAddr = 0xFFFF
	BroadcastRxOnWhenIdle ShortAddr = 0xFFFD
	BroadcastRouters      ShortAddr = 0xFFFC
)

// IEEEAddr is a 64-bit extended address.
type IEEEAddr uint64

// String formats the address as colon separated bytes, most significant first.
func (a IEEEAddr) String() string {
	b := make([]byte, 0, 23)
	for i := 7; i >= 0; i-- {
		b = fmt.Appendf(b, "%02x", byte(a>>(8*i)))
		if i > 0 {
			b = append(b, ':')
		}
	}
	return string(b)
}

// Status is the generic Z-Stack status byte.
type Status uint8

const (
	StatusSuccess          Status = 0x00
	StatusFailure          Status = 0x01
	StatusInvalidParameter Status = 0x02
	StatusNVItemUninit     Status = 0x09
	StatusNVOperFailed     Status = 0x0A
	StatusNVBadItemLength  Status = 0x0C
	StatusMemoryError      Status = 0x10
	StatusBufferFull       Status = 0x11
	StatusUnsupportedMode  Status = 0x12
	StatusMACMemoryError   Status = 0x13
	StatusZDOInvalidReq    Status = 0x80
	StatusZDOInvalidEP     Status = 0x82
	StatusZDOUnsupported   Status = 0x84
	StatusZDOTimeout       Status = 0x85
	StatusZDONoMatch       Status = 0x86
	StatusZDOTableFull     Status = 0x87
	StatusZDONoBindEntry   Status = 0x88
	StatusSecNoKey         Status = 0xA1
	StatusSecMaxFrmCount   Status = 0xA3
	StatusAPSFail          Status = 0xB1
	StatusAPSTableFull     Status = 0xB2
	StatusAPSIllegalReq    Status = 0xB3
	StatusAPSInvalidBind   Status = 0xB4
	StatusAPSUnsupAttrib   Status = 0xB5
	StatusAPSNotSupported  Status = 0xB6
	StatusAPSNoAck         Status = 0xB7
	StatusAPSDuplicate     Status = 0xB8
	StatusAPSNoBoundDevice Status = 0xB9
	StatusNWKInvalidParam  Status = 0xC1
	StatusNWKInvalidReq    Status = 0xC2
	StatusNWKNotPermitted  Status = 0xC3
	StatusNWKStartupFail   Status = 0xC4
	StatusNWKTableFull     Status = 0xC7
	StatusNWKUnknownDevice Status = 0xC8
	StatusNWKUnsupAttrib   Status = 0xC9
	StatusNWKNoNetwork     Status = 0xCA
	StatusNWKLeaveUnconf   Status = 0xCB
	StatusNWKNoAck         Status = 0xCC
	StatusNWKNoRoute       Status = 0xCD
	StatusMACNoAck         Status = 0xE9
	StatusMACTransExpired  Status = 0xF0
)

var statusNames = map[Status]string{
	StatusSuccess:          "SUCCESS",
	StatusFailure:          "FAILURE",
	StatusInvalidParameter: "INVALID_PARAMETER",
	StatusNVItemUninit:     "NV_ITEM_UNINIT",
	StatusNVOperFailed:     "NV_OPER_FAILED",
	StatusNVBadItemLength:  "NV_BAD_ITEM_LENGTH",
	StatusMemoryError:      "MEMORY_ERROR",
	StatusBufferFull:       "BUFFER_FULL",
	StatusUnsupportedMode:  "UNSUPPORTED_MODE",
	StatusMACMemoryError:   "MAC_MEMORY_ERROR",
	StatusZDOInvalidReq:    "ZDO_INVALID_REQUEST_TYPE",
	StatusZDOInvalidEP:     "ZDO_INVALID_ENDPOINT",
	StatusZDOUnsupported:   "ZDO_UNSUPPORTED",
	StatusZDOTimeout:       "ZDO_TIMEOUT",
	StatusZDONoMatch:       "ZDO_NO_MATCH",
	StatusZDOTableFull:     "ZDO_TABLE_FULL",
	StatusZDONoBindEntry:   "ZDO_NO_BIND_ENTRY",
	StatusSecNoKey:         "SEC_NO_KEY",
	StatusSecMaxFrmCount:   "SEC_MAX_FRM_COUNT",
	StatusAPSFail:          "APS_FAIL",
	StatusAPSTableFull:     "APS_TABLE_FULL",
	StatusAPSIllegalReq:    "APS_ILLEGAL_REQUEST",
	StatusAPSInvalidBind:   "APS_INVALID_BINDING",
	StatusAPSUnsupAttrib:   "APS_UNSUPPORTED_ATTRIB",
	StatusAPSNotSupported:  "APS_NOT_SUPPORTED",
	StatusAPSNoAck:         "APS_NO_ACK",
	StatusAPSDuplicate:     "APS_DUPLICATE_ENTRY",
	StatusAPSNoBoundDevice: "APS_NO_BOUND_DEVICE",
	StatusNWKInvalidParam:  "NWK_INVALID_PARAM",
	StatusNWKInvalidReq:    "NWK_INVALID_REQUEST",
	StatusNWKNotPermitted:  "NWK_NOT_PERMITTED",
	StatusNWKStartupFail:   "NWK_STARTUP_FAILURE",
	StatusNWKTableFull:     "NWK_TABLE_FULL",
	StatusNWKUnknownDevice: "NWK_UNKNOWN_DEVICE",
	StatusNWKUnsupAttrib:   "NWK_UNSUPPORTED_ATTRIBUTE",
	StatusNWKNoNetwork:     "NWK_NO_NETWORK",
	StatusNWKLeaveUnconf:   "NWK_LEAVE_UNCONFIRMED",
	StatusNWKNoAck:         "NWK_NO_ACK",
	StatusNWKNoRoute:       "NWK_NO_ROUTE",
	StatusMACNoAck:         "MAC_NO_ACK",
	StatusMACTransExpired:  "MAC_TRANSACTION_EXPIRED",
}

// String returns the vendor name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(0x%02X)", uint8(s))
}

// IsSuccess returns true for StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// Err returns nil on success and a *StatusError otherwise.
func (s Status) Err() error {
	if s.IsSuccess() {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError is a non-success status returned by the device.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "device status " + e.Status.String()
}

// DeviceState is the ZDO device state reported by state change indications.
type DeviceState uint8

const (
	DeviceStateHold            DeviceState = 0x00
	DeviceStateInit            DeviceState = 0x01
	DeviceStateNwkDiscovering  DeviceState = 0x02
	DeviceStateNwkJoining      DeviceState = 0x03
	DeviceStateNwkRejoining    DeviceState = 0x04
	DeviceStateEndDeviceUnauth DeviceState = 0x05
	DeviceStateEndDevice       DeviceState = 0x06
	DeviceStateRouter          DeviceState = 0x07
	DeviceStateCoordStarting   DeviceState = 0x08
	DeviceStateCoordinator     DeviceState = 0x09
	DeviceStateNwkOrphan       DeviceState = 0x0A
)

// String returns the state name.
func (s DeviceState) String() string {
	switch s {
	case DeviceStateHold:
		return "HOLD"
	case DeviceStateInit:
		return "INIT"
	case DeviceStateNwkDiscovering:
		return "NWK_DISC"
	case DeviceStateNwkJoining:
		return "NWK_JOINING"
	case DeviceStateNwkRejoining:
		return "NWK_REJOIN"
	case DeviceStateEndDeviceUnauth:
		return "END_DEVICE_UNAUTH"
	case DeviceStateEndDevice:
		return "END_DEVICE"
	case DeviceStateRouter:
		return "ROUTER"
	case DeviceStateCoordStarting:
		return "COORD_STARTING"
	case DeviceStateCoordinator:
		return "ZB_COORD"
	case DeviceStateNwkOrphan:
		return "NWK_ORPHAN"
	default:
		return "UNKNOWN"
	}
}
