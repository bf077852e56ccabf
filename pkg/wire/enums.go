package wire

// Type is the frame type carried in the high nibble of Cmd0.
type Type uint8

const (
	// TypePoll is used by the host to poll queued data (SPI transports only).
	TypePoll Type = 0x00

	// TypeSyncReq is a synchronous request; the device answers with exactly one TypeSyncResp.
	TypeSyncReq Type = 0x20

	// TypeAsyncReq is an asynchronous request or unsolicited notification.
	TypeAsyncReq Type = 0x40

	// TypeSyncResp is the reply to a TypeSyncReq.
	TypeSyncResp Type = 0x60
)

// String returns the conventional MT name of the type.
func (t Type) String() string {
	switch t {
	case TypePoll:
		return "POLL"
	case TypeSyncReq:
		return "SREQ"
	case TypeAsyncReq:
		return "AREQ"
	case TypeSyncResp:
		return "SRSP"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if t is one of the four defined frame types.
func (t Type) IsValid() bool {
	switch t {
	case TypePoll, TypeSyncReq, TypeAsyncReq, TypeSyncResp:
		return true
	}
	return false
}

// Subsystem groups commands by function. It occupies the low nibble of Cmd0.
type Subsystem uint8

const (
	SubsystemReserved Subsystem = 0x00
	SubsystemSYS      Subsystem = 0x01
	SubsystemMAC      Subsystem = 0x02
	SubsystemNWK      Subsystem = 0x03
	SubsystemAF       Subsystem = 0x04
	SubsystemZDO      Subsystem = 0x05
	SubsystemSAPI     Subsystem = 0x06
	SubsystemUTIL     Subsystem = 0x07
	SubsystemDEBUG    Subsystem = 0x08
	SubsystemAPP      Subsystem = 0x09
)

// String returns the subsystem name.
func (s Subsystem) String() string {
	switch s {
	case SubsystemReserved:
		return "RES"
	case SubsystemSYS:
		return "SYS"
	case SubsystemMAC:
		return "MAC"
	case SubsystemNWK:
		return "NWK"
	case SubsystemAF:
		return "AF"
	case SubsystemZDO:
		return "ZDO"
	case SubsystemSAPI:
		return "SAPI"
	case SubsystemUTIL:
		return "UTIL"
	case SubsystemDEBUG:
		return "DEBUG"
	case SubsystemAPP:
		return "APP"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if s is a known subsystem code.
func (s Subsystem) IsValid() bool {
	return s <= SubsystemAPP
}
