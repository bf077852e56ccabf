package command

import (
	"github.com/znp-host/znp-go/pkg/wire"
)

// ZDO command ids.
const (
	ZDOActiveEPReqID       uint8 = 0x05
	ZDOMgmtPermitJoinReqID uint8 = 0x36
	ZDOStartupFromAppID    uint8 = 0x40
	ZDOActiveEPRspID       uint8 = 0x85
	ZDOStateChangeIndID    uint8 = 0xC0
	ZDOEndDeviceAnnceIndID uint8 = 0xC1
	ZDOLeaveIndID          uint8 = 0xC9
	ZDOTCDevIndID          uint8 = 0xCA
	ZDOPermitJoinIndID     uint8 = 0xCB
)

// StartupStatus is returned by ZDOStartupFromApp.
type StartupStatus uint8

const (
	StartupRestored   StartupStatus = 0x00
	StartupNewNetwork StartupStatus = 0x01
	StartupLeave      StartupStatus = 0x02
)

// String returns the startup status name.
func (s StartupStatus) String() string {
	switch s {
	case StartupRestored:
		return "RESTORED"
	case StartupNewNetwork:
		return "NEW_NETWORK"
	case StartupLeave:
		return "LEAVE_NOT_STARTED"
	default:
		return "UNKNOWN"
	}
}

// ZDOStartupFromApp (ZDO_STARTUP_FROM_APP) starts the network.
type ZDOStartupFromApp struct {
	// StartDelay in milliseconds.
	StartDelay uint16
}

func (*ZDOStartupFromApp) Subsystem() wire.Subsystem               { return wire.SubsystemZDO }
func (*ZDOStartupFromApp) CommandID() uint8                        { return ZDOStartupFromAppID }
func (*ZDOStartupFromApp) MaxSize() int                            { return 2 }
func (*ZDOStartupFromApp) NewResponse() *ZDOStartupFromAppResponse { return &ZDOStartupFromAppResponse{} }

// ZDOStartupFromAppResponse reports how the network was started.
type ZDOStartupFromAppResponse struct {
	Status StartupStatus
}

func (*ZDOStartupFromAppResponse) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOStartupFromAppResponse) CommandID() uint8          { return ZDOStartupFromAppID }

// ZDOActiveEPReq (ZDO_ACTIVE_EP_REQ) asks a node for its active endpoints.
// The answer arrives as ZDOActiveEPRsp.
type ZDOActiveEPReq struct {
	DstAddr           ShortAddr
	NWKAddrOfInterest ShortAddr
}

func (*ZDOActiveEPReq) Subsystem() wire.Subsystem            { return wire.SubsystemZDO }
func (*ZDOActiveEPReq) CommandID() uint8                     { return ZDOActiveEPReqID }
func (*ZDOActiveEPReq) MaxSize() int                         { return 4 }
func (*ZDOActiveEPReq) NewResponse() *ZDOActiveEPReqResponse { return &ZDOActiveEPReqResponse{} }

// ZDOActiveEPReqResponse reports whether the request was sent.
type ZDOActiveEPReqResponse struct {
	Status Status
}

func (*ZDOActiveEPReqResponse) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOActiveEPReqResponse) CommandID() uint8          { return ZDOActiveEPReqID }

// Address modes.
const (
	AddrModeNotPresent uint8 = 0x00
	AddrModeGroup      uint8 = 0x01
	AddrMode16Bit      uint8 = 0x02
	AddrMode64Bit      uint8 = 0x03
	AddrModeBroadcast  uint8 = 0x0F
)

// ZDOMgmtPermitJoinReq (ZDO_MGMT_PERMIT_JOIN_REQ) opens or closes the network for joining.
type ZDOMgmtPermitJoinReq struct {
	AddrMode uint8
	DstAddr  ShortAddr
	// Duration in seconds; 0 closes, 0xFF opens indefinitely.
	Duration       uint8
	TCSignificance uint8
}

func (*ZDOMgmtPermitJoinReq) Subsystem() wire.Subsystem                  { return wire.SubsystemZDO }
func (*ZDOMgmtPermitJoinReq) CommandID() uint8                           { return ZDOMgmtPermitJoinReqID }
func (*ZDOMgmtPermitJoinReq) MaxSize() int                               { return 5 }
func (*ZDOMgmtPermitJoinReq) NewResponse() *ZDOMgmtPermitJoinReqResponse { return &ZDOMgmtPermitJoinReqResponse{} }

// ZDOMgmtPermitJoinReqResponse reports whether the request was sent.
type ZDOMgmtPermitJoinReqResponse struct {
	Status Status
}

func (*ZDOMgmtPermitJoinReqResponse) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOMgmtPermitJoinReqResponse) CommandID() uint8          { return ZDOMgmtPermitJoinReqID }

// ZDOActiveEPRsp (ZDO_ACTIVE_EP_RSP) lists the active endpoints of a node.
type ZDOActiveEPRsp struct {
	SrcAddr   ShortAddr
	Status    Status
	NWKAddr   ShortAddr
	Endpoints []uint8 `znp:"counted"`
}

func (*ZDOActiveEPRsp) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOActiveEPRsp) CommandID() uint8          { return ZDOActiveEPRspID }
func (*ZDOActiveEPRsp) notification()             {}

// ZDOStateChangeInd (ZDO_STATE_CHANGE_IND) reports a new device state.
type ZDOStateChangeInd struct {
	State DeviceState
}

func (*ZDOStateChangeInd) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOStateChangeInd) CommandID() uint8          { return ZDOStateChangeIndID }
func (*ZDOStateChangeInd) notification()             {}

// ZDOEndDeviceAnnceInd (ZDO_END_DEVICE_ANNCE_IND) reports a device joining or rejoining.
type ZDOEndDeviceAnnceInd struct {
	SrcAddr      ShortAddr
	NWKAddr      ShortAddr
	IEEEAddr     IEEEAddr
	Capabilities uint8
}

func (*ZDOEndDeviceAnnceInd) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOEndDeviceAnnceInd) CommandID() uint8          { return ZDOEndDeviceAnnceIndID }
func (*ZDOEndDeviceAnnceInd) notification()             {}

// ZDOLeaveInd (ZDO_LEAVE_IND) reports a device leaving the network.
type ZDOLeaveInd struct {
	SrcAddr ShortAddr
	ExtAddr IEEEAddr
	Request bool
	Remove  bool
	Rejoin  bool
}

func (*ZDOLeaveInd) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOLeaveInd) CommandID() uint8          { return ZDOLeaveIndID }
func (*ZDOLeaveInd) notification()             {}

// ZDOTCDevInd (ZDO_TC_DEV_IND) is sent by the trust center when a device joins.
type ZDOTCDevInd struct {
	SrcNWKAddr    ShortAddr
	ExtAddr       IEEEAddr
	ParentNWKAddr ShortAddr
}

func (*ZDOTCDevInd) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOTCDevInd) CommandID() uint8          { return ZDOTCDevIndID }
func (*ZDOTCDevInd) notification()             {}

// ZDOPermitJoinInd (ZDO_PERMIT_JOIN_IND) reports the permit-join window.
type ZDOPermitJoinInd struct {
	Duration uint8
}

func (*ZDOPermitJoinInd) Subsystem() wire.Subsystem { return wire.SubsystemZDO }
func (*ZDOPermitJoinInd) CommandID() uint8          { return ZDOPermitJoinIndID }
func (*ZDOPermitJoinInd) notification()             {}
