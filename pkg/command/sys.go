package command

import (
	"encoding/binary"
	"fmt"

	"github.com/znp-host/znp-go/pkg/payload"
	"github.com/znp-host/znp-go/pkg/wire"
)

// SYS command ids.
const (
	SysResetReqID     uint8 = 0x00
	SysPingID         uint8 = 0x01
	SysVersionID      uint8 = 0x02
	SysOSALNVReadID   uint8 = 0x08
	SysOSALNVWriteID  uint8 = 0x09
	SysStartTimerID   uint8 = 0x0A
	SysResetIndID     uint8 = 0x80
	SysTimerExpiredID uint8 = 0x81
)

// ResetType selects how SYS_RESET_REQ restarts the device.
type ResetType uint8

const (
	ResetHard ResetType = 0
	ResetSoft ResetType = 1
)

// SysResetReq (SYS_RESET_REQ) restarts the device. It is sent as an AREQ;
// the device answers with SysResetInd once it is back up.
type SysResetReq struct {
	Type ResetType
}

func (*SysResetReq) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysResetReq) CommandID() uint8          { return SysResetReqID }
func (*SysResetReq) MaxSize() int              { return 1 }

// SysPing (SYS_PING) checks that the device is alive.
type SysPing struct{}

func (*SysPing) Subsystem() wire.Subsystem     { return wire.SubsystemSYS }
func (*SysPing) CommandID() uint8              { return SysPingID }
func (*SysPing) MaxSize() int                  { return 0 }
func (*SysPing) NewResponse() *SysPingResponse { return &SysPingResponse{} }

// Capability bits reported by SysPingResponse.
const (
	CapSYS   uint16 = 0x0001
	CapMAC   uint16 = 0x0002
	CapNWK   uint16 = 0x0004
	CapAF    uint16 = 0x0008
	CapZDO   uint16 = 0x0010
	CapSAPI  uint16 = 0x0020
	CapUTIL  uint16 = 0x0040
	CapDEBUG uint16 = 0x0080
	CapAPP   uint16 = 0x0100
	CapZOAD  uint16 = 0x1000
)

// SysPingResponse lists the subsystems compiled into the firmware.
type SysPingResponse struct {
	Capabilities uint16
}

func (*SysPingResponse) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysPingResponse) CommandID() uint8          { return SysPingID }

// Has reports whether capability bit c is set.
func (r *SysPingResponse) Has(c uint16) bool {
	return r.Capabilities&c != 0
}

// SysVersion (SYS_VERSION) reads the firmware version.
type SysVersion struct{}

func (*SysVersion) Subsystem() wire.Subsystem        { return wire.SubsystemSYS }
func (*SysVersion) CommandID() uint8                 { return SysVersionID }
func (*SysVersion) MaxSize() int                     { return 0 }
func (*SysVersion) NewResponse() *SysVersionResponse { return &SysVersionResponse{} }

// SysVersionResponse carries the firmware version. Z-Stack 3 firmware
// appends a 32-bit build revision which older firmware omits.
type SysVersionResponse struct {
	TransportRev uint8
	Product      uint8
	MajorRel     uint8
	MinorRel     uint8
	MaintRel     uint8
	Revision     uint32
	HasRevision  bool
}

func (*SysVersionResponse) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysVersionResponse) CommandID() uint8          { return SysVersionID }

// String returns major.minor.maint and the revision if known.
func (r *SysVersionResponse) String() string {
	if r.HasRevision {
		return fmt.Sprintf("%d.%d.%d (rev %d)", r.MajorRel, r.MinorRel, r.MaintRel, r.Revision)
	}
	return fmt.Sprintf("%d.%d.%d", r.MajorRel, r.MinorRel, r.MaintRel)
}

// AppendPayload implements payload.Marshaler.
func (r *SysVersionResponse) AppendPayload(dst []byte) ([]byte, error) {
	dst = append(dst, r.TransportRev, r.Product, r.MajorRel, r.MinorRel, r.MaintRel)
	if r.HasRevision {
		dst = binary.LittleEndian.AppendUint32(dst, r.Revision)
	}
	return dst, nil
}

// UnmarshalPayload implements payload.Unmarshaler.
func (r *SysVersionResponse) UnmarshalPayload(data []byte, _ bool) (int, error) {
	switch {
	case len(data) >= 9:
		r.Revision = binary.LittleEndian.Uint32(data[5:9])
		r.HasRevision = true
	case len(data) >= 5:
		r.Revision, r.HasRevision = 0, false
	default:
		return 0, fmt.Errorf("%w: version needs 5 bytes, have %d", payload.ErrShortBuffer, len(data))
	}
	r.TransportRev, r.Product, r.MajorRel, r.MinorRel, r.MaintRel = data[0], data[1], data[2], data[3], data[4]
	if r.HasRevision {
		return 9, nil
	}
	return 5, nil
}

// SysOSALNVRead (SYS_OSAL_NV_READ) reads an NV item.
type SysOSALNVRead struct {
	ID     uint16
	Offset uint8
}

func (*SysOSALNVRead) Subsystem() wire.Subsystem           { return wire.SubsystemSYS }
func (*SysOSALNVRead) CommandID() uint8                    { return SysOSALNVReadID }
func (*SysOSALNVRead) MaxSize() int                        { return 3 }
func (*SysOSALNVRead) NewResponse() *SysOSALNVReadResponse { return &SysOSALNVReadResponse{} }

// SysOSALNVReadResponse carries the NV item value.
type SysOSALNVReadResponse struct {
	Status Status
	Value  []byte `znp:"counted"`
}

func (*SysOSALNVReadResponse) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysOSALNVReadResponse) CommandID() uint8          { return SysOSALNVReadID }

// SysOSALNVWrite (SYS_OSAL_NV_WRITE) writes an NV item.
type SysOSALNVWrite struct {
	ID     uint16
	Offset uint8
	Value  []byte `znp:"counted"`
}

func (*SysOSALNVWrite) Subsystem() wire.Subsystem            { return wire.SubsystemSYS }
func (*SysOSALNVWrite) CommandID() uint8                     { return SysOSALNVWriteID }
func (*SysOSALNVWrite) MaxSize() int                         { return wire.MaxPayloadSize }
func (*SysOSALNVWrite) NewResponse() *SysOSALNVWriteResponse { return &SysOSALNVWriteResponse{} }

// SysOSALNVWriteResponse reports the write status.
type SysOSALNVWriteResponse struct {
	Status Status
}

func (*SysOSALNVWriteResponse) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysOSALNVWriteResponse) CommandID() uint8          { return SysOSALNVWriteID }

// SysStartTimer (SYS_OSAL_START_TIMER) starts one of the four OSAL timers.
// The device reports expiry with SysTimerExpired.
type SysStartTimer struct {
	// TimerID is 0-3.
	TimerID uint8
	// Timeout in milliseconds.
	Timeout uint16
}

func (*SysStartTimer) Subsystem() wire.Subsystem           { return wire.SubsystemSYS }
func (*SysStartTimer) CommandID() uint8                    { return SysStartTimerID }
func (*SysStartTimer) MaxSize() int                        { return 3 }
func (*SysStartTimer) NewResponse() *SysStartTimerResponse { return &SysStartTimerResponse{} }

// SysStartTimerResponse reports whether the timer was started.
type SysStartTimerResponse struct {
	Status Status
}

func (*SysStartTimerResponse) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysStartTimerResponse) CommandID() uint8          { return SysStartTimerID }

// ResetReason is reported by SysResetInd.
type ResetReason uint8

const (
	ResetReasonPowerUp  ResetReason = 0x00
	ResetReasonExternal ResetReason = 0x01
	ResetReasonWatchdog ResetReason = 0x02
)

// SysResetInd (SYS_RESET_IND) is sent after the device restarts.
type SysResetInd struct {
	Reason       ResetReason
	TransportRev uint8
	Product      uint8
	MajorRel     uint8
	MinorRel     uint8
	HwRev        uint8
}

func (*SysResetInd) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysResetInd) CommandID() uint8          { return SysResetIndID }
func (*SysResetInd) notification()             {}

// SysTimerExpired (SYS_OSAL_TIMER_EXPIRED) reports an expired OSAL timer.
type SysTimerExpired struct {
	TimerID uint8
}

func (*SysTimerExpired) Subsystem() wire.Subsystem { return wire.SubsystemSYS }
func (*SysTimerExpired) CommandID() uint8          { return SysTimerExpiredID }
func (*SysTimerExpired) notification()             {}
