package command

import (
	"encoding/binary"
	"fmt"

	"github.com/znp-host/znp-go/pkg/wire"
)

// SAPI command ids.
const (
	ZBReadConfigurationID  uint8 = 0x04
	ZBWriteConfigurationID uint8 = 0x05
	ZBGetDeviceInfoID      uint8 = 0x06
)

// ZBReadConfiguration (ZB_READ_CONFIGURATION) reads a configuration item.
type ZBReadConfiguration struct {
	ConfigID uint8
}

func (*ZBReadConfiguration) Subsystem() wire.Subsystem                 { return wire.SubsystemSAPI }
func (*ZBReadConfiguration) CommandID() uint8                          { return ZBReadConfigurationID }
func (*ZBReadConfiguration) MaxSize() int                              { return 1 }
func (*ZBReadConfiguration) NewResponse() *ZBReadConfigurationResponse { return &ZBReadConfigurationResponse{} }

// ZBReadConfigurationResponse carries the configuration value.
type ZBReadConfigurationResponse struct {
	Status   Status
	ConfigID uint8
	Value    []byte `znp:"counted"`
}

func (*ZBReadConfigurationResponse) Subsystem() wire.Subsystem { return wire.SubsystemSAPI }
func (*ZBReadConfigurationResponse) CommandID() uint8          { return ZBReadConfigurationID }

// ZBWriteConfiguration (ZB_WRITE_CONFIGURATION) writes a configuration item.
type ZBWriteConfiguration struct {
	ConfigID uint8
	Value    []byte `znp:"counted"`
}

func (*ZBWriteConfiguration) Subsystem() wire.Subsystem                  { return wire.SubsystemSAPI }
func (*ZBWriteConfiguration) CommandID() uint8                           { return ZBWriteConfigurationID }
func (*ZBWriteConfiguration) MaxSize() int                               { return wire.MaxPayloadSize }
func (*ZBWriteConfiguration) NewResponse() *ZBWriteConfigurationResponse { return &ZBWriteConfigurationResponse{} }

// ZBWriteConfigurationResponse reports the write status.
type ZBWriteConfigurationResponse struct {
	Status Status
}

func (*ZBWriteConfigurationResponse) Subsystem() wire.Subsystem { return wire.SubsystemSAPI }
func (*ZBWriteConfigurationResponse) CommandID() uint8          { return ZBWriteConfigurationID }

// DeviceInfoParam selects the value returned by ZBGetDeviceInfo.
type DeviceInfoParam uint8

const (
	DevInfoState         DeviceInfoParam = 0
	DevInfoIEEEAddr      DeviceInfoParam = 1
	DevInfoShortAddr     DeviceInfoParam = 2
	DevInfoParentShort   DeviceInfoParam = 3
	DevInfoParentIEEE    DeviceInfoParam = 4
	DevInfoChannel       DeviceInfoParam = 5
	DevInfoPANID         DeviceInfoParam = 6
	DevInfoExtendedPANID DeviceInfoParam = 7
)

// String returns the parameter name.
func (p DeviceInfoParam) String() string {
	switch p {
	case DevInfoState:
		return "DevState"
	case DevInfoIEEEAddr:
		return "IeeeAddr"
	case DevInfoShortAddr:
		return "ShortAddr"
	case DevInfoParentShort:
		return "ParentShortAddr"
	case DevInfoParentIEEE:
		return "ParentIeeeAddr"
	case DevInfoChannel:
		return "Channel"
	case DevInfoPANID:
		return "PanId"
	case DevInfoExtendedPANID:
		return "ExtPanId"
	default:
		return "Unknown"
	}
}

// ZBGetDeviceInfo (ZB_GET_DEVICE_INFO) reads one device parameter.
type ZBGetDeviceInfo struct {
	Param DeviceInfoParam
}

func (*ZBGetDeviceInfo) Subsystem() wire.Subsystem             { return wire.SubsystemSAPI }
func (*ZBGetDeviceInfo) CommandID() uint8                      { return ZBGetDeviceInfoID }
func (*ZBGetDeviceInfo) MaxSize() int                          { return 1 }
func (*ZBGetDeviceInfo) NewResponse() *ZBGetDeviceInfoResponse { return &ZBGetDeviceInfoResponse{} }

// ZBGetDeviceInfoResponse carries the requested parameter in an 8 byte
// little-endian field; shorter values are zero padded.
type ZBGetDeviceInfoResponse struct {
	Param DeviceInfoParam
	Value [8]byte
}

func (*ZBGetDeviceInfoResponse) Subsystem() wire.Subsystem { return wire.SubsystemSAPI }
func (*ZBGetDeviceInfoResponse) CommandID() uint8          { return ZBGetDeviceInfoID }

// Uint64 returns Value as a little-endian integer.
func (r *ZBGetDeviceInfoResponse) Uint64() uint64 {
	return binary.LittleEndian.Uint64(r.Value[:])
}

// String formats Value according to Param.
func (r *ZBGetDeviceInfoResponse) String() string {
	v := r.Uint64()
	switch r.Param {
	case DevInfoState:
		return DeviceState(v).String()
	case DevInfoIEEEAddr, DevInfoParentIEEE, DevInfoExtendedPANID:
		return IEEEAddr(v).String()
	case DevInfoShortAddr, DevInfoParentShort, DevInfoPANID:
		return ShortAddr(v).String()
	default:
		return fmt.Sprintf("%d", v)
	}
}
