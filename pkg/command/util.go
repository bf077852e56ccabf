package command

import (
	"github.com/znp-host/znp-go/pkg/wire"
)

// UTIL command ids.
const (
	UtilGetDeviceInfoID uint8 = 0x00
	UtilLEDControlID    uint8 = 0x0A
)

// UtilGetDeviceInfo (UTIL_GET_DEVICE_INFO) reads the device identity and
// its associated devices.
type UtilGetDeviceInfo struct{}

func (*UtilGetDeviceInfo) Subsystem() wire.Subsystem               { return wire.SubsystemUTIL }
func (*UtilGetDeviceInfo) CommandID() uint8                        { return UtilGetDeviceInfoID }
func (*UtilGetDeviceInfo) MaxSize() int                            { return 0 }
func (*UtilGetDeviceInfo) NewResponse() *UtilGetDeviceInfoResponse { return &UtilGetDeviceInfoResponse{} }

// Device type bits of UtilGetDeviceInfoResponse.DeviceType.
const (
	DeviceTypeCoordinator uint8 = 0x01
	DeviceTypeRouter      uint8 = 0x02
	DeviceTypeEndDevice   uint8 = 0x04
)

// UtilGetDeviceInfoResponse describes the device.
type UtilGetDeviceInfoResponse struct {
	Status       Status
	IEEEAddr     IEEEAddr
	ShortAddr    ShortAddr
	DeviceType   uint8
	DeviceState  DeviceState
	AssocDevices []ShortAddr `znp:"counted"`
}

func (*UtilGetDeviceInfoResponse) Subsystem() wire.Subsystem { return wire.SubsystemUTIL }
func (*UtilGetDeviceInfoResponse) CommandID() uint8          { return UtilGetDeviceInfoID }

// UtilLEDControl (UTIL_LED_CONTROL) switches an LED on the device.
type UtilLEDControl struct {
	LedID uint8
	On    bool
}

func (*UtilLEDControl) Subsystem() wire.Subsystem            { return wire.SubsystemUTIL }
func (*UtilLEDControl) CommandID() uint8                     { return UtilLEDControlID }
func (*UtilLEDControl) MaxSize() int                         { return 2 }
func (*UtilLEDControl) NewResponse() *UtilLEDControlResponse { return &UtilLEDControlResponse{} }

// UtilLEDControlResponse reports whether the LED was switched.
type UtilLEDControlResponse struct {
	Status Status
}

func (*UtilLEDControlResponse) Subsystem() wire.Subsystem { return wire.SubsystemUTIL }
func (*UtilLEDControlResponse) CommandID() uint8          { return UtilLEDControlID }
