package provision

import (
	"context"
	"fmt"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/znp"
)

// DeviceInfo is what the info command prints.
type DeviceInfo struct {
	Version      *command.SysVersionResponse
	Capabilities uint16
	IEEEAddr     command.IEEEAddr
	ShortAddr    command.ShortAddr
	DeviceType   uint8
	State        command.DeviceState
	AssocDevices []command.ShortAddr
}

// QueryInfo reads version, capabilities and identity of the device.
func QueryInfo(ctx context.Context, c *znp.Client) (*DeviceInfo, error) {
	ping, err := znp.Call(ctx, c, &command.SysPing{})
	if err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	version, err := znp.Call(ctx, c, &command.SysVersion{})
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	dev, err := znp.Call(ctx, c, &command.UtilGetDeviceInfo{})
	if err != nil {
		return nil, fmt.Errorf("device info: %w", err)
	}
	if err := dev.Status.Err(); err != nil {
		return nil, fmt.Errorf("device info: %w", err)
	}

	return &DeviceInfo{
		Version:      version,
		Capabilities: ping.Capabilities,
		IEEEAddr:     dev.IEEEAddr,
		ShortAddr:    dev.ShortAddr,
		DeviceType:   dev.DeviceType,
		State:        dev.DeviceState,
		AssocDevices: dev.AssocDevices,
	}, nil
}
