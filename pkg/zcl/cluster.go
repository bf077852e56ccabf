package zcl

import "fmt"

// ClusterID identifies a cluster.
type ClusterID uint16

const (
	ClusterBasic            ClusterID = 0x0000
	ClusterPowerConfig      ClusterID = 0x0001
	ClusterOnOff            ClusterID = 0x0006
	ClusterTemperature      ClusterID = 0x0402
	ClusterRelativeHumidity ClusterID = 0x0405
)

var clusterNames = map[ClusterID]string{
	ClusterBasic:            "Basic",
	ClusterPowerConfig:      "PowerConfig",
	ClusterOnOff:            "OnOff",
	ClusterTemperature:      "Temperature",
	ClusterRelativeHumidity: "RelativeHumidity",
}

// String returns the cluster name or its hex id.
func (c ClusterID) String() string {
	if name, ok := clusterNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(c))
}

// Attribute ids.
const (
	AttrBasicManufacturerName uint16 = 0x0004
	AttrBasicModelIdentifier  uint16 = 0x0005

	AttrPowerBatteryVoltage    uint16 = 0x0020
	AttrPowerBatteryPercentage uint16 = 0x0021

	AttrOnOff uint16 = 0x0000

	// AttrMeasuredValue is the measured value of the measurement clusters.
	AttrMeasuredValue uint16 = 0x0000
)

// Measurement converts a measured value of the temperature cluster to
// degrees Celsius or of the humidity cluster to percent. It reports false
// for other clusters, unexpected types and the invalid value marker.
func Measurement(c ClusterID, v Value) (float64, bool) {
	switch c {
	case ClusterTemperature:
		if v.Type != TypeInt16 || v.Int == -0x8000 {
			return 0, false
		}
		return float64(v.Int) / 100, true
	case ClusterRelativeHumidity:
		if v.Type != TypeUint16 || v.Uint == 0xFFFF {
			return 0, false
		}
		return float64(v.Uint) / 100, true
	}
	return 0, false
}

// OnOffCommand is a command of the OnOff cluster.
type OnOffCommand uint8

const (
	OnOffOff    OnOffCommand = 0x00
	OnOffOn     OnOffCommand = 0x01
	OnOffToggle OnOffCommand = 0x02
)

func (OnOffCommand) zclCommand() {}

// String returns the command name.
func (c OnOffCommand) String() string {
	switch c {
	case OnOffOff:
		return "Off"
	case OnOffOn:
		return "On"
	case OnOffToggle:
		return "Toggle"
	default:
		return fmt.Sprintf("OnOff(0x%02X)", uint8(c))
	}
}

// NewOnOffFrame builds a client to server OnOff command frame.
func NewOnOffFrame(seq uint8, cmd OnOffCommand) Frame {
	return Frame{
		Control:   FrameControl{Type: FrameTypeCluster},
		Sequence:  seq,
		CommandID: uint8(cmd),
	}
}

func decodeOnOff(f Frame) (Command, error) {
	if f.ManufacturerCode == nil {
		switch cmd := OnOffCommand(f.CommandID); cmd {
		case OnOffOff, OnOffOn, OnOffToggle:
			return cmd, nil
		}
	}
	return nil, &UnknownCommandError{Cluster: ClusterOnOff, Type: f.Control.Type, CommandID: f.CommandID}
}
