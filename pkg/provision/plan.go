package provision

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/config"
)

// ConfigID is a Z-Stack configuration item id as used by
// ZB_READ_CONFIGURATION and ZB_WRITE_CONFIGURATION.
type ConfigID uint8

const (
	ConfigStartupOption    ConfigID = 0x03
	ConfigExtendedPANID    ConfigID = 0x2D
	ConfigPreCfgKey        ConfigID = 0x62
	ConfigPreCfgKeysEnable ConfigID = 0x63
	ConfigPANID            ConfigID = 0x83
	ConfigChannelList      ConfigID = 0x84
	ConfigLogicalType      ConfigID = 0x87
	ConfigZDODirectCB      ConfigID = 0x8F
)

var configNames = map[ConfigID]string{
	ConfigStartupOption:    "STARTUP_OPTION",
	ConfigExtendedPANID:    "EXTENDED_PAN_ID",
	ConfigPreCfgKey:        "PRECFGKEY",
	ConfigPreCfgKeysEnable: "PRECFGKEYS_ENABLE",
	ConfigPANID:            "PANID",
	ConfigChannelList:      "CHANLIST",
	ConfigLogicalType:      "LOGICAL_TYPE",
	ConfigZDODirectCB:      "ZDO_DIRECT_CB",
}

// String returns the vendor name of the item.
func (id ConfigID) String() string {
	if name, ok := configNames[id]; ok {
		return name
	}
	return fmt.Sprintf("CONFIG(0x%02X)", uint8(id))
}

// Logical device types.
const (
	LogicalCoordinator uint8 = 0x00
	LogicalRouter      uint8 = 0x01
	LogicalEndDevice   uint8 = 0x02
)

// Item is one configuration item and its expected value.
type Item struct {
	ID    ConfigID
	Value []byte
}

// Plan is the fixed provisioning sequence for one coordinator.
type Plan struct {
	Items        []Item
	Endpoints    []command.AFRegister
	StartDelay   uint16
	StartTimeout time.Duration
}

// NewPlan derives the plan from cfg. Without a network key or key secret
// the coordinator keeps its current key.
func NewPlan(cfg *config.Config) (*Plan, error) {
	n := cfg.Network

	epid, err := n.ExtendedPANIDValue()
	if err != nil {
		return nil, fmt.Errorf("extended pan id: %w", err)
	}

	items := []Item{
		{ID: ConfigStartupOption, Value: []byte{0x00}},
		{ID: ConfigPANID, Value: binary.LittleEndian.AppendUint16(nil, n.PANID)},
		{ID: ConfigExtendedPANID, Value: binary.LittleEndian.AppendUint64(nil, epid)},
		{ID: ConfigChannelList, Value: binary.LittleEndian.AppendUint32(nil, n.ChannelMask())},
		{ID: ConfigLogicalType, Value: []byte{LogicalCoordinator}},
	}

	switch {
	case n.NetworkKey != "":
		key, err := n.NetworkKeyBytes()
		if err != nil {
			return nil, fmt.Errorf("network key: %w", err)
		}
		items = append(items, Item{ID: ConfigPreCfgKey, Value: key[:]})
	case n.NetworkKeySecret != "":
		key, err := DeriveNetworkKey([]byte(n.NetworkKeySecret), epid)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{ID: ConfigPreCfgKey, Value: key[:]})
	}

	distribute := byte(0)
	if n.DistributeKey {
		distribute = 1
	}
	items = append(items,
		Item{ID: ConfigPreCfgKeysEnable, Value: []byte{distribute}},
		Item{ID: ConfigZDODirectCB, Value: []byte{0x01}},
	)

	p := &Plan{
		Items:        items,
		StartTimeout: n.StartTimeout,
	}
	for _, ep := range cfg.Endpoints {
		p.Endpoints = append(p.Endpoints, command.AFRegister{
			Endpoint:    ep.Endpoint,
			AppProfID:   ep.ProfileID,
			AppDeviceID: ep.DeviceID,
			InClusters:  ep.InClusters,
			OutClusters: ep.OutClusters,
		})
	}
	return p, nil
}
