package zcl

import (
	"errors"
	"fmt"

	"github.com/znp-host/znp-go/pkg/command"
)

// ErrUnsupported is matched by errors for frames this package has no
// decoder for.
var ErrUnsupported = errors.New("zcl: unsupported")

// UnknownCommandError is returned for command ids without a decoder.
type UnknownCommandError struct {
	Cluster   ClusterID
	Type      FrameType
	CommandID uint8
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("zcl: unknown %s command 0x%02X on cluster %s", e.Type, e.CommandID, e.Cluster)
}

func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnsupported
}

// UnknownClusterError is returned for cluster frames of clusters without
// a decoder.
type UnknownClusterError struct {
	Cluster ClusterID
}

func (e *UnknownClusterError) Error() string {
	return fmt.Sprintf("zcl: no decoder for cluster %s", e.Cluster)
}

func (e *UnknownClusterError) Is(target error) bool {
	return target == ErrUnsupported
}

// Message is a ZCL frame received from a remote endpoint.
type Message struct {
	Cluster     ClusterID
	SrcAddr     command.ShortAddr
	SrcEndpoint uint8
	DstEndpoint uint8
	Frame       Frame

	// Command is nil if the command could not be decoded.
	Command Command
}

// Decode parses the ZCL frame carried by msg.
//
// General frames are decoded for every cluster. Cluster frames are only
// decoded for clusters with a decoder. Once the header has parsed the
// message is returned even on error, so callers can log what arrived; an
// attribute report that failed midway carries the entries before the
// failure.
func Decode(msg *command.AFIncomingMsg) (*Message, error) {
	f, err := ParseFrame(msg.Data)
	if err != nil {
		return nil, err
	}
	m := &Message{
		Cluster:     ClusterID(msg.ClusterID),
		SrcAddr:     msg.SrcAddr,
		SrcEndpoint: msg.SrcEndpoint,
		DstEndpoint: msg.DstEndpoint,
		Frame:       f,
	}

	switch f.Control.Type {
	case FrameTypeGeneral:
		m.Command, err = decodeGeneral(m.Cluster, f)
	case FrameTypeCluster:
		switch m.Cluster {
		case ClusterOnOff:
			m.Command, err = decodeOnOff(f)
		default:
			err = &UnknownClusterError{Cluster: m.Cluster}
		}
	default:
		err = fmt.Errorf("%w: frame type %s", ErrUnsupported, f.Control.Type)
	}
	return m, err
}

func decodeGeneral(cluster ClusterID, f Frame) (Command, error) {
	if f.ManufacturerCode != nil {
		return nil, &UnknownCommandError{Cluster: cluster, Type: f.Control.Type, CommandID: f.CommandID}
	}

	switch f.CommandID {
	case CmdReportAttributes:
		r, err := ParseAttributeReport(f.Payload)
		return &r, err
	case CmdDefaultResponse:
		r, err := ParseDefaultResponse(f.Payload)
		if err != nil {
			return nil, err
		}
		return &r, nil
	case CmdDiscoverCommandsReceivedResponse:
		r, err := ParseDiscoverCommandsReceivedResponse(f.Payload)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}
	return nil, &UnknownCommandError{Cluster: cluster, Type: f.Control.Type, CommandID: f.CommandID}
}
