package command

import (
	"fmt"
	"reflect"

	"github.com/znp-host/znp-go/pkg/wire"
)

// UnimplementedKind distinguishes the two classification misses.
type UnimplementedKind uint8

const (
	// UnimplementedSubsystem means no notification is registered for the subsystem.
	UnimplementedSubsystem UnimplementedKind = iota

	// UnimplementedCommand means the subsystem is known but the command id is not.
	UnimplementedCommand
)

// String returns the kind name.
func (k UnimplementedKind) String() string {
	switch k {
	case UnimplementedSubsystem:
		return "subsystem"
	case UnimplementedCommand:
		return "command"
	default:
		return "unknown"
	}
}

// UnimplementedError is returned by Classify for notifications without a type.
// It is never fatal.
type UnimplementedError struct {
	Kind UnimplementedKind
	Key  wire.Key
}

func (e *UnimplementedError) Error() string {
	if e.Kind == UnimplementedSubsystem {
		return fmt.Sprintf("unimplemented subsystem %s (cmd 0x%02X)", e.Key.Subsystem, e.Key.CommandID)
	}
	return fmt.Sprintf("unimplemented command %s", e.Key)
}

type factory func() Notification

// subsystems is built once at init and read-only afterwards.
var subsystems = map[wire.Subsystem]map[uint8]factory{}

func register(fns ...factory) {
	for _, fn := range fns {
		n := fn()
		cmds, ok := subsystems[n.Subsystem()]
		if !ok {
			cmds = make(map[uint8]factory)
			subsystems[n.Subsystem()] = cmds
		}
		if _, dup := cmds[n.CommandID()]; dup {
			panic(fmt.Sprintf("command: duplicate notification %s", KeyOf(n)))
		}
		cmds[n.CommandID()] = fn
	}
}

func init() {
	register(
		func() Notification { return &SysResetInd{} },
		func() Notification { return &SysTimerExpired{} },

		func() Notification { return &AFDataConfirm{} },
		func() Notification { return &AFIncomingMsg{} },

		func() Notification { return &ZDOActiveEPRsp{} },
		func() Notification { return &ZDOStateChangeInd{} },
		func() Notification { return &ZDOEndDeviceAnnceInd{} },
		func() Notification { return &ZDOLeaveInd{} },
		func() Notification { return &ZDOTCDevInd{} },
		func() Notification { return &ZDOPermitJoinInd{} },
	)
}

// Classify turns an AREQ frame into its typed notification.
func Classify(f wire.Frame) (Notification, error) {
	if f.Type != wire.TypeAsyncReq {
		return nil, fmt.Errorf("%w: %s", ErrNotAsync, f.Type)
	}

	cmds, ok := subsystems[f.Subsystem]
	if !ok {
		return nil, &UnimplementedError{Kind: UnimplementedSubsystem, Key: f.Key()}
	}
	fn, ok := cmds[f.CommandID]
	if !ok {
		return nil, &UnimplementedError{Kind: UnimplementedCommand, Key: f.Key()}
	}

	n := fn()
	if err := Decode(f, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Registered returns the keys of all registered notifications.
func Registered() []wire.Key {
	var keys []wire.Key
	for s, cmds := range subsystems {
		for id := range cmds {
			keys = append(keys, wire.Key{Subsystem: s, CommandID: id})
		}
	}
	return keys
}

// Name returns the Go type name of c without package qualifier.
func Name(c Command) string {
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
