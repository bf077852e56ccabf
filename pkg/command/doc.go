// Package command defines the typed ZNP command catalogue and the registry
// that classifies incoming notifications.
//
// Every type declares its subsystem and command id through methods.
// Synchronous requests additionally declare their maximum payload size and
// their response type:
//
//	req := &command.SysPing{}
//	rsp := req.NewResponse() // *command.SysPingResponse
//
// Asynchronous notifications implement Notification. They are only created
// by Classify, which dispatches an AREQ frame on its subsystem and then on its
// command id. Frames for subsystems or commands without a registered type are
// reported as *UnimplementedError so callers can log and continue.
package command
