// Package log captures protocol events of a ZNP session.
//
// Capture is separate from operational logging (slog): it records every
// frame, classified notification, ticket transition and error in a
// machine-readable trace that the znp-log tool can view, filter and export.
//
// # Basic Usage
//
//	// Console, for development
//	c := znp.NewClient(port, znp.WithProtocolLogger(log.NewSlogAdapter(slog.Default())))
//
//	// Capture file
//	fl, _ := log.NewFileLogger("/var/log/znp/session.zlog")
//	c := znp.NewClient(port, znp.WithProtocolLogger(fl))
//
//	// Both
//	c := znp.NewClient(port, znp.WithProtocolLogger(log.NewMultiLogger(a, fl)))
//
// # File Format
//
// Capture files are a sequence of CBOR encoded Events with integer keys,
// conventionally named with the .zlog extension.
package log
