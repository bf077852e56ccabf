// Package zcl decodes Zigbee Cluster Library frames carried in the Data
// field of AF incoming messages.
//
// A ZCL frame starts with a one byte frame control field:
//
//	bit   7 6 5   4        3     2      1 0
//	      reserved  no-dflt  dir   mfr    type
//
// followed by a little-endian manufacturer code when the manufacturer
// bit is set, a transaction sequence number, a command id and the
// command payload.
//
// General frames carry foundation commands that mean the same thing on
// every cluster, for example attribute reports. Cluster frames carry
// commands defined by the cluster itself.
//
// # Partial Decoding
//
// A malformed attribute must not discard an otherwise valid report.
// ParseAttributeReport stops at the first entry it cannot decode and
// returns the entries before it together with a *DecodeError.
package zcl
