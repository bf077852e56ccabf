// Package wire implements the Z-Stack monitor-and-test (MT) frame format
// used by ZNP network processors on their serial interface.
//
// Every message travels in a single frame:
//
//	┌──────┬────────┬──────┬──────┬─────────────────┬─────┐
//	│ SOF  │ Length │ Cmd0 │ Cmd1 │ Payload (0-250) │ FCS │
//	│ 0xFE │   1B   │  1B  │  1B  │     Length B    │ 1B  │
//	└──────┴────────┴──────┴──────┴─────────────────┴─────┘
//
// Cmd0 carries the frame type in its high nibble and the subsystem in its
// low nibble. Cmd1 is the command id within that subsystem. FCS is the XOR
// of every byte from Length through the last payload byte, so XOR over
// Length..FCS of a valid frame is zero.
//
// # Stream Decoding
//
// The transport has no message boundaries. Decode inspects a buffer and
// either returns one complete frame together with the number of bytes it
// occupied, or reports that more input is needed. Checksum mismatches and
// unknown type or subsystem codes are fatal: the stream is considered
// desynchronized and the connection must be dropped.
package wire
