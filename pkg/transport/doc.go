// Package transport carries ZNP frames over a byte stream.
//
// The coordinator is reached over a UART (USB CDC or FTDI bridge) or over
// TCP for network attached coordinators that expose the UART through a
// serial-to-network bridge. Neither provides message boundaries, so
// FrameReader buffers bytes and cuts frames with the wire codec.
//
// # Stack
//
//	┌────────────────────────────────┐
//	│   Commands (pkg/command)       │
//	├────────────────────────────────┤
//	│   ZNP frames (pkg/wire)        │
//	├────────────────────────────────┤
//	│   Serial 115200 8N1  │  TCP    │
//	└────────────────────────────────┘
//
// Network attached coordinators can be found with Browse, which listens
// for their mDNS advertisements.
package transport
