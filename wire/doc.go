// Package wire implements the controller's command framing.
//
// A connection carries repeating frames:
//
//	[u32 little-endian length L][L bytes payload]
//
// payload[0] is the opcode and the rest is the opcode-specific body:
//
//	0  set-solid-color  r, g, b
//	1  load-program     core wasm module bytes
//	2  stop             (empty)
//	3  feed-input       bytes delivered to the running program
//
// No acknowledgment frames exist; effects are observed through hardware
// state and logs.
package wire
