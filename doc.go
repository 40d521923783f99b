// Package ledhost is a networked LED controller that runs sandboxed
// WebAssembly programs on a fixed tick.
//
// A control host sends framed commands over a byte stream. A program is a
// core wasm module exporting entry() -> i32; every tick the controller calls
// entry, decodes the output descriptor the returned address points at, and
// writes the resulting colors to an attached strip or, over I2C, to a
// secondary controller driving its own strip.
//
// # Architecture Overview
//
//	ledhost/          Root package with the guest Memory interface
//	├── wire/         Command framing: [u32 LE length][opcode][body]
//	├── dispatch/     Per-connection command loop and execution state
//	├── execution/    Execution context, one-shot handoff, input slot, task loop
//	├── abi/          Output descriptor decoding and translation to LED updates
//	├── engine/       wazero binding: load, exports, guest memory
//	├── led/          Colors, ranges, updates and the Sink interface
//	├── sink/         Local strip and I2C forwarding sinks
//	├── strip/        Strip drivers: framebuffer, NRZ over SPI, terminal
//	├── transport/    Command channel: dial out or listen
//	├── netlink/      Network association boundary
//	├── status/       Read-only HTTP status
//	├── config/       viper-backed configuration
//	├── client/       Command client and scene playback
//	├── errors/       Structured error types
//	└── cmd/          ledhost (controller) and ledctl (client, TUI)
//
// # Host/guest ABI
//
// At the address returned by entry the guest holds a tagged descriptor:
//
//	byte 0     discriminant (0 unbuffered, 1 buffered)
//	bytes 1-2  start, end (inclusive LED indices)
//	bytes 3-5  r, g, b              (unbuffered)
//	bytes 3-6  u32 LE pointer       (buffered, to (end-start+1)*3 RGB bytes)
//
// An optional handle_input(len i32) -> i32 export accepts pushed input: it
// returns 0 to reject, or the guest address to copy len bytes into.
//
// # Concurrency
//
// The dispatcher and at most one execution task run concurrently. The task
// receives its program through a single-use handoff, polls a cancellation
// token once per tick, and closes its done channel as its final act. No
// locks coordinate the two; a new program is handed off only after the
// previous task's done channel has closed.
package ledhost
