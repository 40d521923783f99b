// Package engine binds the controller to wazero.
//
// It covers exactly what the execution pipeline consumes from a bytecode
// engine: parse and instantiate a core module, resolve the ABI exports,
// call them, and access linear memory with bounds checks.
//
//	Engine   - owns the wazero runtime shared by successive programs
//	Program  - one instantiated guest with resolved exports and memory
//	Memory   - bounds-checked guest memory (ledhost.Memory)
//
// # Program Loading
//
//  1. Engine.Load() compiles the module bytes (a private copy)
//  2. The module is instantiated anonymously; _initialize runs if exported
//  3. entry must exist with type () -> i32, otherwise the load fails
//  4. handle_input is optional and must be (i32) -> i32 when present
//  5. The module must export a linear memory
//
// Every failure in these steps is an errors.KindProgramLoad error.
//
// # Guest Calls
//
// A trap during entry or handle_input is returned as an
// errors.KindProgramRuntime error. Calls are never interrupted by the
// host: an entry that does not return blocks its caller.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Program is NOT thread-safe and is
// owned by a single execution task.
package engine
