// Package errors provides structured error types for the ledhost controller.
//
// Errors are categorized by Phase (where the error occurred) and Kind (the
// error class). The class decides propagation:
//
//	protocol         frame dropped, or session ended when Fatal is set
//	program_load     load aborted, state stays Idle
//	program_runtime  current run ends, state returns to Idle
//	bus, hardware    current run ends, or the update is skipped under the skip policy
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindProgramRuntime).
//		Path("descriptor", "end").
//		Value(end).
//		Detail("end %d beyond strip", end).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExport("entry")
//	err := errors.OutOfBounds(errors.PhaseDecode, addr, 7, size)
//
// The class sentinels match through errors.Is regardless of phase:
//
//	if errors.Is(err, errors.ErrProgramRuntime) { ... }
package errors
