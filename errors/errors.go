package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseFrame    Phase = "frame"    // length prefix and payload reads
	PhaseDispatch Phase = "dispatch" // opcode handling
	PhaseLoad     Phase = "load"     // parse, instantiate, export resolution
	PhaseTick     Phase = "tick"     // entry call
	PhaseDecode   Phase = "decode"   // output descriptor decode
	PhaseInput    Phase = "input"    // handle_input call and guest write
	PhaseBus      Phase = "bus"      // secondary controller transaction
	PhaseStrip    Phase = "strip"    // attached strip driver
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind is the error class. It decides how far a failure propagates:
// protocol errors end a frame or a session, load errors abort a load,
// runtime, bus and hardware errors end the current run.
type Kind string

const (
	KindProtocol       Kind = "protocol"
	KindProgramLoad    Kind = "program_load"
	KindProgramRuntime Kind = "program_runtime"
	KindBus            Kind = "bus"
	KindHardware       Kind = "hardware"
	KindConfig         Kind = "config"
)

// Sentinels match any error of their kind regardless of phase.
var (
	ErrProtocol       = &Error{Kind: KindProtocol}
	ErrProgramLoad    = &Error{Kind: KindProgramLoad}
	ErrProgramRuntime = &Error{Kind: KindProgramRuntime}
	ErrBus            = &Error{Kind: KindBus}
	ErrHardware       = &Error{Kind: KindHardware}
	ErrConfig         = &Error{Kind: KindConfig}
)

// Error is the structured error type used throughout ledhost
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	// Fatal marks a protocol error that ends the session.
	Fatal bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFatal reports whether err is a protocol error that ends the session.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == KindProtocol && e.Fatal
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Fatal marks the error as session-ending
func (b *Builder) Fatal() *Builder {
	b.err.Fatal = true
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Protocol errors

// EmptyFrame is returned for a zero-length frame. It ends the session.
func EmptyFrame() *Error {
	return &Error{
		Phase:  PhaseFrame,
		Kind:   KindProtocol,
		Detail: "zero-length frame",
		Fatal:  true,
	}
}

// FrameRead wraps a read failure on the length prefix or the payload.
func FrameRead(part string, cause error) *Error {
	return &Error{
		Phase:  PhaseFrame,
		Kind:   KindProtocol,
		Detail: fmt.Sprintf("read frame %s", part),
		Cause:  cause,
		Fatal:  true,
	}
}

// FrameTooLarge is returned when a length prefix exceeds the configured limit.
func FrameTooLarge(length, limit uint32) *Error {
	return &Error{
		Phase:  PhaseFrame,
		Kind:   KindProtocol,
		Detail: fmt.Sprintf("frame length %d exceeds limit %d", length, limit),
		Value:  length,
		Fatal:  true,
	}
}

// UnknownOpcode is returned for an opcode outside the command table.
func UnknownOpcode(op byte) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindProtocol,
		Detail: fmt.Sprintf("unknown opcode %d", op),
		Value:  op,
	}
}

// MalformedBody is returned when an opcode's body does not parse.
func MalformedBody(opcode string, detail string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindProtocol,
		Path:   []string{opcode},
		Detail: detail,
	}
}

// Program load errors

// Load wraps a parse or instantiate failure.
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindProgramLoad,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingExport is returned when a mandatory export is absent.
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindProgramLoad,
		Path:   []string{name},
		Detail: fmt.Sprintf("required export %q not found", name),
	}
}

// BadSignature is returned when an export has the wrong function type.
func BadSignature(name, want, got string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindProgramLoad,
		Path:   []string{name},
		Detail: fmt.Sprintf("signature %s, want %s", got, want),
	}
}

// Program runtime errors

// Trap wraps a failed guest call.
func Trap(phase Phase, export string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindProgramRuntime,
		Path:   []string{export},
		Detail: "guest call failed",
		Cause:  cause,
	}
}

// OutOfBounds creates a guest memory bounds violation error
func OutOfBounds(phase Phase, offset uint32, length int, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindProgramRuntime,
		Detail: fmt.Sprintf("guest memory access [%d, +%d) out of bounds (size %d)", offset, length, size),
		Value:  offset,
	}
}

// InvalidDiscriminant creates an invalid discriminant error for tagged guest data
func InvalidDiscriminant(path []string, disc uint8, maxValid uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindProgramRuntime,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (max %d)", disc, maxValid),
		Value:  disc,
	}
}

// InvalidRange is returned for an LED range violating start <= end < count.
func InvalidRange(start, end uint8, count int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindProgramRuntime,
		Path:   []string{"range"},
		Detail: fmt.Sprintf("range [%d, %d] invalid for %d LEDs", start, end, count),
	}
}

// Hardware errors

// BusTimeout is returned when a bus transaction does not complete in time.
func BusTimeout(addr uint16, cause error) *Error {
	return &Error{
		Phase:  PhaseBus,
		Kind:   KindBus,
		Detail: fmt.Sprintf("transaction to 0x%02x timed out", addr),
		Value:  addr,
		Cause:  cause,
	}
}

// BusNack wraps a transaction the bus driver reported as failed.
func BusNack(addr uint16, cause error) *Error {
	return &Error{
		Phase:  PhaseBus,
		Kind:   KindBus,
		Detail: fmt.Sprintf("transaction to 0x%02x not acknowledged", addr),
		Value:  addr,
		Cause:  cause,
	}
}

// StripWrite wraps a failed write to the attached strip driver.
func StripWrite(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseStrip,
		Kind:   KindHardware,
		Detail: op,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidConfig creates a configuration error
func InvalidConfig(key, detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindConfig,
		Path:   []string{key},
		Detail: detail,
	}
}
