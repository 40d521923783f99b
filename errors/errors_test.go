package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindProgramRuntime,
				Path:   []string{"descriptor", "end"},
				Detail: "end beyond strip",
			},
			contains: []string{"[decode]", "program_runtime", "descriptor.end", "end beyond strip"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFrame,
				Kind:  KindProtocol,
			},
			contains: []string{"[frame]", "protocol"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBus,
				Kind:   KindBus,
				Detail: "transaction failed",
				Cause:  errors.New("nack"),
			},
			contains: []string{"[bus]", "bus", "transaction failed", "caused by", "nack"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Trap(PhaseTick, "entry", cause)

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Phase: PhaseDecode, Kind: KindProgramRuntime}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindProgramRuntime}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseTick, Kind: KindProgramRuntime}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindBus}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrProgramRuntime) {
		t.Error("sentinel should match any phase of its kind")
	}
	if errors.Is(err, ErrProgramLoad) {
		t.Error("sentinel should not match another kind")
	}
}

func TestSentinelsThroughWrapping(t *testing.T) {
	tests := []struct {
		err      error
		sentinel *Error
		kind     Kind
	}{
		{EmptyFrame(), ErrProtocol, KindProtocol},
		{UnknownOpcode(9), ErrProtocol, KindProtocol},
		{MissingExport("entry"), ErrProgramLoad, KindProgramLoad},
		{BadSignature("entry", "() -> i32", "() -> ()"), ErrProgramLoad, KindProgramLoad},
		{OutOfBounds(PhaseDecode, 70000, 7, 65536), ErrProgramRuntime, KindProgramRuntime},
		{InvalidDiscriminant([]string{"descriptor"}, 7, 1), ErrProgramRuntime, KindProgramRuntime},
		{BusTimeout(0x10, nil), ErrBus, KindBus},
		{BusNack(0x10, errors.New("nack")), ErrBus, KindBus},
		{StripWrite("flush", errors.New("spi")), ErrHardware, KindHardware},
		{InvalidConfig("leds.count", "zero"), ErrConfig, KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel.Kind)
			}
			if got := KindOf(wrapped); got != tt.kind {
				t.Errorf("KindOf = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(EmptyFrame()) {
		t.Error("empty frame should be fatal")
	}
	if !IsFatal(FrameRead("header", errors.New("eof"))) {
		t.Error("header read failure should be fatal")
	}
	if !IsFatal(FrameTooLarge(10, 5)) {
		t.Error("oversized frame should be fatal")
	}
	if IsFatal(UnknownOpcode(7)) {
		t.Error("unknown opcode should not be fatal")
	}
	if IsFatal(MalformedBody("set-color", "short")) {
		t.Error("malformed body should not be fatal")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("plain error should not be fatal")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf plain error should be empty")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindProgramRuntime).
		Path("descriptor", "end").
		Value(200).
		Cause(cause).
		Detail("end %d beyond %d", 200, 88).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindProgramRuntime {
		t.Errorf("Kind = %v, want %v", err.Kind, KindProgramRuntime)
	}
	if len(err.Path) != 2 || err.Path[1] != "end" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Value != 200 {
		t.Errorf("Value = %v, want 200", err.Value)
	}
	if err.Detail != "end 200 beyond 88" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}

	fatal := New(PhaseFrame, KindProtocol).Fatal().Build()
	if !IsFatal(fatal) {
		t.Error("Fatal() should mark error as fatal")
	}
}
