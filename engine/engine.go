package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/ledhost"
	"github.com/wippyai/ledhost/errors"
)

// Export names of the host/guest ABI.
const (
	ExportEntry       = "entry"
	ExportHandleInput = "handle_input"
)

// Engine loads guest programs into a shared wazero runtime.
type Engine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per program in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// WASI instantiates wasi_snapshot_preview1 so programs built by
	// toolchains that always import it can load.
	WASI bool
}

// New creates a new wazero-backed engine
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if cfg != nil && cfg.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
			_ = runtime.Close(ctx)
			return nil, fmt.Errorf("instantiate WASI: %w", err)
		}
	}

	return &Engine{runtime: runtime}, nil
}

// Close releases the runtime and every program still loaded in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load parses and instantiates a core module and resolves its exports.
// The module must export entry() -> i32 and a memory; handle_input(i32) -> i32
// is optional. wasm is copied, so the caller may reuse its buffer.
func (e *Engine) Load(ctx context.Context, wasm []byte) (*Program, error) {
	if len(wasm) == 0 {
		return nil, errors.Load("empty module", nil)
	}
	wasm = bytes.Clone(wasm)

	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	// Programs are anonymous so any number can be instantiated in sequence.
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Load("instantiate module", err)
	}

	p := &Program{
		compiled: compiled,
		module:   mod,
		size:     len(wasm),
	}
	if err := p.resolve(); err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	Logger().Debug("program loaded",
		zap.Int("bytes", p.size),
		zap.Bool("handle_input", p.handleInput != nil),
		zap.Uint32("memory", p.memory.Size()),
	)
	return p, nil
}

// Program is one instantiated guest. It is not safe for concurrent use; the
// execution task that owns it is its only caller.
type Program struct {
	compiled    wazero.CompiledModule
	module      api.Module
	entry       api.Function
	handleInput api.Function
	memory      *Memory
	size        int
}

var (
	sigEntry       = signature{results: []api.ValueType{api.ValueTypeI32}}
	sigHandleInput = signature{params: []api.ValueType{api.ValueTypeI32}, results: []api.ValueType{api.ValueTypeI32}}
)

func (p *Program) resolve() error {
	p.entry = p.module.ExportedFunction(ExportEntry)
	if p.entry == nil {
		return errors.MissingExport(ExportEntry)
	}
	if err := sigEntry.check(ExportEntry, p.entry.Definition()); err != nil {
		return err
	}

	if fn := p.module.ExportedFunction(ExportHandleInput); fn != nil {
		if err := sigHandleInput.check(ExportHandleInput, fn.Definition()); err != nil {
			return err
		}
		p.handleInput = fn
	}

	// Module.Memory returns a non-nil interface around a nil instance when
	// the module has none, so the compiled exports decide.
	if len(p.compiled.ExportedMemories()) == 0 {
		return errors.New(errors.PhaseLoad, errors.KindProgramLoad).
			Path("memory").
			Detail("module exports no linear memory").
			Build()
	}
	p.memory = &Memory{mem: p.module.Memory()}
	return nil
}

// Entry calls entry() and returns the descriptor address.
func (p *Program) Entry(ctx context.Context) (uint32, error) {
	res, err := p.entry.Call(ctx)
	if err != nil {
		return 0, errors.Trap(errors.PhaseTick, ExportEntry, err)
	}
	return api.DecodeU32(res[0]), nil
}

// AcceptsInput reports whether the program exports handle_input.
func (p *Program) AcceptsInput() bool {
	return p.handleInput != nil
}

// HandleInput calls handle_input(n). A zero result means the program
// rejected the input; otherwise it is the address to copy n bytes into.
func (p *Program) HandleInput(ctx context.Context, n uint32) (uint32, error) {
	if p.handleInput == nil {
		return 0, errors.MissingExport(ExportHandleInput)
	}
	res, err := p.handleInput.Call(ctx, api.EncodeU32(n))
	if err != nil {
		return 0, errors.Trap(errors.PhaseInput, ExportHandleInput, err)
	}
	return api.DecodeU32(res[0]), nil
}

// Memory returns the program's linear memory.
func (p *Program) Memory() ledhost.Memory {
	return p.memory
}

// Close releases the instance and its compiled code.
func (p *Program) Close(ctx context.Context) error {
	err := p.module.Close(ctx)
	if cerr := p.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

func (s signature) check(name string, def api.FunctionDefinition) error {
	got := signature{params: def.ParamTypes(), results: def.ResultTypes()}
	if !equalTypes(got.params, s.params) || !equalTypes(got.results, s.results) {
		return errors.BadSignature(name, s.String(), got.String())
	}
	return nil
}

func (s signature) String() string {
	return "(" + typeList(s.params) + ") -> (" + typeList(s.results) + ")"
}

func typeList(ts []api.ValueType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
