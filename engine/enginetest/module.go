// Package enginetest assembles small core wasm modules for tests. It is a
// test helper only: the encoder writes just the type, function, memory,
// export, code and data sections these guests need, with no validation
// beyond what wazero does at compile time.
//
// Guests are built from constant-returning exports, traps and data
// segments, which is all the host/guest ABI needs to be exercised:
//
//	wasm := enginetest.New().
//		Data(64, []byte{0, 5, 9, 10, 20, 30}).
//		Entry(64).
//		Bytes()
package enginetest

import "bytes"

// Value types.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
)

// Instructions used by the builders.
const (
	OpUnreachable byte = 0x00
	OpEnd         byte = 0x0b
	OpI32Const    byte = 0x41
)

const (
	sectionType     byte = 1
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11

	exportFunc   byte = 0x00
	exportMemory byte = 0x02
	funcTypeByte byte = 0x60
)

type function struct {
	name    string
	params  []byte
	results []byte
	body    []byte
}

type segment struct {
	offset uint32
	data   []byte
}

// Module is a module under construction.
type Module struct {
	funcs  []function
	data   []segment
	pages  uint32
	memory bool
}

// New starts a module with one exported page of memory.
func New() *Module {
	return &Module{pages: 1, memory: true}
}

// Pages sets the memory size in 64KiB pages.
func (m *Module) Pages(n uint32) *Module {
	m.pages = n
	return m
}

// NoMemory omits the memory section.
func (m *Module) NoMemory() *Module {
	m.memory = false
	return m
}

// Data adds an active data segment at offset.
func (m *Module) Data(offset uint32, data []byte) *Module {
	m.data = append(m.data, segment{offset: offset, data: data})
	return m
}

// Func adds an exported function. body excludes the trailing end opcode.
func (m *Module) Func(name string, params, results []byte, body ...byte) *Module {
	m.funcs = append(m.funcs, function{name: name, params: params, results: results, body: body})
	return m
}

// Entry adds entry() -> i32 returning addr.
func (m *Module) Entry(addr uint32) *Module {
	return m.Func("entry", nil, []byte{I32}, I32Const(int32(addr))...)
}

// TrappingEntry adds entry() -> i32 that traps.
func (m *Module) TrappingEntry() *Module {
	return m.Func("entry", nil, []byte{I32}, OpUnreachable)
}

// HandleInput adds handle_input(i32) -> i32 returning addr.
func (m *Module) HandleInput(addr uint32) *Module {
	return m.Func("handle_input", []byte{I32}, []byte{I32}, I32Const(int32(addr))...)
}

// I32Const encodes i32.const v.
func I32Const(v int32) []byte {
	w := &writer{}
	w.writeByte(OpI32Const)
	w.s32(v)
	return w.Bytes()
}

// Bytes encodes the module. Sections are emitted in the order the binary
// format requires; empty ones are omitted.
func (m *Module) Bytes() []byte {
	w := &writer{}
	w.write([]byte{0x00, 0x61, 0x73, 0x6d})
	w.write([]byte{0x01, 0x00, 0x00, 0x00})

	if len(m.funcs) > 0 {
		// One type per function keeps indices trivial.
		sec := &writer{}
		sec.u32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			sec.writeByte(funcTypeByte)
			sec.vec(f.params)
			sec.vec(f.results)
		}
		w.section(sectionType, sec.Bytes())

		sec = &writer{}
		sec.u32(uint32(len(m.funcs)))
		for i := range m.funcs {
			sec.u32(uint32(i))
		}
		w.section(sectionFunction, sec.Bytes())
	}

	if m.memory {
		sec := &writer{}
		sec.u32(1)
		sec.writeByte(0x00)
		sec.u32(m.pages)
		w.section(sectionMemory, sec.Bytes())
	}

	exports := len(m.funcs)
	if m.memory {
		exports++
	}
	if exports > 0 {
		sec := &writer{}
		sec.u32(uint32(exports))
		for i, f := range m.funcs {
			sec.name(f.name)
			sec.writeByte(exportFunc)
			sec.u32(uint32(i))
		}
		if m.memory {
			sec.name("memory")
			sec.writeByte(exportMemory)
			sec.u32(0)
		}
		w.section(sectionExport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			code := &writer{}
			code.u32(0) // no locals
			code.write(f.body)
			code.writeByte(OpEnd)
			sec.vec(code.Bytes())
		}
		w.section(sectionCode, sec.Bytes())
	}

	if len(m.data) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.data)))
		for _, d := range m.data {
			sec.u32(0) // active, memory 0
			sec.write(I32Const(int32(d.offset)))
			sec.writeByte(OpEnd)
			sec.vec(d.data)
		}
		w.section(sectionData, sec.Bytes())
	}

	return w.Bytes()
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *writer) writeByte(b byte) {
	w.buf.WriteByte(b)
}

func (w *writer) write(p []byte) {
	w.buf.Write(p)
}

// u32 writes an unsigned LEB128 value.
func (w *writer) u32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// s32 writes a signed LEB128 value.
func (w *writer) s32(v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

func (w *writer) vec(p []byte) {
	w.u32(uint32(len(p)))
	w.write(p)
}

func (w *writer) name(s string) {
	w.vec([]byte(s))
}

func (w *writer) section(id byte, payload []byte) {
	w.writeByte(id)
	w.vec(payload)
}
