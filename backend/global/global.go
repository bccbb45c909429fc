// Package global implements the Global Manager (§4.5): address assignment
// for module globals in the global-bank arena, and emission of the
// _init_globals routine for the main module only.
package global

import (
	"strconv"

	"rcc/backend/asm"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Manager assigns addresses to every GlobalVariable in a Module and emits
// the module's global-initialization code.
type Manager struct {
	addrs map[string]int16
	next  int16
}

// ---------------------
// ----- Constants -----
// ---------------------

// arenaStart is the fixed offset the global-bank arena is bump-allocated
// from.
const arenaStart int16 = 0

// labelInitGlobals is the reserved symbol (§6) emitted only in the main module.
const labelInitGlobals = "_init_globals"

// ---------------------
// ----- Functions -----
// ---------------------

// New returns an empty Manager.
func New() *Manager {
	return &Manager{addrs: make(map[string]int16), next: arenaStart}
}

// Assign bump-allocates address space for g and returns its address.
// Re-assigning an already-assigned name returns its existing address.
func (m *Manager) Assign(g *ir.GlobalVariable) int16 {
	if addr, ok := m.addrs[g.Name]; ok {
		return addr
	}
	addr := m.next
	m.addrs[g.Name] = addr
	words := g.Type.Words()
	if words == 0 {
		words = 1
	}
	m.next += int16(words)
	return addr
}

// AddressOf returns the assigned address of the named global.
func (m *Manager) AddressOf(name string) (int16, bool) {
	addr, ok := m.addrs[name]
	return addr, ok
}

// Lower assigns addresses to every global in mod, then emits either the
// full _init_globals routine (main module, identified by a function named
// "main") or comment-only annotations (library modules; the linker
// arranges for _init_globals to run before main).
func (m *Manager) Lower(mod *ir.Module, buf *asm.Buffer) error {
	for _, g := range mod.Globals {
		m.Assign(g)
	}

	if !mod.IsMain() {
		for _, g := range mod.Globals {
			addr, _ := m.AddressOf(g.Name)
			buf.Emit(asm.Comment{Text: globalAnnotation(g, addr)})
		}
		return nil
	}

	buf.Emit(asm.LabelRecord{Name: labelInitGlobals})
	for _, g := range mod.Globals {
		if g.Initializer == nil {
			continue // BSS: no initialization code required.
		}
		if err := m.lowerInit(g, buf); err != nil {
			return err
		}
	}
	buf.Emit(asm.Ret{})
	return nil
}

// lowerInit emits the store sequence materializing g's initializer at its
// assigned address, using GP as the bank register throughout (§4.5).
func (m *Manager) lowerInit(g *ir.GlobalVariable, buf *asm.Buffer) error {
	addr, ok := m.AddressOf(g.Name)
	if !ok {
		return rcerr.Invariant("global %q has no assigned address", g.Name)
	}

	valueReg, addrReg := regfile.A0, regfile.A1

	switch init := g.Initializer.(type) {
	case ir.Constant:
		buf.Emit(asm.Li{Rd: valueReg, Imm: int16(init.Value)})
		buf.Emit(asm.Li{Rd: addrReg, Imm: addr})
		buf.Emit(asm.Store{Rs: valueReg, BankReg: regfile.GP, AddrReg: addrReg})
	case ir.ConstantArray:
		for i, v := range init.Values {
			buf.Emit(asm.Li{Rd: valueReg, Imm: int16(v)})
			buf.Emit(asm.Li{Rd: addrReg, Imm: addr + int16(i)})
			buf.Emit(asm.Store{Rs: valueReg, BankReg: regfile.GP, AddrReg: addrReg})
		}
	default:
		return rcerr.Unsupported("global %q has an unsupported initializer kind", g.Name)
	}
	return nil
}

// globalAnnotation formats the comment a library module emits in place of
// real initialization code.
func globalAnnotation(g *ir.GlobalVariable, addr int16) string {
	return "global " + g.Name + " at " + strconv.Itoa(int(addr)) + " (" + g.Linkage.String() + ")"
}

