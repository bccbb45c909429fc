// Package pressure provides the public register-pressure facade (§4.3)
// wrapping backend/regalloc: it exposes only value-name based operations,
// drains the allocator's pending instructions through a single
// TakeInstructions call the caller interleaves with its own emissions, and
// owns the local_slots count the allocator needs for spill-slot
// arithmetic.
package pressure

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/regalloc"
	"rcc/backend/regfile"
	"rcc/internal/rcopts"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Manager is the Pressure Manager: the only register-management type
// instruction lowerers and the Function Builder are handed.
type Manager struct {
	alloc      *regalloc.Allocator
	localSlots int
}

// ---------------------
// ----- Functions -----
// ---------------------

// New constructs a Manager for a function whose locals occupy localSlots
// words of its frame.
func New(opt rcopts.Options, localSlots int) *Manager {
	return &Manager{
		alloc:      regalloc.New(opt, localSlots),
		localSlots: localSlots,
	}
}

// LocalSlots returns the local-slot count this Manager was constructed with.
func (m *Manager) LocalSlots() int {
	return m.localSlots
}

// MarkStackBankInitialized records that SB has been initialized in the
// emitted program. Must be called once per function before any stack bank
// reference resolves (§4.8).
func (m *Manager) MarkStackBankInitialized() {
	m.alloc.MarkStackBankInitialized()
}

// Get returns the physical register bound to value name, allocating or
// reloading it if necessary.
func (m *Manager) Get(name string) (regfile.Register, error) {
	return m.alloc.Get(name)
}

// Free releases name's register binding.
func (m *Manager) Free(name string) {
	m.alloc.Free(name)
}

// Pin excludes name from spill victim selection.
func (m *Manager) Pin(name string) {
	m.alloc.Pin(name)
}

// Unpin re-admits name to spill victim selection.
func (m *Manager) Unpin(name string) {
	m.alloc.Unpin(name)
}

// FreeAllTemporaries drops all non-pinned, non-pointer-bank-tracked
// mappings. Call at statement boundaries (§4.2, §4.9).
func (m *Manager) FreeAllTemporaries() {
	m.alloc.FreeAllTemporaries()
}

// SetPointerBank registers BankInfo metadata for a pointer-producing
// value's name.
func (m *Manager) SetPointerBank(name string, info bank.Info) {
	m.alloc.SetPointerBank(name, info)
}

// GetPointerBank returns the registered BankInfo for name, if any.
func (m *Manager) GetPointerBank(name string) (bank.Info, bool) {
	return m.alloc.GetPointerBank(name)
}

// BankReg resolves a BankInfo to the physical register holding that bank
// number.
func (m *Manager) BankReg(info bank.Info) (regfile.Register, error) {
	return m.alloc.BankReg(info)
}

// TakeInstructions drains and returns the allocator's pending spill/reload
// records, for the caller to splice into its own emission in order.
func (m *Manager) TakeInstructions() []asm.Record {
	return m.alloc.TakeInstructions()
}

// DrainInto drains pending instructions directly into buf, in order. A thin
// convenience over TakeInstructions + buf.EmitAll used throughout the
// lowerer so every call site reads the same way.
func (m *Manager) DrainInto(buf *asm.Buffer) {
	buf.EmitAll(m.TakeInstructions())
}
