// Package regalloc implements the register allocator of §4.2: a map from
// symbolic value names to physical registers, LRU spill/reload, pinning,
// and spill-slot management within the current stack frame. It is not
// exported directly to instruction lowerers; backend/pressure wraps it
// with the narrower, value-name-only facade described in §4.3.
package regalloc

import (
	"strconv"

	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/internal/rcopts"
	"rcc/internal/rlog"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Allocator is the register allocator's mutable state: the live
// name<->register binding, LRU timestamps, the pin set, spill slot
// assignments and the pending instruction buffer drained by the caller.
type Allocator struct {
	opt rcopts.Options

	nameToReg map[string]regfile.Register
	regToName map[regfile.Register]string
	lru       map[regfile.Register]int
	clock     int

	pinned      map[string]bool
	pointerBank map[string]bank.Info

	localSlots int
	spillSlot  map[string]int
	nextSlot   int

	sbInitialized bool

	pending []asm.Record
}

// ---------------------
// ----- Constants -----
// ---------------------

// maxSpillSlots bounds the spill-slot range reserved in a function's stack
// frame (§7, ResourceExhausted).
const maxSpillSlots = 4096

// ---------------------
// ----- Functions -----
// ---------------------

// New returns an Allocator for a function whose locals occupy localSlots
// words of its frame below the spill-slot range.
func New(opt rcopts.Options, localSlots int) *Allocator {
	return &Allocator{
		opt:         opt,
		nameToReg:   make(map[string]regfile.Register),
		regToName:   make(map[regfile.Register]string),
		lru:         make(map[regfile.Register]int),
		pinned:      make(map[string]bool),
		pointerBank: make(map[string]bank.Info),
		localSlots:  localSlots,
		spillSlot:   make(map[string]int),
	}
}

// MarkStackBankInitialized records that SB has been initialized in the
// emitted program (by crt0, before any function body runs; the allocator
// never emits that initialization itself, §4.8 note). BankReg(Stack) fails
// until this has been called.
func (a *Allocator) MarkStackBankInitialized() {
	a.sbInitialized = true
}

// touch bumps register r's LRU timestamp to "most recently used".
func (a *Allocator) touch(r regfile.Register) {
	a.clock++
	a.lru[r] = a.clock
}

// freeReg returns an unused allocatable register, or ok=false if none is
// free.
func (a *Allocator) freeReg() (regfile.Register, bool) {
	for _, r := range regfile.Allocatable {
		if _, busy := a.regToName[r]; !busy {
			return r, true
		}
	}
	return 0, false
}

// selectVictim picks the spill victim per §4.2: scan the allocatable set in
// fixed order; prefer an unpinned register whose value has no registered
// pointer-bank metadata; within a preference tier, the smallest LRU
// timestamp wins, ties broken by register index (guaranteed by scan order).
func (a *Allocator) selectVictim() (regfile.Register, bool) {
	var bestNoMeta, bestMeta regfile.Register
	var bestNoMetaLRU, bestMetaLRU int
	haveNoMeta, haveMeta := false, false

	for _, r := range regfile.Allocatable {
		name, busy := a.regToName[r]
		if !busy || a.pinned[name] {
			continue
		}
		_, hasMeta := a.pointerBank[name]
		lru := a.lru[r]
		if !hasMeta {
			if !haveNoMeta || lru < bestNoMetaLRU {
				bestNoMeta, bestNoMetaLRU, haveNoMeta = r, lru, true
			}
		} else {
			if !haveMeta || lru < bestMetaLRU {
				bestMeta, bestMetaLRU, haveMeta = r, lru, true
			}
		}
	}

	if haveNoMeta {
		return bestNoMeta, true
	}
	if haveMeta {
		return bestMeta, true
	}
	return 0, false
}

// slotOffset returns the frame offset above FP for spill slot index i
// (§4.2: slot i lives at offset local_slots + i above FP).
func (a *Allocator) slotOffset(i int) int16 {
	return int16(a.localSlots + i)
}

// slotFor returns name's spill slot index, assigning the next free slot if
// name has none yet.
func (a *Allocator) slotFor(name string) (int, error) {
	if slot, ok := a.spillSlot[name]; ok {
		return slot, nil
	}
	if a.nextSlot >= maxSpillSlots {
		return 0, rcerr.Exhausted("spill slot count exceeds reserved frame range (%d)", maxSpillSlots)
	}
	slot := a.nextSlot
	a.nextSlot++
	a.spillSlot[name] = slot
	return slot, nil
}

// spillVictim evicts the value currently held by victim into its spill
// slot, emitting the scratch-address-then-store sequence, and frees victim.
func (a *Allocator) spillVictim(victim regfile.Register) error {
	name := a.regToName[victim]
	slot, err := a.slotFor(name)
	if err != nil {
		return err
	}
	off := a.slotOffset(slot)
	a.pending = append(a.pending, asm.AddI{Rd: regfile.SC, Rs: regfile.FP, Imm: off})
	a.pending = append(a.pending, asm.Store{Rs: victim, BankReg: regfile.SB, AddrReg: regfile.SC})
	if a.opt.TraceSpills {
		a.pending = append(a.pending, asm.Comment{Text: "spill " + name + " to slot " + strconv.Itoa(slot)})
		rlog.Tracef("spill %s (%s) to slot %d", name, victim, slot)
	}
	delete(a.regToName, victim)
	delete(a.nameToReg, name)
	return nil
}

// reload loads name's value from its spill slot into reg.
func (a *Allocator) reload(name string, reg regfile.Register) error {
	slot, ok := a.spillSlot[name]
	if !ok {
		return nil // Never spilled: fresh allocation, nothing to reload.
	}
	off := a.slotOffset(slot)
	a.pending = append(a.pending, asm.AddI{Rd: regfile.SC, Rs: regfile.FP, Imm: off})
	a.pending = append(a.pending, asm.Load{Rd: reg, BankReg: regfile.SB, AddrReg: regfile.SC})
	if a.opt.TraceSpills {
		a.pending = append(a.pending, asm.Comment{Text: "reload " + name + " from slot " + strconv.Itoa(slot)})
		rlog.Tracef("reload %s (%s) from slot %d", name, reg, slot)
	}
	return nil
}

// Get returns the physical register currently (or newly) bound to name,
// spilling an LRU victim and reloading name from its slot if necessary
// (§4.2).
func (a *Allocator) Get(name string) (regfile.Register, error) {
	if r, ok := a.nameToReg[name]; ok {
		a.touch(r)
		return r, nil
	}

	r, ok := a.freeReg()
	if !ok {
		victim, ok := a.selectVictim()
		if !ok {
			return 0, rcerr.Exhausted("no unpinned register available to spill for %q", name)
		}
		if err := a.spillVictim(victim); err != nil {
			return 0, err
		}
		r = victim
	}

	if err := a.reload(name, r); err != nil {
		return 0, err
	}

	a.nameToReg[name] = r
	a.regToName[r] = name
	a.touch(r)
	return r, nil
}

// Free releases name's register binding. The value's spill slot (if any)
// is retained: slots are never reclaimed within a function (§4.2).
func (a *Allocator) Free(name string) {
	if r, ok := a.nameToReg[name]; ok {
		delete(a.nameToReg, name)
		delete(a.regToName, r)
	}
}

// Pin excludes name from spill victim selection.
func (a *Allocator) Pin(name string) {
	a.pinned[name] = true
}

// Unpin re-admits name to spill victim selection.
func (a *Allocator) Unpin(name string) {
	delete(a.pinned, name)
}

// FreeAllTemporaries drops all non-pinned, non-pointer-bank-tracked
// mappings, freeing their registers. Called at statement boundaries: after
// Store, Call, Branch, BranchCond and Return (§4.2, §4.9).
func (a *Allocator) FreeAllTemporaries() {
	for name, r := range a.nameToReg {
		if a.pinned[name] {
			continue
		}
		if _, tracked := a.pointerBank[name]; tracked {
			continue
		}
		delete(a.nameToReg, name)
		delete(a.regToName, r)
	}
}

// SetPointerBank registers the BankInfo metadata for a pointer-producing
// value's name.
func (a *Allocator) SetPointerBank(name string, info bank.Info) {
	a.pointerBank[name] = info
}

// GetPointerBank returns the registered BankInfo for name, if any.
func (a *Allocator) GetPointerBank(name string) (bank.Info, bool) {
	info, ok := a.pointerBank[name]
	return info, ok
}

// BankReg resolves a BankInfo to the physical register holding that bank
// number, materializing a Dynamic binding on demand via Get. A Dynamic name
// that is neither bound to a register nor spilled is an invariant violation.
func (a *Allocator) BankReg(info bank.Info) (regfile.Register, error) {
	switch info.Kind {
	case bank.Global:
		return regfile.GP, nil
	case bank.Stack:
		if !a.sbInitialized {
			return 0, rcerr.Invariant("SB requested before the stack bank was initialized")
		}
		return regfile.SB, nil
	case bank.RegisterKind:
		return info.Reg, nil
	case bank.Dynamic:
		_, bound := a.nameToReg[info.Name]
		_, spilled := a.spillSlot[info.Name]
		if !bound && !spilled {
			return 0, rcerr.Invariant("dynamic bank name %q is unknown to the allocator", info.Name)
		}
		return a.Get(info.Name)
	default:
		return 0, rcerr.Invariant("unknown bank info kind %v", info.Kind)
	}
}

// TakeInstructions drains and returns the pending spill/reload instruction
// buffer, in emission order.
func (a *Allocator) TakeInstructions() []asm.Record {
	out := a.pending
	a.pending = nil
	return out
}

