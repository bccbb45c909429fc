// Package function implements the Function Builder (§4.7, §4.8): the
// encapsulated API that emits one function's complete assembly — prologue,
// parameter materialization, body, epilogue — by constructing a fresh
// Pressure Manager and Naming scope and handing each instruction to the
// Instruction Lowerer in order.
package function

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/global"
	"rcc/backend/lower"
	"rcc/backend/naming"
	"rcc/backend/pressure"
	"rcc/backend/regfile"
	"rcc/internal/rcopts"
	"rcc/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Builder emits one function's assembly into a shared Buffer.
type Builder struct {
	Opt     rcopts.Options
	Globals *global.Manager
	Banks   map[string]int // function name -> assigned code bank, module-wide.
}

// ---------------------
// ----- Functions -----
// ---------------------

// New returns a Builder sharing opt, globals and the module-wide bank table
// across every function it builds.
func New(opt rcopts.Options, globals *global.Manager, banks map[string]int) *Builder {
	return &Builder{Opt: opt, Globals: globals, Banks: banks}
}

// Build emits fn's label, prologue, parameter materialization, body and
// epilogue into buf, in that order. funcBank is this function's own assigned
// code bank (used by lower.Context to decide whether a call site it
// contains needs a PCB load). Callers skip external functions themselves;
// Build assumes fn has at least one block.
func (b *Builder) Build(fn *ir.Function, funcBank int, buf *asm.Buffer) error {
	localSlots := countAllocaWords(fn)

	mgr := pressure.New(b.Opt, localSlots)
	mgr.MarkStackBankInitialized() // crt0 initializes SB once, before any function runs (§4.8).
	nm := naming.New(fn.Name)

	ctx := &lower.Context{
		Mgr:      mgr,
		Naming:   nm,
		Buf:      buf,
		Globals:  b.Globals,
		Opt:      b.Opt,
		FuncName: fn.Name,
		FuncBank: funcBank,
		Banks:    b.Banks,
	}

	buf.Emit(asm.LabelRecord{Name: fn.Name})
	emitPrologue(buf, localSlots)
	if err := materializeParams(ctx, fn); err != nil {
		return err
	}

	for _, blk := range fn.Blocks {
		buf.Emit(asm.LabelRecord{Name: nm.BlockLabel(int(blk.ID))})
		for _, inst := range blk.Instructions {
			if err := ctx.Lower(inst); err != nil {
				return err
			}
		}
	}

	buf.Emit(asm.LabelRecord{Name: nm.EpilogueLabel()})
	emitEpilogue(buf)
	return nil
}

// countAllocaWords sums the frame space every AllocaInst in fn reserves,
// giving the local_slots count the Pressure Manager needs to place spill
// slots above the locals (§4.2, §4.5).
func countAllocaWords(fn *ir.Function) int {
	total := 0
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Instructions {
			a, ok := inst.(ir.AllocaInst)
			if !ok {
				continue
			}
			n := a.Count
			if n <= 0 {
				n = 1
			}
			words := a.Type.Words() * n
			if words <= 0 {
				words = 1
			}
			total += words
		}
	}
	return total
}

// emitPrologue emits the fixed entry sequence of §4.8: save RA and the
// caller's FP, establish the new FP, and (callee-saved set is empty, see
// regfile.CalleeSaved) grow SP by localSlots words over the frame's locals.
// The spill slots above the locals are not included in this adjustment.
func emitPrologue(buf *asm.Buffer, localSlots int) {
	buf.Emit(asm.Store{Rs: regfile.RA, BankReg: regfile.SB, AddrReg: regfile.SP})
	buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1})
	buf.Emit(asm.Store{Rs: regfile.FP, BankReg: regfile.SB, AddrReg: regfile.SP})
	buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1})
	buf.Emit(asm.NewAdd(regfile.FP, regfile.SP, regfile.R0))
	// regfile.CalleeSaved is empty: nothing to push here.
	if localSlots > 0 {
		buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: int16(localSlots)})
	}
}

// emitEpilogue emits the fixed exit sequence of §4.8: deallocate locals and
// spill slots, restore FP and RA, restore the caller's program bank, and
// return indirectly through RA.
func emitEpilogue(buf *asm.Buffer) {
	// regfile.CalleeSaved is empty: nothing to pop here.
	buf.Emit(asm.NewAdd(regfile.SP, regfile.FP, regfile.R0))
	buf.Emit(asm.Load{Rd: regfile.FP, BankReg: regfile.SB, AddrReg: regfile.SP})
	buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: -1})
	buf.Emit(asm.Load{Rd: regfile.RA, BankReg: regfile.SB, AddrReg: regfile.SP})
	buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: -1})
	buf.Emit(asm.NewAdd(regfile.PCB, regfile.RAB, regfile.R0))
	buf.Emit(asm.Jalr{LinkReg: regfile.R0, BankReg: regfile.R0, AddrReg: regfile.RA})
}

// materializeParams binds each of fn's parameters to its temp name per
// §4.7: load_parameter(i) emits AddI SC, FP, -(3+i) then Load(r, SB, SC). A
// fat-pointer parameter occupies two consecutive words (address closer to
// FP, then bank) and additionally registers a Register-kind BankInfo.
func materializeParams(ctx *lower.Context, fn *ir.Function) error {
	i := 0
	for _, p := range fn.Parameters {
		if p.Type.IsFatPtr() {
			if _, err := loadParamWord(ctx, naming.ParamName(p.TempID), i); err != nil {
				return err
			}
			bankReg, err := loadParamWord(ctx, ctx.Naming.ParamBankName(p.TempID), i+1)
			if err != nil {
				return err
			}
			ctx.Mgr.SetPointerBank(naming.ParamName(p.TempID), bank.NewRegister(bankReg))
			i += 2
			continue
		}
		if _, err := loadParamWord(ctx, naming.ParamName(p.TempID), i); err != nil {
			return err
		}
		i++
	}
	return nil
}

// loadParamWord materializes the single incoming-argument word at running
// word-offset i into a fresh register bound to name, emitting
// AddI SC, FP, -(3+i) then Load(r, SB, SC) (§4.7).
func loadParamWord(ctx *lower.Context, name string, i int) (regfile.Register, error) {
	r, err := ctx.Mgr.Get(name)
	if err != nil {
		return 0, err
	}
	ctx.Mgr.DrainInto(ctx.Buf)
	ctx.Buf.Emit(asm.AddI{Rd: regfile.SC, Rs: regfile.FP, Imm: int16(-(3 + i))})
	ctx.Buf.Emit(asm.Load{Rd: r, BankReg: regfile.SB, AddrReg: regfile.SC})
	return r, nil
}
