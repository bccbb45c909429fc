// Package lower implements the Instruction Lowerer (§4.9): per-IR-instruction
// selection rules translating load, store, gep, binary/unary ops, branch,
// inline-asm, alloca, call and return into typed assembly records.
package lower

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/global"
	"rcc/backend/naming"
	"rcc/backend/pressure"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/internal/rcopts"
	"rcc/internal/rlog"
	"rcc/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Context bundles everything a single IR instruction's lowering needs:
// the Pressure Manager, the function's Naming, the module's Global
// Manager, the shared output buffer, configuration, and the small amount
// of per-function state (alloca bump offset, this function's code bank,
// and the module-wide function->bank table used by cross-bank calls).
type Context struct {
	Mgr      *pressure.Manager
	Naming   *naming.Naming
	Buf      *asm.Buffer
	Globals  *global.Manager
	Opt      rcopts.Options
	FuncName string
	FuncBank int
	Banks    map[string]int // function name -> assigned code bank, module-wide.

	AllocaOffset int // Next free frame offset for Alloca, bumped per call.
}

// ---------------------
// ----- Functions -----
// ---------------------

// Lower dispatches inst to its selection rule by exhaustive type switch,
// then (per §4.2/§4.9) frees all non-pinned, non-pointer-tracked
// temporaries if inst is a statement boundary.
func (c *Context) Lower(inst ir.Instruction) error {
	var err error
	switch v := inst.(type) {
	case ir.AllocaInst:
		err = c.lowerAlloca(v)
	case ir.LoadInst:
		err = c.lowerLoad(v)
	case ir.StoreInst:
		err = c.lowerStore(v)
	case ir.GetElementPtrInst:
		err = c.lowerGEP(v)
	case ir.BinaryInst:
		err = c.lowerBinary(v)
	case ir.UnaryInst:
		err = c.lowerUnary(v)
	case ir.BranchInst:
		err = c.lowerBranch(v)
	case ir.BranchCondInst:
		err = c.lowerBranchCond(v)
	case ir.ReturnInst:
		err = c.lowerReturn(v)
	case ir.CallInst:
		err = c.lowerCall(v)
	case ir.InlineAsmInst:
		err = c.lowerInlineAsm(v)
	case ir.CommentInst:
		c.Buf.Emit(asm.Comment{Text: v.Text})
	default:
		return rcerr.Unsupported("unknown instruction kind %T", inst)
	}
	if err != nil {
		return err
	}
	if isStatementBoundary(inst) {
		c.Mgr.FreeAllTemporaries()
	}
	return nil
}

// isStatementBoundary reports whether free_all_temporaries runs after inst
// (§4.2, §4.9): Store, Call, Branch, BranchCond, Return.
func isStatementBoundary(inst ir.Instruction) bool {
	switch inst.(type) {
	case ir.StoreInst, ir.CallInst, ir.BranchInst, ir.BranchCondInst, ir.ReturnInst:
		return true
	default:
		return false
	}
}

// resolveValue materializes any scalar Value into a physical register,
// emitting whatever load/const-materialization code is needed. The
// returned register is NOT pinned: a later Get call for an unrelated name
// may spill it before it is consumed. Call sites that need the register to
// survive past another Get (almost every multi-operand lowering) must use
// resolveValuePinned instead and unpin when done.
func (c *Context) resolveValue(v ir.Value) (regfile.Register, error) {
	r, _, err := c.resolveValueNamed(v)
	return r, err
}

// resolveValuePinned is resolveValue, but pins the resolved name so it
// survives later Get calls until the caller unpins it (typically right
// after emitting the instruction that consumes the register). Returns ""
// if v has no pinnable backing name (never for the Value kinds this
// backend resolves through the allocator).
func (c *Context) resolveValuePinned(v ir.Value) (regfile.Register, string, error) {
	r, name, err := c.resolveValueNamed(v)
	if err != nil {
		return 0, "", err
	}
	if name != "" {
		c.Mgr.Pin(name)
	}
	return r, name, nil
}

// unpin re-admits name (if non-empty) to spill victim selection.
func (c *Context) unpin(name string) {
	if name != "" {
		c.Mgr.Unpin(name)
	}
}

func (c *Context) resolveValueNamed(v ir.Value) (regfile.Register, string, error) {
	switch val := v.(type) {
	case ir.Temp:
		name := naming.TempName(val.ID)
		r, err := c.Mgr.Get(name)
		c.Mgr.DrainInto(c.Buf)
		return r, name, err
	case ir.Constant:
		name := c.Naming.ConstName(val.Value, c.Naming.NextOperationID())
		r, err := c.Mgr.Get(name)
		if err != nil {
			return 0, "", err
		}
		c.Mgr.DrainInto(c.Buf)
		if val.Value < -32768 || val.Value > 65535 {
			rlog.Warnf("constant %d does not fit a 16-bit immediate and is truncated", val.Value)
		}
		c.Buf.Emit(asm.Li{Rd: r, Imm: int16(val.Value)})
		return r, name, nil
	case ir.Global:
		addr, ok := c.Globals.AddressOf(val.Name)
		if !ok {
			return 0, "", rcerr.Invalid("reference to undeclared global %q", val.Name)
		}
		name := c.Naming.LoadGlobalAddr(val.Name)
		r, err := c.Mgr.Get(name)
		if err != nil {
			return 0, "", err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Li{Rd: r, Imm: addr})
		return r, name, nil
	case ir.Undef:
		name := c.Naming.ConstName(0, c.Naming.NextOperationID())
		r, err := c.Mgr.Get(name)
		c.Mgr.DrainInto(c.Buf)
		return r, name, err
	case ir.FatPtr:
		r, _, name, err := c.resolvePointerNamed(val)
		return r, name, err
	default:
		return 0, "", rcerr.Unsupported("value %T cannot be resolved to a scalar register", v)
	}
}

// resolvePointer materializes a pointer-typed Value's address register and
// resolves its BankInfo, per §4.6. As with resolveValue, the returned
// register is not pinned; use resolvePointerPinned where the register must
// survive a later Get.
func (c *Context) resolvePointer(v ir.Value) (regfile.Register, bank.Info, error) {
	r, info, _, err := c.resolvePointerNamed(v)
	return r, info, err
}

// resolvePointerPinned is resolvePointer, pinning the resolved address
// register's backing name until the caller calls unpin.
func (c *Context) resolvePointerPinned(v ir.Value) (regfile.Register, bank.Info, string, error) {
	r, info, name, err := c.resolvePointerNamed(v)
	if err != nil {
		return 0, bank.Info{}, "", err
	}
	if name != "" {
		c.Mgr.Pin(name)
	}
	return r, info, name, nil
}

func (c *Context) resolvePointerNamed(v ir.Value) (regfile.Register, bank.Info, string, error) {
	switch val := v.(type) {
	case ir.FatPtr:
		addrReg, name, err := c.resolveValueNamed(val.Addr)
		if err != nil {
			return 0, bank.Info{}, "", err
		}
		info, ok := bank.FromTag(val.Bank)
		if !ok {
			return 0, bank.Info{}, "", rcerr.Invalid("literal fat-pointer value with runtime-determined (Mixed) bank tag")
		}
		return addrReg, info, name, nil
	case ir.Temp:
		name := naming.TempName(val.ID)
		addrReg, err := c.Mgr.Get(name)
		if err != nil {
			return 0, bank.Info{}, "", err
		}
		c.Mgr.DrainInto(c.Buf)
		info, ok := c.Mgr.GetPointerBank(name)
		if !ok {
			return 0, bank.Info{}, "", rcerr.Invalid("pointer-typed temp %q has no registered bank metadata", name)
		}
		return addrReg, info, name, nil
	case ir.Global:
		addrReg, name, err := c.resolveValueNamed(val)
		if err != nil {
			return 0, bank.Info{}, "", err
		}
		return addrReg, bank.Info{Kind: bank.Global}, name, nil
	default:
		return 0, bank.Info{}, "", rcerr.Unsupported("value %T is not a valid pointer operand", v)
	}
}

// bankRegOf resolves info to its physical register and drains any
// materialization instructions into c.Buf.
func (c *Context) bankRegOf(info bank.Info) (regfile.Register, error) {
	r, err := c.Mgr.BankReg(info)
	if err != nil {
		return 0, err
	}
	c.Mgr.DrainInto(c.Buf)
	return r, nil
}

// bankRegOfPinned is bankRegOf, pinning a Dynamic bank's backing name (the
// only bank.Info kind BankReg resolves through a named allocator slot)
// until the caller calls unpinBank.
func (c *Context) bankRegOfPinned(info bank.Info) (regfile.Register, error) {
	r, err := c.bankRegOf(info)
	if err != nil {
		return 0, err
	}
	if info.Kind == bank.Dynamic {
		c.Mgr.Pin(info.Name)
	}
	return r, nil
}

// unpinBank reverses bankRegOfPinned.
func (c *Context) unpinBank(info bank.Info) {
	if info.Kind == bank.Dynamic {
		c.Mgr.Unpin(info.Name)
	}
}
