package lower

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/internal/rlog"
	"rcc/ir"
)

// lowerLoad lowers LoadInst per §4.9: a scalar load is a single Load
// record; a fat-pointer load reads the address word and the bank-tag word
// and registers the result's BankInfo from the tag. The instruction set
// has no 32-bit arithmetic, so an I32 load reads only the low word and
// warns that the high word is not modeled.
func (c *Context) lowerLoad(inst ir.LoadInst) error {
	addrReg, ptrInfo, ptrName, err := c.resolvePointerPinned(inst.Ptr)
	if err != nil {
		return err
	}
	defer c.unpin(ptrName)
	bankReg, err := c.bankRegOfPinned(ptrInfo)
	if err != nil {
		return err
	}
	defer c.unpinBank(ptrInfo)

	resultName := naming.TempName(inst.Result.ID)

	switch inst.Type.Kind {
	case ir.I64:
		return rcerr.Unsupported("I64 memory operations are not supported")
	case ir.FatPtrKind:
		addrDst, err := c.Mgr.Get(resultName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Load{Rd: addrDst, BankReg: bankReg, AddrReg: addrReg})

		// tagReg must be allocated before SC is computed: Get may itself
		// spill/reload through SC, which would clobber the address we are
		// about to compute into it.
		tagName := c.Naming.LoadTagName(inst.Result.ID)
		tagReg, err := c.Mgr.Get(tagName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.AddI{Rd: regfile.SC, Rs: addrReg, Imm: 1})
		c.Buf.Emit(asm.Load{Rd: tagReg, BankReg: bankReg, AddrReg: regfile.SC})
		c.Mgr.Pin(tagName)
		defer c.Mgr.Unpin(tagName)

		decoded, err := c.decodeBankTag(inst.Result.ID, tagReg)
		if err != nil {
			return err
		}
		c.Mgr.SetPointerBank(resultName, decoded)
		return nil
	case ir.I32:
		rlog.Warnf("i32 load at %s truncates to its low word: no 32-bit arithmetic is modeled", resultName)
		r, err := c.Mgr.Get(resultName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Load{Rd: r, BankReg: bankReg, AddrReg: addrReg})
		return nil
	default:
		r, err := c.Mgr.Get(resultName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Load{Rd: r, BankReg: bankReg, AddrReg: addrReg})
		return nil
	}
}

// decodeBankTag realizes bank.Decode's case breakdown (§3, §4.9) for a
// bank-tag word that was just loaded into tagReg at runtime: its value is
// not known until the program executes, so the decode is a runtime branch
// rather than a compile-time switch. EncodeGlobal selects GP, EncodeStack
// selects SB; every other value (a dynamic bank address, or the
// EncodeNull sentinel a caller must not dereference) is the bank number
// itself and is copied through unchanged. All three paths converge on one
// register that, on every path, holds the physical bank number a
// subsequent Load/Store's BankReg operand expects.
func (c *Context) decodeBankTag(resultID int, tagReg regfile.Register) (bank.Info, error) {
	bankName := c.Naming.LoadBankName(resultID)
	bankReg, err := c.Mgr.Get(bankName)
	if err != nil {
		return bank.Info{}, err
	}
	c.Mgr.Pin(bankName)
	defer c.Mgr.Unpin(bankName)
	c.Mgr.DrainInto(c.Buf)

	globalName := c.Naming.ConstName(bank.EncodeGlobal, c.Naming.NextOperationID())
	globalConst, err := c.Mgr.Get(globalName)
	if err != nil {
		return bank.Info{}, err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.Li{Rd: globalConst, Imm: int16(bank.EncodeGlobal)})

	stackName := c.Naming.ConstName(bank.EncodeStack, c.Naming.NextOperationID())
	stackConst, err := c.Mgr.Get(stackName)
	if err != nil {
		return bank.Info{}, err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.Li{Rd: stackConst, Imm: int16(bank.EncodeStack)})

	isGlobalLabel := c.Naming.LoadIsGlobalLabel(resultID)
	isStackLabel := c.Naming.LoadIsStackLabel(resultID)
	doneLabel := c.Naming.LoadDecodeDoneLabel(resultID)

	c.Buf.Emit(asm.NewBeq(tagReg, globalConst, isGlobalLabel))
	c.Buf.Emit(asm.NewBeq(tagReg, stackConst, isStackLabel))

	c.Buf.Emit(asm.NewAdd(bankReg, tagReg, regfile.R0))
	c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, doneLabel))

	c.Buf.Emit(asm.LabelRecord{Name: isGlobalLabel})
	c.Buf.Emit(asm.NewAdd(bankReg, regfile.GP, regfile.R0))
	c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, doneLabel))

	c.Buf.Emit(asm.LabelRecord{Name: isStackLabel})
	c.Buf.Emit(asm.NewAdd(bankReg, regfile.SB, regfile.R0))

	c.Buf.Emit(asm.LabelRecord{Name: doneLabel})
	return bank.NewRegister(bankReg), nil
}
