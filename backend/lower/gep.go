package lower

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/ir"
)

// lowerGEP lowers GetElementPtrInst per §4.9 and the gep_fix.rs
// bank-overflow sketch. Only single-index GEPs are supported (§1
// Non-goals excludes multi-dimensional dynamic indexing); the element
// offset is index*pointee_words. A Global/Stack base pointer stays
// confined to its bank regardless of offset magnitude (the "simpler
// implementation" the spec explicitly allows). A Register/Dynamic base
// whose offset is a compile-time constant at or beyond the configured
// bank size requires a runtime check: values already in the stack bank
// are left alone, all others have their bank register bumped by the
// constant's bank-size quotient.
func (c *Context) lowerGEP(inst ir.GetElementPtrInst) error {
	if len(inst.Indices) != 1 {
		return rcerr.Unsupported("multi-index getelementptr is not supported")
	}

	elemWords := inst.Pointee.Words()
	if elemWords <= 0 {
		elemWords = 1
	}

	index := inst.Indices[0]
	constIdx, isConst := index.(ir.Constant)

	baseAddrReg, baseInfo, baseName, err := c.resolvePointerPinned(inst.Ptr)
	if err != nil {
		return err
	}
	defer c.unpin(baseName)

	var offsetReg regfile.Register
	var offsetName string
	resultName := naming.TempName(inst.Result.ID)
	opID := c.Naming.NextOperationID()

	if isConst {
		offsetVal := constIdx.Value * int64(elemWords)
		offsetName = c.Naming.ConstName(offsetVal, opID)
		offsetReg, err = c.Mgr.Get(offsetName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Li{Rd: offsetReg, Imm: int16(offsetVal)})
	} else {
		indexReg, indexName, err := c.resolveValuePinned(index)
		if err != nil {
			return err
		}
		defer c.unpin(indexName)
		if elemWords == 1 {
			offsetReg = indexReg
		} else {
			scaleName := c.Naming.ConstName(int64(elemWords), opID)
			scaleReg, err := c.Mgr.Get(scaleName)
			if err != nil {
				return err
			}
			c.Mgr.DrainInto(c.Buf)
			c.Buf.Emit(asm.Li{Rd: scaleReg, Imm: int16(elemWords)})
			offsetName = resultName + ".offset"
			offsetReg, err = c.Mgr.Get(offsetName)
			if err != nil {
				return err
			}
			c.Mgr.DrainInto(c.Buf)
			c.Buf.Emit(asm.NewMul(offsetReg, indexReg, scaleReg))
		}
	}
	if offsetName != "" {
		c.Mgr.Pin(offsetName)
		defer c.Mgr.Unpin(offsetName)
	}

	rd, err := c.Mgr.Get(resultName)
	if err != nil {
		return err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.NewAdd(rd, baseAddrReg, offsetReg))

	if baseInfo.IsStatic() {
		c.Mgr.SetPointerBank(resultName, baseInfo)
		return nil
	}

	if !isConst || constIdx.Value*int64(elemWords) < int64(c.Opt.Normalize().BankSize) {
		c.Mgr.SetPointerBank(resultName, baseInfo)
		return nil
	}

	return c.lowerGEPBankOverflow(inst, resultName, baseInfo, constIdx.Value*int64(elemWords))
}

// lowerGEPBankOverflow emits the runtime bank-identity check a constant
// offset at or beyond one bank's width requires: on the stack-confined
// path the bank register is copied through unchanged; on every other path
// it is bumped by offset/bank_size banks.
func (c *Context) lowerGEPBankOverflow(inst ir.GetElementPtrInst, resultName string, baseInfo bank.Info, offset int64) error {
	bankSize := int64(c.Opt.Normalize().BankSize)
	baseBankReg, err := c.bankRegOfPinned(baseInfo)
	if err != nil {
		return err
	}
	defer c.unpinBank(baseInfo)

	newBankName := c.Naming.GepNewBank(inst.Result.ID)
	newBankReg, err := c.Mgr.Get(newBankName)
	if err != nil {
		return err
	}
	c.Mgr.Pin(newBankName)
	defer c.Mgr.Unpin(newBankName)
	c.Mgr.DrainInto(c.Buf)

	isStackLabel := c.Naming.GepIsStackLabel(inst.Result.ID)
	notStackLabel := c.Naming.GepNotStackLabel(inst.Result.ID)

	c.Buf.Emit(asm.NewBeq(baseBankReg, regfile.SB, isStackLabel))

	delta := offset / bankSize
	deltaName := c.Naming.ConstName(delta, c.Naming.NextOperationID())
	deltaReg, err := c.Mgr.Get(deltaName)
	if err != nil {
		return err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.Li{Rd: deltaReg, Imm: int16(delta)})
	c.Buf.Emit(asm.NewAdd(newBankReg, baseBankReg, deltaReg))
	c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, notStackLabel))

	c.Buf.Emit(asm.LabelRecord{Name: isStackLabel})
	c.Buf.Emit(asm.NewAdd(newBankReg, regfile.SB, regfile.R0))

	c.Buf.Emit(asm.LabelRecord{Name: notStackLabel})
	c.Mgr.SetPointerBank(resultName, bank.NewRegister(newBankReg))
	return nil
}
