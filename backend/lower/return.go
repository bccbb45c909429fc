package lower

import (
	"rcc/backend/asm"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/ir"
)

// lowerReturn lowers ReturnInst per §4.8/§4.9: move the return value (if
// any) into RV0 (scalar) or RV0/RV1 (fat pointer: address, then bank),
// then jump to the function's shared epilogue.
func (c *Context) lowerReturn(inst ir.ReturnInst) error {
	if inst.Value != nil {
		isFatPtrReturn := false
		switch v := inst.Value.(type) {
		case ir.FatPtr:
			isFatPtrReturn = true
		case ir.Temp:
			_, isFatPtrReturn = c.Mgr.GetPointerBank(naming.TempName(v.ID))
		}
		if isFatPtrReturn {
			addrReg, info, ptrName, err := c.resolvePointerPinned(inst.Value)
			if err != nil {
				return err
			}
			defer c.unpin(ptrName)
			bankReg, err := c.bankRegOfPinned(info)
			if err != nil {
				return err
			}
			defer c.unpinBank(info)
			c.Buf.Emit(asm.NewAdd(regfile.RV0, addrReg, regfile.R0))
			c.Buf.Emit(asm.NewAdd(regfile.RV1, bankReg, regfile.R0))
			c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, c.Naming.EpilogueLabel()))
			return nil
		}
		valReg, err := c.resolveValue(inst.Value)
		if err != nil {
			return err
		}
		c.Buf.Emit(asm.NewAdd(regfile.RV0, valReg, regfile.R0))
	}
	c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, c.Naming.EpilogueLabel()))
	return nil
}
