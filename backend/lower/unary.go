package lower

import (
	"rcc/backend/asm"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/ir"
)

// lowerUnary lowers UnaryInst per §4.9. ZExt/SExt/Trunc/PtrToInt/IntToPtr
// are all register-width conversions the instruction set has no dedicated
// opcode for, so each lowers to a register move (Add result, operand, R0);
// PtrToInt/IntToPtr additionally carry the operand's pointer-bank metadata
// through to the result, since both sides name the same address.
func (c *Context) lowerUnary(inst ir.UnaryInst) error {
	resultName := naming.TempName(inst.Result.ID)

	switch inst.Op {
	case ir.Not:
		operandReg, operandName, err := c.resolveValuePinned(inst.Operand)
		if err != nil {
			return err
		}
		defer c.unpin(operandName)
		negOneName := c.Naming.ConstName(-1, c.Naming.NextOperationID())
		negOneReg, err := c.Mgr.Get(negOneName)
		if err != nil {
			return err
		}
		c.Mgr.Pin(negOneName)
		defer c.Mgr.Unpin(negOneName)
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Li{Rd: negOneReg, Imm: -1})
		rd, err := c.Mgr.Get(resultName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.NewXor(rd, operandReg, negOneReg))
		return nil
	case ir.Neg:
		operandReg, operandName, err := c.resolveValuePinned(inst.Operand)
		if err != nil {
			return err
		}
		defer c.unpin(operandName)
		rd, err := c.Mgr.Get(resultName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.NewSub(rd, regfile.R0, operandReg))
		return nil
	case ir.ZExt, ir.SExt, ir.Trunc, ir.PtrToInt, ir.IntToPtr:
		if pt, ok := inst.Operand.(ir.Temp); ok && (inst.Op == ir.PtrToInt || inst.Op == ir.IntToPtr) {
			if info, ok := c.Mgr.GetPointerBank(naming.TempName(pt.ID)); ok {
				c.Mgr.SetPointerBank(resultName, info)
			}
		}
		operandReg, operandName, err := c.resolveValuePinned(inst.Operand)
		if err != nil {
			return err
		}
		defer c.unpin(operandName)
		rd, err := c.Mgr.Get(resultName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.NewAdd(rd, operandReg, regfile.R0))
		return nil
	default:
		return rcerr.Unsupported("unknown unary op %s", inst.Op)
	}
}
