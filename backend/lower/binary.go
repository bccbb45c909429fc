package lower

import (
	"rcc/backend/asm"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/internal/rlog"
	"rcc/ir"
)

// operandNeed estimates the register pressure of materializing v in
// isolation, for the Sethi-Ullman-style ordering used by lowerBinary.
func operandNeed(v ir.Value) int {
	switch v.(type) {
	case ir.Undef:
		return 0
	case ir.FatPtr:
		return 2
	default:
		return 1
	}
}

// lowerBinary lowers BinaryInst per §4.9: operands are evaluated in
// descending order of estimated register need (swapping commutative
// operands when the right-hand side needs more registers than the left),
// then the op's instruction-selection rule applies.
func (c *Context) lowerBinary(inst ir.BinaryInst) error {
	lhs, rhs := inst.Lhs, inst.Rhs
	if inst.Op.IsCommutative() && operandNeed(rhs) > operandNeed(lhs) {
		lhs, rhs = rhs, lhs
	}

	lhsReg, lhsName, err := c.resolveValuePinned(lhs)
	if err != nil {
		return err
	}
	defer c.unpin(lhsName)

	rhsReg, rhsName, err := c.resolveValuePinned(rhs)
	if err != nil {
		return err
	}
	defer c.unpin(rhsName)

	resultName := naming.TempName(inst.Result.ID)
	rd, err := c.Mgr.Get(resultName)
	if err != nil {
		return err
	}
	c.Mgr.Pin(resultName)
	defer c.Mgr.Unpin(resultName)
	c.Mgr.DrainInto(c.Buf)

	switch inst.Op {
	case ir.Add:
		c.Buf.Emit(asm.NewAdd(rd, lhsReg, rhsReg))
	case ir.Sub:
		c.Buf.Emit(asm.NewSub(rd, lhsReg, rhsReg))
	case ir.Mul:
		c.Buf.Emit(asm.NewMul(rd, lhsReg, rhsReg))
	case ir.Div:
		c.Buf.Emit(asm.NewDiv(rd, lhsReg, rhsReg))
	case ir.Mod:
		c.Buf.Emit(asm.NewMod(rd, lhsReg, rhsReg))
	case ir.SDiv:
		rlog.Warnf("signed division at %s lowers to unsigned div", resultName)
		c.Buf.Emit(asm.NewDiv(rd, lhsReg, rhsReg))
	case ir.SRem:
		rlog.Warnf("signed remainder at %s lowers to unsigned mod", resultName)
		c.Buf.Emit(asm.NewMod(rd, lhsReg, rhsReg))
	case ir.And:
		c.Buf.Emit(asm.NewAnd(rd, lhsReg, rhsReg))
	case ir.Or:
		c.Buf.Emit(asm.NewOr(rd, lhsReg, rhsReg))
	case ir.Xor:
		c.Buf.Emit(asm.NewXor(rd, lhsReg, rhsReg))
	case ir.Sll:
		c.Buf.Emit(asm.NewSll(rd, lhsReg, rhsReg))
	case ir.Srl:
		c.Buf.Emit(asm.NewSrl(rd, lhsReg, rhsReg))
	case ir.AShr:
		rlog.Warnf("arithmetic shift right at %s lowers to logical srl", resultName)
		c.Buf.Emit(asm.NewSrl(rd, lhsReg, rhsReg))
	case ir.Slt:
		c.Buf.Emit(asm.NewSlt(rd, lhsReg, rhsReg))
	case ir.Sltu:
		c.Buf.Emit(asm.NewSltu(rd, lhsReg, rhsReg))
	case ir.Eq:
		return c.lowerEqNe(inst, rd, lhsReg, rhsReg, false)
	case ir.Ne:
		return c.lowerEqNe(inst, rd, lhsReg, rhsReg, true)
	case ir.Sle:
		return c.lowerLeGe(inst, rd, lhsReg, rhsReg, asm.NewSlt, c.Naming.SleTemp)
	case ir.Sge:
		return c.lowerLeGe(inst, rd, rhsReg, lhsReg, asm.NewSlt, c.Naming.SgeTemp)
	case ir.Ule:
		return c.lowerLeGe(inst, rd, lhsReg, rhsReg, asm.NewSltu, c.Naming.UleTemp)
	case ir.Uge:
		return c.lowerLeGe(inst, rd, rhsReg, lhsReg, asm.NewSltu, c.Naming.UgeTemp)
	case ir.Sgt:
		c.Buf.Emit(asm.NewSlt(rd, rhsReg, lhsReg))
	case ir.Ugt:
		c.Buf.Emit(asm.NewSltu(rd, rhsReg, lhsReg))
	default:
		return rcerr.Unsupported("unknown binary op %s", inst.Op)
	}
	return nil
}

// lowerEqNe lowers Eq/Ne per comparison.rs: Xor the operands, then Sltu
// against a materialized boundary value. Eq compares the xor against 1
// (result is 1 iff the xor is exactly zero); Ne compares a materialized 0
// against the xor (result is 1 iff the xor is nonzero).
func (c *Context) lowerEqNe(inst ir.BinaryInst, rd, lhsReg, rhsReg regfile.Register, invert bool) error {
	resultID := inst.Result.ID
	xorName := c.Naming.XorTemp(resultID)
	xorReg, err := c.Mgr.Get(xorName)
	if err != nil {
		return err
	}
	c.Mgr.Pin(xorName)
	defer c.Mgr.Unpin(xorName)
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.NewXor(xorReg, lhsReg, rhsReg))

	if invert {
		zeroName := c.Naming.ConstZero(resultID)
		zeroReg, err := c.Mgr.Get(zeroName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.Li{Rd: zeroReg, Imm: 0})
		c.Buf.Emit(asm.NewSltu(rd, zeroReg, xorReg))
		return nil
	}

	oneName := c.Naming.ConstOne(resultID)
	oneReg, err := c.Mgr.Get(oneName)
	if err != nil {
		return err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.Li{Rd: oneReg, Imm: 1})
	c.Buf.Emit(asm.NewSltu(rd, xorReg, oneReg))
	return nil
}

// lowerLeGe lowers Sle/Sge/Ule/Uge per comparison.rs: compute
// strict(b, a) with the given strict-less-than op (operands pre-swapped by
// the caller for Sge/Uge), then subtract from a materialized 1 so the
// result is 1 iff a <= b.
func (c *Context) lowerLeGe(inst ir.BinaryInst, rd, a, b regfile.Register, strictOp func(rd, rs, rt regfile.Register) asm.R3, scratchName func(int) string) error {
	resultID := inst.Result.ID
	sName := scratchName(resultID)
	sReg, err := c.Mgr.Get(sName)
	if err != nil {
		return err
	}
	c.Mgr.Pin(sName)
	defer c.Mgr.Unpin(sName)
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(strictOp(sReg, b, a))

	oneName := c.Naming.ConstOne(resultID)
	oneReg, err := c.Mgr.Get(oneName)
	if err != nil {
		return err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.Li{Rd: oneReg, Imm: 1})
	c.Buf.Emit(asm.NewSub(rd, oneReg, sReg))
	return nil
}
