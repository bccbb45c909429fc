package lower

import (
	"rcc/backend/asm"
	"rcc/backend/regfile"
	"rcc/ir"
)

// lowerBranch lowers an unconditional BranchInst to "beq r0, r0, L"
// (§4.9), the instruction set's unconditional-jump idiom.
func (c *Context) lowerBranch(inst ir.BranchInst) error {
	label := c.Naming.BlockLabel(int(inst.Target))
	c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, label))
	return nil
}

// lowerBranchCond lowers BranchCondInst per §4.9: evaluate Cond, branch to
// TrueTarget if non-zero, else fall through to an unconditional jump to
// FalseTarget.
func (c *Context) lowerBranchCond(inst ir.BranchCondInst) error {
	condReg, err := c.resolveValue(inst.Cond)
	if err != nil {
		return err
	}
	trueLabel := c.Naming.BlockLabel(int(inst.TrueTarget))
	falseLabel := c.Naming.BlockLabel(int(inst.FalseTarget))
	c.Buf.Emit(asm.NewBne(condReg, regfile.R0, trueLabel))
	c.Buf.Emit(asm.NewBeq(regfile.R0, regfile.R0, falseLabel))
	return nil
}
