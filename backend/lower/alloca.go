package lower

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/ir"
)

// lowerAlloca reserves Count*Type.Words() words of frame space at the
// function's current alloca offset and binds Result to the resulting
// stack address (§4.9, §4.5): AddI result, FP, offset.
func (c *Context) lowerAlloca(inst ir.AllocaInst) error {
	n := inst.Count
	if n <= 0 {
		n = 1
	}
	words := inst.Type.Words() * n
	if words <= 0 {
		words = 1
	}

	offset := c.AllocaOffset
	c.AllocaOffset += words

	name := naming.TempName(inst.Result.ID)
	r, err := c.Mgr.Get(name)
	if err != nil {
		return err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.AddI{Rd: r, Rs: regfile.FP, Imm: int16(offset)})
	c.Mgr.SetPointerBank(name, bank.Info{Kind: bank.Stack})
	return nil
}
