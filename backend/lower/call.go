package lower

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/naming"
	"rcc/backend/regfile"
	"rcc/ir"
)

// lowerCall lowers CallInst per §4.7/§4.9: every argument is pushed onto
// the stack in call-site order (fat pointers as [bank][addr], bank word
// first), a direct target's bank is loaded into PCB when it differs from the
// caller's (an indirect target's bank register is always copied into PCB),
// control transfers via Jal (direct) or Jalr (indirect), the
// pushed words are reclaimed, and any return value is materialized from
// RV0/RV1.
func (c *Context) lowerCall(inst ir.CallInst) error {
	pushed := 0
	for _, arg := range inst.Args {
		n, err := c.pushArg(arg)
		if err != nil {
			return err
		}
		pushed += n
	}

	targetName, direct := directTarget(inst.Target)
	if direct {
		if targetBank, ok := c.Banks[targetName]; ok && targetBank != c.FuncBank {
			c.Buf.Emit(asm.Li{Rd: regfile.PCB, Imm: int16(targetBank)})
		}
		c.Buf.Emit(asm.Jal{LinkReg: regfile.RA, Target: targetName})
	} else {
		targetReg, info, targetName, err := c.resolvePointerPinned(inst.Target)
		if err != nil {
			return err
		}
		bankReg, err := c.bankRegOf(info)
		c.unpin(targetName)
		if err != nil {
			return err
		}
		c.Buf.Emit(asm.NewAdd(regfile.PCB, bankReg, regfile.R0))
		c.Buf.Emit(asm.Jalr{LinkReg: regfile.RA, BankReg: bankReg, AddrReg: targetReg})
	}

	if pushed > 0 {
		c.Buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: int16(-pushed)})
	}

	if inst.Result == nil {
		return nil
	}
	resultName := naming.TempName(inst.Result.ID)
	rd, err := c.Mgr.Get(resultName)
	if err != nil {
		return err
	}
	c.Mgr.DrainInto(c.Buf)
	c.Buf.Emit(asm.NewAdd(rd, regfile.RV0, regfile.R0))
	if inst.RetType.IsFatPtr() {
		bankName := resultName + ".retbank"
		bankReg, err := c.Mgr.Get(bankName)
		if err != nil {
			return err
		}
		c.Mgr.DrainInto(c.Buf)
		c.Buf.Emit(asm.NewAdd(bankReg, regfile.RV1, regfile.R0))
		c.Mgr.SetPointerBank(resultName, bank.NewRegister(bankReg))
	}
	return nil
}

// pushArg emits the store-then-bump sequence for one call argument and
// returns how many words it occupied.
func (c *Context) pushArg(arg ir.Value) (int, error) {
	if _, isFat := arg.(ir.FatPtr); isFat || isPointerTemp(c, arg) {
		addrReg, info, argName, err := c.resolvePointerPinned(arg)
		if err != nil {
			return 0, err
		}
		bankReg, err := c.bankRegOf(info)
		c.unpin(argName)
		if err != nil {
			return 0, err
		}
		c.Buf.Emit(asm.Store{Rs: bankReg, BankReg: regfile.SB, AddrReg: regfile.SP})
		c.Buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1})
		c.Buf.Emit(asm.Store{Rs: addrReg, BankReg: regfile.SB, AddrReg: regfile.SP})
		c.Buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1})
		return 2, nil
	}

	valReg, err := c.resolveValue(arg)
	if err != nil {
		return 0, err
	}
	c.Buf.Emit(asm.Store{Rs: valReg, BankReg: regfile.SB, AddrReg: regfile.SP})
	c.Buf.Emit(asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1})
	return 1, nil
}

// isPointerTemp reports whether arg is a Temp the allocator has registered
// pointer-bank metadata for.
func isPointerTemp(c *Context, arg ir.Value) bool {
	t, ok := arg.(ir.Temp)
	if !ok {
		return false
	}
	_, tracked := c.Mgr.GetPointerBank(naming.TempName(t.ID))
	return tracked
}

// directTarget reports the callee name and true if target is a direct
// (compile-time known) call target.
func directTarget(target ir.Value) (string, bool) {
	if ref, ok := target.(ir.FunctionRef); ok {
		return ref.Name, true
	}
	return "", false
}
