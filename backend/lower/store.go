package lower

import (
	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/regfile"
	"rcc/internal/rcerr"
	"rcc/internal/rlog"
	"rcc/ir"
)

// lowerStore lowers StoreInst symmetrically to lowerLoad (§4.9): a scalar
// store is a single Store record; a fat-pointer store writes the address
// word followed by the bank's wire-encoded tag word (§4.6). An I32 store
// writes only the low word, matching lowerLoad's truncation.
func (c *Context) lowerStore(inst ir.StoreInst) error {
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

	switch inst.Type.Kind {
	case ir.I64:
		return rcerr.Unsupported("I64 memory operations are not supported")
	case ir.FatPtrKind:
		valAddrReg, valInfo, valName, err := c.resolvePointerPinned(inst.Value)
		if err != nil {
			return err
		}
		defer c.unpin(valName)
		c.Buf.Emit(asm.Store{Rs: valAddrReg, BankReg: bankReg, AddrReg: addrReg})

		var tagReg regfile.Register
		if valInfo.IsStatic() {
			tagName := c.Naming.ConstName(bank.Encode(valInfo), c.Naming.NextOperationID())
			tagReg, err = c.Mgr.Get(tagName)
			if err != nil {
				return err
			}
			c.Mgr.DrainInto(c.Buf)
			c.Buf.Emit(asm.AddI{Rd: regfile.SC, Rs: addrReg, Imm: 1})
			c.Buf.Emit(asm.Li{Rd: tagReg, Imm: int16(bank.Encode(valInfo))})
		} else {
			tagReg, err = c.bankRegOfPinned(valInfo)
			if err != nil {
				return err
			}
			defer c.unpinBank(valInfo)
			c.Buf.Emit(asm.AddI{Rd: regfile.SC, Rs: addrReg, Imm: 1})
		}
		c.Buf.Emit(asm.Store{Rs: tagReg, BankReg: bankReg, AddrReg: regfile.SC})
		return nil
	case ir.I32:
		rlog.Warnf("i32 store at %s writes only its low word: no 32-bit arithmetic is modeled", inst.Ptr)
		valReg, err := c.resolveValue(inst.Value)
		if err != nil {
			return err
		}
		c.Buf.Emit(asm.Store{Rs: valReg, BankReg: bankReg, AddrReg: addrReg})
		return nil
	default:
		valReg, err := c.resolveValue(inst.Value)
		if err != nil {
			return err
		}
		c.Buf.Emit(asm.Store{Rs: valReg, BankReg: bankReg, AddrReg: addrReg})
		return nil
	}
}
