// Package naming provides deterministic, function-scoped symbolic names for
// temporaries, spill keys, helper scratch values and unique labels (§4.4).
// Every generator is pure given the Naming's current counter state: the
// same sequence of calls against a freshly constructed Naming always
// produces the same names, which is what makes module lowering
// deterministic (§8, invariant 8).
package naming

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Naming holds the per-function monotonic counters backing every name
// generator below. Names collide only if the IR producer reuses the same
// temp id across distinct defs in one function, which is excluded by the
// IR's own uniqueness invariant (§4.4).
type Naming struct {
	funcName string
	opSeq    int // Backs next_operation_id / per-load unique suffixes.
	labelSeq int // Not read by any generator: block labels come from the block id.
}

// ---------------------
// ----- Functions -----
// ---------------------

// New returns a Naming scoped to the given function name.
func New(funcName string) *Naming {
	return &Naming{funcName: funcName}
}

// TempName returns the canonical value-name for temp id.
func TempName(id int) string {
	return fmt.Sprintf("t%d", id)
}

// NextOperationID returns the next monotonic operation id for this
// function, used to key per-operation helper names.
func (n *Naming) NextOperationID() int {
	id := n.opSeq
	n.opSeq++
	return id
}

// ConstName returns a unique scratch name for materializing constant value
// as a register, unique per load site.
func (n *Naming) ConstName(value int64, opID int) string {
	return fmt.Sprintf("%%const.%d.%d", value, opID)
}

// LoadGlobalAddr returns a unique scratch name for the register that holds
// globalName's address, unique per load site.
func (n *Naming) LoadGlobalAddr(globalName string) string {
	return fmt.Sprintf("%%gaddr.%s.%d", globalName, n.NextOperationID())
}

// XorTemp returns the scratch name for the XOR intermediate of an Eq/Ne
// comparison lowering resultID.
func (n *Naming) XorTemp(resultID int) string {
	return fmt.Sprintf("%%xor.%d", resultID)
}

// SleTemp returns the scratch name for the Slt intermediate of an Sle
// comparison lowering resultID.
func (n *Naming) SleTemp(resultID int) string {
	return fmt.Sprintf("%%sle.%d", resultID)
}

// SgeTemp returns the scratch name for the Slt intermediate of an Sge
// comparison lowering resultID.
func (n *Naming) SgeTemp(resultID int) string {
	return fmt.Sprintf("%%sge.%d", resultID)
}

// UleTemp returns the scratch name for the Sltu intermediate of a Ule
// comparison lowering resultID.
func (n *Naming) UleTemp(resultID int) string {
	return fmt.Sprintf("%%ule.%d", resultID)
}

// UgeTemp returns the scratch name for the Sltu intermediate of a Uge
// comparison lowering resultID.
func (n *Naming) UgeTemp(resultID int) string {
	return fmt.Sprintf("%%uge.%d", resultID)
}

// ConstOne returns the scratch name for a materialized constant 1 used by
// comparison lowering resultID.
func (n *Naming) ConstOne(resultID int) string {
	return fmt.Sprintf("%%one.%d", resultID)
}

// ConstZero returns the scratch name for a materialized constant 0 used by
// comparison lowering resultID.
func (n *Naming) ConstZero(resultID int) string {
	return fmt.Sprintf("%%zero.%d", resultID)
}

// GepNewBank returns the scratch name for a GEP's overflow-adjusted bank
// register, for GEP result temp id result.
func (n *Naming) GepNewBank(result int) string {
	return fmt.Sprintf("%%gepbank.%d", result)
}

// GepIsStackLabel returns the label marking the stack-confined path of a
// runtime GEP bank check for GEP result temp id result.
func (n *Naming) GepIsStackLabel(result int) string {
	return fmt.Sprintf("%s_gep_is_stack_%d", n.funcName, result)
}

// GepNotStackLabel returns the label marking the merge point after the
// non-stack path of a runtime GEP bank check for GEP result temp id result.
func (n *Naming) GepNotStackLabel(result int) string {
	return fmt.Sprintf("%s_gep_not_stack_%d", n.funcName, result)
}

// LoadTagName returns the scratch name for the bank-tag word loaded by a
// fat-pointer load of result temp id result.
func (n *Naming) LoadTagName(result int) string {
	return fmt.Sprintf("%%loadtag.%d", result)
}

// LoadBankName returns the scratch name for a fat-pointer load's
// decoded-bank register, for load result temp id result.
func (n *Naming) LoadBankName(result int) string {
	return fmt.Sprintf("%%loadbank.%d", result)
}

// LoadIsGlobalLabel returns the label marking the Global-bank path of a
// fat-pointer load's runtime tag decode for load result temp id result.
func (n *Naming) LoadIsGlobalLabel(result int) string {
	return fmt.Sprintf("%s_load_is_global_%d", n.funcName, result)
}

// LoadIsStackLabel returns the label marking the Stack-bank path of a
// fat-pointer load's runtime tag decode for load result temp id result.
func (n *Naming) LoadIsStackLabel(result int) string {
	return fmt.Sprintf("%s_load_is_stack_%d", n.funcName, result)
}

// LoadDecodeDoneLabel returns the label marking the merge point after a
// fat-pointer load's runtime tag decode for load result temp id result.
func (n *Naming) LoadDecodeDoneLabel(result int) string {
	return fmt.Sprintf("%s_load_decode_done_%d", n.funcName, result)
}

// BlockLabel returns the label for basic block id within this function,
// scoped as "{func_name}_L{block_id}" per §4.9.
func (n *Naming) BlockLabel(blockID int) string {
	return fmt.Sprintf("%s_L%d", n.funcName, blockID)
}

// EpilogueLabel returns the single shared epilogue label every Return in
// this function jumps to (§4.8).
func (n *Naming) EpilogueLabel() string {
	return n.funcName + "_epilogue"
}

// ParamName returns the canonical value-name for the temp a parameter binds
// to, tempID. Parameters share the same naming scheme as every other temp
// (§4.4): the Instruction Lowerer resolves a parameter reference exactly
// like any other Temp.
func ParamName(tempID int) string {
	return TempName(tempID)
}

// ParamBankName returns the scratch name for the bank register materialized
// for a fat-pointer parameter binding tempID (§4.7).
func (n *Naming) ParamBankName(tempID int) string {
	return fmt.Sprintf("%%parambank.%d", tempID)
}
