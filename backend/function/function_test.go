package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/global"
	"rcc/backend/lower"
	"rcc/backend/naming"
	"rcc/backend/pressure"
	"rcc/backend/regfile"
	"rcc/internal/rcopts"
	"rcc/ir"
)

func TestBuildEmitsExactPrologueSequence(t *testing.T) {
	fn := &ir.Function{
		Name:       "f",
		ReturnType: ir.NewVoid(),
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
		},
	}

	buf := &asm.Buffer{}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	require.NoError(t, b.Build(fn, 0, buf))

	records := buf.Records()
	require.GreaterOrEqual(t, len(records), 6)

	label, ok := records[0].(asm.LabelRecord)
	require.True(t, ok)
	assert.Equal(t, "f", label.Name)

	assert.Equal(t, asm.Store{Rs: regfile.RA, BankReg: regfile.SB, AddrReg: regfile.SP}, records[1])
	assert.Equal(t, asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1}, records[2])
	assert.Equal(t, asm.Store{Rs: regfile.FP, BankReg: regfile.SB, AddrReg: regfile.SP}, records[3])
	assert.Equal(t, asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: 1}, records[4])
	assert.Equal(t, asm.NewAdd(regfile.FP, regfile.SP, regfile.R0), records[5])
}

func TestBuildGrowsStackByLocalSlotsWhenNonzero(t *testing.T) {
	fn := &ir.Function{
		Name:       "f",
		ReturnType: ir.NewVoid(),
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{
				ir.AllocaInst{Result: ir.Temp{ID: 1}, Type: ir.NewI16(), Count: 3},
				ir.ReturnInst{},
			}},
		},
	}

	buf := &asm.Buffer{}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	require.NoError(t, b.Build(fn, 0, buf))

	records := buf.Records()
	// Prologue record index 6 is the local-slot growth, immediately after
	// the fixed six-record entry sequence.
	growth, ok := records[6].(asm.AddI)
	require.True(t, ok)
	assert.Equal(t, regfile.SP, growth.Rd)
	assert.EqualValues(t, 3, growth.Imm)
}

func TestBuildOmitsStackGrowthWhenNoLocals(t *testing.T) {
	fn := &ir.Function{
		Name:       "f",
		ReturnType: ir.NewVoid(),
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
		},
	}

	buf := &asm.Buffer{}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	require.NoError(t, b.Build(fn, 0, buf))

	records := buf.Records()
	// Record 6 must already be the block label, not a stack-growth AddI.
	_, isLabel := records[6].(asm.LabelRecord)
	assert.True(t, isLabel)
}

func TestBuildEmitsExactEpilogueSequence(t *testing.T) {
	fn := &ir.Function{
		Name:       "f",
		ReturnType: ir.NewVoid(),
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
		},
	}

	buf := &asm.Buffer{}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	require.NoError(t, b.Build(fn, 0, buf))

	records := buf.Records()
	n := len(records)
	epilogue := records[n-8:]

	label, ok := epilogue[0].(asm.LabelRecord)
	require.True(t, ok)
	assert.Equal(t, "f_epilogue", label.Name)

	assert.Equal(t, asm.NewAdd(regfile.SP, regfile.FP, regfile.R0), epilogue[1])
	assert.Equal(t, asm.Load{Rd: regfile.FP, BankReg: regfile.SB, AddrReg: regfile.SP}, epilogue[2])
	assert.Equal(t, asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: -1}, epilogue[3])
	assert.Equal(t, asm.Load{Rd: regfile.RA, BankReg: regfile.SB, AddrReg: regfile.SP}, epilogue[4])
	assert.Equal(t, asm.AddI{Rd: regfile.SP, Rs: regfile.SP, Imm: -1}, epilogue[5])
	assert.Equal(t, asm.NewAdd(regfile.PCB, regfile.RAB, regfile.R0), epilogue[6])

	jalr, ok := records[n-1].(asm.Jalr)
	require.True(t, ok)
	assert.Equal(t, asm.Jalr{LinkReg: regfile.R0, BankReg: regfile.R0, AddrReg: regfile.RA}, jalr)
}

func TestBuildMaterializesScalarParameter(t *testing.T) {
	fn := &ir.Function{
		Name:       "f",
		ReturnType: ir.NewVoid(),
		Parameters: []ir.Param{{TempID: 0, Type: ir.NewI16()}},
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
		},
	}

	buf := &asm.Buffer{}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	require.NoError(t, b.Build(fn, 0, buf))

	records := buf.Records()
	var sawParamAddr, sawParamLoad bool
	for _, r := range records {
		if a, ok := r.(asm.AddI); ok && a.Rs == regfile.FP && a.Imm == -3 {
			sawParamAddr = true
		}
		if l, ok := r.(asm.Load); ok && l.BankReg == regfile.SB && l.AddrReg == regfile.SC {
			sawParamLoad = true
		}
	}
	assert.True(t, sawParamAddr, "parameter 0 must be addressed at FP-3")
	assert.True(t, sawParamLoad)
}

func TestBuildMaterializesFatPointerParameterAndRegistersBank(t *testing.T) {
	fn := &ir.Function{
		Name:       "f",
		ReturnType: ir.NewVoid(),
		Parameters: []ir.Param{{TempID: 0, Type: ir.NewFatPtr(ir.NewI16())}},
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
		},
	}

	buf := &asm.Buffer{}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	require.NoError(t, b.Build(fn, 0, buf))

	records := buf.Records()
	var addrOffsets []int16
	for _, r := range records {
		if a, ok := r.(asm.AddI); ok && a.Rs == regfile.FP {
			addrOffsets = append(addrOffsets, a.Imm)
		}
	}
	assert.Contains(t, addrOffsets, int16(-3))
	assert.Contains(t, addrOffsets, int16(-4))

	ctx := &lower.Context{
		Mgr:    pressure.New(rcopts.DefaultOptions(), 0),
		Naming: naming.New("f"),
		Buf:    &asm.Buffer{},
	}
	require.NoError(t, materializeParams(ctx, fn))
	info, ok := ctx.Mgr.GetPointerBank(naming.ParamName(0))
	require.True(t, ok)
	assert.Equal(t, bank.RegisterKind, info.Kind)
}

func TestCountAllocaWordsSumsAllAllocations(t *testing.T) {
	fn := &ir.Function{
		Blocks: []*ir.BasicBlock{
			{ID: 0, Instructions: []ir.Instruction{
				ir.AllocaInst{Result: ir.Temp{ID: 1}, Type: ir.NewI16()},
				ir.AllocaInst{Result: ir.Temp{ID: 2}, Type: ir.NewI16(), Count: 4},
				ir.AllocaInst{Result: ir.Temp{ID: 3}, Type: ir.NewFatPtr(ir.NewI16())},
			}},
		},
	}
	assert.Equal(t, 1+4+2, countAllocaWords(fn))
}

func TestBuildSkipsExternalFunctionHandlingIsCallerResponsibility(t *testing.T) {
	// Build itself does not special-case IsExternal; module.Lowerer is
	// responsible for skipping external functions before calling Build.
	// This test documents that contract for this package's own callers.
	fn := &ir.Function{
		Name:       "extern",
		IsExternal: true,
		Blocks:     nil,
	}
	b := New(rcopts.DefaultOptions(), global.New(), map[string]int{})
	buf := &asm.Buffer{}
	assert.NotPanics(t, func() {
		_ = b.Build(fn, 0, buf)
	})
}

func TestNewRegisterBankInfoUsedByFatPointerParam(t *testing.T) {
	// Sanity check on the bank package API this file's assertions rely on.
	info := bank.NewRegister(regfile.X0)
	assert.Equal(t, bank.RegisterKind, info.Kind)
	assert.Equal(t, regfile.X0, info.Reg)
}
