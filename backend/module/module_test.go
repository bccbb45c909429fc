package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcc/backend/asm"
	"rcc/backend/global"
	"rcc/internal/rcopts"
	"rcc/ir"
)

func TestLowerSkipsExternalFunctions(t *testing.T) {
	mod := &ir.Module{
		Name: "prog",
		Functions: []*ir.Function{
			{Name: "puts", IsExternal: true},
			{
				Name:       "main",
				ReturnType: ir.NewI16(),
				Blocks: []*ir.BasicBlock{
					{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{Value: ir.Constant{Value: 0}}}},
				},
			},
		},
	}

	l := New(rcopts.DefaultOptions())
	buf, err := l.Lower(mod)
	require.NoError(t, err)

	var sawPutsLabel, sawMainLabel bool
	for _, r := range buf.Records() {
		if lbl, ok := r.(asm.LabelRecord); ok {
			switch lbl.Name {
			case "puts":
				sawPutsLabel = true
			case "main":
				sawMainLabel = true
			}
		}
	}
	assert.False(t, sawPutsLabel)
	assert.True(t, sawMainLabel)
}

func TestLowerEmitsInitGlobalsBeforeFunctions(t *testing.T) {
	mod := &ir.Module{
		Name: "prog",
		Globals: []*ir.GlobalVariable{
			{Name: "g", Type: ir.NewI16(), Initializer: ir.Constant{Value: 7}},
		},
		Functions: []*ir.Function{
			{
				Name:       "main",
				ReturnType: ir.NewVoid(),
				Blocks: []*ir.BasicBlock{
					{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
				},
			},
		},
	}

	l := New(rcopts.DefaultOptions())
	buf, err := l.Lower(mod)
	require.NoError(t, err)

	records := buf.Records()
	require.NotEmpty(t, records)
	initLabel, ok := records[0].(asm.LabelRecord)
	require.True(t, ok)
	assert.Equal(t, "_init_globals", initLabel.Name)

	mainIdx := -1
	for i, r := range records {
		if lbl, ok := r.(asm.LabelRecord); ok && lbl.Name == "main" {
			mainIdx = i
			break
		}
	}
	assert.Greater(t, mainIdx, 0)
}

func TestAssignBanksIsDeterministicAcrossRuns(t *testing.T) {
	mod := &ir.Module{
		Name: "prog",
		Functions: []*ir.Function{
			{Name: "a", ReturnType: ir.NewVoid(), Blocks: []*ir.BasicBlock{
				{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
			}},
			{Name: "b", ReturnType: ir.NewVoid(), Blocks: []*ir.BasicBlock{
				{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
			}},
		},
	}

	l1 := New(rcopts.DefaultOptions())
	buf1, err := l1.Lower(mod)
	require.NoError(t, err)

	l2 := New(rcopts.DefaultOptions())
	buf2, err := l2.Lower(mod)
	require.NoError(t, err)

	assert.Equal(t, buf1.String(), buf2.String())
}

func TestAssignBanksGivesEveryFunctionANonNegativeBank(t *testing.T) {
	mod := &ir.Module{
		Name: "prog",
		Functions: []*ir.Function{
			{Name: "a", ReturnType: ir.NewVoid(), Blocks: []*ir.BasicBlock{
				{ID: 0, Instructions: []ir.Instruction{ir.ReturnInst{}}},
			}},
			{Name: "extern", IsExternal: true},
		},
	}

	l := New(rcopts.DefaultOptions())
	banks, err := l.assignBanks(mod, global.New(), 0)
	require.NoError(t, err)

	bankA, ok := banks["a"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, bankA, 0)

	_, externAssigned := banks["extern"]
	assert.False(t, externAssigned)
}
