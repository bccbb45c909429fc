package global

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcc/backend/asm"
	"rcc/ir"
)

func TestAssignBumpPacksAddressesBySize(t *testing.T) {
	m := New()
	scalar := &ir.GlobalVariable{Name: "x", Type: ir.NewI16()}
	arr := &ir.GlobalVariable{Name: "buf", Type: ir.NewArray(ir.NewI16(), 4)}

	addrX := m.Assign(scalar)
	addrBuf := m.Assign(arr)

	assert.EqualValues(t, 0, addrX)
	assert.EqualValues(t, 1, addrBuf)

	got, ok := m.AddressOf("buf")
	require.True(t, ok)
	assert.Equal(t, addrBuf, got)
}

func TestAssignIsIdempotentForRepeatName(t *testing.T) {
	m := New()
	g := &ir.GlobalVariable{Name: "x", Type: ir.NewI16()}
	first := m.Assign(g)
	second := m.Assign(g)
	assert.Equal(t, first, second)
}

func TestAddressOfUnknownNameFails(t *testing.T) {
	m := New()
	_, ok := m.AddressOf("nope")
	assert.False(t, ok)
}

func TestLowerMainModuleEmitsInitGlobalsWithStores(t *testing.T) {
	mod := &ir.Module{
		Name: "prog",
		Functions: []*ir.Function{
			{Name: "main", ReturnType: ir.NewI16()},
		},
		Globals: []*ir.GlobalVariable{
			{Name: "x", Type: ir.NewI16(), Initializer: ir.Constant{Value: 42}},
			{Name: "bss", Type: ir.NewI16()},
		},
	}

	m := New()
	buf := &asm.Buffer{}
	require.NoError(t, m.Lower(mod, buf))

	records := buf.Records()
	require.NotEmpty(t, records)

	label, ok := records[0].(asm.LabelRecord)
	require.True(t, ok)
	assert.Equal(t, "_init_globals", label.Name)

	var sawStore bool
	for _, r := range records {
		if _, ok := r.(asm.Store); ok {
			sawStore = true
		}
	}
	assert.True(t, sawStore)

	_, isRet := records[len(records)-1].(asm.Ret)
	assert.True(t, isRet)
}

func TestLowerLibraryModuleEmitsCommentsOnly(t *testing.T) {
	mod := &ir.Module{
		Name:      "lib",
		Functions: []*ir.Function{{Name: "helper"}},
		Globals: []*ir.GlobalVariable{
			{Name: "x", Type: ir.NewI16(), Linkage: ir.Internal},
		},
	}

	m := New()
	buf := &asm.Buffer{}
	require.NoError(t, m.Lower(mod, buf))

	require.Len(t, buf.Records(), 1)
	comment, ok := buf.Records()[0].(asm.Comment)
	require.True(t, ok)
	assert.True(t, strings.Contains(comment.Text, "x"))
}

func TestLowerArrayInitializerEmitsOneStorePerElement(t *testing.T) {
	mod := &ir.Module{
		Name:      "prog",
		Functions: []*ir.Function{{Name: "main"}},
		Globals: []*ir.GlobalVariable{
			{
				Name:        "arr",
				Type:        ir.NewArray(ir.NewI16(), 3),
				Initializer: ir.ConstantArray{Values: []int64{1, 2, 3}},
			},
		},
	}

	m := New()
	buf := &asm.Buffer{}
	require.NoError(t, m.Lower(mod, buf))

	stores := 0
	for _, r := range buf.Records() {
		if _, ok := r.(asm.Store); ok {
			stores++
		}
	}
	assert.Equal(t, 3, stores)
}
