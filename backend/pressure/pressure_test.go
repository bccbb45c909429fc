package pressure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcc/backend/asm"
	"rcc/backend/bank"
	"rcc/backend/regfile"
	"rcc/internal/rcopts"
)

func TestManagerLocalSlotsReflectsConstruction(t *testing.T) {
	m := New(rcopts.DefaultOptions(), 12)
	assert.Equal(t, 12, m.LocalSlots())
}

func TestManagerGetFreePinUnpinRoundtrip(t *testing.T) {
	m := New(rcopts.DefaultOptions(), 0)
	r, err := m.Get("v")
	require.NoError(t, err)
	assert.True(t, r.IsAllocatable())

	m.Pin("v")
	m.Unpin("v")
	m.Free("v")

	r2, err := m.Get("v")
	require.NoError(t, err)
	assert.True(t, r2.IsAllocatable())
}

func TestManagerPointerBankRoundtrip(t *testing.T) {
	m := New(rcopts.DefaultOptions(), 0)
	_, err := m.Get("p")
	require.NoError(t, err)

	_, ok := m.GetPointerBank("p")
	assert.False(t, ok)

	m.SetPointerBank("p", bank.NewDynamic("p"))
	info, ok := m.GetPointerBank("p")
	require.True(t, ok)
	assert.Equal(t, bank.Dynamic, info.Kind)
}

func TestManagerBankRegGlobal(t *testing.T) {
	m := New(rcopts.DefaultOptions(), 0)
	r, err := m.BankReg(bank.Info{Kind: bank.Global})
	require.NoError(t, err)
	assert.Equal(t, regfile.GP, r)
}

func TestManagerDrainIntoAppendsPendingInOrder(t *testing.T) {
	m := New(rcopts.DefaultOptions(), 0)
	buf := &asm.Buffer{}
	buf.Emit(asm.Comment{Text: "before"})

	for i := 0; i < len(regfile.Allocatable); i++ {
		_, err := m.Get(nameFor(i))
		require.NoError(t, err)
	}
	m.DrainInto(buf)
	assert.Equal(t, 1, buf.Len())

	_, err := m.Get("overflow")
	require.NoError(t, err)
	m.DrainInto(buf)
	assert.True(t, buf.Len() > 1)
}

func TestManagerFreeAllTemporariesPreservesPinnedAndTracked(t *testing.T) {
	m := New(rcopts.DefaultOptions(), 0)
	rPinned, err := m.Get("pinned")
	require.NoError(t, err)
	m.Pin("pinned")

	rTracked, err := m.Get("tracked")
	require.NoError(t, err)
	m.SetPointerBank("tracked", bank.Info{Kind: bank.Global})

	_, err = m.Get("plain")
	require.NoError(t, err)

	m.FreeAllTemporaries()

	// A fresh value must not be handed a register still held by the pinned
	// or the tracked value.
	rFresh, err := m.Get("fresh")
	require.NoError(t, err)
	assert.NotEqual(t, rPinned, rFresh)
	assert.NotEqual(t, rTracked, rFresh)

	r, err := m.Get("pinned")
	require.NoError(t, err)
	assert.True(t, r.IsAllocatable())
}

func nameFor(i int) string {
	return string(rune('a' + i))
}
