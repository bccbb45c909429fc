package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTempNameIsStableAcrossCalls(t *testing.T) {
	assert.Equal(t, TempName(7), TempName(7))
	assert.Equal(t, "t7", TempName(7))
}

func TestParamNameMatchesTempName(t *testing.T) {
	assert.Equal(t, TempName(3), ParamName(3))
}

func TestFreshNamingProducesDeterministicSequence(t *testing.T) {
	a := New("f")
	b := New("f")

	assert.Equal(t, a.LoadGlobalAddr("g"), b.LoadGlobalAddr("g"))
	assert.Equal(t, a.LoadGlobalAddr("g"), b.LoadGlobalAddr("g"))
	assert.Equal(t, a.BlockLabel(2), b.BlockLabel(2))
	assert.Equal(t, a.EpilogueLabel(), b.EpilogueLabel())
}

func TestOperationIDsAreMonotonicPerNaming(t *testing.T) {
	n := New("f")
	first := n.LoadGlobalAddr("g")
	second := n.LoadGlobalAddr("g")
	assert.NotEqual(t, first, second)
}

func TestBlockLabelIsScopedByFunctionName(t *testing.T) {
	a := New("foo")
	b := New("bar")
	assert.NotEqual(t, a.BlockLabel(0), b.BlockLabel(0))
}

func TestEpilogueLabelIsScopedByFunctionName(t *testing.T) {
	a := New("foo")
	b := New("bar")
	assert.NotEqual(t, a.EpilogueLabel(), b.EpilogueLabel())
	assert.Equal(t, "foo_epilogue", a.EpilogueLabel())
}

func TestGepLabelsAreDistinctPerResult(t *testing.T) {
	n := New("f")
	assert.NotEqual(t, n.GepIsStackLabel(1), n.GepIsStackLabel(2))
	assert.NotEqual(t, n.GepIsStackLabel(1), n.GepNotStackLabel(1))
}

func TestComparisonScratchNamesAreDistinctPerOpcode(t *testing.T) {
	n := New("f")
	names := []string{
		n.XorTemp(5), n.SleTemp(5), n.SgeTemp(5), n.UleTemp(5), n.UgeTemp(5),
		n.ConstOne(5), n.ConstZero(5),
	}
	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate scratch name %q", name)
		seen[name] = true
	}
}
