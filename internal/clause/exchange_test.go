package clause_test

import (
	"testing"

	"code.hybscloud.com/distsat/internal/clause"
	"github.com/stretchr/testify/require"
)

func TestNewPanicsOnEmptyLiterals(t *testing.T) {
	require.Panics(t, func() {
		clause.New(nil, 1, 0)
	})
}

func TestEqualIgnoresOrderAndProvenance(t *testing.T) {
	a := clause.New([]int32{1, -2, 3}, 2, 5)
	b := clause.New([]int32{3, 1, -2}, 7, 9)
	require.True(t, a.Equal(b))

	c := clause.New([]int32{1, -2, 4}, 2, 5)
	require.False(t, a.Equal(c))
}

func TestFingerprintHashIsOrderIndependent(t *testing.T) {
	a := clause.New([]int32{1, -2, 3}, 2, 0)
	b := clause.New([]int32{3, 1, -2}, 2, 0)
	require.Equal(t, a.FingerprintHash(), b.FingerprintHash())
}

func TestRefCounting(t *testing.T) {
	c := clause.New([]int32{1}, 1, 0)
	require.Equal(t, int32(1), c.RefCount())
	c.Retain()
	require.Equal(t, int32(2), c.RefCount())
	c.Release()
	c.Release()
	require.Equal(t, int32(0), c.RefCount())
}

func TestLBDClampedToSize(t *testing.T) {
	c := clause.New([]int32{1, 2}, 50, 0)
	require.EqualValues(t, 2, c.LBD())
}
