package database_test

import (
	"testing"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/database"
	"github.com/stretchr/testify/require"
)

func TestMallobRejectsOutOfRangeSizeOrLBD(t *testing.T) {
	db := database.NewMallob(5, 3, 100)
	require.False(t, db.AddClause(clause.New([]int32{1, 2, 3, 4, 5, 6}, 3, 0)))
	require.False(t, db.AddClause(clause.New([]int32{1, 2, 3, 4, 5}, 5, 0)))
}

func TestMallobDeduplicatesByFingerprint(t *testing.T) {
	db := database.NewMallob(5, 5, 100)
	require.True(t, db.AddClause(clause.New([]int32{1, -2, 3}, 2, 0)))
	require.False(t, db.AddClause(clause.New([]int32{3, 1, -2}, 2, 7)))
	require.Equal(t, 1, db.Size())
}

func TestMallobGiveSelectionOrdersBySizeThenLBD(t *testing.T) {
	db := database.NewMallob(4, 4, 100)
	db.AddClause(clause.New([]int32{1, 2}, 2, 0))
	db.AddClause(clause.New([]int32{3, 4}, 1, 0))
	db.AddClause(clause.New([]int32{5}, 1, 0))

	got := db.GiveSelection(1 << 20)
	require.Len(t, got, 3)
	require.Equal(t, 1, got[0].Size())
	require.Equal(t, 2, got[1].Size())
	require.Equal(t, uint32(1), got[1].LBD())
	require.Equal(t, 2, got[2].Size())
	require.Equal(t, uint32(2), got[2].LBD())
}

func TestMallobGiveSelectionFilteredTightensLimits(t *testing.T) {
	db := database.NewMallob(4, 4, 100)
	db.AddClause(clause.New([]int32{1, 2, 3, 4}, 4, 0))
	db.AddClause(clause.New([]int32{5, 6}, 1, 0))

	got := db.GiveSelectionFiltered(1<<20, 4, 1)
	require.Len(t, got, 1)
	require.Equal(t, uint32(1), got[0].LBD())
}

func TestMallobCellEvictsOldestOnOverflow(t *testing.T) {
	db := database.NewMallob(2, 2, 10_000)
	for i := 0; i < 200; i++ {
		require.True(t, db.AddClause(clause.New([]int32{1, int32(i + 2)}, 2, uint32(i))))
	}
	got := db.GiveSelection(1 << 20)
	require.LessOrEqual(t, len(got), 64)
}

func TestMallobClear(t *testing.T) {
	db := database.NewMallob(4, 4, 100)
	db.AddClause(clause.New([]int32{1}, 1, 0))
	db.Clear()
	require.Equal(t, 0, db.Size())
	require.Empty(t, db.GiveSelection(100))
}
