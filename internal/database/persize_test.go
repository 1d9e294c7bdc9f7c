package database_test

import (
	"testing"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/database"
	"github.com/stretchr/testify/require"
)

func TestPerSizeSelectionBudget(t *testing.T) {
	db := database.NewPerSize(8)
	for i := 0; i < 8; i++ {
		require.True(t, db.AddClause(clause.New([]int32{1, 2, 3}, 3, 0)))
	}
	require.Equal(t, 8, db.Size())

	got := db.GiveSelection(10)
	require.Len(t, got, 3)
	require.Equal(t, 5, db.Size())
}

func TestPerSizeOrdersAscendingBySize(t *testing.T) {
	db := database.NewPerSize(8)
	db.AddClause(clause.New([]int32{1, 2, 3, 4, 5}, 5, 0))
	db.AddClause(clause.New([]int32{1, 2}, 2, 0))
	db.AddClause(clause.New([]int32{1, 2, 3}, 3, 0))
	db.AddClause(clause.New([]int32{4, 5}, 2, 0))

	got := db.GiveSelection(1 << 20)
	require.Len(t, got, 4)
	sizes := make([]int, len(got))
	for i, c := range got {
		sizes[i] = c.Size()
	}
	require.Equal(t, []int{2, 2, 3, 5}, sizes)
}

func TestPerSizeRejectsOversized(t *testing.T) {
	db := database.NewPerSize(3)
	require.False(t, db.AddClause(clause.New([]int32{1, 2, 3, 4}, 2, 0)))
	require.Equal(t, 0, db.Size())
}

func TestPerSizeClear(t *testing.T) {
	db := database.NewPerSize(4)
	db.AddClause(clause.New([]int32{1}, 1, 0))
	db.AddClause(clause.New([]int32{1, 2}, 2, 0))
	db.Clear()
	require.Equal(t, 0, db.Size())
	require.Empty(t, db.GiveSelection(100))
}
