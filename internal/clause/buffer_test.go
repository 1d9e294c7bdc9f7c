package clause_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/distsat/internal/clause"
	"github.com/stretchr/testify/require"
)

func TestBufferAddClauseRejectsOversized(t *testing.T) {
	b := clause.NewBuffer(3)
	ok := b.AddClause(clause.New([]int32{1, 2, 3, 4}, 2, 0))
	require.False(t, ok)
	require.Equal(t, 0, b.Size())
}

func TestBufferGetClausesDrainsEverything(t *testing.T) {
	b := clause.NewBuffer(8)
	for i := 0; i < 500; i++ {
		require.True(t, b.AddClause(clause.New([]int32{int32(i + 1)}, 1, 0)))
	}
	require.Equal(t, 500, b.Size())

	got := b.GetClauses()
	require.Len(t, got, 500)
	require.Equal(t, 0, b.Size())

	// Buffer must appear empty to a subsequent producer/consumer.
	_, ok := b.GetClause()
	require.False(t, ok)
}

func TestBufferGrowsAcrossSegments(t *testing.T) {
	b := clause.NewBuffer(8)
	const n = 10_000
	for i := 0; i < n; i++ {
		require.True(t, b.AddClause(clause.New([]int32{int32(i%7 + 1)}, 1, 0)))
	}
	got := b.GetClauses()
	require.Len(t, got, n)
}

func TestBufferConcurrentProducers(t *testing.T) {
	b := clause.NewBuffer(8)
	const producers = 16
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(from int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.AddClause(clause.New([]int32{int32(i + 1)}, 1, uint32(from)))
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, b.Size())
	require.Len(t, b.GetClauses(), producers*perProducer)
}

func TestBufferClear(t *testing.T) {
	b := clause.NewBuffer(8)
	b.AddClause(clause.New([]int32{1}, 1, 0))
	b.AddClause(clause.New([]int32{2}, 1, 0))
	b.Clear()
	require.Equal(t, 0, b.Size())
}
