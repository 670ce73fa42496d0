package sparsetile

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixtureTile struct {
	sum int
}

func TestArrayGetSetAbsent(t *testing.T) {
	a := NewArray[fixtureTile](16)
	require.Equal(t, 16, a.Len())
	require.Nil(t, a.Get(3))

	a.Set(3, &fixtureTile{sum: 7})
	require.NotNil(t, a.Get(3))
	require.Equal(t, 7, a.Get(3).sum)
	require.Nil(t, a.Get(4))

	a.Set(3, nil)
	require.Nil(t, a.Get(3))
}

func TestArrayForEachSkipsAbsent(t *testing.T) {
	a := NewArray[fixtureTile](8)
	a.Set(0, &fixtureTile{sum: 1})
	a.Set(5, &fixtureTile{sum: 5})

	var seen []int
	a.ForEach(func(flat int, v *fixtureTile) {
		seen = append(seen, flat)
	})
	require.Equal(t, []int{0, 5}, seen)
	require.Equal(t, 2, a.Count())
}

func TestBuilderWithTileMergesExisting(t *testing.T) {
	b := NewBuilder[fixtureTile](4)
	b.WithTile(2, func(existing *fixtureTile) *fixtureTile {
		require.Nil(t, existing)
		return &fixtureTile{sum: 1}
	})
	b.WithTile(2, func(existing *fixtureTile) *fixtureTile {
		require.NotNil(t, existing)
		existing.sum += 10
		return existing
	})

	arr := b.Freeze()
	require.Equal(t, 11, arr.Get(2).sum)
	require.Nil(t, arr.Get(0))
}

// TestBuilderConcurrentDistinctTiles mirrors the egress builder's
// requirement that concurrent writers to different tiles never corrupt
// each other, while writers to the same tile serialize correctly.
func TestBuilderConcurrentDistinctTiles(t *testing.T) {
	const n = 64
	const writesPerTile = 50
	b := NewBuilder[fixtureTile](n)

	var wg sync.WaitGroup
	for tile := 0; tile < n; tile++ {
		wg.Add(1)
		go func(tile int) {
			defer wg.Done()
			for i := 0; i < writesPerTile; i++ {
				b.WithTile(tile, func(existing *fixtureTile) *fixtureTile {
					if existing == nil {
						existing = &fixtureTile{}
					}
					existing.sum++
					return existing
				})
			}
		}(tile)
	}
	wg.Wait()

	arr := b.Freeze()
	for tile := 0; tile < n; tile++ {
		require.Equal(t, writesPerTile, arr.Get(tile).sum, "tile %d", tile)
	}
}
