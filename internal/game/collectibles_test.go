package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectAtMissIsNoop(t *testing.T) {
	dots := NewCollectibles(Position{X: 1, Y: 1}, Position{X: 2, Y: 2})

	next, collected := dots.CollectAt(Position{X: 3, Y: 3})

	require.False(t, collected)
	require.Equal(t, 2, next.Len())
	require.Equal(t, dots.Positions(), next.Positions())
}

func TestCollectAtRemovesExactlyOne(t *testing.T) {
	dots := NewCollectibles(Position{X: 1, Y: 1}, Position{X: 2, Y: 2}, Position{X: 3, Y: 3})

	next, collected := dots.CollectAt(Position{X: 2, Y: 2})

	require.True(t, collected)
	require.Equal(t, 2, next.Len())
	require.False(t, next.Has(Position{X: 2, Y: 2}))
	require.True(t, next.Has(Position{X: 1, Y: 1}))
	require.True(t, next.Has(Position{X: 3, Y: 3}))

	// the original snapshot is untouched
	require.Equal(t, 3, dots.Len())
	require.True(t, dots.Has(Position{X: 2, Y: 2}))

	again, collected := next.CollectAt(Position{X: 2, Y: 2})
	require.False(t, collected)
	require.Equal(t, 2, again.Len())
}

func TestCollectiblesZeroValue(t *testing.T) {
	var dots Collectibles
	require.Equal(t, 0, dots.Len())
	require.False(t, dots.Has(Position{}))
	next, collected := dots.CollectAt(Position{})
	require.False(t, collected)
	require.Equal(t, 0, next.Len())
	require.Empty(t, dots.Positions())
}

func TestNewCollectiblesCollapsesDuplicates(t *testing.T) {
	dots := NewCollectibles(Position{X: 4, Y: 4}, Position{X: 4, Y: 4})
	require.Equal(t, 1, dots.Len())
}

func TestSeedCollectiblesDensityFilter(t *testing.T) {
	// draws alternate above and below the threshold; exactly-threshold is excluded
	rng := NewSequenceSource(0.9, 0.1, DotDensityThreshold)

	dots := SeedCollectibles(3, rng)

	// cells are visited column by column: (0,0) 0.9, (0,1) 0.1, (0,2) 0.3, (1,0) 0.9 ...
	require.Equal(t, []Position{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 2, Y: 0},
	}, dots.Positions())
}

func TestSeedCollectiblesAllCells(t *testing.T) {
	dots := SeedCollectibles(15, NewSequenceSource(0.99))
	require.Equal(t, 225, dots.Len())

	none := SeedCollectibles(15, NewSequenceSource(0.0))
	require.Equal(t, 0, none.Len())
}

func TestPositionsOrderedByRowThenColumn(t *testing.T) {
	dots := NewCollectibles(Position{X: 5, Y: 1}, Position{X: 0, Y: 2}, Position{X: 1, Y: 1})
	require.Equal(t, []Position{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 0, Y: 2}}, dots.Positions())
}
