package game

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Collectibles is an immutable set of dot positions. Removal returns a new set
// so snapshots handed to renderers never change underneath them.
type Collectibles struct {
	set *mapset.Set[Position]
}

// NewCollectibles builds a set from the provided positions; duplicates collapse.
func NewCollectibles(positions ...Position) Collectibles {
	set := mapset.New[Position]()
	for _, pos := range positions {
		set.Put(pos)
	}
	return Collectibles{set: &set}
}

// SeedCollectibles fills each cell whose draw exceeds DotDensityThreshold.
func SeedCollectibles(gridSize int, rng Source) Collectibles {
	set := mapset.New[Position]()
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			if rng.Float64() > DotDensityThreshold {
				set.Put(Position{X: x, Y: y})
			}
		}
	}
	return Collectibles{set: &set}
}

// Len reports the number of remaining dots.
func (c Collectibles) Len() int {
	if c.set == nil {
		return 0
	}
	return c.set.Size()
}

// Has reports whether a dot sits at p.
func (c Collectibles) Has(p Position) bool {
	if c.Len() == 0 {
		return false
	}
	return c.set.Has(p)
}

// CollectAt removes the dot at p. The receiver is left untouched; when no dot
// matches the same set is returned with collected=false.
func (c Collectibles) CollectAt(p Position) (Collectibles, bool) {
	if !c.Has(p) {
		return c, false
	}
	next := mapset.New[Position]()
	c.set.Each(func(pos Position) {
		if pos != p {
			next.Put(pos)
		}
	})
	return Collectibles{set: &next}, true
}

// Positions lists the remaining dots ordered by row then column.
func (c Collectibles) Positions() []Position {
	out := make([]Position, 0, c.Len())
	if c.Len() == 0 {
		return out
	}
	c.set.Each(func(pos Position) {
		out = append(out, pos)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
