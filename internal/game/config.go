package game

import "time"

const (
	// DefaultGridSize is the number of cells along each axis of the board.
	DefaultGridSize = 15
	// DefaultCellSize is the rendered width of one cell in pixels.
	DefaultCellSize = 20
	// DefaultTickInterval is the adversary movement period.
	DefaultTickInterval = time.Second

	// MinGridSize keeps the corner spawn layout inside the board.
	MinGridSize = 6

	// DotReward is added to the score for every collectible consumed.
	DotReward = 10
	// DotDensityThreshold seeds a collectible when a draw exceeds it (~70% of cells).
	DotDensityThreshold = 0.3
)

// AdversaryColors tags the four adversaries in spawn order.
var AdversaryColors = []string{"#ff0000", "#00ff00", "#0000ff", "#ff00ff"}

// Config captures the tunables used to create a session.
type Config struct {
	GridSize     int           `json:"gridSize"`
	CellSize     int           `json:"cellSize"`
	TickInterval time.Duration `json:"tickInterval"`
	// Seed fixes the random source when non-zero.
	Seed uint64 `json:"seed,omitempty"`
}

// DefaultConfig returns the 15x15 board ticking once per second.
func DefaultConfig() Config {
	return Config{
		GridSize:     DefaultGridSize,
		CellSize:     DefaultCellSize,
		TickInterval: DefaultTickInterval,
	}
}

// Normalized returns a config with defaults applied to unset or invalid fields.
func (cfg Config) Normalized() Config {
	normalized := cfg
	if normalized.GridSize < MinGridSize {
		normalized.GridSize = DefaultGridSize
	}
	if normalized.CellSize <= 0 {
		normalized.CellSize = DefaultCellSize
	}
	if normalized.TickInterval <= 0 {
		normalized.TickInterval = DefaultTickInterval
	}
	return normalized
}

// PlayerSpawn is the center of the board.
func (cfg Config) PlayerSpawn() Position {
	center := cfg.GridSize / 2
	return Position{X: center, Y: center}
}

// AdversarySpawns places one adversary near each corner.
func (cfg Config) AdversarySpawns() []Adversary {
	near, far := 2, cfg.GridSize-3
	corners := []Position{
		{X: near, Y: near},
		{X: far, Y: near},
		{X: near, Y: far},
		{X: far, Y: far},
	}
	adversaries := make([]Adversary, len(corners))
	for i, pos := range corners {
		adversaries[i] = Adversary{Position: pos, Color: AdversaryColors[i%len(AdversaryColors)]}
	}
	return adversaries
}
