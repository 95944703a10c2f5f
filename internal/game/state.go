package game

// Phase names the controller state machine's states.
type Phase string

const (
	PhaseRunning  Phase = "running"
	PhaseGameOver Phase = "gameOver"
)

// Adversary is a wandering ghost.
type Adversary struct {
	Position
	Color string `json:"color"`
}

// State is the authoritative snapshot of one session's board.
type State struct {
	GridSize     int
	Tick         uint64
	Player       Position
	Adversaries  []Adversary
	Collectibles Collectibles
	Score        int
	GameOver     bool
}

// NewState builds the initial Running snapshot for cfg.
func NewState(cfg Config, rng Source) State {
	cfg = cfg.Normalized()
	return State{
		GridSize:     cfg.GridSize,
		Player:       cfg.PlayerSpawn(),
		Adversaries:  cfg.AdversarySpawns(),
		Collectibles: SeedCollectibles(cfg.GridSize, rng),
	}
}

// Phase reports Running until the terminal flag is set.
func (s State) Phase() Phase {
	if s.GameOver {
		return PhaseGameOver
	}
	return PhaseRunning
}

// Clone copies the adversary slice so callers can hold the snapshot while the
// controller moves on. Collectibles are already copy-on-write.
func (s State) Clone() State {
	cloned := s
	if s.Adversaries != nil {
		cloned.Adversaries = append([]Adversary(nil), s.Adversaries...)
	}
	return cloned
}

// DetectCollision reports whether any adversary shares the player's cell.
func DetectCollision(player Position, adversaries []Adversary) bool {
	for _, adversary := range adversaries {
		if adversary.Position == player {
			return true
		}
	}
	return false
}
