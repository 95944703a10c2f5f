package game

// Position is a grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ClampMove offsets p by (dx, dy) and saturates each axis at the walls.
func ClampMove(p Position, dx, dy, gridSize int) Position {
	return Position{
		X: clampAxis(p.X+dx, gridSize),
		Y: clampAxis(p.Y+dy, gridSize),
	}
}

func clampAxis(v, gridSize int) int {
	if v < 0 {
		return 0
	}
	if max := gridSize - 1; v > max {
		if max < 0 {
			return 0
		}
		return max
	}
	return v
}

// Direction enumerates the four axis-aligned player moves.
type Direction int

const (
	DirectionUp Direction = iota + 1
	DirectionDown
	DirectionLeft
	DirectionRight
)

// Key names accepted from the keyboard surface.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// Delta reports the grid offset for the direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirectionUp:
		return 0, -1
	case DirectionDown:
		return 0, 1
	case DirectionLeft:
		return -1, 0
	case DirectionRight:
		return 1, 0
	default:
		return 0, 0
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "none"
	}
}

// DirectionForKey maps a keyboard key name to a move. Unmapped keys report false.
func DirectionForKey(key string) (Direction, bool) {
	switch key {
	case KeyArrowUp:
		return DirectionUp, true
	case KeyArrowDown:
		return DirectionDown, true
	case KeyArrowLeft:
		return DirectionLeft, true
	case KeyArrowRight:
		return DirectionRight, true
	default:
		return 0, false
	}
}
