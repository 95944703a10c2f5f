// Package tui plays a session in a terminal.
package tui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"pixel-pursuit/server/internal/game"
)

const (
	headerRows = 2
	cellWidth  = 2
)

// Game is the part of a session the terminal drives. Both *game.Controller
// and *session.Session satisfy it.
type Game interface {
	HandleKey(key string) bool
	Snapshot() game.State
	Updates() <-chan game.State
	Done() <-chan struct{}
}

var keyNames = map[tcell.Key]string{
	tcell.KeyUp:    game.KeyArrowUp,
	tcell.KeyDown:  game.KeyArrowDown,
	tcell.KeyLeft:  game.KeyArrowLeft,
	tcell.KeyRight: game.KeyArrowRight,
}

var (
	titleStyle       = tcell.StyleDefault.Bold(true)
	borderStyle      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	collectibleStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	playerStyle      = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	caughtStyle      = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Run draws g on screen until ctx is cancelled, the session ends or the user
// quits with q, Esc or Ctrl-C. The caller owns Init and Fini.
func Run(ctx context.Context, screen tcell.Screen, g Game, title string) error {
	if screen == nil || g == nil {
		return fmt.Errorf("tui: screen and game are required")
	}

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	state := g.Snapshot()
	draw(screen, title, state)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-g.Done():
			return nil
		case state = <-g.Updates():
			draw(screen, title, state)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if isQuit(ev) {
					return nil
				}
				if name, ok := keyNames[ev.Key()]; ok {
					g.HandleKey(name)
				}
			case *tcell.EventResize:
				screen.Sync()
				draw(screen, title, state)
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// cellOrigin maps a board position to its screen column and row.
func cellOrigin(p game.Position) (col, row int) {
	return 1 + p.X*cellWidth, headerRows + 1 + p.Y
}

func draw(screen tcell.Screen, title string, s game.State) {
	screen.Clear()

	drawText(screen, 0, 0, titleStyle, title)
	drawText(screen, 0, 1, tcell.StyleDefault, fmt.Sprintf("Score: %d", s.Score))
	drawBorder(screen, s.GridSize)

	for _, p := range s.Collectibles.Positions() {
		col, row := cellOrigin(p)
		screen.SetContent(col, row, tcell.RuneBullet, nil, collectibleStyle)
	}
	for _, adversary := range s.Adversaries {
		col, row := cellOrigin(adversary.Position)
		style := tcell.StyleDefault.Foreground(tcell.GetColor(adversary.Color))
		screen.SetContent(col, row, 'G', nil, style)
	}
	col, row := cellOrigin(s.Player)
	if s.GameOver {
		screen.SetContent(col, row, 'X', nil, caughtStyle)
	} else {
		screen.SetContent(col, row, '@', nil, playerStyle)
	}

	status := "arrows move, q quits"
	if s.GameOver {
		status = fmt.Sprintf("GAME OVER! Final score: %d (q quits)", s.Score)
	}
	drawText(screen, 0, headerRows+s.GridSize+2, tcell.StyleDefault, status)

	screen.Show()
}

func drawBorder(screen tcell.Screen, gridSize int) {
	top := headerRows
	bottom := headerRows + gridSize + 1
	right := gridSize*cellWidth + 1

	for col := 1; col < right; col++ {
		screen.SetContent(col, top, tcell.RuneHLine, nil, borderStyle)
		screen.SetContent(col, bottom, tcell.RuneHLine, nil, borderStyle)
	}
	for row := top + 1; row < bottom; row++ {
		screen.SetContent(0, row, tcell.RuneVLine, nil, borderStyle)
		screen.SetContent(right, row, tcell.RuneVLine, nil, borderStyle)
	}
	screen.SetContent(0, top, tcell.RuneULCorner, nil, borderStyle)
	screen.SetContent(right, top, tcell.RuneURCorner, nil, borderStyle)
	screen.SetContent(0, bottom, tcell.RuneLLCorner, nil, borderStyle)
	screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, borderStyle)
}

func drawText(screen tcell.Screen, col, row int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(col, row, r, nil, style)
		col++
	}
}
