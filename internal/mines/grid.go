package mines

import (
	"strconv"
	"strings"
)

// CellState is what a player may know about a cell.
type CellState int8

const (
	Covered     CellState = -2
	Flagged     CellState = -1
	CorrectFlag CellState = 64 // post-game-over
	Exploded    CellState = 65
	WrongFlag   CellState = 66
	Mine        CellState = 67
	// 0-8 for a revealed cell with the given number of mined neighbours
)

func (s CellState) String() string {
	switch {
	case s == Covered:
		return "-"
	case s == Flagged, s == CorrectFlag:
		return "F"
	case s == Exploded:
		return "X"
	case s == WrongFlag:
		return "x"
	case s == Mine:
		return "*"
	case s == 0:
		return "."
	case 0 < s && s <= 8:
		return strconv.Itoa(int(s))
	default:
		return "!"
	}
}

// Grid is a row-major player view of a board.
type Grid []CellState

// Format renders the grid one row per line.
func (g Grid) Format(cols int) string {
	if cols < 1 {
		return ""
	}
	var b strings.Builder
	for i, s := range g {
		b.WriteString(s.String())
		if (i+1)%cols == 0 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// View returns what the player may see. Mines stay hidden until the game is
// over.
func (b *Board) View() Grid {
	grid := make(Grid, len(b.Cells))
	for i, c := range b.Cells {
		switch {
		case c.Flagged && b.Status == Lost && c.Mine:
			grid[i] = CorrectFlag
		case c.Flagged && b.Status == Lost:
			grid[i] = WrongFlag
		case c.Flagged:
			grid[i] = Flagged
		case c.Revealed && i == b.Exploded:
			grid[i] = Exploded
		case c.Revealed && c.Mine:
			grid[i] = Mine
		case c.Revealed:
			grid[i] = CellState(c.NeighborMines)
		default:
			grid[i] = Covered
		}
	}
	return grid
}

// Solution shows every cell as if revealed: mines and neighbour counts. It
// is for debugging and must not reach a player before the game ends.
func (b *Board) Solution() Grid {
	grid := make(Grid, len(b.Cells))
	for i, c := range b.Cells {
		if c.Mine {
			grid[i] = Mine
		} else {
			grid[i] = CellState(c.NeighborMines)
		}
	}
	return grid
}

func (b *Board) String() string {
	return b.View().Format(b.Cols)
}
