package mines

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

var Log logrus.FieldLogger = logrus.StandardLogger()

type Status uint8

const (
	Waiting Status = iota // no click yet, mines not placed
	Playing
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Over reports whether the game has ended.
func (s Status) Over() bool {
	return s == Won || s == Lost
}

// [Status] implements [encoding.TextMarshaler]
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, v := range []Status{Waiting, Playing, Won, Lost} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", text)
}

type Cell struct {
	Row, Col      int
	Mine          bool
	Revealed      bool
	Flagged       bool
	NeighborMines int
}

// Board is the full state of one game. It is owned by a single caller and
// mutated only through its methods.
type Board struct {
	Params
	Cells       []Cell // row-major
	Status      Status
	MinesPlaced bool
	Revealed    int // revealed non-mine cells
	Flags       int
	Exploded    int // index of the mine that lost the game, -1 if none

	rnd *rand.Rand
}

// New allocates an empty board. Mines are placed on the first [Board.Reveal],
// using rnd (a nil rnd falls back to a randomly seeded source).
func New(p Params, rnd *rand.Rand) (*Board, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cells := make([]Cell, p.Size())
	for i := range cells {
		cells[i] = Cell{Row: i / p.Cols, Col: i % p.Cols}
	}
	b := &Board{
		Params:   p,
		Cells:    cells,
		Status:   Waiting,
		Exploded: -1,
		rnd:      rnd,
	}
	return b, nil
}

// UseRand replaces the random source, e.g. after [Decode].
func (b *Board) UseRand(rnd *rand.Rand) {
	b.rnd = rnd
}

func (b *Board) index(row, col int) int {
	return row*b.Cols + col
}

// Cell returns a copy of the cell at (row, col).
func (b *Board) Cell(row, col int) (Cell, bool) {
	if !b.InBounds(row, col) {
		return Cell{}, false
	}
	return b.Cells[b.index(row, col)], true
}

// MinesLeft is the advisory "mines remaining" counter. It goes negative when
// the player places more flags than there are mines.
func (b *Board) MinesLeft() int {
	return b.MineCount - b.Flags
}

// Reveal opens the cell at (row, col). Revealing a flagged or already
// revealed cell, an out-of-bounds cell, or any cell after the game has ended
// is a no-op that returns the current status.
func (b *Board) Reveal(row, col int) Status {
	if !b.InBounds(row, col) || b.Status.Over() {
		return b.Status
	}
	i := b.index(row, col)
	if b.Cells[i].Revealed || b.Cells[i].Flagged {
		return b.Status
	}
	if b.Status == Waiting {
		b.placeMines(row, col)
		b.Status = Playing
	}
	return b.open(i)
}

// ToggleFlag flips the flag on a covered cell while the game is running.
func (b *Board) ToggleFlag(row, col int) {
	if !b.InBounds(row, col) || b.Status.Over() {
		return
	}
	c := &b.Cells[b.index(row, col)]
	if c.Revealed {
		return
	}
	c.Flagged = !c.Flagged
	if c.Flagged {
		b.Flags++
	} else {
		b.Flags--
	}
}

// Chord opens every covered, unflagged neighbour of a revealed number once
// the player has placed exactly that many flags around it.
func (b *Board) Chord(row, col int) Status {
	if !b.InBounds(row, col) || b.Status != Playing {
		return b.Status
	}
	i := b.index(row, col)
	if !b.Cells[i].Revealed || b.Cells[i].NeighborMines == 0 {
		return b.Status
	}
	flagged := 0
	targets := make([]int, 0, 8)
	for j := range b.neighbors(i) {
		switch n := b.Cells[j]; {
		case n.Flagged:
			flagged++
		case !n.Revealed:
			targets = append(targets, j)
		}
	}
	if flagged != b.Cells[i].NeighborMines || len(targets) == 0 {
		return b.Status
	}
	return b.open(targets...)
}

// Forfeit ends a running game as lost and uncovers the mines.
func (b *Board) Forfeit() Status {
	if b.Status != Playing {
		return b.Status
	}
	b.revealMines()
	b.Status = Lost
	return b.Status
}

// open reveals targets and cascades through zero cells with a work queue.
func (b *Board) open(targets ...int) Status {
	for _, i := range targets {
		if b.Cells[i].Mine {
			b.Exploded = i
			b.revealMines()
			b.Status = Lost
			return b.Status
		}
	}

	queue := make([]int, 0, len(targets))
	for _, i := range targets {
		if !b.Cells[i].Revealed {
			b.Cells[i].Revealed = true
			b.Revealed++
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if b.Cells[i].NeighborMines != 0 {
			continue
		}
		for j := range b.neighbors(i) {
			n := &b.Cells[j]
			if n.Revealed || n.Flagged || n.Mine {
				continue
			}
			n.Revealed = true
			b.Revealed++
			queue = append(queue, j)
		}
	}

	if b.Revealed == b.Size()-b.MineCount {
		b.Status = Won
		for i := range b.Cells {
			if c := &b.Cells[i]; c.Mine && !c.Flagged {
				c.Flagged = true
				b.Flags++
			}
		}
	}
	return b.Status
}

func (b *Board) revealMines() {
	for i := range b.Cells {
		if b.Cells[i].Mine {
			b.Cells[i].Revealed = true
		}
	}
}

func Decode(buf []byte) (*Board, error) {
	var b Board
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&b); err != nil {
		return nil, fmt.Errorf("unable to decode board: %w", err)
	}
	if len(b.Cells) != b.Size() {
		return nil, fmt.Errorf(
			"decoded board has %d cells, want %d", len(b.Cells), b.Size(),
		)
	}
	return &b, nil
}

func (b *Board) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
