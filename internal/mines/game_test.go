package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// fixedBoard builds a running board with mines at the given (row, col) pairs.
func fixedBoard(t *testing.T, rows, cols int, mines ...[2]int) *Board {
	t.Helper()
	b, err := New(Params{Rows: rows, Cols: cols}, nil)
	require.NoError(t, err)
	for _, m := range mines {
		b.Cells[b.index(m[0], m[1])].Mine = true
	}
	b.MineCount = len(mines)
	b.countNeighbors()
	b.MinesPlaced = true
	b.Status = Playing
	return b
}

func clone(b *Board) *Board {
	c := *b
	c.Cells = append([]Cell(nil), b.Cells...)
	return &c
}

// revealRecursive is the textbook recursive flood fill, used as a reference.
func revealRecursive(b *Board, row, col int) {
	if !b.InBounds(row, col) {
		return
	}
	c := &b.Cells[b.index(row, col)]
	if c.Revealed || c.Flagged {
		return
	}
	c.Revealed = true
	if c.NeighborMines == 0 {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr != 0 || dc != 0 {
					revealRecursive(b, row+dr, col+dc)
				}
			}
		}
	}
}

func revealedSet(b *Board) []bool {
	out := make([]bool, len(b.Cells))
	for i, c := range b.Cells {
		out[i] = c.Revealed
	}
	return out
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		err    error
	}{
		{"zero rows", Params{Rows: 0, Cols: 9, MineCount: 1}, ErrInvalidSize},
		{"negative cols", Params{Rows: 9, Cols: -1}, ErrInvalidSize},
		{"negative mines", Params{Rows: 9, Cols: 9, MineCount: -1}, ErrInvalidMineCount},
		{"no room for safe zone", Params{Rows: 9, Cols: 9, MineCount: 72}, ErrTooManyMines},
		{"tiny board", Params{Rows: 3, Cols: 3, MineCount: 1}, ErrTooManyMines},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, err := New(test.params, nil)
			assert.ErrorIs(t, err, test.err)
			assert.Nil(t, b)
		})
	}
}

func TestNewBoardIsEmpty(t *testing.T) {
	b, err := New(Beginner, seeded(1))
	require.NoError(t, err)

	assert.Equal(t, Waiting, b.Status)
	assert.False(t, b.MinesPlaced)
	assert.Equal(t, -1, b.Exploded)
	assert.Equal(t, 10, b.MinesLeft())
	require.Len(t, b.Cells, 81)
	for i, c := range b.Cells {
		assert.Equal(t, Cell{Row: i / 9, Col: i % 9}, c)
	}
}

func TestFirstRevealIsSafe(t *testing.T) {
	for seed := range uint64(50) {
		b, err := New(Beginner, seeded(seed))
		require.NoError(t, err)

		status := b.Reveal(4, 4)
		assert.Contains(t, []Status{Playing, Won}, status)
		assert.True(t, b.MinesPlaced)
		for r := 3; r <= 5; r++ {
			for c := 3; c <= 5; c++ {
				cell, _ := b.Cell(r, c)
				assert.False(t, cell.Mine, "seed %d: mine at %d:%d", seed, r, c)
			}
		}
		cell, _ := b.Cell(4, 4)
		assert.True(t, cell.Revealed)
		assert.Zero(t, cell.NeighborMines)
	}
}

func TestRevealMatchesRecursiveFloodFill(t *testing.T) {
	for seed := range uint64(100) {
		rnd := seeded(seed)
		b, err := New(Intermediate, rnd)
		require.NoError(t, err)
		row, col := rnd.IntN(b.Rows), rnd.IntN(b.Cols)
		b.placeMines(row, col)
		b.Status = Playing

		ref := clone(b)
		revealRecursive(ref, row, col)

		b.open(b.index(row, col))
		require.Equal(t, revealedSet(ref), revealedSet(b), "seed %d", seed)

		count := 0
		for _, c := range b.Cells {
			if c.Revealed {
				count++
			}
		}
		assert.Equal(t, count, b.Revealed)
	}
}

func TestCascadeStopsAtNumbers(t *testing.T) {
	// a wall of mines in column 2 leaves columns 3 and 4 untouched
	b := fixedBoard(t, 5, 5, [2]int{0, 2}, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2})

	assert.Equal(t, Playing, b.Reveal(0, 0))
	for _, c := range b.Cells {
		switch {
		case c.Col < 2:
			assert.True(t, c.Revealed, "%d:%d", c.Row, c.Col)
		case c.Col > 2:
			assert.False(t, c.Revealed, "%d:%d", c.Row, c.Col)
		}
	}
	assert.Equal(t, 10, b.Revealed)
}

func TestRevealNumberDoesNotCascade(t *testing.T) {
	b := fixedBoard(t, 4, 5, [2]int{0, 4})

	assert.Equal(t, Playing, b.Reveal(1, 3))
	assert.Equal(t, 1, b.Revealed)
}

func TestWinOnLastSafeCell(t *testing.T) {
	b := fixedBoard(t, 4, 5, [2]int{0, 4})

	assert.Equal(t, Won, b.Reveal(3, 0))
	assert.Equal(t, 19, b.Revealed)
	mine, _ := b.Cell(0, 4)
	assert.True(t, mine.Flagged)
	assert.False(t, mine.Revealed)
	assert.Equal(t, 0, b.MinesLeft())
}

func TestWinAfterSeveralReveals(t *testing.T) {
	b := fixedBoard(t, 1, 5, [2]int{0, 2})

	assert.Equal(t, Playing, b.Reveal(0, 0))
	assert.Equal(t, 2, b.Revealed)
	assert.Equal(t, Won, b.Reveal(0, 4))
	assert.Equal(t, 4, b.Revealed)
}

func TestRevealMineLoses(t *testing.T) {
	b := fixedBoard(t, 5, 5, [2]int{0, 0}, [2]int{4, 4}, [2]int{2, 4})
	b.ToggleFlag(4, 4)

	assert.Equal(t, Lost, b.Reveal(0, 0))
	assert.Equal(t, b.index(0, 0), b.Exploded)
	for _, c := range b.Cells {
		if c.Mine {
			assert.True(t, c.Revealed, "%d:%d", c.Row, c.Col)
		} else {
			assert.False(t, c.Revealed, "%d:%d", c.Row, c.Col)
		}
	}
	flagged, _ := b.Cell(4, 4)
	assert.True(t, flagged.Flagged)
}

func TestRevealIsIdempotent(t *testing.T) {
	b, err := New(Expert, seeded(7))
	require.NoError(t, err)
	b.Reveal(8, 15)

	before := clone(b)
	for _, c := range before.Cells {
		if c.Revealed {
			assert.Equal(t, before.Status, b.Reveal(c.Row, c.Col))
		}
	}
	assert.Equal(t, before.Cells, b.Cells)
	assert.Equal(t, before.Revealed, b.Revealed)
}

func TestFlagBlocksReveal(t *testing.T) {
	b, err := New(Beginner, seeded(3))
	require.NoError(t, err)

	b.ToggleFlag(0, 0)
	assert.Equal(t, Waiting, b.Reveal(0, 0))
	cell, _ := b.Cell(0, 0)
	assert.True(t, cell.Flagged)
	assert.False(t, cell.Revealed)
	assert.False(t, b.MinesPlaced)
	assert.Equal(t, 9, b.MinesLeft())

	b.ToggleFlag(0, 0)
	assert.Contains(t, []Status{Playing, Won}, b.Reveal(0, 0))
	cell, _ = b.Cell(0, 0)
	assert.True(t, cell.Revealed)
	assert.False(t, cell.Flagged)
}

func TestCascadeSkipsFlags(t *testing.T) {
	b := fixedBoard(t, 3, 6, [2]int{0, 5})
	b.ToggleFlag(2, 0)

	b.Reveal(0, 0)
	flagged, _ := b.Cell(2, 0)
	assert.False(t, flagged.Revealed)
	assert.True(t, flagged.Flagged)
	assert.Equal(t, Playing, b.Status)

	b.ToggleFlag(2, 0)
	assert.Equal(t, Won, b.Reveal(2, 0))
}

func TestToggleFlagOnRevealedCell(t *testing.T) {
	b := fixedBoard(t, 4, 5, [2]int{0, 4})
	b.Reveal(1, 3)

	b.ToggleFlag(1, 3)
	cell, _ := b.Cell(1, 3)
	assert.False(t, cell.Flagged)
	assert.Equal(t, 0, b.Flags)
}

func TestMinesLeftGoesNegative(t *testing.T) {
	b := fixedBoard(t, 4, 5, [2]int{0, 4})
	b.ToggleFlag(3, 0)
	b.ToggleFlag(3, 1)
	b.ToggleFlag(3, 2)

	assert.Equal(t, -2, b.MinesLeft())
}

func TestSingleRowWithoutMines(t *testing.T) {
	b, err := New(Params{Rows: 1, Cols: 9, MineCount: 0}, seeded(1))
	require.NoError(t, err)

	assert.Equal(t, Won, b.Reveal(0, 4))
	for _, c := range b.Cells {
		assert.True(t, c.Revealed)
	}
}

func TestNoMutationAfterGameOver(t *testing.T) {
	b := fixedBoard(t, 4, 5, [2]int{0, 4}, [2]int{3, 4})
	b.Reveal(0, 4)
	require.Equal(t, Lost, b.Status)

	before := clone(b)
	assert.Equal(t, Lost, b.Reveal(3, 0))
	b.ToggleFlag(3, 0)
	assert.Equal(t, Lost, b.Chord(1, 3))
	assert.Equal(t, Lost, b.Forfeit())
	assert.Equal(t, before.Cells, b.Cells)
}

func TestOutOfBoundsIsNoop(t *testing.T) {
	b, err := New(Beginner, seeded(1))
	require.NoError(t, err)

	assert.Equal(t, Waiting, b.Reveal(-1, 0))
	assert.Equal(t, Waiting, b.Reveal(0, 9))
	b.ToggleFlag(9, 0)
	assert.Equal(t, 0, b.Flags)
	_, ok := b.Cell(9, 9)
	assert.False(t, ok)
}

func TestChord(t *testing.T) {
	b := fixedBoard(t, 3, 3, [2]int{0, 0})
	b.Reveal(1, 1)
	require.Equal(t, Playing, b.Status)

	// not enough flags
	assert.Equal(t, Playing, b.Chord(1, 1))
	assert.Equal(t, 1, b.Revealed)

	b.ToggleFlag(0, 0)
	assert.Equal(t, Won, b.Chord(1, 1))
	assert.Equal(t, 8, b.Revealed)
}

func TestChordOnWrongFlagLoses(t *testing.T) {
	b := fixedBoard(t, 3, 3, [2]int{0, 0})
	b.Reveal(1, 1)
	b.ToggleFlag(2, 2)

	assert.Equal(t, Lost, b.Chord(1, 1))
	assert.Equal(t, b.index(0, 0), b.Exploded)
}

func TestForfeit(t *testing.T) {
	b, err := New(Beginner, seeded(5))
	require.NoError(t, err)

	assert.Equal(t, Waiting, b.Forfeit())

	b.Reveal(4, 4)
	if b.Status == Won {
		t.Skip("board solved in one click")
	}
	assert.Equal(t, Lost, b.Forfeit())
	assert.Equal(t, -1, b.Exploded)
	for _, c := range b.Cells {
		if c.Mine {
			assert.True(t, c.Revealed)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	b, err := New(Intermediate, seeded(11))
	require.NoError(t, err)
	b.Reveal(8, 8)
	b.ToggleFlag(0, 0)

	buf, err := b.Bytes()
	require.NoError(t, err)
	decoded, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, b.Params, decoded.Params)
	assert.Equal(t, b.Cells, decoded.Cells)
	assert.Equal(t, b.Status, decoded.Status)
	assert.Equal(t, b.Revealed, decoded.Revealed)
	assert.Equal(t, b.Flags, decoded.Flags)
	assert.Equal(t, b.Exploded, decoded.Exploded)

	_, err = Decode([]byte("garbage"))
	assert.Error(t, err)
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{Waiting, Playing, Won, Lost} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var parsed Status
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("paused")))
	assert.True(t, Won.Over())
	assert.False(t, Playing.Over())
}
