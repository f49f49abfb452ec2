package mines

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// samplingBudget bounds rejection sampling before falling back to a shuffle
// of the eligible cells.
func samplingBudget(mineCount int) int {
	return 32*mineCount + 64
}

// placeMines puts MineCount mines outside the 3x3 zone centred on
// (safeRow, safeCol) and computes neighbour counts.
func (b *Board) placeMines(safeRow, safeCol int) {
	rnd := b.rnd
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	safe := func(i int) bool {
		return absDiff(i/b.Cols, safeRow) <= 1 && absDiff(i%b.Cols, safeCol) <= 1
	}

	eligible := 0
	for i := range b.Cells {
		if !safe(i) {
			eligible++
		}
	}

	placed := 0
	if 2*b.MineCount <= eligible {
		for budget := samplingBudget(b.MineCount); placed < b.MineCount && budget > 0; budget-- {
			i := rnd.IntN(len(b.Cells))
			if b.Cells[i].Mine || safe(i) {
				continue
			}
			b.Cells[i].Mine = true
			placed++
		}
	}

	if placed < b.MineCount {
		Log.WithFields(logrus.Fields{
			"board":    b.Params.String(),
			"placed":   placed,
			"eligible": eligible,
		}).Debug("falling back to shuffled mine placement")

		candidates := make([]int, 0, eligible-placed)
		for i := range b.Cells {
			if !safe(i) && !b.Cells[i].Mine {
				candidates = append(candidates, i)
			}
		}
		rnd.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, i := range candidates[:min(b.MineCount-placed, len(candidates))] {
			b.Cells[i].Mine = true
		}
	}

	b.countNeighbors()
	b.MinesPlaced = true
}

func (b *Board) countNeighbors() {
	for i := range b.Cells {
		if b.Cells[i].Mine {
			continue
		}
		n := 0
		for j := range b.neighbors(i) {
			if b.Cells[j].Mine {
				n++
			}
		}
		b.Cells[i].NeighborMines = n
	}
}
