package mines

import "iter"

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// neighbors yields the indices of the up to 8 cells adjacent to cell i.
func (b *Board) neighbors(i int) iter.Seq[int] {
	row, col := i/b.Cols, i%b.Cols
	return func(yield func(int) bool) {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				r, c := row+dr, col+dc
				if !b.InBounds(r, c) {
					continue
				}
				if !yield(b.index(r, c)) {
					return
				}
			}
		}
	}
}
