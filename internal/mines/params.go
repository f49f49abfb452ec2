package mines

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Params describes the shape of a board.
type Params struct {
	Rows      int `json:"rows" yaml:"rows" schema:"rows"`
	Cols      int `json:"cols" yaml:"cols" schema:"cols"`
	MineCount int `json:"mine_count" yaml:"mine_count" schema:"mine_count"`
}

var (
	Beginner     = Params{Rows: 9, Cols: 9, MineCount: 10}
	Intermediate = Params{Rows: 16, Cols: 16, MineCount: 40}
	Expert       = Params{Rows: 16, Cols: 30, MineCount: 99}
)

var presets = map[string]Params{
	"beginner":     Beginner,
	"intermediate": Intermediate,
	"expert":       Expert,
}

// Preset looks up a difficulty preset by (case-insensitive) name.
func Preset(name string) (Params, bool) {
	p, ok := presets[strings.ToLower(name)]
	return p, ok
}

// Presets returns a copy of the built-in difficulty presets.
func Presets() map[string]Params {
	return maps.Clone(presets)
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	return slices.Sorted(maps.Keys(presets))
}

// Size returns the total number of cells on the board.
func (p Params) Size() int {
	return p.Rows * p.Cols
}

// Validate reports whether a board can be built from p. A non-zero mine
// count must leave room for a full 3x3 safe zone around the first click.
func (p Params) Validate() error {
	if p.Rows < 1 || p.Cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, p.Rows, p.Cols)
	}
	if p.MineCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMineCount, p.MineCount)
	}
	if p.MineCount > 0 && p.MineCount >= p.Size()-9 {
		return fmt.Errorf(
			"%w: %d mines on a %dx%d board (must be below %d)",
			ErrTooManyMines, p.MineCount, p.Rows, p.Cols, p.Size()-9,
		)
	}
	return nil
}

// InBounds reports whether (row, col) lies on the board.
func (p Params) InBounds(row, col int) bool {
	return 0 <= row && row < p.Rows && 0 <= col && col < p.Cols
}

func (p Params) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Rows, p.Cols, p.MineCount)
}

// ParseParams parses the "rows:cols:mines" form produced by [Params.String].
func ParseParams(s string) (Params, error) {
	var p Params
	n, err := fmt.Sscanf(
		strings.ReplaceAll(s, ":", " "), "%d %d %d", &p.Rows, &p.Cols, &p.MineCount,
	)
	if n != 3 || err != nil {
		return Params{}, fmt.Errorf(`invalid board params %q (n = %d, err = %v)`, s, n, err)
	}
	return p, nil
}
