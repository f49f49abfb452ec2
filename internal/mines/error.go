package mines

import "errors"

var (
	ErrInvalidSize      = errors.New("board must have at least one row and one column")
	ErrInvalidMineCount = errors.New("mine count must not be negative")
	ErrTooManyMines     = errors.New("too many mines for board size")
)
