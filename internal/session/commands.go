package session

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

type Op string

const (
	OpNoop    Op = "g"
	OpReveal  Op = "o"
	OpFlag    Op = "f"
	OpChord   Op = "c"
	OpForfeit Op = "r"
)

// Maps known commands to number of arguments
var opNargs = map[Op]int{
	OpNoop:    0,
	OpReveal:  2,
	OpFlag:    2,
	OpChord:   2,
	OpForfeit: 0,
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgs        = errors.New("invalid command arguments")
	ErrOutOfBounds    = errors.New("invalid cell coordinates")
)

type Command struct {
	Op       Op
	Row, Col int
}

func (c Command) String() string {
	if opNargs[c.Op] == 0 {
		return string(c.Op)
	}
	return fmt.Sprintf("%s %d %d", c.Op, c.Row, c.Col)
}

func parseRowCol(args []string) (row int, col int, err error) {
	if row, err = strconv.Atoi(args[0]); err != nil {
		return 0, 0, fmt.Errorf("%w: row must be an int", ErrBadArgs)
	}
	if col, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: col must be an int", ErrBadArgs)
	}
	return row, col, nil
}

// ParseCommand parses one line of the text protocol, e.g. "o 3 4".
func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, ErrUnknownCommand
	}
	op := Op(parts[0])
	nargs, ok := opNargs[op]
	if !ok {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, parts[0])
	}
	if nargs != len(parts)-1 {
		return Command{}, fmt.Errorf(
			"%w: %q takes %d arguments", ErrBadArgs, op, nargs,
		)
	}
	cmd := Command{Op: op}
	if nargs == 2 {
		row, col, err := parseRowCol(parts[1:])
		if err != nil {
			return Command{}, err
		}
		cmd.Row, cmd.Col = row, col
	}
	return cmd, nil
}

func (s *Session) check(cmd Command) error {
	nargs, ok := opNargs[cmd.Op]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Op)
	}
	if nargs == 2 && !s.Board.InBounds(cmd.Row, cmd.Col) {
		return fmt.Errorf("%w: %d:%d", ErrOutOfBounds, cmd.Row, cmd.Col)
	}
	return nil
}

// Apply runs cmd against the board. Coordinates outside the board are an
// error; moves the game rules reject are not.
func (s *Session) Apply(cmd Command, now time.Time) error {
	if err := s.check(cmd); err != nil {
		return err
	}
	before := s.Board.Status
	switch cmd.Op {
	case OpNoop:
	case OpReveal:
		s.Board.Reveal(cmd.Row, cmd.Col)
	case OpFlag:
		s.Board.ToggleFlag(cmd.Row, cmd.Col)
	case OpChord:
		s.Board.Chord(cmd.Row, cmd.Col)
	case OpForfeit:
		s.Board.Forfeit()
	}
	s.track(before, now)
	return nil
}

// BatchError points at the line (counted from 1) of a batch that could not
// be run.
type BatchError struct {
	Line int
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func byPiece(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

// ApplyBatch runs newline-separated commands in order, stopping once the
// game is over. Every line is checked before any is run, so a malformed batch
// leaves the board untouched. Blank lines are skipped. It returns the number
// of commands run.
func (s *Session) ApplyBatch(text string, now time.Time) (int, error) {
	var cmds []Command
	for i, line := range byPiece(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err == nil {
			err = s.check(cmd)
		}
		if err != nil {
			return 0, &BatchError{Line: i + 1, Err: err}
		}
		cmds = append(cmds, cmd)
	}
	n := 0
	for _, cmd := range cmds {
		if s.Board.Status.Over() {
			break
		}
		if err := s.Apply(cmd, now); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
