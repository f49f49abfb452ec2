package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

var (
	ErrNotFound   = errors.New("game session not found")
	ErrConflict   = errors.New("game session was modified concurrently")
	ErrConstraint = errors.New("game session violates a storage constraint")
)

// Sessions persists game sessions. Create assigns ID and Version; Update
// succeeds only if the stored version still matches and bumps it.
type Sessions interface {
	Create(ctx context.Context, s *session.Session) error
	Get(ctx context.Context, id int64) (*session.Session, error)
	Update(ctx context.Context, s *session.Session) error
	Close() error
}

// GameSession is a stored row. Board state is the gob encoding of the board.
type GameSession struct {
	GameSessionId int64      `db:"game_session_id"`
	Width         int        `db:"width"`
	Height        int        `db:"height"`
	MineCount     int        `db:"mine_count"`
	Status        string     `db:"status"`
	State         []byte     `db:"state"`
	Version       int64      `db:"version"`
	CreatedAt     time.Time  `db:"created_at"`
	StartedAt     *time.Time `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func fromSession(s *session.Session) (*GameSession, error) {
	state, err := s.Board.Bytes()
	if err != nil {
		return nil, fmt.Errorf("unable to encode board: %w", err)
	}
	row := &GameSession{
		GameSessionId: s.ID,
		Width:         s.Board.Cols,
		Height:        s.Board.Rows,
		MineCount:     s.Board.MineCount,
		Status:        s.Board.Status.String(),
		State:         state,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
		StartedAt:     optionalTime(s.StartedAt),
		EndedAt:       optionalTime(s.EndedAt),
	}
	return row, nil
}

func (g GameSession) Session() (*session.Session, error) {
	board, err := mines.Decode(g.State)
	if err != nil {
		return nil, err
	}
	s := &session.Session{
		ID:        g.GameSessionId,
		Board:     board,
		CreatedAt: g.CreatedAt,
		Version:   g.Version,
	}
	if g.StartedAt != nil {
		s.StartedAt = *g.StartedAt
	}
	if g.EndedAt != nil {
		s.EndedAt = *g.EndedAt
	}
	return s, nil
}
