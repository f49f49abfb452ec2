package session

import (
	"strconv"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

// Session is one persisted game.
type Session struct {
	ID        int64
	Board     *mines.Board
	CreatedAt time.Time
	StartedAt time.Time // zero until the first reveal
	EndedAt   time.Time // zero until won or lost
	Version   int64
}

func New(board *mines.Board, now time.Time) *Session {
	return &Session{
		Board:     board,
		CreatedAt: now.UTC(),
	}
}

// track records the timer transitions that followed a board operation.
func (s *Session) track(before mines.Status, now time.Time) {
	after := s.Board.Status
	if before == mines.Waiting && after != mines.Waiting && s.StartedAt.IsZero() {
		s.StartedAt = now.UTC()
	}
	if !before.Over() && after.Over() && s.EndedAt.IsZero() {
		s.EndedAt = now.UTC()
	}
}

// Elapsed is the play time shown to the player: zero before the first click,
// frozen once the game is over.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := now
	if !s.EndedAt.IsZero() {
		end = s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

func (s *Session) ElapsedSeconds(now time.Time) int64 {
	return int64(s.Elapsed(now) / time.Second)
}

type JSON struct {
	SessionID string       `json:"session_id"`
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	MineCount int          `json:"mine_count"`
	MinesLeft int          `json:"mines_left"`
	Status    mines.Status `json:"status"`
	Grid      mines.Grid   `json:"grid"`
	Elapsed   int64        `json:"elapsed"`
	StartedAt *int64       `json:"started_at,omitempty"`
	EndedAt   *int64       `json:"ended_at,omitempty"`
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// View renders the player-facing snapshot at now.
func (s *Session) View(now time.Time) JSON {
	return JSON{
		SessionID: strconv.FormatInt(s.ID, 10),
		Rows:      s.Board.Rows,
		Cols:      s.Board.Cols,
		MineCount: s.Board.MineCount,
		MinesLeft: s.Board.MinesLeft(),
		Status:    s.Board.Status,
		Grid:      s.Board.View(),
		Elapsed:   s.ElapsedSeconds(now),
		StartedAt: unixMilli(s.StartedAt),
		EndedAt:   unixMilli(s.EndedAt),
	}
}
