package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/minesweeper-engine/internal/session"
)

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func classifyPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
	}
	return err
}

func (p *Postgres) Create(ctx context.Context, s *session.Session) error {
	row, err := fromSession(s)
	if err != nil {
		return err
	}
	rows, _ := p.db.Query(
		ctx,
		`INSERT INTO game_session (
			width, height, mine_count, status, state, created_at, started_at, ended_at
		)
		VALUES (
			@width, @height, @mine_count, @status, @state, @created_at, @started_at, @ended_at
		)
		RETURNING *;`,
		pgx.NamedArgs{
			"width":      row.Width,
			"height":     row.Height,
			"mine_count": row.MineCount,
			"status":     row.Status,
			"state":      row.State,
			"created_at": row.CreatedAt,
			"started_at": row.StartedAt,
			"ended_at":   row.EndedAt,
		},
	)
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	if err != nil {
		return classifyPgError(err)
	}
	s.ID = created.GameSessionId
	s.Version = created.Version
	return nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (*session.Session, error) {
	rows, _ := p.db.Query(
		ctx,
		"SELECT * FROM game_session WHERE game_session_id = $1",
		id,
	)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	if err != nil {
		return nil, classifyPgError(err)
	}
	return row.Session()
}

func (p *Postgres) Update(ctx context.Context, s *session.Session) error {
	row, err := fromSession(s)
	if err != nil {
		return err
	}
	tag, err := p.db.Exec(
		ctx,
		`UPDATE game_session
		SET status = @status,
			state = @state,
			started_at = @started_at,
			ended_at = @ended_at,
			version = version + 1
		WHERE game_session_id = @game_session_id AND version = @version;`,
		pgx.NamedArgs{
			"game_session_id": row.GameSessionId,
			"version":         row.Version,
			"status":          row.Status,
			"state":           row.State,
			"started_at":      row.StartedAt,
			"ended_at":        row.EndedAt,
		},
	)
	if err != nil {
		return classifyPgError(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := p.db.QueryRow(
			ctx,
			"SELECT EXISTS (SELECT 1 FROM game_session WHERE game_session_id = $1)",
			row.GameSessionId,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	s.Version++
	return nil
}

// Close is a no-op: the pool belongs to the caller.
func (p *Postgres) Close() error {
	return nil
}
