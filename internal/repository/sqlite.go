package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vancomm/minesweeper-engine/internal/session"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_session (
	game_session_id	INTEGER	PRIMARY KEY AUTOINCREMENT,
	width			INTEGER	NOT NULL CHECK (width > 0),
	height			INTEGER	NOT NULL CHECK (height > 0),
	mine_count		INTEGER	NOT NULL CHECK (
						mine_count = 0 OR mine_count BETWEEN 1 AND width * height - 10
					),
	status			TEXT	NOT NULL CHECK (status IN ('waiting', 'playing', 'won', 'lost')),
	state			BLOB	NOT NULL,
	version			INTEGER	NOT NULL DEFAULT 1,
	created_at		INTEGER	NOT NULL,
	started_at		INTEGER	NULL,
	ended_at		INTEGER	NULL,
	updated_at		INTEGER	NOT NULL
);`

// SQLite keeps sessions in a single file. Times are stored as unix
// milliseconds.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("unable to create directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

func classifySQLiteError(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %s", ErrConstraint, sqliteErr.Error())
	}
	return err
}

func (s *SQLite) Create(ctx context.Context, sess *session.Session) error {
	row, err := fromSession(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO game_session (
			width, height, mine_count, status, state, version,
			created_at, started_at, ended_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?);`,
		row.Width, row.Height, row.MineCount, row.Status, row.State,
		row.CreatedAt.UnixMilli(), toMillis(row.StartedAt), toMillis(row.EndedAt),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return classifySQLiteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sess.ID = id
	sess.Version = 1
	return nil
}

func (s *SQLite) Get(ctx context.Context, id int64) (*session.Session, error) {
	var (
		row                GameSession
		createdAt, updated int64
		startedAt, endedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT game_session_id, width, height, mine_count, status, state, version,
			created_at, started_at, ended_at, updated_at
		FROM game_session WHERE game_session_id = ?;`,
		id,
	).Scan(
		&row.GameSessionId, &row.Width, &row.Height, &row.MineCount, &row.Status,
		&row.State, &row.Version, &createdAt, &startedAt, &endedAt, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	row.CreatedAt = time.UnixMilli(createdAt).UTC()
	row.UpdatedAt = time.UnixMilli(updated).UTC()
	row.StartedAt = fromMillis(startedAt)
	row.EndedAt = fromMillis(endedAt)
	return row.Session()
}

func (s *SQLite) Update(ctx context.Context, sess *session.Session) error {
	row, err := fromSession(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE game_session
		SET status = ?, state = ?, started_at = ?, ended_at = ?,
			version = version + 1, updated_at = ?
		WHERE game_session_id = ? AND version = ?;`,
		row.Status, row.State, toMillis(row.StartedAt), toMillis(row.EndedAt),
		time.Now().UnixMilli(), row.GameSessionId, row.Version,
	)
	if err != nil {
		return classifySQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		err := s.db.QueryRowContext(
			ctx,
			"SELECT EXISTS (SELECT 1 FROM game_session WHERE game_session_id = ?);",
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
	sess.Version++
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
