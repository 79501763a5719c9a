package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kitbuilder587/ctxchat/internal/domain"
	"github.com/kitbuilder587/ctxchat/internal/repository"
)

const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		slot        TEXT PRIMARY KEY,
		session_id  TEXT,
		history     TEXT NOT NULL,
		max_history INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL DEFAULT (unixepoch())
	);
`

type SnapshotRepo struct {
	db   *sql.DB
	path string
}

// OpenDB opens (or creates) a SQLite database at path, creating the parent
// directory when needed.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	return db, nil
}

func Open(ctx context.Context, path string) (*SnapshotRepo, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SnapshotRepo{db: db, path: path}, nil
}

func (r *SnapshotRepo) Location(slot string) string {
	return r.path + "#" + slot
}

func (r *SnapshotRepo) Save(ctx context.Context, slot string, snapshot domain.Snapshot) error {
	history, err := json.Marshal(snapshot.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (slot, session_id, history, max_history, updated_at)
		VALUES (?, ?, ?, ?, unixepoch())
		ON CONFLICT(slot) DO UPDATE SET
			session_id = excluded.session_id,
			history = excluded.history,
			max_history = excluded.max_history,
			updated_at = excluded.updated_at
	`, slot, nullString(snapshot.SessionID), string(history), snapshot.MaxHistory)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, slot string) (domain.Snapshot, error) {
	var (
		sessionID sql.NullString
		history   string
		snapshot  domain.Snapshot
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, history, max_history FROM snapshots WHERE slot = ?`, slot,
	).Scan(&sessionID, &history, &snapshot.MaxHistory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, r.Location(slot))
		}
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(history), &snapshot.History); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	snapshot.SessionID = sessionID.String
	return snapshot, nil
}

func (r *SnapshotRepo) Close() error {
	return r.db.Close()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)
