package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kitbuilder587/ctxchat/internal/domain"
	"github.com/kitbuilder587/ctxchat/internal/repository"
)

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Location(slot string) string {
	return "postgres:conversation_snapshots/" + slot
}

func (r *SnapshotRepo) Save(ctx context.Context, slot string, snapshot domain.Snapshot) error {
	query := `
		INSERT INTO conversation_snapshots (slot, session_id, history, max_history, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (slot) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			history = EXCLUDED.history,
			max_history = EXCLUDED.max_history,
			updated_at = EXCLUDED.updated_at
	`

	history := snapshot.History
	if history == nil {
		history = []domain.Entry{}
	}

	_, err := r.db.Pool.Exec(ctx, query, slot, nullString(snapshot.SessionID), history, snapshot.MaxHistory)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
		}
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, slot string) (domain.Snapshot, error) {
	query := `
		SELECT session_id, history, max_history
		FROM conversation_snapshots
		WHERE slot = $1
	`

	var (
		sessionID *string
		snapshot  domain.Snapshot
	)
	err := r.db.Pool.QueryRow(ctx, query, slot).Scan(&sessionID, &snapshot.History, &snapshot.MaxHistory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, r.Location(slot))
		}
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if sessionID != nil {
		snapshot.SessionID = *sessionID
	}
	return snapshot, nil
}

// Close освобождает пул, репозиторий им владеет
func (r *SnapshotRepo) Close() error {
	r.db.Close()
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isCheckViolation checks if the error is a PostgreSQL check constraint violation
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)
