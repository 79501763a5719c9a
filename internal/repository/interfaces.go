package repository

import (
	"context"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

// SnapshotRepository хранит сохранённые разговоры по имени слота.
// Load возвращает domain.ErrSnapshotNotFound, если слота нет.
type SnapshotRepository interface {
	Save(ctx context.Context, slot string, snapshot domain.Snapshot) error
	Load(ctx context.Context, slot string) (domain.Snapshot, error)
	// Location - где лежит слот, для сообщений пользователю
	Location(slot string) string
	Close() error
}
