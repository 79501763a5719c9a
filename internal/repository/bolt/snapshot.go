package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/kitbuilder587/ctxchat/internal/domain"
	"github.com/kitbuilder587/ctxchat/internal/repository"
)

var bucketConversations = []byte("conversations")

// SnapshotRepo хранит слоты в одном bbolt файле, значение - JSON снапшота
type SnapshotRepo struct {
	db   *bbolt.DB
	path string
}

func Open(path string) (*SnapshotRepo, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt dir %s: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketConversations)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &SnapshotRepo{db: db, path: path}, nil
}

func (r *SnapshotRepo) Location(slot string) string {
	return r.path + "#" + slot
}

func (r *SnapshotRepo) Save(ctx context.Context, slot string, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConversations).Put([]byte(slot), data)
	})
}

func (r *SnapshotRepo) Load(ctx context.Context, slot string) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	var data []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketConversations).Get([]byte(slot))
		if v != nil {
			// v валиден только внутри транзакции
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	if data == nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, r.Location(slot))
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return snapshot, nil
}

func (r *SnapshotRepo) Close() error {
	return r.db.Close()
}

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)
