package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kitbuilder587/ctxchat/internal/domain"
	"github.com/kitbuilder587/ctxchat/internal/repository"
)

// SnapshotRepo keeps each slot in <dir>/<slot>.json.
type SnapshotRepo struct {
	dir string
}

func New(dir string) *SnapshotRepo {
	if dir == "" {
		dir = "."
	}
	return &SnapshotRepo{dir: dir}
}

func (r *SnapshotRepo) Location(slot string) string {
	return filepath.Join(r.dir, slot+".json")
}

func (r *SnapshotRepo) Save(ctx context.Context, slot string, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	// не экранируем кириллицу и <>&, файл должен читаться глазами
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := r.Location(slot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+slot+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, slot string) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	data, err := os.ReadFile(r.Location(slot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, r.Location(slot))
		}
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return snapshot, nil
}

func (r *SnapshotRepo) Close() error {
	return nil
}

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)
