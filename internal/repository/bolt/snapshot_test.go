package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

func testRepo(t *testing.T) *SnapshotRepo {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "data", "conversation.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSnapshotRepo_RoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	snap := domain.Snapshot{
		History: []domain.Entry{
			{Role: domain.RoleSystem, Content: "sys"},
			{Role: domain.RoleUser, Content: "ping"},
			{Role: domain.RoleAssistant, Content: "pong"},
		},
		MaxHistory: 5,
	}
	require.NoError(t, repo.Save(ctx, "conversation", snap))
	require.NoError(t, repo.Save(ctx, "other", domain.Snapshot{
		History:    []domain.Entry{{Role: domain.RoleSystem, Content: "other"}},
		MaxHistory: 2,
	}))

	got, err := repo.Load(ctx, "conversation")
	require.NoError(t, err)
	assert.Equal(t, snap.History, got.History)
	assert.Equal(t, 5, got.MaxHistory)

	other, err := repo.Load(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 2, other.MaxHistory)
}

func TestSnapshotRepo_NotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSnapshotRepo_Corrupted(t *testing.T) {
	repo := testRepo(t)

	err := repo.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConversations).Put([]byte("conversation"), []byte("{not json"))
	})
	require.NoError(t, err)

	_, err = repo.Load(context.Background(), "conversation")
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestSnapshotRepo_CanceledContext(t *testing.T) {
	repo := testRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Save(ctx, "conversation", domain.Snapshot{}), context.Canceled)
}
