package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		History: []domain.Entry{
			{Role: domain.RoleSystem, Content: "You are a helpful assistant"},
			{Role: domain.RoleUser, Content: "Привет, как дела? <b>&</b>"},
			{Role: domain.RoleAssistant, Content: "Отлично 🤖"},
		},
		MaxHistory: 6,
	}
}

func TestSnapshotRepo_RoundTrip(t *testing.T) {
	repo := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "conversation", sampleSnapshot()))

	got, err := repo.Load(ctx, "conversation")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot().History, got.History)
	assert.Equal(t, 6, got.MaxHistory)
}

func TestSnapshotRepo_FileFormat(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)

	snap := sampleSnapshot()
	snap.SessionID = "must-not-be-written"
	require.NoError(t, repo.Save(context.Background(), "conversation", snap))

	data, err := os.ReadFile(filepath.Join(dir, "conversation.json"))
	require.NoError(t, err)
	body := string(data)

	assert.True(t, strings.HasPrefix(body, "{\n  \"history\": [\n"), "two-space indentation expected:\n%s", body)
	assert.Contains(t, body, "Привет, как дела? <b>&</b>")
	assert.Contains(t, body, "Отлично 🤖")
	assert.Contains(t, body, `"max_history": 6`)
	assert.NotContains(t, body, "must-not-be-written")
}

func TestSnapshotRepo_Overwrite(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "conversation", sampleSnapshot()))

	second := domain.Snapshot{
		History:    []domain.Entry{{Role: domain.RoleSystem, Content: "sys"}},
		MaxHistory: 3,
	}
	require.NoError(t, repo.Save(ctx, "conversation", second))

	got, err := repo.Load(ctx, "conversation")
	require.NoError(t, err)
	assert.Equal(t, second.History, got.History)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSnapshotRepo_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		wantErr error
	}{
		{
			name:    "missing file",
			content: nil,
			wantErr: domain.ErrSnapshotNotFound,
		},
		{
			name:    "malformed json",
			content: ptr(`{"history": [`),
			wantErr: domain.ErrInvalidSnapshot,
		},
		{
			name:    "wrong type",
			content: ptr(`{"history": "nope", "max_history": 5}`),
			wantErr: domain.ErrInvalidSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != nil {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "conversation.json"), []byte(*tt.content), 0o644))
			}

			_, err := New(dir).Load(context.Background(), "conversation")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSnapshotRepo_MissingFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conversation.json"), []byte(`{}`), 0o644))

	got, err := New(dir).Load(context.Background(), "conversation")
	require.NoError(t, err)
	assert.Nil(t, got.History)
	assert.Zero(t, got.MaxHistory)
}

func TestSnapshotRepo_Location(t *testing.T) {
	assert.Equal(t, "conversation.json", New("").Location("conversation"))
	assert.Equal(t, filepath.Join("/tmp/x", "slot.json"), New("/tmp/x").Location("slot"))
}

func ptr(s string) *string { return &s }
