package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.ldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "quarterly sales", "llama3-70b-8192")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "quarterly sales", sess.Title)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "llama3-70b-8192", got.Model)

	// unique prefix resolves too
	got, err = s.Get(ctx, sess.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestGetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateDefaultTitle(t *testing.T) {
	s := openTestStore(t)
	sess, err := s.Create(context.Background(), "  ", "m")
	require.NoError(t, err)
	assert.Contains(t, sess.Title, "session ")
}

func TestListOrdersByRecency(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "a", "m")
	require.NoError(t, err)
	b, err := s.Create(ctx, "b", "m")
	require.NoError(t, err)

	// touch a so it becomes the most recent
	time.Sleep(5 * time.Millisecond)
	_, err = s.Append(ctx, a.ID, Message{Role: "user", Content: "hi"})
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)
}

func TestAppendAndMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "t", "m")
	require.NoError(t, err)

	m1, err := s.Append(ctx, sess.ID, Message{Role: "user", Content: "question"})
	require.NoError(t, err)
	assert.Equal(t, 1, m1.Seq)

	m2, err := s.Append(ctx, sess.ID, Message{Role: "assistant", Content: "answer", Charts: []string{"chart_1_x.png"}})
	require.NoError(t, err)
	assert.Equal(t, 2, m2.Seq)

	msgs, err := s.Messages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "question", msgs[0].Content)
	assert.Equal(t, "answer", msgs[1].Content)
	assert.Equal(t, []string{"chart_1_x.png"}, msgs[1].Charts)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Messages)
}

func TestMessagesScopedToSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "a", "m")
	require.NoError(t, err)
	b, err := s.Create(ctx, "b", "m")
	require.NoError(t, err)

	_, err = s.Append(ctx, a.ID, Message{Role: "user", Content: "for a"})
	require.NoError(t, err)
	_, err = s.Append(ctx, b.ID, Message{Role: "user", Content: "for b"})
	require.NoError(t, err)
	_, err = s.Append(ctx, b.ID, Message{Role: "assistant", Content: "reply b"})
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "for a", msgs[0].Content)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddDataset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "t", "m")
	require.NoError(t, err)

	require.NoError(t, s.AddDataset(ctx, sess.ID, DatasetRef{Name: "sales.csv", Path: "/tmp/sales.csv", Rows: 100, Columns: 4}))
	// re-adding the same name replaces it
	require.NoError(t, s.AddDataset(ctx, sess.ID, DatasetRef{Name: "sales.csv", Path: "/tmp/sales.csv", Rows: 120, Columns: 4}))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Datasets, 1)
	assert.Equal(t, 120, got.Datasets[0].Rows)
	assert.False(t, got.Datasets[0].AddedAt.IsZero())
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	keep, err := s.Create(ctx, "keep", "m")
	require.NoError(t, err)
	gone, err := s.Create(ctx, "gone", "m")
	require.NoError(t, err)
	_, err = s.Append(ctx, gone.ID, Message{Role: "user", Content: "bye"})
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, gone.ID))

	_, err = s.Get(ctx, gone.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.ldb")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	sess, err := s.Create(ctx, "persisted", "m")
	require.NoError(t, err)
	_, err = s.Append(ctx, sess.ID, Message{Role: "user", Content: "hello"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)
	msgs, err := s2.Messages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}
