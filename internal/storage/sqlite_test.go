package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbitr/altdocs/internal/collab"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFetchDocumentNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.FetchDocument(context.Background(), "missing")
	assert.True(t, errors.Is(err, collab.ErrNotFound))
}

func TestSaveThenFetchRoundTrips(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := []byte(`[{"id":"b1","type":"paragraph"}]`)
	require.NoError(t, s.SaveDocument(ctx, "doc1", "My Title", content))

	got, err := s.FetchDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "doc1", got.ID)
	assert.Equal(t, "My Title", got.Title)
	assert.Equal(t, content, got.Content)
}

func TestSaveDocumentUpsertsOnSecondCall(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, "doc1", "v1", []byte("a")))
	require.NoError(t, s.SaveDocument(ctx, "doc1", "v2", []byte("bb")))

	got, err := s.FetchDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	assert.Equal(t, []byte("bb"), got.Content)
}

func TestCount(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.SaveDocument(ctx, "doc1", "t", []byte("x")))
	require.NoError(t, s.SaveDocument(ctx, "doc2", "t", []byte("y")))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
