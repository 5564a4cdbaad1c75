package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-workspace/internal/config"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(&config.VectorConfig{Collection: "documents", InMemory: true})
	require.NoError(t, err)
	return idx
}

func entry(id, userID, docID string, chunkIndex int, text string, vector []float32) Entry {
	return Entry{
		ID:     id,
		Text:   text,
		Vector: vector,
		Metadata: Metadata{
			UserID:        userID,
			DocumentID:    docID,
			ChunkIndex:    chunkIndex,
			DocumentTitle: "title-" + docID,
		},
	}
}

func seedTwoOwners(t *testing.T, idx *Index) {
	t.Helper()
	err := idx.Upsert(context.Background(), []Entry{
		entry("docA_0", "alice", "docA", 0, "alice chunk 0", []float32{1, 0, 0}),
		entry("docA_1", "alice", "docA", 1, "alice chunk 1", []float32{0, 1, 0}),
		entry("docB_0", "bob", "docB", 0, "bob chunk 0", []float32{0, 0, 1}),
	})
	require.NoError(t, err)
}

func TestQueryRequiresOwnerFilter(t *testing.T) {
	idx := newTestIndex(t)
	seedTwoOwners(t, idx)

	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, Filter{}, 5)
	assert.ErrorIs(t, err, ErrOwnerFilterRequired)

	err = idx.Delete(context.Background(), Filter{DocumentID: "docA"})
	assert.ErrorIs(t, err, ErrOwnerFilterRequired)
}

func TestQueryOwnerIsolation(t *testing.T) {
	idx := newTestIndex(t)
	seedTwoOwners(t, idx)
	ctx := context.Background()

	matches, err := idx.Query(ctx, []float32{0, 0, 1}, Filter{UserID: "alice"}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "alice", m.Metadata.UserID)
	}

	matches, err = idx.Query(ctx, []float32{0, 0, 1}, Filter{UserID: "bob"}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "bob chunk 0", matches[0].Text)
}

func TestQueryEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	matches, err := idx.Query(context.Background(), []float32{1, 0, 0}, Filter{UserID: "alice"}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUpsertReplacesExistingID(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []Entry{
		entry("docA_0", "alice", "docA", 0, "old text", []float32{1, 0, 0}),
	}))
	require.NoError(t, idx.Upsert(ctx, []Entry{
		entry("docA_0", "alice", "docA", 0, "new text", []float32{1, 0, 0}),
	}))

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, Filter{UserID: "alice"}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new text", matches[0].Text)
}

func TestDeleteSingleDocument(t *testing.T) {
	idx := newTestIndex(t)
	seedTwoOwners(t, idx)
	ctx := context.Background()

	require.NoError(t, idx.Delete(ctx, Filter{UserID: "alice", DocumentID: "docA"}))

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, Filter{UserID: "alice"}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Bob's partition is untouched.
	matches, err = idx.Query(ctx, []float32{0, 0, 1}, Filter{UserID: "bob"}, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDeleteFullOwnerPartition(t *testing.T) {
	idx := newTestIndex(t)
	seedTwoOwners(t, idx)
	ctx := context.Background()

	require.NoError(t, idx.Delete(ctx, Filter{UserID: "alice"}))

	matches, err := idx.Query(ctx, []float32{0, 1, 0}, Filter{UserID: "alice"}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = idx.Query(ctx, []float32{0, 0, 1}, Filter{UserID: "bob"}, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMetadataRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []Entry{
		entry("docC_7", "carol", "docC", 7, "chunk seven", []float32{1, 0, 0}),
	}))

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, Filter{UserID: "carol"}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, Metadata{
		UserID:        "carol",
		DocumentID:    "docC",
		ChunkIndex:    7,
		DocumentTitle: "title-docC",
	}, matches[0].Metadata)
}
