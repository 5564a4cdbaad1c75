package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"ai-workspace/internal/config"
)

// ErrOwnerFilterRequired means a query or delete was attempted without an
// owner filter. Owner metadata is the sole isolation mechanism, so a missing
// owner is a programming error, never a valid request.
var ErrOwnerFilterRequired = errors.New("owner filter is required")

// Metadata keys stored with every chunk.
const (
	metaUserID        = "user_id"
	metaDocID         = "doc_id"
	metaChunkIndex    = "chunk_index"
	metaDocumentTitle = "document_title"
)

// Metadata identifies who owns a chunk and where it came from.
type Metadata struct {
	UserID        string
	DocumentID    string
	ChunkIndex    int
	DocumentTitle string
}

// Entry is one (vector, text, metadata) tuple keyed by a chunk id.
type Entry struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// Match is a query result with its similarity score.
type Match struct {
	ID         string
	Text       string
	Similarity float32
	Metadata   Metadata
}

// Filter restricts queries and deletes to an owner's partition, optionally
// narrowed to a single document.
type Filter struct {
	UserID     string
	DocumentID string
}

// Index wraps a chromem-go collection shared by all owners. Isolation is
// enforced here through mandatory metadata filters, not by the store.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// New opens the vector database and its single shared collection.
func New(cfg *config.VectorConfig) (*Index, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &Index{db: db, collection: collection}, nil
}

// Upsert writes entries into the collection. Re-upserting an id replaces its
// prior entry, which is what lets reprocessing supersede stale chunks.
func (x *Index) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Vector,
			Metadata:  e.Metadata.toMap(),
		}
	}
	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Query returns up to k nearest entries within the filter's owner partition.
func (x *Index) Query(ctx context.Context, queryVector []float32, filter Filter, k int) ([]Match, error) {
	where, err := filter.where()
	if err != nil {
		return nil, err
	}

	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := x.collection.QueryEmbedding(ctx, queryVector, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:         r.ID,
			Text:       r.Content,
			Similarity: r.Similarity,
			Metadata:   metadataFromMap(r.Metadata),
		})
	}
	return matches, nil
}

// Delete removes every entry matching the filter: one document's chunks when
// DocumentID is set, the owner's full partition otherwise.
func (x *Index) Delete(ctx context.Context, filter Filter) error {
	where, err := filter.where()
	if err != nil {
		return err
	}
	if x.collection.Count() == 0 {
		return nil
	}
	if err := x.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %v", err)
	}
	log.Debug().
		Str("user_id", filter.UserID).
		Str("doc_id", filter.DocumentID).
		Msg("Deleted vector entries")
	return nil
}

func (f Filter) where() (map[string]string, error) {
	if f.UserID == "" {
		return nil, ErrOwnerFilterRequired
	}
	where := map[string]string{metaUserID: f.UserID}
	if f.DocumentID != "" {
		where[metaDocID] = f.DocumentID
	}
	return where, nil
}

func (m Metadata) toMap() map[string]string {
	return map[string]string{
		metaUserID:        m.UserID,
		metaDocID:         m.DocumentID,
		metaChunkIndex:    strconv.Itoa(m.ChunkIndex),
		metaDocumentTitle: m.DocumentTitle,
	}
}

func metadataFromMap(m map[string]string) Metadata {
	idx, _ := strconv.Atoi(m[metaChunkIndex])
	return Metadata{
		UserID:        m[metaUserID],
		DocumentID:    m[metaDocID],
		ChunkIndex:    idx,
		DocumentTitle: m[metaDocumentTitle],
	}
}
