package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"ai-workspace/internal/embedding"
	"ai-workspace/internal/models"
	"ai-workspace/internal/vectorindex"
)

// ErrNoContent means extraction or chunking yielded nothing usable.
var ErrNoContent = errors.New("no extractable content")

// DocumentStore is the slice of relational persistence the pipeline needs.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}

// Index is the slice of the vector index the pipeline writes to.
type Index interface {
	Upsert(ctx context.Context, entries []vectorindex.Entry) error
	Delete(ctx context.Context, filter vectorindex.Filter) error
}

// Chunker splits extracted text into segments for embedding.
type Chunker interface {
	Chunk(text string) []string
}

// ExtractFunc converts a stored file into a plain text blob.
type ExtractFunc func(path string) (string, error)

// Pipeline turns an uploaded file into owner-isolated vector chunks, driving
// the document status machine along the way.
type Pipeline struct {
	docs     DocumentStore
	index    Index
	embedder embeddings.Embedder
	chunker  Chunker
	extract  ExtractFunc
}

func NewPipeline(docs DocumentStore, index Index, embedder embeddings.Embedder, chunker Chunker, extract ExtractFunc) *Pipeline {
	return &Pipeline{
		docs:     docs,
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		extract:  extract,
	}
}

// Process runs one full ingestion for the document: extract, chunk, embed in
// a single batch, upsert into the shared collection. Failures are recorded on
// the document and returned so the worker can retry the whole run.
func (p *Pipeline) Process(ctx context.Context, docID string) error {
	doc, err := p.docs.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("document %s not found: %w", docID, err)
	}

	log.Info().Str("doc_id", docID).Str("title", doc.Title).Msg("Starting document processing")

	if err := p.setStatus(ctx, doc, models.StatusProcessing); err != nil {
		return err
	}

	text, err := p.extract(doc.FilePath)
	if err != nil {
		return p.fail(ctx, doc, err)
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return p.fail(ctx, doc, ErrNoContent)
	}

	if err := p.setStatus(ctx, doc, models.StatusEmbedding); err != nil {
		return err
	}

	log.Info().Str("doc_id", docID).Int("chunks", len(chunks)).Msg("Generating embeddings")
	vectors, err := embedding.EmbedTexts(ctx, p.embedder, chunks)
	if err != nil {
		return p.fail(ctx, doc, err)
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectorindex.Entry{
			ID:     fmt.Sprintf("%s_%d", doc.ID, i),
			Text:   chunk,
			Vector: vectors[i],
			Metadata: vectorindex.Metadata{
				UserID:        doc.UserID,
				DocumentID:    doc.ID,
				ChunkIndex:    i,
				DocumentTitle: doc.Title,
			},
		}
	}

	// Chunk ids are stable across runs, so upserting overwrites the previous
	// run's entries; purge first anyway so a rerun that yields fewer chunks
	// cannot leave a stale tail behind.
	if err := p.index.Delete(ctx, vectorindex.Filter{UserID: doc.UserID, DocumentID: doc.ID}); err != nil {
		return p.fail(ctx, doc, err)
	}
	if err := p.index.Upsert(ctx, entries); err != nil {
		return p.fail(ctx, doc, err)
	}

	doc.Status = models.StatusCompleted
	doc.ErrorMessage = ""
	if err := p.docs.Update(ctx, doc); err != nil {
		return err
	}

	log.Info().Str("doc_id", docID).Int("chunks", len(chunks)).Msg("Document processing completed")
	return nil
}

// Reprocess resets a document to pending so a fresh run can supersede its
// chunks. Rejected while a run owns the document.
func (p *Pipeline) Reprocess(ctx context.Context, docID string) error {
	doc, err := p.docs.Get(ctx, docID)
	if err != nil {
		return err
	}
	if !doc.Status.CanReprocess() {
		return fmt.Errorf("%w: document %s is being processed", models.ErrInvalidTransition, docID)
	}
	doc.Status = models.StatusPending
	doc.ErrorMessage = ""
	if err := p.docs.Update(ctx, doc); err != nil {
		return err
	}
	log.Info().Str("doc_id", docID).Msg("Document reset for reprocessing")
	return nil
}

// Delete purges the document's vector entries, then its record. An index
// failure is logged but never blocks the relational delete.
func (p *Pipeline) Delete(ctx context.Context, docID string) error {
	doc, err := p.docs.Get(ctx, docID)
	if err != nil {
		return err
	}
	if doc.Status == models.StatusCompleted {
		filter := vectorindex.Filter{UserID: doc.UserID, DocumentID: doc.ID}
		if err := p.index.Delete(ctx, filter); err != nil {
			log.Error().Err(err).Str("doc_id", docID).Msg("Error deleting vector entries")
		}
	}
	return p.docs.Delete(ctx, docID)
}

func (p *Pipeline) setStatus(ctx context.Context, doc *models.Document, next models.Status) error {
	if err := models.Transition(doc.Status, next); err != nil {
		return err
	}
	doc.Status = next
	return p.docs.Update(ctx, doc)
}

// fail records the error on the document and moves it to failed through the
// transition table. The cause is returned so the caller can decide whether to
// retry the run.
func (p *Pipeline) fail(ctx context.Context, doc *models.Document, cause error) error {
	log.Error().Err(cause).Str("doc_id", doc.ID).Msg("Document processing failed")
	doc.ErrorMessage = cause.Error()
	if err := p.setStatus(ctx, doc, models.StatusFailed); err != nil {
		log.Error().Err(err).Str("doc_id", doc.ID).Msg("Error recording failure")
	}
	return cause
}
