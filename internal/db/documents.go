package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ai-workspace/internal/models"
)

// Documents is the relational store for the Document entity.
type Documents struct {
	db *bun.DB
}

func NewDocuments(db *bun.DB) *Documents {
	return &Documents{db: db}
}

func (s *Documents) Create(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := s.db.NewInsert().Model(doc).Exec(ctx)
	return err
}

func (s *Documents) Get(ctx context.Context, id string) (*models.Document, error) {
	doc := new(models.Document)
	err := s.db.NewSelect().Model(doc).Where("d.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Documents) Update(ctx context.Context, doc *models.Document) error {
	_, err := s.db.NewUpdate().Model(doc).WherePK().Exec(ctx)
	return err
}

// List returns the owner's documents, most recent first.
func (s *Documents) List(ctx context.Context, userID string, limit int) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.NewSelect().
		Model(&docs).
		Where("d.user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return docs, err
}

func (s *Documents) Delete(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*models.Document)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// DeleteOldFailed removes failed documents created before the cutoff and
// returns how many rows went away.
func (s *Documents) DeleteOldFailed(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*models.Document)(nil)).
		Where("status = ?", models.StatusFailed).
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
