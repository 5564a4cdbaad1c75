package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ai-workspace/internal/helper"
	"ai-workspace/internal/models"
)

// Conversations persists conversations and their messages.
type Conversations struct {
	db *bun.DB
}

func NewConversations(db *bun.DB) *Conversations {
	return &Conversations{db: db}
}

// GetOrCreate looks up an owner's conversation by id, or starts a new one
// titled after the opening message when id is empty.
func (s *Conversations) GetOrCreate(ctx context.Context, userID, id, firstMessage string) (*models.Conversation, error) {
	if id != "" {
		conv := new(models.Conversation)
		err := s.db.NewSelect().
			Model(conv).
			Where("c.id = ?", id).
			Where("c.user_id = ?", userID).
			Scan(ctx)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	newID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	conv := &models.Conversation{
		ID:        newID,
		UserID:    userID,
		Title:     conversationTitle(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(conv).Exec(ctx); err != nil {
		return nil, err
	}
	return conv, nil
}

// Touch bumps the conversation's updated_at to now.
func (s *Conversations) Touch(ctx context.Context, id string) error {
	_, err := s.db.NewUpdate().
		Model((*models.Conversation)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// AppendMessage stores one turn half for the user.
func (s *Conversations) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		msg.ID = id
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := s.db.NewInsert().Model(msg).Exec(ctx)
	return err
}

// Recent returns the owner's last messages in chronological order.
func (s *Conversations) Recent(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.db.NewSelect().
		Model(&msgs).
		Where("m.user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ClearHistory deletes all of the owner's messages and conversations.
func (s *Conversations) ClearHistory(ctx context.Context, userID string) error {
	if _, err := s.db.NewDelete().Model((*models.ChatMessage)(nil)).Where("user_id = ?", userID).Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewDelete().Model((*models.Conversation)(nil)).Where("user_id = ?", userID).Exec(ctx)
	return err
}

func conversationTitle(message string) string {
	const maxLen = 50
	if message == "" {
		return "New Conversation"
	}
	if len(message) > maxLen {
		return message[:maxLen] + "..."
	}
	return message
}
