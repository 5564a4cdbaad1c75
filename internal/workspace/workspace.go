package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ai-workspace/internal/agent"
	"ai-workspace/internal/helper"
	"ai-workspace/internal/models"
	"ai-workspace/internal/worker"
)

// ErrEmptyMessage means a chat turn was submitted with no content. Nothing is
// persisted in that case.
var ErrEmptyMessage = errors.New("message must not be empty")

// DocumentStore is the slice of document persistence the façade needs.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	DeleteOldFailed(ctx context.Context, cutoff time.Time) (int64, error)
}

// ConversationStore persists conversations and message history windows.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, userID, id, firstMessage string) (*models.Conversation, error)
	Touch(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	Recent(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
	ClearHistory(ctx context.Context, userID string) error
}

// Ingestor drives the document processing state machine.
type Ingestor interface {
	Process(ctx context.Context, docID string) error
	Reprocess(ctx context.Context, docID string) error
	Delete(ctx context.Context, docID string) error
}

// JobQueue dispatches background ingestion runs.
type JobQueue interface {
	Enqueue(name string, job worker.Job) error
}

// Chatter produces the reply for one conversational turn.
type Chatter interface {
	Chat(ctx context.Context, userMessage string, history []agent.HistoryMessage) (agent.Reply, error)
}

// AgentFactory builds a chat agent with its tools bound to the acting user.
type AgentFactory func(userID string) Chatter

// Workspace is the core façade exposed to the surrounding CRUD/auth layers.
type Workspace struct {
	docs          DocumentStore
	conversations ConversationStore
	pipeline      Ingestor
	queue         JobQueue
	newAgent      AgentFactory
	historyWindow int
}

func New(docs DocumentStore, conversations ConversationStore, pipeline Ingestor, queue JobQueue, newAgent AgentFactory, historyWindow int) *Workspace {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Workspace{
		docs:          docs,
		conversations: conversations,
		pipeline:      pipeline,
		queue:         queue,
		newAgent:      newAgent,
		historyWindow: historyWindow,
	}
}

// SubmitDocument records a pending document and enqueues its ingestion run.
func (w *Workspace) SubmitDocument(ctx context.Context, userID, filePath, title string) (string, error) {
	if title == "" {
		title = filepath.Base(filePath)
	}
	id, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}

	doc := &models.Document{
		ID:       id,
		UserID:   userID,
		Title:    title,
		FilePath: filePath,
		Status:   models.StatusPending,
	}
	if err := w.docs.Create(ctx, doc); err != nil {
		return "", err
	}

	if err := w.enqueueIngestion(id); err != nil {
		log.Error().Err(err).Str("doc_id", id).Msg("Error starting processing")
		if terr := models.Transition(doc.Status, models.StatusFailed); terr != nil {
			return id, terr
		}
		doc.Status = models.StatusFailed
		doc.ErrorMessage = fmt.Sprintf("Failed to start processing: %v", err)
		if uerr := w.docs.Update(ctx, doc); uerr != nil {
			return "", uerr
		}
		return id, err
	}

	log.Info().Str("doc_id", id).Str("user_id", userID).Msg("Document submitted")
	return id, nil
}

// Reprocess resets a document and enqueues a fresh ingestion run. Returns
// models.ErrInvalidTransition while the document is being processed.
func (w *Workspace) Reprocess(ctx context.Context, docID string) error {
	if err := w.pipeline.Reprocess(ctx, docID); err != nil {
		return err
	}
	return w.enqueueIngestion(docID)
}

// DeleteDocument purges the document's vectors, then its record.
func (w *Workspace) DeleteDocument(ctx context.Context, docID string) error {
	return w.pipeline.Delete(ctx, docID)
}

// RunTurn executes one chat turn: persist the user message, run the bounded
// agent loop with the user's history window, persist and return the reply.
// A final-model-call failure propagates with only the user message persisted.
func (w *Workspace) RunTurn(ctx context.Context, userID, message, conversationID string) (string, string, error) {
	if strings.TrimSpace(message) == "" {
		return "", "", ErrEmptyMessage
	}

	conv, err := w.conversations.GetOrCreate(ctx, userID, conversationID, message)
	if err != nil {
		return "", "", err
	}

	history, err := w.conversations.Recent(ctx, userID, w.historyWindow)
	if err != nil {
		return "", "", err
	}

	if err := w.conversations.AppendMessage(ctx, &models.ChatMessage{
		UserID:  userID,
		Role:    models.RoleUser,
		Content: message,
	}); err != nil {
		return "", "", err
	}

	agentHistory := make([]agent.HistoryMessage, 0, len(history))
	for _, msg := range history {
		agentHistory = append(agentHistory, agent.HistoryMessage{Role: msg.Role, Content: msg.Content})
	}

	reply, err := w.newAgent(userID).Chat(ctx, message, agentHistory)
	if err != nil {
		return "", conv.ID, err
	}

	if err := w.conversations.AppendMessage(ctx, &models.ChatMessage{
		UserID:        userID,
		Role:          models.RoleAssistant,
		Content:       reply.Content,
		CreatedTaskID: reply.CreatedTaskID,
	}); err != nil {
		return "", conv.ID, err
	}
	if err := w.conversations.Touch(ctx, conv.ID); err != nil {
		log.Error().Err(err).Str("conversation_id", conv.ID).Msg("Error bumping conversation")
	}

	log.Info().Str("user_id", userID).Str("conversation_id", conv.ID).Msg("Chat turn completed")
	return reply.Content, conv.ID, nil
}

// ClearHistory wipes the user's conversations and messages.
func (w *Workspace) ClearHistory(ctx context.Context, userID string) error {
	return w.conversations.ClearHistory(ctx, userID)
}

// CleanupFailedDocuments removes failed documents older than maxAge.
func (w *Workspace) CleanupFailedDocuments(ctx context.Context, maxAge time.Duration) (int64, error) {
	count, err := w.docs.DeleteOldFailed(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Cleaned up old failed documents")
	}
	return count, nil
}

func (w *Workspace) enqueueIngestion(docID string) error {
	return w.queue.Enqueue("ingest:"+docID, func(ctx context.Context) error {
		return w.pipeline.Process(ctx, docID)
	})
}
