package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Document is an uploaded file together with its processing state.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id,notnull"`
	Title        string    `bun:"title,notnull"`
	FilePath     string    `bun:"file_path,notnull"`
	Status       Status    `bun:"status,notnull,default:'pending'"`
	ErrorMessage string    `bun:"error_message"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Task belongs to one user and may be created by the agent on their behalf.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          string     `bun:"id,pk"`
	UserID      string     `bun:"user_id,notnull"`
	Title       string     `bun:"title,notnull"`
	Description string     `bun:"description"`
	Status      TaskStatus `bun:"status,notnull,default:'todo'"`
	Priority    Priority   `bun:"priority,notnull,default:'medium'"`
	DueDate     *time.Time `bun:"due_date"`
	CreatedByAI bool       `bun:"created_by_ai,notnull,default:false"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Conversation groups chat messages into a session. UpdatedAt is bumped on
// every turn so listings surface the most recently active conversation first.
type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Title     string    `bun:"title,notnull,default:'New Conversation'"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ChatMessage is one append-only turn half, ordered by Timestamp.
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:m"`

	ID            string    `bun:"id,pk"`
	UserID        string    `bun:"user_id,notnull"`
	Role          Role      `bun:"role,notnull"`
	Content       string    `bun:"content,notnull"`
	CreatedTaskID string    `bun:"created_task_id"`
	Timestamp     time.Time `bun:"timestamp,notnull,default:current_timestamp"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
