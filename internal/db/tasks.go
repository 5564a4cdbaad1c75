package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ai-workspace/internal/helper"
	"ai-workspace/internal/models"
)

// Tasks is the relational store for the Task entity.
type Tasks struct {
	db *bun.DB
}

func NewTasks(db *bun.DB) *Tasks {
	return &Tasks{db: db}
}

func (s *Tasks) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		task.ID = id
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	_, err := s.db.NewInsert().Model(task).Exec(ctx)
	return err
}

// List returns the owner's tasks ordered by priority weight then recency.
// An empty or "all" status filter excludes done tasks; a concrete status
// restricts to it.
func (s *Tasks) List(ctx context.Context, userID, statusFilter string, limit int) ([]models.Task, error) {
	var tasks []models.Task
	q := s.db.NewSelect().
		Model(&tasks).
		Where("t.user_id = ?", userID)

	if statusFilter != "" && statusFilter != "all" && models.ValidTaskStatus(statusFilter) {
		q = q.Where("t.status = ?", statusFilter)
	} else {
		q = q.Where("t.status != ?", models.TaskDone)
	}

	err := q.
		OrderExpr("CASE t.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC").
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return tasks, err
}
