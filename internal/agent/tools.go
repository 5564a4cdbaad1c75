package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"ai-workspace/internal/embedding"
	"ai-workspace/internal/models"
	"ai-workspace/internal/vectorindex"
)

// NoRelevantInformation is returned verbatim by search_documents when no
// chunks match. The system prompt keys off this sentinel to tell the model to
// admit the information is unavailable instead of fabricating an answer.
const NoRelevantInformation = "No relevant information found in your uploaded documents."

// Tool is one user-bound capability exposed to the model. The acting user is
// fixed at construction time, so a tool can never touch another user's data.
type Tool interface {
	Name() string
	Definition() llms.Tool
	Call(ctx context.Context, args map[string]any) (string, error)
}

// TaskStore is the slice of task persistence the tools need.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	List(ctx context.Context, userID, statusFilter string, limit int) ([]models.Task, error)
}

// DocumentLister lists a user's documents with their processing status.
type DocumentLister interface {
	List(ctx context.Context, userID string, limit int) ([]models.Document, error)
}

// Searcher runs owner-filtered nearest-neighbor queries.
type Searcher interface {
	Query(ctx context.Context, queryVector []float32, filter vectorindex.Filter, k int) ([]vectorindex.Match, error)
}

// Deps collects the collaborators the tool registry binds to a user.
type Deps struct {
	Embedder      embeddings.Embedder
	Searcher      Searcher
	Tasks         TaskStore
	Documents     DocumentLister
	SearchResults int
}

// NewRegistry builds the full tool set bound to one user.
func NewRegistry(userID string, deps Deps) []Tool {
	searchResults := deps.SearchResults
	if searchResults <= 0 {
		searchResults = 5
	}
	return []Tool{
		&searchDocumentsTool{userID: userID, embedder: deps.Embedder, searcher: deps.Searcher, topK: searchResults},
		&createTaskTool{userID: userID, tasks: deps.Tasks},
		&listTasksTool{userID: userID, tasks: deps.Tasks},
		&listDocumentsTool{userID: userID, documents: deps.Documents},
	}
}

type searchDocumentsTool struct {
	userID   string
	embedder embeddings.Embedder
	searcher Searcher
	topK     int
}

func (t *searchDocumentsTool) Name() string { return "search_documents" }

func (t *searchDocumentsTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name: t.Name(),
			Description: "Search for relevant information in the user's uploaded documents. " +
				"Use this tool when the user asks questions about their documents or files.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query to find relevant document chunks.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

func (t *searchDocumentsTool) Call(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}
	log.Info().Str("user_id", t.userID).Str("query", query).Msg("Searching documents")

	queryVector, err := embedding.EmbedQuery(ctx, t.embedder, query)
	if err != nil {
		return "", err
	}

	matches, err := t.searcher.Query(ctx, queryVector, vectorindex.Filter{UserID: t.userID}, t.topK)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return NoRelevantInformation, nil
	}

	formatted := make([]string, 0, len(matches))
	for _, m := range matches {
		title := m.Metadata.DocumentTitle
		if title == "" {
			title = "Unknown Document"
		}
		formatted = append(formatted, fmt.Sprintf("[Source: %s]\n%s", title, m.Text))
	}
	return strings.Join(formatted, "\n\n---\n\n"), nil
}

type createTaskTool struct {
	userID    string
	tasks     TaskStore
	createdID string
}

func (t *createTaskTool) Name() string { return "create_task" }

func (t *createTaskTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name: t.Name(),
			Description: "Create a new task for the user. Use this when the user asks to " +
				"create a task, add a reminder, or set up something to do.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "The title/name of the task.",
					},
					"priority": map[string]any{
						"type":        "string",
						"description": "Priority level - must be one of: 'low', 'medium', 'high'. Default is 'medium'.",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional description for the task.",
					},
				},
				"required": []string{"title"},
			},
		},
	}
}

func (t *createTaskTool) Call(ctx context.Context, args map[string]any) (string, error) {
	title, _ := args["title"].(string)
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("title must not be empty")
	}
	priority, _ := args["priority"].(string)
	description, _ := args["description"].(string)

	task := &models.Task{
		UserID:      t.userID,
		Title:       title,
		Description: description,
		Status:      models.TaskTodo,
		Priority:    models.ParsePriority(strings.ToLower(priority)),
		CreatedByAI: true,
	}
	if err := t.tasks.Create(ctx, task); err != nil {
		return "", err
	}
	t.createdID = task.ID

	log.Info().Str("user_id", t.userID).Str("task_id", task.ID).Msg("Task created by agent")
	return fmt.Sprintf("Task created successfully!\n- Title: %s\n- Priority: %s\n- Status: %s\n- ID: %s",
		task.Title, task.Priority, task.Status, task.ID), nil
}

func (t *createTaskTool) lastCreatedTaskID() string { return t.createdID }

type listTasksTool struct {
	userID string
	tasks  TaskStore
}

func (t *listTasksTool) Name() string { return "list_tasks" }

func (t *listTasksTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name: t.Name(),
			Description: "List the user's tasks. Use this when the user asks to see their " +
				"tasks, to-dos, or what they have to do.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status_filter": map[string]any{
						"type":        "string",
						"description": "Optional filter - 'todo', 'in_progress', 'done', or 'all'. Default shows active tasks.",
					},
				},
			},
		},
	}
}

func (t *listTasksTool) Call(ctx context.Context, args map[string]any) (string, error) {
	statusFilter, _ := args["status_filter"].(string)

	tasks, err := t.tasks.List(ctx, t.userID, statusFilter, 10)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "You don't have any active tasks.", nil
	}

	var b strings.Builder
	b.WriteString("Your Tasks:\n")
	for _, task := range tasks {
		aiBadge := ""
		if task.CreatedByAI {
			aiBadge = " [AI]"
		}
		fmt.Fprintf(&b, "\n- [%s] (%s) %s%s\n", task.Status, task.Priority, task.Title, aiBadge)
		if task.Description != "" {
			desc := task.Description
			if len(desc) > 50 {
				desc = desc[:50] + "..."
			}
			fmt.Fprintf(&b, "  %s\n", desc)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

type listDocumentsTool struct {
	userID    string
	documents DocumentLister
}

func (t *listDocumentsTool) Name() string { return "list_documents" }

func (t *listDocumentsTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name: t.Name(),
			Description: "List all documents uploaded by the user. Use this when the user " +
				"asks what documents or files they have uploaded.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (t *listDocumentsTool) Call(ctx context.Context, _ map[string]any) (string, error) {
	docs, err := t.documents.List(ctx, t.userID, 10)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "You haven't uploaded any documents yet.", nil
	}

	var b strings.Builder
	b.WriteString("Your Documents:\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "\n- %s (%s)", doc.Title, doc.Status)
	}
	return b.String(), nil
}
