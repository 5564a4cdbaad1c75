package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"ai-workspace/internal/llmservice"
	"ai-workspace/internal/models"
)

// ErrModelCall means a chat model call failed. When the final call of a turn
// fails there is no safe fallback text, so the error surfaces to the caller.
var ErrModelCall = errors.New("model call failed")

const systemPrompt = `You are an intelligent AI assistant for an AI Workspace application.
You help users manage their documents and tasks efficiently.

Your capabilities:
1. **Document Search**: You can search through the user's uploaded documents to answer questions.
   Use the search_documents tool when users ask about content in their files.

2. **Task Management**: You can create tasks and list the user's tasks.
   Use create_task when users want to add a task, reminder, or to-do item.
   Use list_tasks when users want to see their tasks.

3. **Document Listing**: You can show users what documents they have uploaded.
   Use list_documents when users ask about their uploaded files.

Important guidelines:
- When answering questions about documents, ALWAYS use the search_documents tool first.
- If the search returns no relevant information, clearly state: "This information is not available in your uploaded documents."
- Be helpful, concise, and accurate.
- When creating tasks, confirm the details with the user.
- Format your responses clearly using markdown when appropriate.

Remember: You can only access documents that the user has uploaded. You cannot browse the internet or access external sources.`

// HistoryMessage is one prior turn half supplied by the conversation store.
type HistoryMessage struct {
	Role    models.Role
	Content string
}

// Reply is the outcome of one turn. CreatedTaskID is set when the tool round
// created a task, so the stored assistant message can link back to it.
type Reply struct {
	Content       string
	CreatedTaskID string
}

// taskCreator is implemented by tools that record the task they created. The
// registry is rebuilt per turn, so the recorded id belongs to this turn.
type taskCreator interface {
	lastCreatedTaskID() string
}

// Agent runs the bounded single-round tool-calling loop: one model call with
// tools, at most one round of tool execution, then one final call without
// tools. The bound is a hard contract, not an optimization.
type Agent struct {
	model  llms.Model
	tools  []Tool
	byName map[string]Tool
}

func New(model llms.Model, tools []Tool) *Agent {
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Agent{model: model, tools: tools, byName: byName}
}

// Chat produces the reply for one conversational turn.
func (a *Agent) Chat(ctx context.Context, userMessage string, history []HistoryMessage) (Reply, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))

	resp, err := llmservice.GenerateContent(ctx, a.model, a.definitions(), messages)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("%w: empty response", ErrModelCall)
	}
	choice := resp.Choices[0]

	if len(choice.ToolCalls) == 0 {
		return Reply{Content: choice.Content}, nil
	}

	assistantMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	for _, tc := range choice.ToolCalls {
		assistantMsg.Parts = append(assistantMsg.Parts, tc)
	}
	messages = append(messages, assistantMsg)

	for _, tc := range choice.ToolCalls {
		result := a.executeToolCall(ctx, tc)
		messages = append(messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				},
			},
		})
	}

	// Final call goes out without tools, which guarantees the loop terminates
	// after a single tool round trip.
	final, err := llmservice.GenerateContent(ctx, a.model, nil, messages)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	if len(final.Choices) == 0 {
		return Reply{}, fmt.Errorf("%w: empty response", ErrModelCall)
	}
	return Reply{Content: final.Choices[0].Content, CreatedTaskID: a.createdTaskID()}, nil
}

func (a *Agent) createdTaskID() string {
	for _, t := range a.tools {
		if tc, ok := t.(taskCreator); ok && tc.lastCreatedTaskID() != "" {
			return tc.lastCreatedTaskID()
		}
	}
	return ""
}

// executeToolCall always yields a textual result for the model, success or
// failure; a broken tool never aborts the turn.
func (a *Agent) executeToolCall(ctx context.Context, tc llms.ToolCall) string {
	name := tc.FunctionCall.Name
	log.Info().Str("tool", name).Str("args", tc.FunctionCall.Arguments).Msg("Executing tool")

	tool, ok := a.byName[name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	var args map[string]any
	if tc.FunctionCall.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
			return fmt.Sprintf("Error parsing arguments for %s: %v", name, err)
		}
	}

	result, err := tool.Call(ctx, args)
	if err != nil {
		log.Error().Err(err).Str("tool", name).Msg("Tool execution failed")
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return result
}

func (a *Agent) definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}
