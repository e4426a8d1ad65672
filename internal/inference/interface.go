package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the chat-completion operations the matchers need
type Client interface {
	// Judge sends a system/user prompt pair and returns the raw text of the first choice
	Judge(ctx context.Context, params JudgeRequest) (string, error)
	CreateChatCompletion(ctx context.Context, params ChatCompletionRequest) (*ChatCompletion, error)
}

// Embedder turns a text into its embedding vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbeddingModel() string
}

// RunPoller waits for an assistants run to leave its in-flight states
type RunPoller interface {
	PollRun(ctx context.Context, threadID, runID string) (*Run, error)
}

// JudgeRequest holds the already rendered prompts for a single true/false verdict
type JudgeRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
}

// ChatCompletionRequest is the subset of the chat completions body tests send through this library
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
}

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Tool declares a function the model may call
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ChatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int            `json:"index"`
	Message      *ChoiceMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCall is a function call requested by the model, both in chat completions and in assistants runs
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction carries the function name and its JSON encoded arguments
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// IsInFlight reports whether the run may still change state on its own
func (status RunStatus) IsInFlight() bool {
	switch status {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return true
	}
	return false
}

// Run is an assistants API run as returned by GET /threads/{thread_id}/runs/{run_id}
type Run struct {
	ID             string          `json:"id"`
	Object         string          `json:"object"`
	ThreadID       string          `json:"thread_id"`
	AssistantID    string          `json:"assistant_id"`
	Status         RunStatus       `json:"status"`
	RequiredAction *RequiredAction `json:"required_action"`
	Model          string          `json:"model"`
}

type RequiredAction struct {
	Type              string            `json:"type"`
	SubmitToolOutputs SubmitToolOutputs `json:"submit_tool_outputs"`
}

const RequiredActionSubmitToolOutputs = "submit_tool_outputs"

type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

const (
	DefaultMaxRetryAttempts = 3
)
