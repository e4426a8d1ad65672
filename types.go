package llmassert

import (
	"github.com/at-ishikawa/llmassert/internal/inference"
	"github.com/at-ishikawa/llmassert/internal/matcher"
	"github.com/at-ishikawa/llmassert/internal/prompt"
	"github.com/at-ishikawa/llmassert/internal/similarity"
	"github.com/at-ishikawa/llmassert/internal/toolcall"
	"github.com/at-ishikawa/llmassert/internal/verdict"
)

type (
	ChatCompletionRequest = inference.ChatCompletionRequest
	ChatCompletion        = inference.ChatCompletion
	Choice                = inference.Choice
	ChoiceMessage         = inference.ChoiceMessage
	Message               = inference.Message
	Role                  = inference.Role
	Tool                  = inference.Tool
	FunctionDefinition    = inference.FunctionDefinition
	ToolCall              = inference.ToolCall
	ToolFunction          = inference.ToolFunction
	Run                   = inference.Run
	RunStatus             = inference.RunStatus
	RequiredAction        = inference.RequiredAction
	SubmitToolOutputs     = inference.SubmitToolOutputs

	// ExpectedTool names a tool and optionally the JSON arguments it must be called with
	ExpectedTool = toolcall.Expected
	// CompletionFunc returns the completion whose tool calls are asserted
	CompletionFunc = matcher.CompletionFunc

	Client    = inference.Client
	Embedder  = inference.Embedder
	RunPoller = inference.RunPoller

	// Verdict is one recorded assertion outcome
	Verdict = verdict.Record
	// VerdictRecorder stores verdicts, for example in a YAML file or MySQL
	VerdictRecorder = verdict.Recorder

	Mode       = prompt.Mode
	Similarity = similarity.Similarity
)

const (
	RoleSystem    = inference.RoleSystem
	RoleUser      = inference.RoleUser
	RoleAssistant = inference.RoleAssistant
	RoleTool      = inference.RoleTool

	ModeNarrow = prompt.ModeNarrow
	ModeBroad  = prompt.ModeBroad

	SimilarityVeryHigh = similarity.VeryHigh
	SimilarityHigh     = similarity.High
	SimilarityMedium   = similarity.Medium
	SimilarityLow      = similarity.Low
)

// ToolNames expects the tools by name, with any arguments
func ToolNames(names ...string) []ExpectedTool {
	return toolcall.Names(names...)
}
