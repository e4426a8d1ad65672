// Package matcher holds the provider backed checks behind each assertion.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/llmassert/internal/inference"
	"github.com/at-ishikawa/llmassert/internal/prompt"
	"github.com/at-ishikawa/llmassert/internal/schema"
	"github.com/at-ishikawa/llmassert/internal/similarity"
	"github.com/at-ishikawa/llmassert/internal/toolcall"
)

const DefaultModel = "gpt-4-turbo"

var (
	ErrNoResponse = errors.New("No response to read tool calls from")
	// ErrNotConfigured is returned when a check needs a dependency that was not provided
	ErrNotConfigured = errors.New("matcher dependency is not configured")
	// ErrInvalidSchema means the schema itself is unusable, rather than the value not matching it
	ErrInvalidSchema = schema.ErrInvalidSchema
)

// CompletionFunc produces the chat completion whose tool calls are inspected
type CompletionFunc func(ctx context.Context) (*inference.ChatCompletion, error)

// EmbeddingComparer scores how close two texts are, from -1 to 1
type EmbeddingComparer interface {
	CompareEmbeddings(ctx context.Context, expected, actual string) (float64, error)
}

type Dependencies struct {
	Client     inference.Client
	Embeddings EmbeddingComparer
	RunPoller  inference.RunPoller
	// DefaultModel is used by the statement checks when a call does not set a model
	DefaultModel string
}

type Matchers struct {
	client       inference.Client
	embeddings   EmbeddingComparer
	runPoller    inference.RunPoller
	defaultModel string
}

func New(dependencies Dependencies) *Matchers {
	defaultModel := dependencies.DefaultModel
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Matchers{
		client:       dependencies.Client,
		embeddings:   dependencies.Embeddings,
		runPoller:    dependencies.RunPoller,
		defaultModel: defaultModel,
	}
}

// Semantic reports whether the embeddings of both texts reach the threshold of rank.
// The score is returned even when the texts are not similar.
func (matchers *Matchers) Semantic(ctx context.Context, rank similarity.Similarity, expected, actual string) (bool, float64, error) {
	if matchers.embeddings == nil {
		return false, 0, fmt.Errorf("embeddings: %w", ErrNotConfigured)
	}
	score, err := matchers.embeddings.CompareEmbeddings(ctx, expected, actual)
	if err != nil {
		return false, 0, fmt.Errorf("embeddings.CompareEmbeddings > %w", err)
	}
	pass := similarity.IsSimilarByScore(rank, score)
	slog.Default().Debug("semantic match",
		"rank", rank,
		"score", score,
		"pass", pass,
	)
	return pass, score, nil
}

func (matchers *Matchers) Absolute(expected, actual string) bool {
	return expected == actual
}

// Schema reports whether actual is JSON that satisfies the struct schema
func (matchers *Matchers) Schema(schemaValue any, actual string) bool {
	return matchers.SchemaError(schemaValue, actual) == nil
}

// SchemaError returns why actual does not satisfy the schema, or nil
func (matchers *Matchers) SchemaError(schemaValue any, actual string) error {
	return schema.Validate(actual, schemaValue)
}

// StrictSchemaError is SchemaError but keys the schema does not declare are a mismatch
func (matchers *Matchers) StrictSchemaError(schemaValue any, actual string) error {
	return schema.ValidateStrict(actual, schemaValue)
}

// Tools calls actual and compares the tool calls of its first choice with expected.
// The requested calls are returned for messages.
func (matchers *Matchers) Tools(ctx context.Context, expected []toolcall.Expected, actual CompletionFunc, all bool) (bool, []inference.ToolCall, error) {
	completion, err := actual(ctx)
	if err != nil {
		return false, nil, err
	}
	if completion == nil || len(completion.Choices) == 0 || completion.Choices[0].Message == nil {
		return false, nil, ErrNoResponse
	}

	calls := completion.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return false, nil, nil
	}
	return toolcall.Match(calls, expected, all), calls, nil
}

// AssistantTools waits for the run to settle and compares the tool calls it requires with expected
func (matchers *Matchers) AssistantTools(ctx context.Context, expected []toolcall.Expected, actual inference.Run, all bool) (bool, []inference.ToolCall, error) {
	if matchers.runPoller == nil {
		return false, nil, fmt.Errorf("run poller: %w", ErrNotConfigured)
	}
	run, err := matchers.runPoller.PollRun(ctx, actual.ThreadID, actual.ID)
	if err != nil {
		return false, nil, fmt.Errorf("runPoller.PollRun > %w", err)
	}

	if run.Status != inference.RunStatusRequiresAction || run.RequiredAction == nil {
		return false, nil, fmt.Errorf("Run entered terminal state %q that did not require action", run.Status)
	}
	if run.RequiredAction.Type != inference.RequiredActionSubmitToolOutputs {
		return false, nil, fmt.Errorf("Run required action type is %q instead of %q", run.RequiredAction.Type, inference.RequiredActionSubmitToolOutputs)
	}

	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	if len(calls) == 0 {
		return false, nil, nil
	}
	return toolcall.Match(calls, expected, all), calls, nil
}

type SatisfiesStatementConfig struct {
	Model string
	Mode  prompt.Mode
}

// SatisfiesStatement asks the model whether statement holds for actual
func (matchers *Matchers) SatisfiesStatement(ctx context.Context, statement, actual string, config SatisfiesStatementConfig) (bool, error) {
	mode := config.Mode
	if mode == "" {
		mode = prompt.ModeNarrow
	}
	return matchers.judge(ctx, config.Model, mode, prompt.Variables{
		Actual:    actual,
		Statement: statement,
	})
}

type FactuallyTrueConfig struct {
	Model             string
	AdditionalContext string
}

// FactuallyTrue asks the model whether actual is true using everything it knows.
// actual is sent as the context and the additional context as the statement.
func (matchers *Matchers) FactuallyTrue(ctx context.Context, actual string, config FactuallyTrueConfig) (bool, error) {
	return matchers.judge(ctx, config.Model, prompt.ModeBroad, prompt.Variables{
		Actual:    actual,
		Statement: config.AdditionalContext,
	})
}

// ModelOrDefault returns the model a statement check would use
func (matchers *Matchers) ModelOrDefault(model string) string {
	if model == "" {
		return matchers.defaultModel
	}
	return model
}

func (matchers *Matchers) judge(ctx context.Context, model string, mode prompt.Mode, variables prompt.Variables) (bool, error) {
	if matchers.client == nil {
		return false, fmt.Errorf("chat client: %w", ErrNotConfigured)
	}
	rendered, err := prompt.Render(mode, variables)
	if err != nil {
		return false, fmt.Errorf("prompt.Render > %w", err)
	}

	completion, err := matchers.client.Judge(ctx, inference.JudgeRequest{
		Model:        matchers.ModelOrDefault(model),
		SystemPrompt: rendered.System,
		UserPrompt:   rendered.Human,
		Temperature:  0,
	})
	if err != nil {
		return false, fmt.Errorf("client.Judge > %w", err)
	}

	pass := isTrueVerdict(completion)
	slog.Default().Debug("statement verdict",
		"mode", mode,
		"completion", completion,
		"pass", pass,
	)
	return pass, nil
}

// isTrueVerdict accepts only "true", ignoring surrounding whitespace
func isTrueVerdict(completion string) bool {
	return strings.TrimSpace(completion) == "true"
}
