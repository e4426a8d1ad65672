package llmassert

import (
	"github.com/at-ishikawa/llmassert/internal/prompt"
	"github.com/at-ishikawa/llmassert/internal/similarity"
)

type callOptions struct {
	model             string
	mode              prompt.Mode
	additionalContext string
	rank              similarity.Similarity
}

// CallOption tunes a single assertion
type CallOption func(*callOptions)

// WithModel selects the chat model judging the statement
func WithModel(model string) CallOption {
	return func(o *callOptions) {
		o.model = model
	}
}

// WithMode selects whether the model may only use the received text (ModeNarrow, the default)
// or everything it knows (ModeBroad)
func WithMode(mode Mode) CallOption {
	return func(o *callOptions) {
		o.mode = mode
	}
}

// WithAdditionalContext is sent along with the received text by BeFactual
func WithAdditionalContext(additionalContext string) CallOption {
	return func(o *callOptions) {
		o.additionalContext = additionalContext
	}
}

// WithSimilarity sets how close SemanticallyMatch requires the texts to be
func WithSimilarity(rank Similarity) CallOption {
	return func(o *callOptions) {
		o.rank = rank
	}
}

func (asserter *Asserter) callOptions(opts []CallOption) callOptions {
	o := callOptions{
		mode: prompt.ModeNarrow,
		rank: asserter.defaultRank,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rank == "" {
		o.rank = similarity.High
	}
	return o
}
