package llmassert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/embedding"
	"github.com/at-ishikawa/llmassert/internal/inference/openai"
	"github.com/at-ishikawa/llmassert/internal/matcher"
	"github.com/at-ishikawa/llmassert/internal/similarity"
	"github.com/at-ishikawa/llmassert/internal/verdict"
)

var ErrMissingCredentials = errors.New("no provider credentials: set OPENAI_API_KEY or the AZURE_OPENAI_API_* environment variables")

// Asserter evaluates assertions against a chat model and an embeddings model.
// It is safe for concurrent use by parallel tests.
type Asserter struct {
	matchers    *matcher.Matchers
	client      Client
	recorder    VerdictRecorder
	defaultRank similarity.Similarity
	now         func() time.Time
	closers     []io.Closer
}

type options struct {
	configFile     string
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	client         Client
	embedder       Embedder
	runPoller      RunPoller
	recorder       VerdictRecorder
	now            func() time.Time
}

type Option func(*options)

// WithConfigFile reads settings from path instead of searching for llmassert.yml
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithDefaultModel sets the chat model used when an assertion does not pass WithModel
func WithDefaultModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

func WithEmbeddingModel(model string) Option {
	return func(o *options) {
		o.embeddingModel = model
	}
}

// WithClient replaces the chat completions client
func WithClient(client Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithEmbedder replaces the embeddings client
func WithEmbedder(embedder Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithRunPoller replaces how assistants runs are polled
func WithRunPoller(runPoller RunPoller) Option {
	return func(o *options) {
		o.runPoller = runPoller
	}
}

// WithVerdictRecorder records every verdict, replacing the recorders from the configuration
func WithVerdictRecorder(recorder VerdictRecorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New loads the configuration and connects the clients the assertions need.
// Clients passed as options are used as is.
func New(opts ...Option) (*Asserter, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load() > %w", err)
	}
	if o.apiKey != "" {
		cfg.OpenAI.APIKey = o.apiKey
	}
	if o.baseURL != "" {
		cfg.OpenAI.BaseURL = o.baseURL
	}
	if o.model != "" {
		cfg.OpenAI.Model = o.model
	}
	if o.embeddingModel != "" {
		cfg.OpenAI.EmbeddingModel = o.embeddingModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	asserter := &Asserter{
		defaultRank: similarity.Similarity(cfg.Similarity.DefaultRank),
		now:         o.now,
	}

	client, embedder, runPoller := o.client, o.embedder, o.runPoller
	if client == nil || embedder == nil || runPoller == nil {
		if !cfg.HasCredentials() {
			return nil, ErrMissingCredentials
		}
		openaiClient := openai.NewClientFromConfig(cfg)
		asserter.closers = append(asserter.closers, openaiClient)
		if client == nil {
			client = openaiClient
		}
		if embedder == nil {
			embedder = openaiClient
		}
		if runPoller == nil {
			runPoller = openaiClient
		}
	}

	var cache *embedding.FileCache
	if cfg.Cache.EmbeddingsDirectory != "" {
		cache = embedding.NewFileCache(cfg.Cache.EmbeddingsDirectory)
	}

	recorder := o.recorder
	if recorder == nil {
		recorder, err = verdict.NewRecorderFromConfig(context.Background(), cfg.Verdicts)
		if err != nil {
			_ = asserter.Close()
			return nil, fmt.Errorf("verdict.NewRecorderFromConfig() > %w", err)
		}
		asserter.closers = append(asserter.closers, recorder)
	}

	asserter.client = client
	asserter.recorder = recorder
	asserter.matchers = matcher.New(matcher.Dependencies{
		Client:       client,
		Embeddings:   embedding.NewService(embedder, cache),
		RunPoller:    runPoller,
		DefaultModel: cfg.OpenAI.Model,
	})
	return asserter, nil
}

var defaultAsserter struct {
	once     sync.Once
	asserter *Asserter
	err      error
}

// Default returns an Asserter shared by the whole test binary, built on first use
// from the environment and llmassert.yml
func Default() (*Asserter, error) {
	defaultAsserter.once.Do(func() {
		defaultAsserter.asserter, defaultAsserter.err = New()
	})
	return defaultAsserter.asserter, defaultAsserter.err
}

// Close releases the clients and recorders created by New
func (asserter *Asserter) Close() error {
	var errs []error
	for _, closer := range asserter.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	asserter.closers = nil
	return errors.Join(errs...)
}

// CreateChatCompletion sends a request with the asserter's client, for use in a CompletionFunc
func (asserter *Asserter) CreateChatCompletion(ctx context.Context, request ChatCompletionRequest) (*ChatCompletion, error) {
	return asserter.client.CreateChatCompletion(ctx, request)
}

// Completion returns a CompletionFunc sending request, for the tool assertions
func (asserter *Asserter) Completion(request ChatCompletionRequest) CompletionFunc {
	return func(ctx context.Context) (*ChatCompletion, error) {
		return asserter.CreateChatCompletion(ctx, request)
	}
}
