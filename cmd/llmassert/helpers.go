package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/at-ishikawa/llmassert"
	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/database"
	"github.com/at-ishikawa/llmassert/internal/verdict"
)

var errAssertionFailed = errors.New("assertion failed")

// openDatabase is replaced in tests
var openDatabase = database.Open

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// commandT reports assertion failures to the command output
type commandT struct {
	ctx    context.Context
	out    io.Writer
	failed bool
}

func (t *commandT) Context() context.Context {
	return t.ctx
}

func (t *commandT) Errorf(format string, args ...any) {
	t.failed = true
	_, _ = color.New(color.FgRed).Fprintf(t.out, "FAIL: "+format+"\n", args...)
}

// lastVerdictRecorder keeps the latest verdict for display and forwards it to the configured recorders
type lastVerdictRecorder struct {
	next verdict.Recorder

	mu   sync.Mutex
	last *verdict.Record
}

func (recorder *lastVerdictRecorder) Record(ctx context.Context, record verdict.Record) error {
	recorder.mu.Lock()
	recorder.last = &record
	recorder.mu.Unlock()
	return recorder.next.Record(ctx, record)
}

func (recorder *lastVerdictRecorder) Close() error {
	return recorder.next.Close()
}

func (recorder *lastVerdictRecorder) Last() *verdict.Record {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return recorder.last
}

// newAsserter builds an asserter whose verdicts can be read back after each assertion
func newAsserter(ctx context.Context) (*llmassert.Asserter, *lastVerdictRecorder, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	configured, err := verdict.NewRecorderFromConfig(ctx, cfg.Verdicts)
	if err != nil {
		return nil, nil, fmt.Errorf("verdict.NewRecorderFromConfig() > %w", err)
	}
	recorder := &lastVerdictRecorder{next: configured}

	asserter, err := llmassert.New(
		llmassert.WithConfigFile(configFile),
		llmassert.WithVerdictRecorder(recorder),
	)
	if err != nil {
		_ = recorder.Close()
		return nil, nil, fmt.Errorf("llmassert.New() > %w", err)
	}
	return asserter, recorder, nil
}

// runAssertion runs assert against a fresh asserter and prints the verdict
func runAssertion(ctx context.Context, out io.Writer, assert func(asserter *llmassert.Asserter, t *commandT) bool) error {
	asserter, recorder, err := newAsserter(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = asserter.Close()
		_ = recorder.Close()
	}()

	t := &commandT{ctx: ctx, out: out}
	pass := assert(asserter, t)
	if last := recorder.Last(); last != nil && last.Score != nil {
		fmt.Fprintf(out, "score: %.4f\n", *last.Score)
	}
	if !pass || t.failed {
		return errAssertionFailed
	}
	_, _ = color.New(color.FgGreen).Fprintln(out, "PASS")
	return nil
}
