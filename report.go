package llmassert

import (
	"context"
	"log/slog"

	"github.com/fatih/color"
)

// TestingT is the subset of *testing.T the assertions report to
type TestingT interface {
	Errorf(format string, args ...any)
}

type tHelper interface {
	Helper()
}

var (
	expectedColor = color.New(color.FgGreen)
	receivedColor = color.New(color.FgRed)
)

func printExpected(value string) string {
	return expectedColor.Sprint(`"` + value + `"`)
}

func printReceived(value string) string {
	return receivedColor.Sprint(`"` + value + `"`)
}

// testContext is canceled when the test ends, for testing.T since Go 1.24
func testContext(t TestingT) context.Context {
	if withContext, ok := t.(interface{ Context() context.Context }); ok {
		return withContext.Context()
	}
	return context.Background()
}

func testName(t TestingT) string {
	if named, ok := t.(interface{ Name() string }); ok {
		return named.Name()
	}
	return ""
}

type outcome struct {
	matcher  string
	negated  bool
	model    string
	received string
	expected string
	pass     bool
	score    *float64
	err      error
	// passMessage explains a passing verdict, shown when a Not assertion fails
	passMessage func() string
	// failMessage explains a failing verdict
	failMessage func() string
}

// report records the outcome and fails t when the verdict is not the wanted one
func (asserter *Asserter) report(t TestingT, result outcome) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	asserter.record(t, result)

	if result.err != nil {
		t.Errorf("%s: %v", result.matcher, result.err)
		return false
	}
	if result.pass != result.negated {
		return true
	}
	if result.negated {
		t.Errorf("%s", result.passMessage())
	} else {
		t.Errorf("%s", result.failMessage())
	}
	return false
}

func (asserter *Asserter) record(t TestingT, result outcome) {
	if asserter.recorder == nil {
		return
	}
	record := Verdict{
		Matcher:    result.matcher,
		Negated:    result.negated,
		Model:      result.model,
		Received:   result.received,
		Expected:   result.expected,
		Pass:       result.pass,
		Score:      result.score,
		TestName:   testName(t),
		RecordedAt: asserter.now().UTC(),
	}
	if result.err != nil {
		record.ErrorMessage = result.err.Error()
	}
	// a test keeps its verdict even when the log cannot be written
	if err := asserter.recorder.Record(context.WithoutCancel(testContext(t)), record); err != nil {
		slog.Default().Warn("failed to record a verdict",
			slog.String("matcher", result.matcher),
			slog.Any("error", err),
		)
	}
}
