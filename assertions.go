package llmassert

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/at-ishikawa/llmassert/internal/matcher"
	"github.com/at-ishikawa/llmassert/internal/similarity"
	"github.com/at-ishikawa/llmassert/internal/toolcall"
)

// BeFactual asserts that the chat model judges received to be true,
// using everything the model knows
func (asserter *Asserter) BeFactual(t TestingT, received string, opts ...CallOption) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.beFactual(t, received, false, opts))
}

func (asserter *Asserter) NotBeFactual(t TestingT, received string, opts ...CallOption) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.beFactual(t, received, true, opts))
}

func (asserter *Asserter) beFactual(t TestingT, received string, negated bool, opts []CallOption) outcome {
	o := asserter.callOptions(opts)
	pass, err := asserter.matchers.FactuallyTrue(testContext(t), received, matcher.FactuallyTrueConfig{
		Model:             o.model,
		AdditionalContext: o.additionalContext,
	})
	return outcome{
		matcher:  "BeFactual",
		negated:  negated,
		model:    asserter.matchers.ModelOrDefault(o.model),
		received: received,
		expected: "to be factual",
		pass:     pass,
		err:      err,
		passMessage: func() string {
			return fmt.Sprintf("Expected: %s\nReceived: %s", printExpected("to be factual"), printReceived(received))
		},
		failMessage: func() string {
			return fmt.Sprintf("Expected: %s to be factual", printReceived(received))
		},
	}
}

// SatisfyStatement asserts that the chat model judges statement to be true about received
func (asserter *Asserter) SatisfyStatement(t TestingT, received, statement string, opts ...CallOption) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.satisfyStatement(t, received, statement, false, opts))
}

func (asserter *Asserter) NotSatisfyStatement(t TestingT, received, statement string, opts ...CallOption) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.satisfyStatement(t, received, statement, true, opts))
}

func (asserter *Asserter) satisfyStatement(t TestingT, received, statement string, negated bool, opts []CallOption) outcome {
	o := asserter.callOptions(opts)
	pass, err := asserter.matchers.SatisfiesStatement(testContext(t), statement, received, matcher.SatisfiesStatementConfig{
		Model: o.model,
		Mode:  o.mode,
	})
	return outcome{
		matcher:  "SatisfyStatement",
		negated:  negated,
		model:    asserter.matchers.ModelOrDefault(o.model),
		received: received,
		expected: statement,
		pass:     pass,
		err:      err,
		passMessage: func() string {
			return fmt.Sprintf("Expected: %s\nReceived: %s", printExpected(statement), printReceived(received))
		},
		failMessage: func() string {
			return fmt.Sprintf("Expected: %s to satisfy the statement: %s", printExpected(received), printReceived(statement))
		},
	}
}

// SemanticallyMatch asserts that the embeddings of received and expected are
// at least as similar as the WithSimilarity rank, high by default
func (asserter *Asserter) SemanticallyMatch(t TestingT, received, expected string, opts ...CallOption) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.semanticallyMatch(t, received, expected, false, opts))
}

func (asserter *Asserter) NotSemanticallyMatch(t TestingT, received, expected string, opts ...CallOption) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.semanticallyMatch(t, received, expected, true, opts))
}

func (asserter *Asserter) semanticallyMatch(t TestingT, received, expected string, negated bool, opts []CallOption) outcome {
	o := asserter.callOptions(opts)
	result := outcome{
		matcher:  "SemanticallyMatch",
		negated:  negated,
		received: received,
		expected: expected,
	}
	if _, ok := o.rank.Threshold(); !ok {
		_, result.err = similarity.ParseSimilarity(string(o.rank))
		return result
	}

	pass, score, err := asserter.matchers.Semantic(testContext(t), o.rank, expected, received)
	result.pass = pass
	result.err = err
	if err == nil {
		result.score = &score
	}
	threshold, _ := o.rank.Threshold()
	result.passMessage = func() string {
		return fmt.Sprintf("Expected: %s\nReceived: %s\nSimilarity: %.4f, at least %.2f for %s",
			printExpected(expected), printReceived(received), score, threshold, o.rank)
	}
	result.failMessage = func() string {
		return fmt.Sprintf("Expected: %s to semantically match %s\nSimilarity: %.4f, below %.2f for %s",
			printReceived(received), printExpected(expected), score, threshold, o.rank)
	}
	return result
}

// HaveUsedSomeTools asserts that the completion calls at least one of the tools
func (asserter *Asserter) HaveUsedSomeTools(t TestingT, received CompletionFunc, expectedTools ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedTools(t, "HaveUsedSomeTools", received, toolcall.Names(expectedTools...), false, false))
}

func (asserter *Asserter) NotHaveUsedSomeTools(t TestingT, received CompletionFunc, expectedTools ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedTools(t, "HaveUsedSomeTools", received, toolcall.Names(expectedTools...), false, true))
}

// HaveUsedAllTools asserts that the completion calls every one of the tools
func (asserter *Asserter) HaveUsedAllTools(t TestingT, received CompletionFunc, expectedTools ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedTools(t, "HaveUsedAllTools", received, toolcall.Names(expectedTools...), true, false))
}

func (asserter *Asserter) NotHaveUsedAllTools(t TestingT, received CompletionFunc, expectedTools ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedTools(t, "HaveUsedAllTools", received, toolcall.Names(expectedTools...), true, true))
}

func (asserter *Asserter) haveUsedTools(t TestingT, name string, received CompletionFunc, expected []ExpectedTool, all, negated bool) outcome {
	pass, calls, err := asserter.matchers.Tools(testContext(t), expected, received, all)
	return toolsOutcome(name, expected, calls, all, negated, pass, err)
}

// HaveUsedSomeAssistantTools waits for the assistants run and asserts that it
// requires at least one of the tools
func (asserter *Asserter) HaveUsedSomeAssistantTools(t TestingT, received Run, expected ...ExpectedTool) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedAssistantTools(t, "HaveUsedSomeAssistantTools", received, expected, false, false))
}

func (asserter *Asserter) NotHaveUsedSomeAssistantTools(t TestingT, received Run, expected ...ExpectedTool) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedAssistantTools(t, "HaveUsedSomeAssistantTools", received, expected, false, true))
}

// HaveUsedAllAssistantTools waits for the assistants run and asserts that it
// requires every one of the tools
func (asserter *Asserter) HaveUsedAllAssistantTools(t TestingT, received Run, expected ...ExpectedTool) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedAssistantTools(t, "HaveUsedAllAssistantTools", received, expected, true, false))
}

func (asserter *Asserter) NotHaveUsedAllAssistantTools(t TestingT, received Run, expected ...ExpectedTool) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.haveUsedAssistantTools(t, "HaveUsedAllAssistantTools", received, expected, true, true))
}

func (asserter *Asserter) haveUsedAssistantTools(t TestingT, name string, received Run, expected []ExpectedTool, all, negated bool) outcome {
	pass, calls, err := asserter.matchers.AssistantTools(testContext(t), expected, received, all)
	result := toolsOutcome(name, expected, calls, all, negated, pass, err)
	result.model = received.Model
	return result
}

func toolsOutcome(name string, expected []ExpectedTool, calls []ToolCall, all, negated, pass bool, err error) outcome {
	quantifier := "some of"
	if all {
		quantifier = "all of"
	}
	expectedText := toolcall.DescribeExpected(expected)
	receivedText := toolcall.Describe(calls)
	return outcome{
		matcher:  name,
		negated:  negated,
		received: receivedText,
		expected: expectedText,
		pass:     pass,
		err:      err,
		passMessage: func() string {
			return fmt.Sprintf("Expected: %s\nReceived: %s", printExpected(expectedText), printReceived(receivedText))
		},
		failMessage: func() string {
			return fmt.Sprintf("Expected: tool calls %s to include %s %s", printReceived(receivedText), quantifier, printExpected(expectedText))
		},
	}
}

// MatchSchema asserts that received is JSON that decodes into the schema struct
// and passes its validate tags
func (asserter *Asserter) MatchSchema(t TestingT, received string, schema any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.matchSchema(received, schema, false, false))
}

func (asserter *Asserter) NotMatchSchema(t TestingT, received string, schema any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.matchSchema(received, schema, false, true))
}

// MatchSchemaStrict is MatchSchema but fails when received has keys the schema does not declare
func (asserter *Asserter) MatchSchemaStrict(t TestingT, received string, schema any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.matchSchema(received, schema, true, false))
}

func (asserter *Asserter) NotMatchSchemaStrict(t TestingT, received string, schema any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.matchSchema(received, schema, true, true))
}

func (asserter *Asserter) matchSchema(received string, schema any, strict, negated bool) outcome {
	schemaName := fmt.Sprint(reflect.TypeOf(schema))
	name := "MatchSchema"
	reason := asserter.matchers.SchemaError(schema, received)
	if strict {
		name = "MatchSchemaStrict"
		reason = asserter.matchers.StrictSchemaError(schema, received)
	}
	var err error
	if errors.Is(reason, matcher.ErrInvalidSchema) {
		err = reason
	}
	return outcome{
		matcher:  name,
		negated:  negated,
		received: received,
		expected: schemaName,
		pass:     reason == nil,
		err:      err,
		passMessage: func() string {
			return fmt.Sprintf("Expected: %s\nReceived: %s", printExpected(schemaName), printReceived(received))
		},
		failMessage: func() string {
			return fmt.Sprintf("Expected: %s to match the schema %s\n%v", printReceived(received), printExpected(schemaName), reason)
		},
	}
}

// MatchExactly asserts that received equals expected byte for byte
func (asserter *Asserter) MatchExactly(t TestingT, received, expected string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.matchExactly(received, expected, false))
}

func (asserter *Asserter) NotMatchExactly(t TestingT, received, expected string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return asserter.report(t, asserter.matchExactly(received, expected, true))
}

func (asserter *Asserter) matchExactly(received, expected string, negated bool) outcome {
	return outcome{
		matcher:  "MatchExactly",
		negated:  negated,
		received: received,
		expected: expected,
		pass:     asserter.matchers.Absolute(expected, received),
		passMessage: func() string {
			return fmt.Sprintf("Expected: %s\nReceived: %s", printExpected(expected), printReceived(received))
		},
		failMessage: func() string {
			return fmt.Sprintf("Expected: %s to equal %s", printReceived(received), printExpected(expected))
		},
	}
}
