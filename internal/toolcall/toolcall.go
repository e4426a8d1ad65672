// Package toolcall compares the tool calls a model requested with the tools a test expects.
package toolcall

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/at-ishikawa/llmassert/internal/inference"
)

// Expected is a tool a test expects the model to call.
// Arguments is optional; when set, it must be JSON equal to the arguments of the call.
type Expected struct {
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Names turns plain tool names into Expected values without arguments
func Names(names ...string) []Expected {
	expected := make([]Expected, 0, len(names))
	for _, name := range names {
		expected = append(expected, Expected{Name: name})
	}
	return expected
}

func (expected Expected) String() string {
	if expected.Arguments == "" {
		return expected.Name
	}
	return expected.Name + "(" + expected.Arguments + ")"
}

// Matches reports whether the call invokes the expected function
func (expected Expected) Matches(call inference.ToolCall) bool {
	if call.Function.Name != expected.Name {
		return false
	}
	if strings.TrimSpace(expected.Arguments) == "" {
		return true
	}
	return jsonEqual(expected.Arguments, call.Function.Arguments)
}

// Match reports whether the calls cover the expected tools.
// With all set every expected tool must be called, otherwise one is enough.
// An empty expectation is satisfied by all and never by some.
func Match(calls []inference.ToolCall, expected []Expected, all bool) bool {
	if len(expected) == 0 {
		return all
	}

	for _, want := range expected {
		called := false
		for _, call := range calls {
			if want.Matches(call) {
				called = true
				break
			}
		}
		if all && !called {
			return false
		}
		if !all && called {
			return true
		}
	}
	return all
}

// Describe renders the calls for failure messages
func Describe(calls []inference.ToolCall) string {
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, Expected{Name: call.Function.Name, Arguments: call.Function.Arguments}.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// DescribeExpected renders the expected tools for failure messages
func DescribeExpected(expected []Expected) string {
	names := make([]string, 0, len(expected))
	for _, want := range expected {
		names = append(names, want.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func jsonEqual(expected, actual string) bool {
	var expectedValue, actualValue any
	if err := json.Unmarshal([]byte(expected), &expectedValue); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(actual), &actualValue); err != nil {
		return false
	}
	return reflect.DeepEqual(expectedValue, actualValue)
}
