// Package prompt renders the fixed prompts used to ask a chat model for a true/false verdict.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

// Mode selects which knowledge the model may use to judge a statement
type Mode string

const (
	// ModeNarrow restricts the model to the provided context
	ModeNarrow Mode = "narrow"
	// ModeBroad lets the model use everything it knows, with the context as a hint
	ModeBroad Mode = "broad"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeNarrow, ModeBroad:
		return Mode(value), nil
	case "":
		return ModeNarrow, nil
	}
	return "", fmt.Errorf("unknown mode %q: must be %q or %q", value, ModeNarrow, ModeBroad)
}

// Variables fill the placeholders of the templates
type Variables struct {
	// Actual is the text under test, placed between the "---" markers of the system prompt
	Actual string
	// Statement is asked about in the human prompt
	Statement string
}

type Prompt struct {
	System string
	Human  string
}

func templateNames(mode Mode) (system string, human string) {
	if mode == ModeBroad {
		return "satisfies_statement_broad_system.tmpl", "satisfies_statement_broad_human.tmpl"
	}
	return "satisfies_statement_system.tmpl", "satisfies_statement_human.tmpl"
}

// Render builds the system and human messages for the mode
func Render(mode Mode, variables Variables) (Prompt, error) {
	systemName, humanName := templateNames(mode)

	system, err := execute(systemName, variables)
	if err != nil {
		return Prompt{}, err
	}
	human, err := execute(humanName, variables)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, Human: human}, nil
}

func execute(name string, variables Variables) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, variables); err != nil {
		return "", fmt.Errorf("templates.ExecuteTemplate(%s) > %w", name, err)
	}
	return buf.String(), nil
}
