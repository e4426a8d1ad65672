package main

import (
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/llmassert"
	"github.com/at-ishikawa/llmassert/internal/prompt"
)

func newStatementCommand() *cobra.Command {
	var model string
	var negate bool
	mode := ModeFlag(prompt.ModeNarrow)

	command := &cobra.Command{
		Use:   "statement <received> <statement>",
		Short: "Ask the chat model whether a statement is true about a response",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []llmassert.CallOption{llmassert.WithMode(llmassert.Mode(mode))}
			if model != "" {
				opts = append(opts, llmassert.WithModel(model))
			}
			return runAssertion(cmd.Context(), cmd.OutOrStdout(), func(asserter *llmassert.Asserter, t *commandT) bool {
				if negate {
					return asserter.NotSatisfyStatement(t, args[0], args[1], opts...)
				}
				return asserter.SatisfyStatement(t, args[0], args[1], opts...)
			})
		},
	}

	command.Flags().StringVar(&model, "model", "", "Chat model, the configured model by default")
	command.Flags().Var(&mode, "mode", "narrow to only use the response, broad to use everything the model knows")
	command.Flags().BoolVar(&negate, "not", false, "Expect the statement to be false")
	return command
}

func newFactualCommand() *cobra.Command {
	var model string
	var additionalContext string
	var negate bool

	command := &cobra.Command{
		Use:   "factual <received>",
		Short: "Ask the chat model whether a response is factually true",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []llmassert.CallOption{llmassert.WithAdditionalContext(additionalContext)}
			if model != "" {
				opts = append(opts, llmassert.WithModel(model))
			}
			return runAssertion(cmd.Context(), cmd.OutOrStdout(), func(asserter *llmassert.Asserter, t *commandT) bool {
				if negate {
					return asserter.NotBeFactual(t, args[0], opts...)
				}
				return asserter.BeFactual(t, args[0], opts...)
			})
		},
	}

	command.Flags().StringVar(&model, "model", "", "Chat model, the configured model by default")
	command.Flags().StringVar(&additionalContext, "context", "", "Additional context sent with the response")
	command.Flags().BoolVar(&negate, "not", false, "Expect the response to be false")
	return command
}

func newSimilarityCommand() *cobra.Command {
	var rank SimilarityFlag
	var negate bool

	command := &cobra.Command{
		Use:   "similarity <received> <expected>",
		Short: "Compare the embeddings of two texts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []llmassert.CallOption
			if rank != "" {
				opts = append(opts, llmassert.WithSimilarity(llmassert.Similarity(rank)))
			}
			return runAssertion(cmd.Context(), cmd.OutOrStdout(), func(asserter *llmassert.Asserter, t *commandT) bool {
				if negate {
					return asserter.NotSemanticallyMatch(t, args[0], args[1], opts...)
				}
				return asserter.SemanticallyMatch(t, args[0], args[1], opts...)
			})
		},
	}

	command.Flags().Var(&rank, "rank", "very_high, high, medium or low; the configured default rank by default")
	command.Flags().BoolVar(&negate, "not", false, "Expect the texts not to match")
	return command
}
