package main

import (
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/llmassert/internal/prompt"
	"github.com/at-ishikawa/llmassert/internal/similarity"
)

type ModeFlag prompt.Mode

// Set implements pflag.Value.
func (m *ModeFlag) Set(v string) error {
	mode, err := prompt.ParseMode(v)
	if err != nil {
		return err
	}
	*m = ModeFlag(mode)
	return nil
}

// String implements pflag.Value.
func (m *ModeFlag) String() string {
	if m == nil {
		return ""
	}
	return string(*m)
}

// Type implements pflag.Value.
func (m *ModeFlag) Type() string {
	return "ModeFlag"
}

type SimilarityFlag similarity.Similarity

// Set implements pflag.Value.
func (s *SimilarityFlag) Set(v string) error {
	rank, err := similarity.ParseSimilarity(v)
	if err != nil {
		return err
	}
	*s = SimilarityFlag(rank)
	return nil
}

// String implements pflag.Value.
func (s *SimilarityFlag) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Type implements pflag.Value.
func (s *SimilarityFlag) Type() string {
	return "SimilarityFlag"
}

var (
	_ pflag.Value = (*ModeFlag)(nil)
	_ pflag.Value = (*SimilarityFlag)(nil)
)
