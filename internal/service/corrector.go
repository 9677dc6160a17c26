package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/corpora/internal/openai"
)

// TextGenerator is the LLM completion boundary consumed by the query
// pipeline. Complete resolves the provider's finish reason into a tagged
// result; Enabled reports whether a provider credential was configured.
type TextGenerator interface {
	Complete(ctx context.Context, prompt, system string) (*openai.Completion, error)
	Enabled() bool
}

var correctionCleaner = strings.NewReplacer(`"`, "", "'", "", "*", "", "`", "")

// CorrectorService normalizes raw user queries before retrieval.
type CorrectorService struct {
	llm TextGenerator
}

// NewCorrectorService creates a new CorrectorService instance.
func NewCorrectorService(llm TextGenerator) *CorrectorService {
	return &CorrectorService{llm: llm}
}

// Correct asks the model to fix spelling in the query without answering
// it. Correction is cosmetic: on any failure, or when the model is
// unavailable, the original query is returned unchanged.
func (s *CorrectorService) Correct(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" || !s.llm.Enabled() {
		return query
	}

	completion, err := s.llm.Complete(ctx, buildCorrectionPrompt(query), "")
	if err != nil || completion.Kind != openai.CompletionCompleted {
		return query
	}

	corrected := strings.TrimSpace(correctionCleaner.Replace(completion.Text))
	if corrected == "" {
		return query
	}
	return corrected
}
