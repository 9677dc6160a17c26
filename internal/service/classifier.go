package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/openai"
)

// ClassifierService labels queries as specific or broad so the router can
// choose between retrieval and whole-document summarization.
type ClassifierService struct {
	llm TextGenerator
}

// NewClassifierService creates a new ClassifierService instance.
func NewClassifierService(llm TextGenerator) *ClassifierService {
	return &ClassifierService{llm: llm}
}

// Classify asks the model for an intent label with a short rationale.
// Classification is advisory. Every failure mode (provider disabled,
// transport error, blocked or malformed output) defaults to specific:
// retrieval degrades to "no confident answer found", whereas a wrong
// broad label forces a full-document summary the user never asked for.
func (s *ClassifierService) Classify(ctx context.Context, query string) domain.QueryAnalysis {
	if !s.llm.Enabled() {
		return defaultAnalysis("language model unavailable")
	}

	completion, err := s.llm.Complete(ctx, buildClassificationPrompt(query), "")
	if err != nil {
		return defaultAnalysis(fmt.Sprintf("classification failed: %v", err))
	}
	if completion.Kind != openai.CompletionCompleted {
		return defaultAnalysis(fmt.Sprintf("classification response not usable: %s", completion.Kind))
	}

	raw, ok := firstJSONObject(completion.Text)
	if !ok {
		return defaultAnalysis("no JSON object in classification response")
	}

	var parsed struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return defaultAnalysis(fmt.Sprintf("malformed classification response: %v", err))
	}

	switch strings.ToLower(strings.TrimSpace(parsed.Type)) {
	case string(domain.QueryIntentBroad):
		return domain.QueryAnalysis{Intent: domain.QueryIntentBroad, Reason: parsed.Reason}
	case string(domain.QueryIntentSpecific):
		return domain.QueryAnalysis{Intent: domain.QueryIntentSpecific, Reason: parsed.Reason}
	default:
		return defaultAnalysis(fmt.Sprintf("unknown intent label %q", parsed.Type))
	}
}

func defaultAnalysis(reason string) domain.QueryAnalysis {
	return domain.QueryAnalysis{Intent: domain.QueryIntentSpecific, Reason: reason}
}

// firstJSONObject extracts the first balanced top-level JSON object from
// text. Models often wrap structured output in prose or code fences, so
// the scan tolerates surrounding noise and tracks strings and escapes to
// avoid counting braces inside quoted values.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
