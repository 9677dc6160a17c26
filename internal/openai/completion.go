package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionKind tags how a completion request resolved. The provider's
// finish reason is interpreted exactly once, here, so callers branch on a
// closed set of outcomes instead of re-reading provider fields.
type CompletionKind int

const (
	// CompletionCompleted means the model returned a full answer.
	CompletionCompleted CompletionKind = iota
	// CompletionTruncated means the answer was cut off at the token limit.
	CompletionTruncated
	// CompletionBlocked means the provider refused on policy grounds.
	CompletionBlocked
	// CompletionUnavailable means no provider is configured.
	CompletionUnavailable
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionCompleted:
		return "completed"
	case CompletionTruncated:
		return "truncated"
	case CompletionBlocked:
		return "blocked"
	case CompletionUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Completion is the resolved outcome of one completion request.
type Completion struct {
	Kind       CompletionKind
	Text       string
	Categories []string
}

// ErrNoChoices is returned when the provider response contains no choices
var ErrNoChoices = errors.New("no completion choices returned")

// Complete sends a prompt (with an optional system instruction) and resolves
// the response into a tagged Completion. Transport and provider errors are
// returned as errors; policy blocks and truncation are data, not errors.
func (c *Client) Complete(ctx context.Context, prompt, system string) (*Completion, error) {
	if !c.enabled {
		return &Completion{Kind: CompletionUnavailable}, nil
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyText
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)

	switch choice.FinishReason {
	case openai.FinishReasonContentFilter:
		return &Completion{
			Kind:       CompletionBlocked,
			Categories: []string{"content_filter"},
		}, nil
	case openai.FinishReasonLength:
		return &Completion{Kind: CompletionTruncated, Text: text}, nil
	default:
		return &Completion{Kind: CompletionCompleted, Text: text}, nil
	}
}
