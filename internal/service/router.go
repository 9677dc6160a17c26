package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/openai"
	"github.com/cloo-solutions/corpora/internal/telemetry"
)

const (
	// retrievalTopK is how many chunks are fetched per specific query.
	retrievalTopK = 5
	// confidenceThreshold is the strict lower bound the top-ranked
	// chunk's score must exceed before retrieved context is trusted.
	confidenceThreshold float32 = 0.65
	// summaryMinChars is the minimum extracted text length, after
	// trimming, for a document to be summarizable.
	summaryMinChars = 100
	// summaryMaxChars caps how much document text is sent to the model
	// on the summarization path.
	summaryMaxChars = 10000
)

const (
	msgSummaryRequiresFile = "Please select a document first. Summaries are produced from a single document, so I need to know which one you mean."
	msgSummaryTooShort     = "The selected document does not contain enough readable text to summarize."
	msgSummaryError        = "Sorry, something went wrong while summarizing the selected document. Please try again."
	msgFallbackFileScoped  = "I could not find a confident answer to that in the selected document. Try rephrasing the question or asking about something the document covers."
	msgFallbackLibrary     = "I could not find a confident answer to that in your uploaded documents. Try rephrasing the question or adding a document that covers it."
)

// Retriever is the similarity-search boundary. Results are ordered by
// descending score.
type Retriever interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.RetrievedChunk, error)
}

// SearchOptions scope a similarity search. OwnerID is always required;
// DocumentID narrows the search to a single document when set.
type SearchOptions struct {
	Limit      int
	OwnerID    string
	DocumentID string
}

// RouterDocumentRepository resolves documents for the summarization path.
type RouterDocumentRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error)
}

// QueryClassifier labels a query's intent.
type QueryClassifier interface {
	Classify(ctx context.Context, query string) domain.QueryAnalysis
}

// QueryCorrector normalizes a query before retrieval.
type QueryCorrector interface {
	Correct(ctx context.Context, query string) string
}

// RouterService orchestrates one query end to end: classify the intent,
// then either summarize a whole document (broad) or run confidence-gated
// retrieval (specific). The service holds no per-query state.
type RouterService struct {
	classifier QueryClassifier
	corrector  QueryCorrector
	retriever  Retriever
	docs       RouterDocumentRepository
	llm        TextGenerator
}

// NewRouterService creates a new RouterService instance.
func NewRouterService(
	classifier QueryClassifier,
	corrector QueryCorrector,
	retriever Retriever,
	docs RouterDocumentRepository,
	llm TextGenerator,
) *RouterService {
	return &RouterService{
		classifier: classifier,
		corrector:  corrector,
		retriever:  retriever,
		docs:       docs,
		llm:        llm,
	}
}

// RouteInput is one query to answer. DocumentID scopes the query to a
// single document when set; Profile optionally personalizes the answer.
type RouteInput struct {
	Query      string
	OwnerID    string
	DocumentID string
	Profile    string
}

// Route answers a single query.
//
// Broad queries are summarized from the document's full extracted text;
// every failure on that path is converted into a terminal summary_error
// result rather than returned. Specific queries go through correction,
// filtered top-K retrieval and the confidence gate; when the gate rejects
// the results a fixed fallback answer is returned without calling the
// model, and hard retrieval or generation failures propagate to the
// caller as typed errors.
func (s *RouterService) Route(ctx context.Context, input RouteInput) (*domain.RouterResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RouterService.Route", telemetry.SpanAttributes{
		OwnerID:    input.OwnerID,
		DocumentID: input.DocumentID,
		Operation:  "route",
	})
	defer span.End()

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query must not be empty")
	}
	if input.OwnerID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}
	input.Query = query

	analysis := s.classifier.Classify(ctx, query)
	if analysis.Intent == domain.QueryIntentBroad {
		return s.routeBroad(ctx, input), nil
	}
	result, err := s.routeSpecific(ctx, input)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}

// routeBroad answers an overview query from the document's full extracted
// text, bypassing the chunk index. It always produces a terminal result.
func (s *RouterService) routeBroad(ctx context.Context, input RouteInput) *domain.RouterResult {
	if input.DocumentID == "" {
		return &domain.RouterResult{
			Message:    msgSummaryRequiresFile,
			SearchType: domain.SearchTypeSummaryRequiresFile,
			Sources:    []domain.Source{},
		}
	}

	doc, err := s.docs.GetByID(ctx, input.OwnerID, input.DocumentID)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return summaryErrorResult()
	}

	text := strings.TrimSpace(doc.ExtractedText)
	if len([]rune(text)) < summaryMinChars {
		return &domain.RouterResult{
			Message:    msgSummaryTooShort,
			SearchType: domain.SearchTypeSummaryInsufficientContent,
			Sources:    []domain.Source{},
		}
	}

	if runes := []rune(text); len(runes) > summaryMaxChars {
		text = string(runes[:summaryMaxChars])
	}

	completion, err := s.llm.Complete(ctx, buildSummaryPrompt(text, input.Query), BuildChatSystemPrompt(ChatPromptInput{Profile: input.Profile}))
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return summaryErrorResult()
	}
	if completion.Kind != openai.CompletionCompleted && completion.Kind != openai.CompletionTruncated {
		return summaryErrorResult()
	}

	return &domain.RouterResult{
		Message:     completion.Text,
		SearchType:  domain.SearchTypeSummary,
		Sources:     []domain.Source{{Title: doc.Filename, Type: "document"}},
		SourceCount: 1,
	}
}

// routeSpecific answers a fact query from retrieved chunks, admitting the
// context only when the top-ranked score clears the confidence gate.
func (s *RouterService) routeSpecific(ctx context.Context, input RouteInput) (*domain.RouterResult, error) {
	corrected := s.corrector.Correct(ctx, input.Query)

	chunks, err := s.retriever.Search(ctx, corrected, SearchOptions{
		Limit:      retrievalTopK,
		OwnerID:    input.OwnerID,
		DocumentID: input.DocumentID,
	})
	if err != nil {
		return nil, domain.NewRetrievalError(err)
	}

	// Only the top-ranked score gates admission; a strict > keeps the
	// exact threshold value on the declined side.
	if len(chunks) == 0 || chunks[0].Score <= confidenceThreshold {
		message := msgFallbackLibrary
		if input.DocumentID != "" {
			message = msgFallbackFileScoped
		}
		return &domain.RouterResult{
			Message:    message,
			SearchType: domain.SearchTypeRAGFallback,
			Sources:    []domain.Source{},
		}, nil
	}

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}
	prompt := BuildRAGPrompt(strings.Join(contents, "\n\n"), corrected, input.Profile)

	completion, err := s.llm.Complete(ctx, prompt, "")
	if err != nil {
		return nil, domain.NewGenerationError(err)
	}
	switch completion.Kind {
	case openai.CompletionBlocked:
		return nil, domain.NewGenerationBlockedError(completion.Categories)
	case openai.CompletionUnavailable:
		return nil, domain.NewGenerationError(domain.ErrLLMUnavailable)
	}

	return &domain.RouterResult{
		Message:     completion.Text,
		SearchType:  domain.SearchTypeRAG,
		Sources:     dedupSources(chunks),
		SourceCount: len(chunks),
	}, nil
}

func summaryErrorResult() *domain.RouterResult {
	return &domain.RouterResult{
		Message:    msgSummaryError,
		SearchType: domain.SearchTypeSummaryError,
		Sources:    []domain.Source{},
	}
}

// dedupSources builds the source attribution list, one entry per distinct
// file name in first-seen order.
func dedupSources(chunks []domain.RetrievedChunk) []domain.Source {
	seen := make(map[string]bool, len(chunks))
	sources := make([]domain.Source, 0, len(chunks))
	for _, chunk := range chunks {
		title := chunk.Metadata.FileName
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		sources = append(sources, domain.Source{Title: title, Type: "document"})
	}
	return sources
}
