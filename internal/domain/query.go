package domain

// QueryIntent is the routing decision for a user query, resolved once at
// the classifier boundary.
type QueryIntent string

const (
	// QueryIntentSpecific marks a query answerable from a bounded passage.
	QueryIntentSpecific QueryIntent = "specific"
	// QueryIntentBroad marks a query asking for a whole-document overview.
	QueryIntentBroad QueryIntent = "broad"
)

// QueryAnalysis is the transient classification result for one query.
type QueryAnalysis struct {
	Intent QueryIntent
	Reason string
}

// ChunkMetadata carries provenance for a retrieved chunk.
type ChunkMetadata struct {
	FileName   string
	OwnerID    string
	DocumentID string
	ChunkID    string
}

// RetrievedChunk is a scored chunk returned by the similarity index.
// Score is a similarity in [0,1]; sequences are ordered descending by it.
type RetrievedChunk struct {
	Content  string
	Score    float32
	Metadata ChunkMetadata
}

// SearchType labels which path produced a router answer.
type SearchType string

const (
	SearchTypeRAG                        SearchType = "rag"
	SearchTypeRAGFallback                SearchType = "rag_fallback"
	SearchTypeSummary                    SearchType = "summary"
	SearchTypeSummaryRequiresFile        SearchType = "summary_requires_file"
	SearchTypeSummaryInsufficientContent SearchType = "summary_insufficient_content"
	SearchTypeSummaryError               SearchType = "summary_error"
)

// Source identifies one document that contributed to an answer.
type Source struct {
	Title string
	Type  string
}

// RouterResult is the sole output contract of the query pipeline.
// Sources are deduplicated by title in first-seen order.
type RouterResult struct {
	Message     string
	SearchType  SearchType
	Sources     []Source
	SourceCount int
}
