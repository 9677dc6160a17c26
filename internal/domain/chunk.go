package domain

// DocumentChunk is the unit of retrieval: an overlap-linked slice of a
// document's text whose content carries its own source attribution header.
type DocumentChunk struct {
	ChunkID    string
	DocumentID string
	OwnerID    string
	SourceName string
	Ordinal    int
	Content    string
	Embedding  []float32
}
