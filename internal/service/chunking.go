package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cloo-solutions/corpora/internal/domain"
)

const (
	// DefaultChunkSize is the window width in runes.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is how many runes consecutive windows share.
	DefaultChunkOverlap = 100
)

// ChunkConfig controls the sliding-window chunker. Size is the window
// width in runes, Overlap the number of runes shared between consecutive
// windows. Zero or negative values fall back to the defaults.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig returns the standard window parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

func (c ChunkConfig) normalized() ChunkConfig {
	if c.Size <= 0 {
		c.Size = DefaultChunkSize
	}
	if c.Overlap < 0 {
		c.Overlap = DefaultChunkOverlap
	}
	return c
}

// chunkHeader is the provenance line prefixed to every chunk so the
// retrieval prompt can attribute content to its source document.
func chunkHeader(sourceName string) string {
	return fmt.Sprintf("[Source: %s]\n", sourceName)
}

// ChunkText splits text into overlapping windows of cfg.Size runes.
//
// Windows that would split a word are trimmed back to the last whitespace
// boundary inside the window; when a window contains no whitespace the hard
// cut is kept. After a trimmed window the next one resumes at the end of
// the untrimmed span, so already-consumed runes are not re-chunked. After
// an untrimmed window the next one starts Overlap runes before its end.
// A window that cannot make progress (Overlap >= Size) jumps to its own
// end, which guarantees termination.
//
// Each chunk's content is the provenance header followed by the window
// slice. Chunk IDs are "{sourceName}_chunk_{ordinal}" with ordinals
// counting emitted chunks from zero, so identical input yields identical
// IDs. Blank input produces no chunks.
func ChunkText(text, sourceName string, cfg ChunkConfig) []domain.DocumentChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cfg = cfg.normalized()

	runes := []rune(text)
	header := chunkHeader(sourceName)

	var chunks []domain.DocumentChunk
	ordinal := 0
	start := 0
	for start < len(runes) {
		rawEnd := start + cfg.Size
		if rawEnd > len(runes) {
			rawEnd = len(runes)
		}

		cut := rawEnd
		if rawEnd < len(runes) {
			for i := rawEnd - 1; i > start; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i
					break
				}
			}
		}

		body := strings.TrimSpace(string(runes[start:cut]))
		if body != "" {
			chunks = append(chunks, domain.DocumentChunk{
				ChunkID:    fmt.Sprintf("%s_chunk_%d", sourceName, ordinal),
				SourceName: sourceName,
				Ordinal:    ordinal,
				Content:    header + body,
			})
			ordinal++
		}

		if rawEnd >= len(runes) {
			break
		}
		if cut < rawEnd {
			// Trimmed window: skip the trim region rather than
			// re-reading runes the window already consumed.
			start = rawEnd
			continue
		}
		next := rawEnd - cfg.Overlap
		if next <= start {
			next = rawEnd
		}
		start = next
	}
	return chunks
}
