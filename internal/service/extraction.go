package service

import (
	"strings"
	"unicode/utf8"
)

// TextExtractor converts an uploaded file's bytes into indexable text.
// Extraction is best effort: unsupported formats and undecodable input
// yield an empty string so ingestion treats them as "no content" instead
// of failing the document.
type TextExtractor interface {
	Extract(data []byte, mimeType string) string
}

// PlainTextExtractor handles the text-based formats the pipeline indexes
// directly. Binary formats need a dedicated parser and produce no text.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a new PlainTextExtractor instance.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

var textMimeTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"text/html":        true,
	"application/json": true,
}

// Extract returns the decoded text for supported mime types. The mime
// type is matched without parameters ("text/plain; charset=utf-8"
// matches "text/plain").
func (e *PlainTextExtractor) Extract(data []byte, mimeType string) string {
	if len(data) == 0 {
		return ""
	}

	base := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if !textMimeTypes[base] && !strings.HasPrefix(base, "text/") {
		return ""
	}

	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}
