// Package retrieval implements the knowledge-base index the factual
// capability grounds its answers in: plain-text documents are chunked,
// embedded, stored in SQLite, and recalled by cosine similarity.
package retrieval

import "strings"

const (
	defaultTargetSize = 800
	defaultMaxSize    = 1200
)

// ChunkOptions configures text chunking.
type ChunkOptions struct {
	TargetSize int
	MaxSize    int
}

// DefaultChunkOptions returns the default chunk sizing.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{TargetSize: defaultTargetSize, MaxSize: defaultMaxSize}
}

// SplitChunks splits text into paragraph-aligned chunks of roughly TargetSize
// characters. Short text returns a single chunk; paragraphs longer than
// MaxSize are split at that bound.
func SplitChunks(text string, opts ChunkOptions) []string {
	if opts.TargetSize <= 0 {
		opts = DefaultChunkOptions()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		for len(para) > opts.MaxSize {
			chunks = append(chunks, para[:opts.MaxSize])
			para = para[opts.MaxSize:]
		}

		if current.Len() > 0 && current.Len()+len(para) > opts.TargetSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
