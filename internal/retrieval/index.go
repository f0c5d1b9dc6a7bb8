package retrieval

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solace/internal/store"
)

// Embedder turns text into a vector. The Gemini generation client satisfies
// this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore is the slice of the persistence layer the index needs.
type ChunkStore interface {
	SaveChunk(c store.Chunk) error
	DeleteChunksBySource(source string) error
	AllChunks() ([]store.Chunk, error)
}

// Index embeds and recalls knowledge-base chunks.
type Index struct {
	embedder Embedder
	chunks   ChunkStore
	opts     ChunkOptions
	minScore float64
	log      *zap.Logger
}

// NewIndex returns a retrieval index over the given store and embedder.
func NewIndex(embedder Embedder, chunks ChunkStore, minScore float64, log *zap.Logger) *Index {
	if minScore <= 0 {
		minScore = 0.3
	}
	return &Index{
		embedder: embedder,
		chunks:   chunks,
		opts:     DefaultChunkOptions(),
		minScore: minScore,
		log:      log,
	}
}

// IngestDir indexes every .txt and .md file under dir, replacing any prior
// chunks from the same files. Embedding runs with bounded concurrency; the
// first failure aborts the batch.
func (ix *Index) IngestDir(ctx context.Context, dir string) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan knowledge dir: %w", err)
	}

	total := 0
	for _, path := range files {
		n, err := ix.ingestFile(ctx, path)
		if err != nil {
			return total, err
		}
		total += n
		ix.log.Info("ingested document", zap.String("path", path), zap.Int("chunks", n))
	}
	return total, nil
}

func (ix *Index) ingestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	source := filepath.Base(path)
	texts := SplitChunks(string(data), ix.opts)
	if len(texts) == 0 {
		return 0, nil
	}

	embedded := make([]store.Chunk, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gctx, text)
			if err != nil {
				return err
			}
			embedded[i] = store.Chunk{Source: source, Content: text, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("embed %s: %w", source, err)
	}

	if err := ix.chunks.DeleteChunksBySource(source); err != nil {
		return 0, err
	}
	for _, c := range embedded {
		if err := ix.chunks.SaveChunk(c); err != nil {
			return 0, err
		}
	}
	return len(embedded), nil
}

// Search returns up to limit chunk contents most similar to the query,
// best first, filtered by the minimum score. An empty index returns nothing.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	all, err := ix.chunks.AllChunks()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		content string
		score   float64
	}
	results := make([]scored, 0, len(all))
	for _, c := range all {
		score := cosine(qvec, c.Embedding)
		if score >= ix.minScore {
			results = append(results, scored{content: c.Content, score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })

	if limit <= 0 {
		limit = 4
	}
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.content
	}
	return out, nil
}

// cosine returns the cosine similarity of two vectors, 0 on dimension
// mismatch or zero magnitude.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
