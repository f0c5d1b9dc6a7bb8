package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solace/internal/store"
)

// vecEmbedder maps known texts to fixed vectors; unknown text gets a zero
// vector so it scores nothing against every query.
type vecEmbedder struct {
	vectors map[string][]float32
}

func (v *vecEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := v.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 0}, nil
}

// memChunks is an in-memory ChunkStore.
type memChunks struct {
	chunks []store.Chunk
}

func (m *memChunks) SaveChunk(c store.Chunk) error {
	m.chunks = append(m.chunks, c)
	return nil
}

func (m *memChunks) DeleteChunksBySource(source string) error {
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.Source != source {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *memChunks) AllChunks() ([]store.Chunk, error) {
	return append([]store.Chunk(nil), m.chunks...), nil
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	emb := &vecEmbedder{vectors: map[string][]float32{
		"query":     {1, 0, 0},
		"breathing": {0.9, 0.1, 0},
		"sleep":     {0.5, 0.5, 0},
		"unrelated": {0, 1, 0},
	}}
	chunks := &memChunks{chunks: []store.Chunk{
		{Source: "a.txt", Content: "sleep", Embedding: []float32{0.5, 0.5, 0}},
		{Source: "a.txt", Content: "unrelated", Embedding: []float32{0, 1, 0}},
		{Source: "b.txt", Content: "breathing", Embedding: []float32{0.9, 0.1, 0}},
	}}
	ix := NewIndex(emb, chunks, 0.3, zap.NewNop())

	got, err := ix.Search(context.Background(), "query", 2)
	require.NoError(t, err)

	// Best first; "unrelated" is orthogonal to the query and filtered out.
	assert.Equal(t, []string{"breathing", "sleep"}, got)
}

func TestSearchRespectsLimitAndMinScore(t *testing.T) {
	emb := &vecEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	chunks := &memChunks{chunks: []store.Chunk{
		{Content: "a", Embedding: []float32{1, 0, 0}},
		{Content: "b", Embedding: []float32{0.99, 0.1, 0}},
		{Content: "c", Embedding: []float32{0.98, 0.15, 0}},
	}}
	ix := NewIndex(emb, chunks, 0.3, zap.NewNop())

	got, err := ix.Search(context.Background(), "query", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := NewIndex(&vecEmbedder{}, &memChunks{}, 0.3, zap.NewNop())

	got, err := ix.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIngestDirReplacesPriorChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.txt")
	require.NoError(t, os.WriteFile(path, []byte("grounding basics"), 0o644))
	// Non-document files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.bin"), []byte("skip me"), 0o644))

	emb := &vecEmbedder{vectors: map[string][]float32{
		"grounding basics":  {1, 0, 0},
		"grounding, redone": {0, 1, 0},
	}}
	chunks := &memChunks{}
	ix := NewIndex(emb, chunks, 0.3, zap.NewNop())

	n, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, chunks.chunks, 1)
	assert.Equal(t, "guide.txt", chunks.chunks[0].Source)
	assert.Equal(t, []float32{1, 0, 0}, chunks.chunks[0].Embedding)

	// Re-ingesting the same file replaces, never duplicates.
	require.NoError(t, os.WriteFile(path, []byte("grounding, redone"), 0o644))
	n, err = ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, chunks.chunks, 1)
	assert.Equal(t, "grounding, redone", chunks.chunks[0].Content)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, cosine([]float32{1, 0}, []float32{1, 0, 0}), "mismatched lengths score zero")
}
