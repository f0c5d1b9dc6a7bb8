package store

import (
	"encoding/json"
	"fmt"
)

// Chunk is one embedded knowledge-base excerpt.
type Chunk struct {
	ID        int64
	Source    string
	Content   string
	Embedding []float32
}

// SaveChunk inserts one embedded chunk into the retrieval index.
func (s *Store) SaveChunk(c Chunk) error {
	emb, err := json.Marshal(c.Embedding)
	if err != nil {
		return fmt.Errorf("%w: encode embedding: %v", ErrPersistence, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO chunks (source, content, embedding) VALUES (?, ?, ?)`,
		c.Source, c.Content, string(emb),
	)
	if err != nil {
		return fmt.Errorf("%w: save chunk: %v", ErrPersistence, err)
	}
	return nil
}

// DeleteChunksBySource removes a source's chunks ahead of re-ingestion.
func (s *Store) DeleteChunksBySource(source string) error {
	if _, err := s.db.Exec(`DELETE FROM chunks WHERE source = ?`, source); err != nil {
		return fmt.Errorf("%w: delete chunks: %v", ErrPersistence, err)
	}
	return nil
}

// AllChunks returns every stored chunk. The index is small enough to score
// in memory.
func (s *Store) AllChunks() ([]Chunk, error) {
	rows, err := s.db.Query(`SELECT id, source, content, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: load chunks: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		var emb string
		if err := rows.Scan(&c.ID, &c.Source, &c.Content, &emb); err != nil {
			return nil, fmt.Errorf("%w: load chunks: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal([]byte(emb), &c.Embedding); err != nil {
			return nil, fmt.Errorf("%w: decode embedding: %v", ErrPersistence, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load chunks: %v", ErrPersistence, err)
	}
	return out, nil
}

// ChunkCount returns the number of indexed chunks.
func (s *Store) ChunkCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", ErrPersistence, err)
	}
	return n, nil
}
