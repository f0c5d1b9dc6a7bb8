package config

// RetrievalConfig tunes the knowledge-base index.
type RetrievalConfig struct {
	// KnowledgeDir holds the source documents, relative to the data dir
	// unless absolute.
	KnowledgeDir string `yaml:"knowledge_dir"`

	// TopK is the number of grounding excerpts fetched per factual step.
	TopK int `yaml:"top_k"`

	// MinScore filters out weakly related excerpts (cosine similarity).
	MinScore float64 `yaml:"min_score"`
}

// DefaultRetrieval returns the stock retrieval tuning.
func DefaultRetrieval() RetrievalConfig {
	return RetrievalConfig{
		KnowledgeDir: "knowledge",
		TopK:         3,
		MinScore:     0.3,
	}
}
