package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"solace/internal/gen"
	"solace/internal/retrieval"
	"solace/internal/store"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index knowledge-base documents for factual grounding",
	Long: `Chunks and embeds every .txt and .md file in the knowledge
directory, replacing any previously indexed chunks from the same files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("no API key: set GEMINI_API_KEY or llm.api_key")
		}

		dir := ingestDir
		if dir == "" {
			dir = cfg.KnowledgePath()
		}

		db, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		client, err := gen.NewGemini(cmd.Context(), gen.GeminiConfig{
			APIKey:        cfg.LLM.APIKey,
			FastModel:     cfg.LLM.FastModel,
			PowerfulModel: cfg.LLM.PowerfulModel,
			EmbedModel:    cfg.LLM.EmbedModel,
			Timeout:       cfg.LLM.Timeout.Std(),
		})
		if err != nil {
			return err
		}

		index := retrieval.NewIndex(client, db, cfg.Retrieval.MinScore, logger)
		n, err := index.IngestDir(cmd.Context(), dir)
		if err != nil {
			return err
		}

		total, err := db.ChunkCount()
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d chunks from %s (%d total in store)\n", n, dir, total)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory to ingest (defaults to the configured knowledge dir)")
}
