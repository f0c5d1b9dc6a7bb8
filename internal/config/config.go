// Package config loads the Solace configuration: a YAML file with
// environment-variable overrides for secrets. Every component receives its
// settings from here via explicit injection; there are no package-level
// model handles or defaults elsewhere.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all Solace configuration.
type Config struct {
	// DataDir anchors the database and knowledge-base paths.
	DataDir string `yaml:"data_dir"`

	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is zap's level string: debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir:   ".solace",
		LLM:       DefaultLLM(),
		Retrieval: DefaultRetrieval(),
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults are a valid configuration.
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if dir := os.Getenv("SOLACE_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
}

// Validate checks the configuration is internally coherent. The API key is
// deliberately not required here: commands that never call the generation
// service must work without one.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.LLM.FastModel == "" || c.LLM.PowerfulModel == "" {
		return fmt.Errorf("llm fast_model and powerful_model must both be set")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	return nil
}

// DatabasePath returns the SQLite path under the data dir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "solace.db")
}

// KnowledgePath returns the knowledge-base directory.
func (c Config) KnowledgePath() string {
	if filepath.IsAbs(c.Retrieval.KnowledgeDir) {
		return c.Retrieval.KnowledgeDir
	}
	return filepath.Join(c.DataDir, c.Retrieval.KnowledgeDir)
}
