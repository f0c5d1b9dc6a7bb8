package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LLMConfig selects the generation backend models.
type LLMConfig struct {
	// APIKey authenticates against the Gemini API. Usually supplied via
	// the GEMINI_API_KEY environment variable rather than the file.
	APIKey string `yaml:"api_key"`

	// FastModel handles analysis and per-step responses.
	FastModel string `yaml:"fast_model"`

	// PowerfulModel handles planning and synthesis.
	PowerfulModel string `yaml:"powerful_model"`

	// EmbedModel produces vectors for knowledge retrieval.
	EmbedModel string `yaml:"embed_model"`

	// Timeout bounds a single generation call.
	Timeout Duration `yaml:"timeout"`
}

// DefaultLLM returns the stock model selection.
func DefaultLLM() LLMConfig {
	return LLMConfig{
		FastModel:     "gemini-2.5-flash",
		PowerfulModel: "gemini-2.5-pro",
		EmbedModel:    "gemini-embedding-001",
		Timeout:       Duration(2 * time.Minute),
	}
}
