package gen

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini-backed generation client.
type GeminiConfig struct {
	APIKey        string
	FastModel     string
	PowerfulModel string
	EmbedModel    string
	Timeout       time.Duration
}

// DefaultGeminiConfig returns sensible defaults for the hosted Gemini API.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:        apiKey,
		FastModel:     "gemini-2.5-flash",
		PowerfulModel: "gemini-2.5-pro",
		EmbedModel:    "gemini-embedding-001",
		Timeout:       2 * time.Minute,
	}
}

// Gemini implements Client on top of the Google GenAI SDK. One instance
// serves both model tiers; the tier on each request picks the model name.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGemini creates a Gemini generation client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.FastModel == "" || cfg.PowerfulModel == "" {
		return nil, fmt.Errorf("both fast and powerful model names are required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) model(tier Tier) string {
	if tier == TierPowerful {
		return g.cfg.PowerfulModel
	}
	return g.cfg.FastModel
}

// Generate implements Client.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	temp := req.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model(req.Tier), contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrGeneration, req.Capability, err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty response", ErrGeneration, req.Capability)
	}
	return text, nil
}

// Embed generates an embedding vector for a single text. Used by the
// retrieval index; responders never call it directly.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := g.client.Models.EmbedContent(ctx, g.cfg.EmbedModel, contents,
		&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"})
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", ErrGeneration, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: embed: no embeddings returned", ErrGeneration)
	}
	return result.Embeddings[0].Values, nil
}
