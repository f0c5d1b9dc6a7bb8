// Package gen wraps the text/structured-data generation service every stage
// and responder depends on. Callers describe one capability-scoped request;
// the client returns the raw model output, which callers decode against their
// own result shapes.
package gen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Generation errors. Stages surface these so the pipeline can tell a flaky
// collaborator (retryable) from a malformed result (retry once, then fail).
var (
	// ErrGeneration means the generation service was unreachable, timed out,
	// or returned an error.
	ErrGeneration = errors.New("generation failed")

	// ErrSchema means the service answered but the result did not match the
	// expected record shape.
	ErrSchema = errors.New("generation result failed schema validation")
)

// Tier selects which of the two configured model handles serves a request.
type Tier string

const (
	// TierFast serves extraction, responders and synthesis.
	TierFast Tier = "fast"
	// TierPowerful serves planning, where routing quality matters most.
	TierPowerful Tier = "powerful"
)

// Request is one capability-scoped generation call.
type Request struct {
	// Capability labels the request for logging and test doubles, e.g.
	// "planner" or "wellness".
	Capability string

	System string
	Prompt string

	Tier        Tier
	Temperature float32

	// JSON asks the provider for a JSON object response. The expected shape
	// is described in the prompt; callers validate with Decode.
	JSON bool
}

// Client is the generation service collaborator.
type Client interface {
	// Generate performs one blocking generation call and returns the raw
	// model text. A service-side failure wraps ErrGeneration.
	Generate(ctx context.Context, req Request) (string, error)
}

// Decode parses a JSON generation result into v. Model output may wrap the
// object in markdown fences or prose, so the first balanced JSON value is
// extracted before unmarshalling. Failures wrap ErrSchema.
func Decode(raw string, v any) error {
	payload := ExtractJSON(raw)
	if payload == "" {
		return fmt.Errorf("%w: no JSON object in response", ErrSchema)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// ExtractJSON returns the first balanced JSON object or array embedded in
// text, or "" when none is found.
func ExtractJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}

	open := text[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
