package parse

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Character is one parsed character record. Image is populated later by
// the portrait stage, not by the model response.
type Character struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

//go:embed characters_schema.json
var charactersSchemaJSON string

var charactersSchema = jsonschema.MustCompileString("characters.json", charactersSchemaJSON)

// Characters extracts a character list from freeform model output.
//
// The response is expected to be a JSON array of {name, description}
// objects, possibly wrapped in markdown code fences or surrounding prose.
// The parsed document is validated against the embedded schema. When
// limit > 0 the result is truncated to at most limit entries.
//
// Callers should treat an error as "no characters" rather than failing:
// a malformed character list degrades the work, it does not invalidate it.
func Characters(raw string, limit int) ([]Character, error) {
	candidate := extractJSONCandidate(raw)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse character JSON: %w", err)
	}
	if err := charactersSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("character JSON failed validation: %w", err)
	}

	var characters []Character
	if err := json.Unmarshal([]byte(candidate), &characters); err != nil {
		return nil, fmt.Errorf("failed to decode characters: %w", err)
	}

	if limit > 0 && len(characters) > limit {
		characters = characters[:limit]
	}
	return characters, nil
}

// extractJSONCandidate strips markdown code fences and surrounding prose,
// returning the outermost JSON array in the content.
func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if stripped := stripCodeFences(trimmed); stripped != "" {
		trimmed = stripped
	}

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// stripCodeFences removes a surrounding markdown code fence, returning
// empty when the content is not fenced.
func stripCodeFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return ""
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line (which may carry a language tag).
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// MarshalManifest serializes a character list for the work record.
func MarshalManifest(characters []Character) (string, error) {
	if len(characters) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(characters)
	if err != nil {
		return "", fmt.Errorf("failed to marshal character manifest: %w", err)
	}
	return string(data), nil
}

// UnmarshalManifest decodes a serialized character manifest; empty input
// yields an empty list.
func UnmarshalManifest(manifest string) ([]Character, error) {
	if strings.TrimSpace(manifest) == "" {
		return nil, nil
	}
	var characters []Character
	if err := json.Unmarshal([]byte(manifest), &characters); err != nil {
		return nil, fmt.Errorf("failed to decode character manifest: %w", err)
	}
	return characters, nil
}
