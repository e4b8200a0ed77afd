// Package genai abstracts calls to text- and image-generating models.
//
// Clients are constructed once at process start and injected into the
// pipeline; there are no package-level singletons.
package genai

import (
	"context"
	"errors"

	"github.com/storyloom/storyloom/internal/home"
)

// ErrEmptyResponse indicates the model returned no usable content.
var ErrEmptyResponse = errors.New("empty model response")

// TextRequest is a request for generated text.
type TextRequest struct {
	// System is an optional system role instruction.
	System string
	// Prompt is the user prompt.
	Prompt string
	// Temperature controls sampling randomness; 0 uses the model default.
	Temperature float64
	// MaxTokens bounds the completion length; 0 means no explicit bound.
	MaxTokens int
	// RequestID tracks the call in logs; generated when empty.
	RequestID string
}

// ImageRequest is a request for a single generated image.
type ImageRequest struct {
	// Prompt describes the image.
	Prompt string
	// Kind scopes where the stored image lands (covers, characters, scenes).
	Kind home.ImageKind
	// RequestID tracks the call in logs; generated when empty.
	RequestID string
}

// TextGenerator produces freeform text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator produces a stored image and returns its opaque reference
// (a filename resolvable through the home directory).
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// Generator combines both capabilities; the pipeline depends on this.
type Generator interface {
	TextGenerator
	ImageGenerator
}
