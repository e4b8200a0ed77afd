package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/storyloom/storyloom/internal/home"
)

const (
	openAIDefaultTextModel  = "gpt-4o-mini"
	openAIDefaultImageModel = "gpt-image-1"
	openAIDefaultImageSize  = "1024x1024"
)

// OpenAIConfig holds configuration for the OpenAI-backed generator.
type OpenAIConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	ImageSize  string
	RateLimit  float64       // Requests per second shared by text and image calls
	MaxRetries int           // Retry attempts per generative call
	RetryDelay time.Duration // Base retry delay
	Timeout    time.Duration // Per-request HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
	Logger     *slog.Logger
}

// OpenAIGenerator implements Generator using the official OpenAI SDK.
// Generated images are written under the home directory and referenced
// by filename.
type OpenAIGenerator struct {
	textModel  string
	imageModel string
	imageSize  string
	maxRetries int
	retryDelay time.Duration
	limiter    *RateLimiter
	client     openai.Client
	images     *home.Dir
	logger     *slog.Logger
}

// NewOpenAIGenerator creates a new OpenAI generator storing images in homeDir.
func NewOpenAIGenerator(cfg OpenAIConfig, homeDir *home.Dir) *OpenAIGenerator {
	if cfg.TextModel == "" {
		cfg.TextModel = openAIDefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openAIDefaultImageModel
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = openAIDefaultImageSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0), // retries handled here, not in the SDK transport
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		imageSize:  cfg.ImageSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    NewRateLimiter(cfg.RateLimit),
		client:     openai.NewClient(opts...),
		images:     homeDir,
		logger:     cfg.Logger,
	}
}

// GenerateText sends a chat completion request and returns the text content.
// Empty completions are retried and, if persistent, reported as ErrEmptyResponse.
func (g *OpenAIGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	start := time.Now()

	var content string
	err := retry.Do(
		func() error {
			if err := g.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
			if req.System != "" {
				messages = append(messages, openai.SystemMessage(req.System))
			}
			messages = append(messages, openai.UserMessage(req.Prompt))

			params := openai.ChatCompletionNewParams{
				Messages: messages,
				Model:    openai.ChatModel(g.textModel),
			}
			if req.Temperature > 0 {
				params.Temperature = openai.Float(req.Temperature)
			}
			if req.MaxTokens > 0 {
				params.MaxTokens = openai.Int(int64(req.MaxTokens))
			}

			completion, err := g.client.Chat.Completions.New(ctx, params)
			if err != nil {
				return fmt.Errorf("chat completion: %w", err)
			}
			if len(completion.Choices) == 0 {
				return fmt.Errorf("chat completion: %w", ErrEmptyResponse)
			}
			content = strings.TrimSpace(completion.Choices[0].Message.Content)
			if content == "" {
				return fmt.Errorf("chat completion: %w", ErrEmptyResponse)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(g.maxRetries)),
		retry.Delay(g.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	g.logger.Debug("text generated",
		"request_id", requestID,
		"model", g.textModel,
		"chars", len(content),
		"duration", time.Since(start))
	return content, nil
}

// GenerateImage requests a single image, stores the decoded bytes under the
// home directory scoped by req.Kind, and returns the filename reference.
func (g *OpenAIGenerator) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	start := time.Now()

	var payload string
	err := retry.Do(
		func() error {
			if err := g.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			params := openai.ImageGenerateParams{
				Prompt: req.Prompt,
				Model:  openai.ImageModel(g.imageModel),
				Size:   openai.ImageGenerateParamsSize(g.imageSize),
				N:      openai.Int(1),
			}
			// dall-e models default to URL responses; gpt-image-1 always
			// returns base64 and rejects the parameter.
			if strings.HasPrefix(g.imageModel, "dall-e") {
				params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
			}

			resp, err := g.client.Images.Generate(ctx, params)
			if err != nil {
				return fmt.Errorf("image generation: %w", err)
			}
			if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
				return fmt.Errorf("image generation: %w", ErrEmptyResponse)
			}
			payload = resp.Data[0].B64JSON
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(g.maxRetries)),
		retry.Delay(g.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	ref, err := g.images.WriteImage(req.Kind, uuid.New().String()+".png", data)
	if err != nil {
		return "", err
	}

	g.logger.Debug("image generated",
		"request_id", requestID,
		"model", g.imageModel,
		"kind", req.Kind,
		"ref", ref,
		"duration", time.Since(start))
	return ref, nil
}
