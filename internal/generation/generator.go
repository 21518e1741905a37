package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/applymill/applymill/internal/utils"
)

const (
	defaultModel       = "gemini-2.5-pro"
	defaultCallTimeout = 60 * time.Second
)

// ContentGenerator produces free text for a prompt at a requested sampling
// temperature.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string, temperature float32) (string, error)
	Model() string
}

// Generator wraps the Google GenAI client with a primary and a backup model
// configuration. A failed or timed-out primary call is retried once against
// the backup before the error is surfaced. Every model call runs under its
// own timeout so a hung request never stalls a worker.
type Generator struct {
	client      *genai.Client
	modelName   string
	backupModel string
	timeout     time.Duration
	logger      *zap.Logger

	// callModel performs one model invocation. Replaced in tests.
	callModel func(ctx context.Context, model, prompt string, temperature float32) (string, error)
}

// NewGenerator creates a Generator for the Gemini API backend. timeout bounds
// each model call and defaults to 60s when zero.
func NewGenerator(ctx context.Context, apiKey, model, backupModel string, timeout time.Duration, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	g := &Generator{
		client:      client,
		modelName:   model,
		backupModel: strings.TrimSpace(backupModel),
		timeout:     timeout,
		logger:      logger,
	}
	g.callModel = g.geminiCall
	return g, nil
}

// GenerateContent sends the prompt to the primary model, falling back to the
// backup model configuration on failure.
func (g *Generator) GenerateContent(ctx context.Context, prompt string, temperature float32) (string, error) {
	if g == nil || g.callModel == nil {
		return "", errors.New("generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	output, primaryErr := g.generate(ctx, g.modelName, prompt, temperature)
	if primaryErr == nil {
		return output, nil
	}

	if g.backupModel == "" || g.backupModel == g.modelName {
		return "", primaryErr
	}

	g.logger.Warn("primary model failed, retrying against backup",
		zap.String("model", g.modelName),
		zap.String("backup_model", g.backupModel),
		zap.Error(primaryErr),
	)

	output, backupErr := g.generate(ctx, g.backupModel, prompt, temperature)
	if backupErr != nil {
		return "", fmt.Errorf("primary: %w; backup: %w", primaryErr, backupErr)
	}
	return output, nil
}

func (g *Generator) generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.callModel(callCtx, model, prompt, temperature)
}

func (g *Generator) geminiCall(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	g.logger.Debug("generated content",
		zap.String("model", model),
		zap.String("preview", utils.TruncateForLog(output, 120)),
	)

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
