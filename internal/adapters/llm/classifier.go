package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"docsort/internal/config"
	"docsort/internal/domain"
	"docsort/internal/ports"
)

const systemPrompt = `You are a document classification assistant for a file archive.
Classify the document content into exactly one category: finanzen, projekte, personal, footage, unsorted.
Respond with a single JSON object and nothing else:
{"category": "...", "confidence": 0.0, "customer": "", "project": "", "tags": []}
confidence is your certainty between 0 and 1. Leave customer and project empty when the content does not name them.`

// maxContentChars bounds how much document text goes into one request.
const maxContentChars = 6000

// Classifier calls an OpenAI-compatible chat endpoint to categorize
// document content. Requests are rate limited; callers handle failures by
// falling back to keyword rules.
type Classifier struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier builds a classifier from the config section. A custom
// endpoint supports local model servers alongside hosted APIs.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		apiCfg.BaseURL = cfg.Endpoint
	}

	perMinute := rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	return &Classifier{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		limiter: rate.NewLimiter(perMinute, cfg.Burst),
		timeout: cfg.Timeout,
	}
}

// Classify sends the content to the model and decodes its JSON verdict.
func (c *Classifier) Classify(ctx context.Context, content, fileExt string) (*domain.ClassificationResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("File extension: %s\n\n%s", fileExt, content)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classification request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty classification response")
	}

	return decodeResult(resp.Choices[0].Message.Content)
}

// IsAvailable probes the endpoint with a short deadline.
func (c *Classifier) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.api.ListModels(ctx)
	return err == nil
}

// decodeResult parses the model output, tolerating prose or code fences
// around the JSON object.
func decodeResult(raw string) (*domain.ClassificationResult, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var result domain.ClassificationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}

	result.Category = strings.ToLower(strings.TrimSpace(result.Category))
	if !domain.ValidCategory(result.Category) {
		return nil, fmt.Errorf("model returned unknown category %q", result.Category)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", result.Confidence)
	}
	return &result, nil
}

// extractJSON returns the first top-level {...} block in raw.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
