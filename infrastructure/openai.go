package infrastructure

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/lookjihoon/AI-Interview-System-V2/config"
	"github.com/lookjihoon/AI-Interview-System-V2/services"
)

// OpenAIClient talks to any OpenAI-compatible endpoint (Ollama's /v1 API in
// the default deployment, api.openai.com otherwise). Models are tried in
// order until one succeeds.
type OpenAIClient struct {
	client     *openai.Client
	models     []string
	embedModel string
	log        *logrus.Logger
}

func NewOpenAIClient(cfg config.LLM, log *logrus.Logger) *OpenAIClient {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:     openai.NewClientWithConfig(c),
		models:     cfg.Models,
		embedModel: cfg.EmbedModel,
		log:        log,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts services.GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.ForceJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var lastErr error
	for _, model := range c.models {
		req.Model = model
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			c.log.WithError(err).WithField("model", model).Warn("model failed, trying next")
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("model %s returned no choices", model)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}
