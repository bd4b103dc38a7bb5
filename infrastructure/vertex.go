package infrastructure

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"github.com/sirupsen/logrus"

	"github.com/lookjihoon/AI-Interview-System-V2/services"
)

// VertexClient is the alternative text-generation provider for deployments
// on Google Cloud (LLM_PROVIDER=vertex). Embeddings still come from the
// OpenAI-compatible client: the question bank vectors are produced by that
// model, and mixing embedding spaces would break retrieval.
type VertexClient struct {
	client *genai.Client
	models []string
	log    *logrus.Logger
}

func NewVertexClient(ctx context.Context, projectID, location string, models []string, log *logrus.Logger) (*VertexClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required for the vertex provider")
	}
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	if len(models) == 0 {
		models = []string{"gemini-1.5-flash"}
	}
	return &VertexClient{client: client, models: models, log: log}, nil
}

func (c *VertexClient) Generate(ctx context.Context, prompt string, opts services.GenerateOptions) (string, error) {
	var lastErr error
	for _, name := range c.models {
		model := c.client.GenerativeModel(name)
		model.SetTemperature(opts.Temperature)
		if opts.MaxTokens > 0 {
			model.SetMaxOutputTokens(int32(opts.MaxTokens))
		}
		if opts.ForceJSON {
			model.GenerationConfig.ResponseMIMEType = "application/json"
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			c.log.WithError(err).WithField("model", name).Warn("model failed, trying next")
			lastErr = err
			continue
		}

		text, err := extractVertexText(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func extractVertexText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text), nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}

func (c *VertexClient) Close() error {
	return c.client.Close()
}
