package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/tahcohcat/questagram/config"
	"github.com/tahcohcat/questagram/internal/logger"
)

type Client struct {
	client *api.Client
	config *config.OllamaConfig
	logger *logger.Log
}

// NewClient talks to cfg.Host, or to OLLAMA_HOST when no host is configured.
func NewClient(cfg *config.OllamaConfig) (*Client, error) {
	var (
		client *api.Client
		err    error
	)
	if cfg.Host != "" {
		var base *url.URL
		base, err = url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Client{
		client: client,
		config: cfg,
		logger: logger.Named("ollama"),
	}, nil
}

func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	shouldStream := false

	req := &api.GenerateRequest{
		Model:  c.config.Model,
		System: system,
		Prompt: prompt,
		Stream: &shouldStream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": 0.8,
			"top_p":       0.9,
		},
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.config.Timeout)*time.Second)
		defer cancel()
	}

	c.logger.Debug(fmt.Sprintf("Generating response with model %s", c.config.Model))

	var response string
	err := c.client.Generate(ctx, req, func(g api.GenerateResponse) error {
		response += g.Response
		return nil
	})
	if err != nil {
		c.logger.WithError(err).Error("Failed to generate response")
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}

	return response, nil
}

func (c *Client) IsModelAvailable(ctx context.Context) error {
	models, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, len(models.Models))
	for i, model := range models.Models {
		if model.Name == c.config.Model || model.Model == c.config.Model {
			return nil
		}
		names[i] = model.Name
	}

	return fmt.Errorf("model %s not found. Available models: %v", c.config.Model, names)
}
