// Package embedding provides the external embedding collaborator used to
// turn text into vectors.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"coderag/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	defaultTimeout = 30 * time.Second
)

// OpenAIClient embeds text through any OpenAI-compatible embeddings
// endpoint. It performs no retries; transport policy belongs to callers.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// OpenAIConfig configures the embeddings client. APIKey wins over
// APIKeyEnv when both are set.
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewOpenAIClient creates an embeddings client from the configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key (set %s)", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// EmbedOne returns the embedding vector for a single text.
func (c *OpenAIClient) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: blank text", domain.ErrEmptyInput)
	}
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany returns one embedding vector per input text, in input order.
func (c *OpenAIClient) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts", domain.ErrEmptyInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: blank text at position %d", domain.ErrEmptyInput, i)
		}
	}
	return c.embed(ctx, texts)
}

func (c *OpenAIClient) embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			domain.ErrMalformedResponse, len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: vector index %d out of range", domain.ErrMalformedResponse, item.Index)
		}
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty vector at index %d", domain.ErrMalformedResponse, item.Index)
		}
		v := make([]float64, len(item.Embedding))
		for j, x := range item.Embedding {
			v[j] = float64(x)
		}
		vectors[item.Index] = v
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: missing vector for text %d", domain.ErrMalformedResponse, i)
		}
	}
	return vectors, nil
}
