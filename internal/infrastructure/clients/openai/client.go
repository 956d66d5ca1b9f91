package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	"github.com/zatekoja/fellowship/backend/pkg/config"
	"github.com/zatekoja/fellowship/backend/pkg/enrichment"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	providerName   = "openai"
)

// Client implements the verse enrichment provider on the OpenAI Responses API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig, timeout time.Duration) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

var _ providers.VerseEnrichmentProvider = (*Client)(nil)

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseOutput struct {
	Content []responseContent `json:"content"`
}

type responseEnvelope struct {
	Output     []responseOutput `json:"output"`
	OutputText string           `json:"output_text"`
}

// GenerateEnrichment asks the model for the verse's study material and
// normalizes the JSON it returns.
func (c *Client) GenerateEnrichment(ctx context.Context, req providers.EnrichmentRequest) (*entities.Enrichment, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"input": []map[string]string{
			{"role": "system", "content": enrichment.SystemPrompt(req.Testament)},
			{"role": "user", "content": enrichment.UserPrompt(req.Reference, req.VerseText, req.Testament)},
		},
		"text": map[string]interface{}{
			"format": map[string]string{"type": "json_object"},
		},
		"temperature":       0.3,
		"max_output_tokens": 1200,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, enrichment.NewTransportError(providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, enrichment.NewTransportError(providerName, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordGenerationMetric(ctx, providerName, c.model, 0, time.Since(start), err)
		return nil, enrichment.NewTransportError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		genErr := enrichment.NewStatusError(providerName, resp.StatusCode, raw)
		observability.RecordGenerationMetric(ctx, providerName, c.model, resp.StatusCode, time.Since(start), genErr)
		return nil, genErr
	}

	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		genErr := enrichment.NewInvalidOutputError(providerName, err)
		observability.RecordGenerationMetric(ctx, providerName, c.model, resp.StatusCode, time.Since(start), genErr)
		return nil, genErr
	}

	doc, err := enrichment.ParseDocument(envelope.text())
	if err != nil {
		genErr := enrichment.NewInvalidOutputError(providerName, err)
		observability.RecordGenerationMetric(ctx, providerName, c.model, resp.StatusCode, time.Since(start), genErr)
		return nil, genErr
	}

	observability.RecordGenerationMetric(ctx, providerName, c.model, resp.StatusCode, time.Since(start), nil)
	return enrichment.Normalize(doc, req.Testament), nil
}

func (e responseEnvelope) text() string {
	if e.OutputText != "" {
		return e.OutputText
	}
	for _, out := range e.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text
			}
		}
	}
	return ""
}
