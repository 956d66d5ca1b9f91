package gemini

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	"github.com/zatekoja/fellowship/backend/pkg/config"
	"github.com/zatekoja/fellowship/backend/pkg/enrichment"
)

const providerName = "gemini"

// Client implements the verse enrichment provider on Google's Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

var _ providers.VerseEnrichmentProvider = (*Client)(nil)

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, timeout time.Duration) (*Client, error) {
	return newClient(ctx, cfg, timeout, "")
}

func newClient(ctx context.Context, cfg *config.GeminiConfig, timeout time.Duration, baseURL string) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}

	return &Client{client: client, model: model}, nil
}

// GenerateEnrichment asks Gemini for JSON study material and normalizes it.
func (c *Client) GenerateEnrichment(ctx context.Context, req providers.EnrichmentRequest) (*entities.Enrichment, error) {
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(enrichment.SystemPrompt(req.Testament), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   1200,
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(enrichment.UserPrompt(req.Reference, req.VerseText, req.Testament)),
		genConfig,
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			genErr := enrichment.NewStatusError(providerName, apiErr.Code, []byte(apiErr.Message))
			observability.RecordGenerationMetric(ctx, providerName, c.model, apiErr.Code, time.Since(start), genErr)
			return nil, genErr
		}
		observability.RecordGenerationMetric(ctx, providerName, c.model, 0, time.Since(start), err)
		return nil, enrichment.NewTransportError(providerName, err)
	}

	doc, err := enrichment.ParseDocument(resp.Text())
	if err != nil {
		genErr := enrichment.NewInvalidOutputError(providerName, err)
		observability.RecordGenerationMetric(ctx, providerName, c.model, http.StatusOK, time.Since(start), genErr)
		return nil, genErr
	}

	observability.RecordGenerationMetric(ctx, providerName, c.model, http.StatusOK, time.Since(start), nil)
	return enrichment.Normalize(doc, req.Testament), nil
}
