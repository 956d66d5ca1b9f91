package scripture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
)

const defaultHTTPTimeout = 10 * time.Second

// textFields are the response keys the keyed API has been seen to use for
// the verse body, in preference order.
var textFields = []string{"text", "verse_text", "verseText", "content", "verse", "passage"}

// PrimaryProvider looks verses up on the keyed scripture API.
type PrimaryProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPrimaryProvider creates the keyed provider. An empty base URL or key
// leaves it unconfigured and every lookup returns ErrProviderNotConfigured.
func NewPrimaryProvider(baseURL, apiKey string, httpClient *http.Client) providers.ScriptureTextProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &PrimaryProvider{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
	}
}

// Name identifies the provider in logs and metrics.
func (p *PrimaryProvider) Name() string {
	return "primary"
}

// LookupVerse fetches the verse text by book, chapter and verse query parameters.
func (p *PrimaryProvider) LookupVerse(ctx context.Context, lookup providers.VerseLookup) (string, error) {
	if p.baseURL == "" || p.apiKey == "" {
		return "", providers.ErrProviderNotConfigured
	}

	params := url.Values{}
	params.Set("book", lookup.Book)
	params.Set("chapter", strconv.Itoa(lookup.Chapter))
	params.Set("verse", strconv.Itoa(lookup.Verse))

	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+sep+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build verse request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("verse request returned status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode verse response: %w", err)
	}

	if text := firstText(payload); text != "" {
		return text, nil
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if text := firstText(data); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("verse response has no text field")
}

func firstText(obj map[string]any) string {
	for _, field := range textFields {
		if s, ok := obj[field].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
