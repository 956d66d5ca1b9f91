package scripture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
)

const defaultBibleAPIURL = "https://bible-api.com"

// translationCodes maps common version abbreviations onto the two public
// domain translations bible-api.com serves.
var translationCodes = map[string]string{
	"KJV":  "kjv",
	"NKJV": "kjv",
	"AKJV": "kjv",
	"KJ21": "kjv",
	"WEB":  "web",
	"ESV":  "web",
	"NIV":  "web",
	"NLT":  "web",
	"NASB": "web",
	"CSB":  "web",
	"RSV":  "web",
	"NRSV": "web",
}

// TranslationFor returns the translation code for a version hint, or "" when
// the hint is empty.
func TranslationFor(hint string) string {
	hint = strings.ToUpper(strings.TrimSpace(hint))
	if hint == "" {
		return ""
	}
	if code, ok := translationCodes[hint]; ok {
		return code
	}
	return "web"
}

// BibleAPIProvider looks verses up on the keyless bible-api.com service.
type BibleAPIProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewBibleAPIProvider creates the keyless provider.
func NewBibleAPIProvider(baseURL string, httpClient *http.Client) providers.ScriptureTextProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBibleAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &BibleAPIProvider{baseURL: baseURL, httpClient: httpClient}
}

// Name identifies the provider in logs and metrics.
func (p *BibleAPIProvider) Name() string {
	return "bible-api"
}

type bibleAPIResponse struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
	Error     string `json:"error"`
}

// LookupVerse fetches "Book Chapter:Verse" with an optional translation.
func (p *BibleAPIProvider) LookupVerse(ctx context.Context, lookup providers.VerseLookup) (string, error) {
	passage := fmt.Sprintf("%s %d:%d", lookup.Book, lookup.Chapter, lookup.Verse)
	reqURL := p.baseURL + "/" + url.PathEscape(passage)
	if code := TranslationFor(lookup.VersionHint); code != "" {
		reqURL += "?" + url.Values{"translation": []string{code}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build verse request: %w", err)
	}
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

	var payload bibleAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode verse response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("bible-api error: %s", payload.Error)
	}

	text := strings.Join(strings.Fields(payload.Text), " ")
	if text == "" {
		return "", fmt.Errorf("verse response has empty text")
	}
	return text, nil
}
