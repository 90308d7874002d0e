// Title/keyword generation [TextService] implementation.
//
// Communicates with the TitleForge HTTP API. Responses are plain JSON; the
// client enforces a request rate limit because title minting is billed per call.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

const defaultTextBaseURL = "https://api.titleforge.example.com"

// TextClient implements [TextService] over HTTP.
type TextClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTextClient creates a new title generation client.
func NewTextClient(baseURL, apiKey string, rateLimit float64) *TextClient {
	if baseURL == "" {
		baseURL = defaultTextBaseURL
	}
	if rateLimit <= 0 {
		rateLimit = 2.0
	}

	return &TextClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
}

// Name returns the service name.
func (t *TextClient) Name() string {
	return "TitleForge"
}

type titleResponse struct {
	Titles []struct {
		Native  string `json:"native"`
		Foreign string `json:"foreign"`
	} `json:"titles"`
}

type keywordResponse struct {
	Keywords []string `json:"keywords"`
}

// GenerateTitles mints count title pairs for the given keywords, style and mood.
func (t *TextClient) GenerateTitles(ctx context.Context, keywords, style, mood string, count int) ([]GeneratedTitle, error) {
	payload := map[string]any{
		"keywords": keywords,
		"style":    style,
		"mood":     mood,
		"count":    count,
	}

	var resp titleResponse
	if err := t.doRequest(ctx, "/v1/titles", payload, &resp); err != nil {
		return nil, err
	}

	titles := make([]GeneratedTitle, 0, len(resp.Titles))
	for _, item := range resp.Titles {
		titles = append(titles, GeneratedTitle{NativeText: item.Native, ForeignText: item.Foreign})
	}
	return titles, nil
}

// GenerateKeywords mints count keyword strings for a content category.
func (t *TextClient) GenerateKeywords(ctx context.Context, category, style, mood string, count int) ([]string, error) {
	payload := map[string]any{
		"category": category,
		"style":    style,
		"mood":     mood,
		"count":    count,
	}

	var resp keywordResponse
	if err := t.doRequest(ctx, "/v1/keywords", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Keywords, nil
}

func (t *TextClient) doRequest(ctx context.Context, endpoint string, payload, result any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("title service error (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("title service error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
