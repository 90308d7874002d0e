// Cover image [ImageService] implementation.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultImageBaseURL = "https://api.coverart.example.com"

// ImageClient implements [ImageService] over HTTP.
type ImageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewImageClient creates a new cover image client.
func NewImageClient(baseURL, apiKey string) *ImageClient {
	if baseURL == "" {
		baseURL = defaultImageBaseURL
	}

	return &ImageClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (i *ImageClient) Name() string {
	return "CoverArt"
}

// GenerateCoverImage returns the URL of a freshly synthesized cover image.
func (i *ImageClient) GenerateCoverImage(ctx context.Context, title, category, mood, keywords string) (string, error) {
	payload := map[string]any{
		"title":    title,
		"category": category,
		"mood":     mood,
	}
	if keywords != "" {
		payload["keywords"] = keywords
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/v1/covers", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.apiKey)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image service error: status %d", resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("image service returned an empty URL")
	}
	return result.URL, nil
}
