// Production catalog [CatalogService] implementation.
//
// The catalog API authenticates with OAuth2 client credentials; the token
// source refreshes transparently between calls.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// CatalogClient implements [CatalogService] over HTTP.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a catalog client. When tokenURL is empty the
// client falls back to unauthenticated requests, which is only useful
// against a local stub.
func NewCatalogClient(baseURL, tokenURL, clientID, clientSecret string) *CatalogClient {
	client := http.DefaultClient
	if tokenURL != "" {
		conf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		client = conf.Client(context.Background())
	}

	return &CatalogClient{baseURL: baseURL, httpClient: client}
}

// Name returns the service name.
func (c *CatalogClient) Name() string {
	return "Catalog"
}

// UpsertTrack creates or updates a catalog entry and returns its id.
func (c *CatalogClient) UpsertTrack(ctx context.Context, metadata TrackMetadata) (string, error) {
	payload := map[string]any{
		"title":         metadata.Title,
		"foreign_title": metadata.ForeignTitle,
		"audio_ref":     metadata.AudioRef,
		"image_ref":     metadata.ImageRef,
		"duration":      metadata.Duration,
		"style":         metadata.Style,
		"mood":          metadata.Mood,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/tracks", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return "", fmt.Errorf("catalog error (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return "", fmt.Errorf("catalog error: status %d", resp.StatusCode)
	}

	var result struct {
		TrackID string `json:"track_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.TrackID == "" {
		return "", fmt.Errorf("catalog returned an empty track id")
	}
	return result.TrackID, nil
}
