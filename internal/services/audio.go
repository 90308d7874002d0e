// Audio synthesis [AudioService] implementation.
//
// The SongSynth API is asynchronous: a submission returns a job identifier,
// and the job is polled until it reports SUCCESS or FAILED. Every successful
// job yields exactly two tracks.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

const defaultAudioBaseURL = "https://api.songsynth.example.com"

// AudioClient implements [AudioService] over HTTP.
type AudioClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAudioClient creates a new audio synthesis client.
func NewAudioClient(baseURL, apiKey string, rateLimit float64) *AudioClient {
	if baseURL == "" {
		baseURL = defaultAudioBaseURL
	}
	if rateLimit <= 0 {
		rateLimit = 1.0
	}

	return &AudioClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
}

// Name returns the service name.
func (a *AudioClient) Name() string {
	return "SongSynth"
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Tracks []struct {
		AudioURL string `json:"audio_url"`
		ImageURL string `json:"image_url"`
		Duration int    `json:"duration"`
	} `json:"tracks"`
}

type creditsResponse struct {
	Remaining       float64 `json:"remaining"`
	EstimatedTracks int     `json:"estimated_tracks"`
}

// Submit starts a synthesis job and returns its job identifier.
func (a *AudioClient) Submit(ctx context.Context, title, style, mood string, instrumental bool) (string, error) {
	payload := map[string]any{
		"title":        title,
		"style":        style,
		"mood":         mood,
		"instrumental": instrumental,
	}

	var resp submitResponse
	if err := a.doRequest(ctx, http.MethodPost, "/v1/generate", payload, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("synthesis service returned an empty job id")
	}
	return resp.JobID, nil
}

// PollStatus fetches the current state of a submitted job.
//
// Polling is not rate limited; only submissions consume credits.
func (a *AudioClient) PollStatus(ctx context.Context, jobID string) (*JobState, error) {
	var resp statusResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/jobs/"+jobID, nil, &resp); err != nil {
		return nil, err
	}

	state := &JobState{JobID: resp.JobID, Status: JobStatus(resp.Status)}
	for _, track := range resp.Tracks {
		state.Tracks = append(state.Tracks, RawTrack{
			AudioURL: track.AudioURL,
			ImageURL: track.ImageURL,
			Duration: track.Duration,
		})
	}
	return state, nil
}

// Credits reports the remaining paid balance.
func (a *AudioClient) Credits(ctx context.Context) (*Credits, error) {
	var resp creditsResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/credits", nil, &resp); err != nil {
		return nil, err
	}
	return &Credits{Remaining: resp.Remaining, EstimatedTracksAvail: resp.EstimatedTracks}, nil
}

func (a *AudioClient) doRequest(ctx context.Context, method, endpoint string, payload, result any) error {
	var body *bytes.Reader
	if payload != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter interrupted: %w", err)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("synthesis service error (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("synthesis service error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
