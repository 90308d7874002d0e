package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestTextClientGenerateTitles(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"titles": []map[string]string{
				{"native": "Dawn Light", "foreign": "夜明けの光"},
				{"native": "Quiet Hills"},
			},
		})
	}))
	defer server.Close()

	client := NewTextClient(server.URL, "test-key", 100)
	titles, err := client.GenerateTitles(context.Background(), "dawn", "lofi", "calm", 2)
	if err != nil {
		t.Fatalf("GenerateTitles failed: %v", err)
	}

	if gotPath != "/v1/titles" {
		t.Errorf("Expected /v1/titles, got %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotBody["keywords"] != "dawn" || gotBody["count"] != float64(2) {
		t.Errorf("Unexpected request body: %v", gotBody)
	}
	if len(titles) != 2 {
		t.Fatalf("Expected 2 titles, got %d", len(titles))
	}
	if titles[0].ForeignText != "夜明けの光" || titles[1].NativeText != "Quiet Hills" {
		t.Errorf("Unexpected titles: %+v", titles)
	}
}

func TestTextClientErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"detail": "quota exhausted"})
	}))
	defer server.Close()

	client := NewTextClient(server.URL, "test-key", 100)
	_, err := client.GenerateTitles(context.Background(), "dawn", "lofi", "calm", 2)
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("Expected detail surfaced, got %v", err)
	}
}

func TestAudioClientSubmitAndPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/generate":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-7"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/jobs/job-7":
			json.NewEncoder(w).Encode(map[string]any{
				"job_id": "job-7",
				"status": "SUCCESS",
				"tracks": []map[string]any{
					{"audio_url": "https://cdn.example/a.mp3", "image_url": "https://cdn.example/a.png", "duration": 181},
					{"audio_url": "https://cdn.example/b.mp3", "duration": 204},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewAudioClient(server.URL, "test-key", 100)

	jobID, err := client.Submit(context.Background(), "Dawn Light", "lofi", "calm", true)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "job-7" {
		t.Errorf("Expected job-7, got %q", jobID)
	}

	state, err := client.PollStatus(context.Background(), jobID)
	if err != nil {
		t.Fatalf("PollStatus failed: %v", err)
	}
	if state.Status != StatusSuccess {
		t.Errorf("Expected SUCCESS, got %s", state.Status)
	}
	if len(state.Tracks) != 2 || state.Tracks[0].Duration != 181 {
		t.Errorf("Unexpected tracks: %+v", state.Tracks)
	}
}

func TestAudioClientEmptyJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewAudioClient(server.URL, "test-key", 100)
	if _, err := client.Submit(context.Background(), "Dawn Light", "lofi", "calm", true); err == nil {
		t.Error("Expected an error for an empty job id")
	}
}

func TestAudioClientCredits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/credits" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"remaining": 42.5, "estimated_tracks": 17})
	}))
	defer server.Close()

	client := NewAudioClient(server.URL, "test-key", 100)
	credits, err := client.Credits(context.Background())
	if err != nil {
		t.Fatalf("Credits failed: %v", err)
	}
	if credits.Remaining != 42.5 || credits.EstimatedTracksAvail != 17 {
		t.Errorf("Unexpected credits: %+v", credits)
	}
}

func TestImageClientGenerateCoverImage(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/covers" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://img.example/cover.png"})
	}))
	defer server.Close()

	client := NewImageClient(server.URL, "test-key")
	url, err := client.GenerateCoverImage(context.Background(), "Dawn Light", "focus", "calm", "dawn, mist")
	if err != nil {
		t.Fatalf("GenerateCoverImage failed: %v", err)
	}
	if url != "https://img.example/cover.png" {
		t.Errorf("Unexpected url %q", url)
	}
	if gotBody["title"] != "Dawn Light" {
		t.Errorf("Unexpected request body: %v", gotBody)
	}
}

func TestAssetDownloaderFetchAndPersist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Audio-Duration", "187")
		w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := NewAssetDownloader(dir, nil)

	result, err := downloader.FetchAndPersist(context.Background(), server.URL+"/track.mp3", "Dawn Light")
	if err != nil {
		t.Fatalf("FetchAndPersist failed: %v", err)
	}

	if result.Duration != 187 {
		t.Errorf("Expected duration from header, got %d", result.Duration)
	}
	if !strings.HasPrefix(result.LocalRef, dir) {
		t.Errorf("Expected file under media dir, got %q", result.LocalRef)
	}
	if !strings.Contains(result.LocalRef, "dawn_light_") || !strings.HasSuffix(result.LocalRef, ".mp3") {
		t.Errorf("Unexpected local name: %q", result.LocalRef)
	}

	content, err := os.ReadFile(result.LocalRef)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(content) != "audio-bytes" {
		t.Errorf("Unexpected file content: %q", content)
	}
}

func TestAssetDownloaderRejectsEmptyURL(t *testing.T) {
	downloader := NewAssetDownloader(t.TempDir(), nil)
	if _, err := downloader.FetchAndPersist(context.Background(), "", "Dawn Light"); err == nil {
		t.Error("Expected an error for an empty URL")
	}
}

func TestAssetDownloaderHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	downloader := NewAssetDownloader(t.TempDir(), nil)
	if _, err := downloader.FetchAndPersist(context.Background(), server.URL+"/track.mp3", "Dawn Light"); err == nil {
		t.Error("Expected an error on HTTP failure")
	}
}

func TestCatalogClientUpsertTrack(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewEncoder(w).Encode(map[string]string{"track_id": "catalog-9"})
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, "", "", "")
	id, err := client.UpsertTrack(context.Background(), TrackMetadata{
		Title: "Dawn Light", AudioRef: "/media/a.mp3", Duration: 181, Style: "lofi", Mood: "calm",
	})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	if id != "catalog-9" {
		t.Errorf("Expected catalog-9, got %q", id)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("Expected PUT, got %s", gotMethod)
	}
}

func TestCatalogClientEmptyTrackID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, "", "", "")
	if _, err := client.UpsertTrack(context.Background(), TrackMetadata{Title: "X"}); err == nil {
		t.Error("Expected an error for an empty track id")
	}
}
