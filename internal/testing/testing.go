// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/soundry/soundry/internal/services"
)

// MockTextService is a configurable test double for [services.TextService].
type MockTextService struct {
	Titles    []services.GeneratedTitle
	Keywords  []string
	Err       error
	CallCount int
}

func (m *MockTextService) GenerateTitles(ctx context.Context, keywords, style, mood string, count int) ([]services.GeneratedTitle, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if count > 0 && count < len(m.Titles) {
		return m.Titles[:count], nil
	}
	return m.Titles, nil
}

func (m *MockTextService) GenerateKeywords(ctx context.Context, category, style, mood string, count int) ([]string, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Keywords, nil
}

func (m *MockTextService) Name() string { return "mock-text" }

// MockAudioService scripts the asynchronous synthesis lifecycle: each
// PollStatus call pops the next status from Statuses, holding the last one
// once the script runs out.
type MockAudioService struct {
	JobID       string
	SubmitErr   error
	Statuses    []services.JobStatus
	Tracks      []services.RawTrack
	PollErr     error
	CreditsVal  *services.Credits
	SubmitCount int
	PollCount   int
}

func (m *MockAudioService) Submit(ctx context.Context, title, style, mood string, instrumental bool) (string, error) {
	m.SubmitCount++
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	if m.JobID == "" {
		return fmt.Sprintf("job-%d", m.SubmitCount), nil
	}
	return m.JobID, nil
}

func (m *MockAudioService) PollStatus(ctx context.Context, jobID string) (*services.JobState, error) {
	m.PollCount++
	if m.PollErr != nil {
		return nil, m.PollErr
	}

	status := services.StatusPending
	if len(m.Statuses) > 0 {
		idx := m.PollCount - 1
		if idx >= len(m.Statuses) {
			idx = len(m.Statuses) - 1
		}
		status = m.Statuses[idx]
	}

	state := &services.JobState{JobID: jobID, Status: status}
	if status == services.StatusSuccess {
		state.Tracks = m.Tracks
	}
	return state, nil
}

func (m *MockAudioService) Credits(ctx context.Context) (*services.Credits, error) {
	if m.CreditsVal == nil {
		return &services.Credits{}, nil
	}
	return m.CreditsVal, nil
}

func (m *MockAudioService) Name() string { return "mock-audio" }

// MockImageService is a test double for [services.ImageService].
type MockImageService struct {
	URL       string
	Err       error
	CallCount int
}

func (m *MockImageService) GenerateCoverImage(ctx context.Context, title, category, mood, keywords string) (string, error) {
	m.CallCount++
	if m.Err != nil {
		return "", m.Err
	}
	if m.URL == "" {
		return "https://img.example/" + title, nil
	}
	return m.URL, nil
}

func (m *MockImageService) Name() string { return "mock-image" }

// MockAssetService is a test double for [services.AssetService].
type MockAssetService struct {
	Result    *services.AssetResult
	Err       error
	CallCount int
}

func (m *MockAssetService) FetchAndPersist(ctx context.Context, remoteURL, hintedTitle string) (*services.AssetResult, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return &services.AssetResult{LocalRef: "/media/" + hintedTitle + ".mp3", Duration: 180}, nil
	}
	return m.Result, nil
}

// MockCatalogService is a test double for [services.CatalogService].
type MockCatalogService struct {
	TrackID   string
	Err       error
	CallCount int
	Upserted  []services.TrackMetadata
}

func (m *MockCatalogService) UpsertTrack(ctx context.Context, metadata services.TrackMetadata) (string, error) {
	m.CallCount++
	if m.Err != nil {
		return "", m.Err
	}
	m.Upserted = append(m.Upserted, metadata)
	if m.TrackID == "" {
		return fmt.Sprintf("catalog-%d", m.CallCount), nil
	}
	return m.TrackID, nil
}

func (m *MockCatalogService) Name() string { return "mock-catalog" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
