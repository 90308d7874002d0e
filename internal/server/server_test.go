package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
	mocks "github.com/soundry/soundry/internal/testing"
)

func newAPIFixture(t *testing.T) (*AdminAPI, *repositories.GeneratedTrackRepository, *repositories.ScheduleRepository, *cache.Store) {
	t.Helper()

	store, err := cache.NewStore(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open cache store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tracks := repositories.NewGeneratedTrackRepository(db)
	schedules := repositories.NewScheduleRepository(db)
	deployer := tasks.NewDeployer(&mocks.MockCatalogService{}, tracks, nil)

	return NewAdminAPI(store, tracks, schedules, deployer, nil), tracks, schedules, store
}

func TestUsageEndpoint(t *testing.T) {
	api, _, _, store := newAPIFixture(t)
	if err := store.RecordUsage(cache.ServiceAudio, true, 2); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var summary cache.UsageSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if summary.Totals[cache.ServiceAudio].UnitsProduced != 2 {
		t.Errorf("Unexpected summary: %+v", summary.Totals)
	}
}

func TestTracksEndpointFilters(t *testing.T) {
	api, tracks, _, _ := newAPIFixture(t)

	a := models.NewGeneratedTrack("One", "", "/media/one.mp3", "", 180, "lofi", "calm", "batch-a", "job-1")
	b := models.NewGeneratedTrack("Two", "", "/media/two.mp3", "", 180, "lofi", "calm", "batch-b", "job-2")
	for _, track := range []*models.GeneratedTrack{a, b} {
		if err := tracks.Create(track); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tracks?batch_id=batch-a", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Count  int `json:"count"`
		Tracks []struct {
			Title   string `json:"title"`
			BatchID string `json:"batch_id"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Tracks[0].Title != "One" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestCreateScheduleEndpoint(t *testing.T) {
	api, _, schedules, _ := newAPIFixture(t)

	body := `{"run_time":"06:30","track_count":4,"style":"lofi","mood":"calm","auto_deploy":true}`
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	created, err := schedules.List(map[string]any{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 schedule persisted, got %d", len(created))
	}
	if created[0].TrackCount() != 4 || !created[0].AutoDeploy() {
		t.Errorf("Unexpected schedule: %+v", created[0])
	}
	if created[0].NextRunAt() == nil {
		t.Error("Expected next run computed on create")
	}
}

func TestCreateScheduleRejectsInvalid(t *testing.T) {
	api, _, _, _ := newAPIFixture(t)

	// Odd track counts are invalid.
	body := `{"run_time":"06:30","track_count":3,"style":"lofi","mood":"calm"}`
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestDeployEndpoint(t *testing.T) {
	api, tracks, _, _ := newAPIFixture(t)

	track := models.NewGeneratedTrack("One", "", "/media/one.mp3", "", 180, "lofi", "calm", "batch-a", "job-1")
	if err := tracks.Create(track); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deploy", strings.NewReader(`{}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Deployed int `json:"deployed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Deployed != 1 {
		t.Errorf("Expected 1 deployed, got %d", resp.Deployed)
	}
}

func TestDeployWithoutCatalog(t *testing.T) {
	api, _, _, _ := newAPIFixture(t)
	api.deployer = nil

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deploy", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api, _, _, _ := newAPIFixture(t)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/usage", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestRouterMiddlewareOrder(t *testing.T) {
	router := NewBasicRouter()
	var order []string

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "first")
			next.ServeHTTP(w, r)
		})
	})
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "second")
			next.ServeHTTP(w, r)
		})
	})
	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if len(order) != 3 || order[0] != "first" || order[2] != "handler" {
		t.Errorf("Unexpected middleware order: %v", order)
	}
}

func TestRouterMethodFiltering(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodPost, "/only-post", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/only-post", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
