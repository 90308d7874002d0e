package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
	mocks "github.com/soundry/soundry/internal/testing"
)

func newImportFixture(t *testing.T) (*Importer, *cache.Store, *repositories.GeneratedTrackRepository, *mocks.MockAudioService) {
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

	repo := repositories.NewGeneratedTrackRepository(db)
	audio := &mocks.MockAudioService{
		Statuses: []services.JobStatus{services.StatusSuccess},
		Tracks: []services.RawTrack{
			{AudioURL: "https://cdn.example/i1.mp3", ImageURL: "https://cdn.example/i1.png", Duration: 200},
			{AudioURL: "https://cdn.example/i2.mp3", ImageURL: "https://cdn.example/i2.png", Duration: 187},
		},
	}

	importer := NewImporter(ImporterOpts{
		Store:  store,
		Audio:  audio,
		Image:  &mocks.MockImageService{},
		Assets: &mocks.MockAssetService{},
		Tracks: repo,
	})
	return importer, store, repo, audio
}

func TestImportByJobIDs(t *testing.T) {
	importer, store, repo, _ := newImportFixture(t)

	result, err := importer.ImportByJobIDs(context.Background(), []string{"job-ext"})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(result.Imported) != 2 {
		t.Fatalf("Expected 2 imported tracks, got %d", len(result.Imported))
	}

	for _, track := range result.Imported {
		if track.JobID() != "job-ext" {
			t.Errorf("Expected job id job-ext, got %q", track.JobID())
		}
		if track.Style() != importedStyle || track.Mood() != importedMood {
			t.Errorf("Expected sync attribution, got style=%q mood=%q", track.Style(), track.Mood())
		}
	}

	rows, err := repo.List(map[string]any{"job_id": "job-ext"})
	if err != nil {
		t.Fatalf("Failed to list imported rows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 persisted rows, got %d", len(rows))
	}

	var cached cache.AudioJob
	ok, err := store.GetJSON(cache.ServiceAudio, cache.Key("job-ext"), &cached)
	if err != nil || !ok {
		t.Fatalf("Expected backfilled audio cache entry (ok=%v err=%v)", ok, err)
	}
	if cached.Status != string(services.StatusSuccess) || len(cached.Tracks) != 2 {
		t.Errorf("Unexpected backfilled job: %+v", cached)
	}
}

func TestImportSkipsKnownJobs(t *testing.T) {
	importer, store, _, audio := newImportFixture(t)

	err := store.PutCompleted(cache.ServiceAudio, cache.Key("job-known"), cache.AudioJob{
		JobID:  "job-known",
		Status: string(services.StatusSuccess),
	})
	if err != nil {
		t.Fatalf("Failed to seed audio cache: %v", err)
	}

	result, err := importer.ImportByJobIDs(context.Background(), []string{"job-known", "job-new"})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(result.Skipped) != 1 || result.Skipped[0] != "job-known" {
		t.Errorf("Expected job-known skipped, got %v", result.Skipped)
	}
	if len(result.Imported) != 2 {
		t.Errorf("Expected job-new to import 2 tracks, got %d", len(result.Imported))
	}
	if audio.PollCount != 1 {
		t.Errorf("Expected a single status fetch, got %d", audio.PollCount)
	}

	// A second pass finds both jobs in the cache and touches nothing.
	again, err := importer.ImportByJobIDs(context.Background(), []string{"job-known", "job-new"})
	if err != nil {
		t.Fatalf("Re-import failed: %v", err)
	}
	if len(again.Imported) != 0 || len(again.Skipped) != 2 {
		t.Errorf("Expected full skip on re-import, got %+v", again)
	}
	if audio.PollCount != 1 {
		t.Errorf("Expected no further status fetches, got %d", audio.PollCount)
	}
}

func TestImportSkipsUnfinishedJobs(t *testing.T) {
	importer, _, _, audio := newImportFixture(t)
	audio.Statuses = []services.JobStatus{services.StatusPending}

	result, err := importer.ImportByJobIDs(context.Background(), []string{"job-running"})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(result.Imported) != 0 {
		t.Errorf("Expected nothing imported, got %d", len(result.Imported))
	}
	if len(result.Skipped) != 1 {
		t.Errorf("Expected job skipped, got %v", result.Skipped)
	}
}
