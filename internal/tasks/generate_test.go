package tasks

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
	mocks "github.com/soundry/soundry/internal/testing"
	"github.com/soundry/soundry/internal/titles"
)

type engineFixture struct {
	engine *GenerationEngine
	store  *cache.Store
	tracks *repositories.GeneratedTrackRepository
	text   *mocks.MockTextService
	audio  *mocks.MockAudioService
	image  *mocks.MockImageService
	assets *mocks.MockAssetService
	db     *sql.DB
}

func newEngineFixture(t *testing.T) *engineFixture {
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

	fx := &engineFixture{
		store:  store,
		tracks: repositories.NewGeneratedTrackRepository(db),
		text:   &mocks.MockTextService{},
		audio: &mocks.MockAudioService{
			Statuses: []services.JobStatus{services.StatusSuccess},
			Tracks: []services.RawTrack{
				{AudioURL: "https://cdn.example/a.mp3", ImageURL: "https://cdn.example/a.png", Duration: 181},
				{AudioURL: "https://cdn.example/b.mp3", ImageURL: "https://cdn.example/b.png", Duration: 204},
			},
		},
		image:  &mocks.MockImageService{},
		assets: &mocks.MockAssetService{},
		db:     db,
	}

	fx.engine = NewGenerationEngine(EngineOpts{
		Store:        store,
		Pool:         titles.NewManager(store, fx.text, nil),
		Text:         fx.text,
		Audio:        fx.audio,
		Image:        fx.image,
		Assets:       fx.assets,
		Tracks:       fx.tracks,
		PollInterval: time.Millisecond,
		MaxAttempts:  5,
	})
	return fx
}

func seedPool(t *testing.T, store *cache.Store, category string, names ...string) {
	t.Helper()
	records := make([]cache.TitleRecord, 0, len(names))
	for _, name := range names {
		records = append(records, cache.TitleRecord{NativeText: name})
	}
	if err := store.AppendTitles(category, records); err != nil {
		t.Fatalf("Failed to seed title pool: %v", err)
	}
}

func TestRunValidatesTrackCount(t *testing.T) {
	fx := newEngineFixture(t)

	for _, count := range []int{0, -2, 3, 7} {
		_, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: count, Style: "lofi", Mood: "calm"}, nil)
		if !errors.Is(err, shared.ErrInvalidTrackCount) {
			t.Errorf("TrackCount %d: expected ErrInvalidTrackCount, got %v", count, err)
		}
	}
}

func TestRunGeneratesAllBatches(t *testing.T) {
	fx := newEngineFixture(t)
	seedPool(t, fx.store, "default", "Dawn Light", "Quiet Hills", "Night Drive", "Amber Glow")

	progress := make(chan ProgressUpdate, 128)
	result, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 4, Style: "lofi", Mood: "calm"}, progress)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.TotalBatches != 2 {
		t.Errorf("Expected 2 batches, got %d", result.TotalBatches)
	}
	if len(result.Completed) != 4 {
		t.Fatalf("Expected 4 completed tracks, got %d", len(result.Completed))
	}
	if fx.audio.SubmitCount != 2 {
		t.Errorf("Expected 2 synthesis submissions, got %d", fx.audio.SubmitCount)
	}

	seen := map[string]bool{}
	for _, track := range result.Completed {
		if seen[track.Title()] {
			t.Errorf("Duplicate track title %q", track.Title())
		}
		seen[track.Title()] = true
		if track.BatchID() != result.BatchID {
			t.Errorf("Track %q carries batch %q, want %q", track.Title(), track.BatchID(), result.BatchID)
		}
		if track.AudioRef() == "" {
			t.Errorf("Track %q has no audio reference", track.Title())
		}
	}
	for _, name := range []string{"Dawn Light", "Quiet Hills", "Night Drive", "Amber Glow"} {
		if !seen[name] {
			t.Errorf("Pool title %q never produced a track", name)
		}
	}

	persisted, err := fx.tracks.ListByBatch(result.BatchID)
	if err != nil {
		t.Fatalf("Failed to list persisted tracks: %v", err)
	}
	if len(persisted) != 4 {
		t.Errorf("Expected 4 persisted rows, got %d", len(persisted))
	}

	close(progress)
	var sawComplete, sawWait bool
	for update := range progress {
		if update.Phase == PhaseComplete {
			sawComplete = true
		}
		if update.Phase == PhaseWait {
			sawWait = true
		}
		if update.Phase == PhaseError {
			t.Errorf("Unexpected error update: %s", update.Message)
		}
	}
	if !sawComplete || !sawWait {
		t.Errorf("Expected wait and complete progress updates (wait=%v complete=%v)", sawWait, sawComplete)
	}
}

func TestRunPoolNeverHandsOutTitleTwice(t *testing.T) {
	fx := newEngineFixture(t)
	seedPool(t, fx.store, "default", "One", "Two", "Three", "Four")

	if _, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 4, Style: "lofi", Mood: "calm"}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	available, total, err := fx.store.TitleAvailability("default")
	if err != nil {
		t.Fatalf("Failed to check pool: %v", err)
	}
	if available != 0 || total != 4 {
		t.Errorf("Expected 0/4 pool availability after run, got %d/%d", available, total)
	}
}

func TestRunReusesCachedSynthesisJob(t *testing.T) {
	fx := newEngineFixture(t)

	// No pool, no cached batch, nil text path: the deterministic fallback
	// yields "Melody of dawn" for these keywords.
	fx.engine.text = nil
	fx.engine.pool = nil

	key := cache.Key("Melody of dawn", "lofi", "calm")
	err := fx.store.PutCompleted(cache.ServiceAudio, key, cache.AudioJob{
		JobID:  "job-cached",
		Status: string(services.StatusSuccess),
		Tracks: []cache.TrackAsset{
			{AudioURL: "https://cdn.example/c1.mp3", Duration: 190},
			{AudioURL: "https://cdn.example/c2.mp3", Duration: 171},
		},
	})
	if err != nil {
		t.Fatalf("Failed to seed audio cache: %v", err)
	}

	result, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 2, Style: "lofi", Mood: "calm", Keywords: "dawn, mist"}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if fx.audio.SubmitCount != 0 {
		t.Errorf("Expected no synthesis submissions on cache hit, got %d", fx.audio.SubmitCount)
	}
	if len(result.Completed) != 2 {
		t.Fatalf("Expected 2 completed tracks, got %d", len(result.Completed))
	}
	for _, track := range result.Completed {
		if track.JobID() != "job-cached" {
			t.Errorf("Expected cached job id, got %q", track.JobID())
		}
	}
}

func TestRunDeduplicatesIdenticalBatches(t *testing.T) {
	fx := newEngineFixture(t)
	fx.engine.text = nil
	fx.engine.pool = nil

	// Both batches resolve the same deterministic titles, so the second batch
	// short-circuits on the job cached by the first.
	result, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 4, Style: "lofi", Mood: "calm", Keywords: "dusk"}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if fx.audio.SubmitCount != 1 {
		t.Errorf("Expected 1 synthesis submission, got %d", fx.audio.SubmitCount)
	}
	if len(result.Completed) != 4 {
		t.Errorf("Expected 4 completed tracks, got %d", len(result.Completed))
	}
}

func TestRunSynthesisTimeout(t *testing.T) {
	fx := newEngineFixture(t)
	fx.engine.maxAttempts = 3
	fx.audio.Statuses = nil // always pending

	result, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 2, Style: "lofi", Mood: "calm"}, nil)
	if !errors.Is(err, shared.ErrSynthesisTimeout) {
		t.Fatalf("Expected ErrSynthesisTimeout, got %v", err)
	}
	if fx.audio.PollCount != 3 {
		t.Errorf("Expected 3 poll attempts, got %d", fx.audio.PollCount)
	}
	if result == nil || result.ErrorMessage == "" {
		t.Error("Expected a result with an error message")
	}
	if len(result.Completed) != 0 {
		t.Errorf("Expected no completed tracks, got %d", len(result.Completed))
	}
}

func TestRunSynthesisFailure(t *testing.T) {
	fx := newEngineFixture(t)
	fx.audio.Statuses = []services.JobStatus{services.StatusFailed}

	_, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 2, Style: "lofi", Mood: "calm"}, nil)
	if !errors.Is(err, shared.ErrSynthesisFailed) {
		t.Fatalf("Expected ErrSynthesisFailed, got %v", err)
	}

	summary, err := fx.store.Usage()
	if err != nil {
		t.Fatalf("Failed to read usage: %v", err)
	}
	if summary.Today.PerService[cache.ServiceAudio].Failed == 0 {
		t.Error("Expected a failed audio call in the usage ledger")
	}
}

func TestRunCancelledBetweenBatches(t *testing.T) {
	fx := newEngineFixture(t)
	seedPool(t, fx.store, "default", "First", "Second", "Third", "Fourth")

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := false
	fx.engine.sleep = func(ctx context.Context, d time.Duration) error {
		if !cancelled {
			cancelled = true
			cancel()
		}
		return ctx.Err()
	}
	// Hold the first poll pending so the run reaches the sleep that cancels.
	fx.audio.Statuses = []services.JobStatus{services.StatusPending, services.StatusSuccess}

	result, err := fx.engine.Run(ctx, GenerateRequest{TrackCount: 4, Style: "lofi", Mood: "calm"}, nil)
	if !errors.Is(err, shared.ErrRunCancelled) {
		t.Fatalf("Expected ErrRunCancelled, got %v", err)
	}
	if result == nil {
		t.Fatal("Expected a partial result on cancellation")
	}
}

func TestRunDownloadFailureKeepsRemoteReference(t *testing.T) {
	fx := newEngineFixture(t)
	seedPool(t, fx.store, "default", "Alpha", "Beta")
	fx.assets.Err = errors.New("disk full")

	result, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 2, Style: "lofi", Mood: "calm"}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Completed) != 2 {
		t.Fatalf("Expected 2 completed tracks, got %d", len(result.Completed))
	}
	if got := result.Completed[0].AudioRef(); got != "https://cdn.example/a.mp3" {
		t.Errorf("Expected remote audio reference, got %q", got)
	}
}

func TestRunUsageLedgerRecordsSuccess(t *testing.T) {
	fx := newEngineFixture(t)
	seedPool(t, fx.store, "default", "Up", "Down")

	if _, err := fx.engine.Run(context.Background(), GenerateRequest{TrackCount: 2, Style: "lofi", Mood: "calm"}, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summary, err := fx.store.Usage()
	if err != nil {
		t.Fatalf("Failed to read usage: %v", err)
	}
	audioUsage := summary.Today.PerService[cache.ServiceAudio]
	if audioUsage.Success != 1 || audioUsage.UnitsProduced != 2 {
		t.Errorf("Expected 1 successful audio call producing 2 units, got %+v", audioUsage)
	}
	if summary.Today.PerService[cache.ServiceImage].Success != 2 {
		t.Errorf("Expected 2 successful image calls, got %+v", summary.Today.PerService[cache.ServiceImage])
	}
}
