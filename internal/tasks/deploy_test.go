package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/shared"
	mocks "github.com/soundry/soundry/internal/testing"
)

func newDeployFixture(t *testing.T) (*Deployer, *repositories.GeneratedTrackRepository, *mocks.MockCatalogService) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo := repositories.NewGeneratedTrackRepository(db)
	catalog := &mocks.MockCatalogService{}
	return NewDeployer(catalog, repo, nil), repo, catalog
}

func createTrack(t *testing.T, repo *repositories.GeneratedTrackRepository, title, batchID string) *models.GeneratedTrack {
	t.Helper()
	track := models.NewGeneratedTrack(title, "", "/media/"+title+".mp3", "/media/"+title+".png", 180, "lofi", "calm", batchID, "job-1")
	if err := repo.Create(track); err != nil {
		t.Fatalf("Failed to create track %q: %v", title, err)
	}
	return track
}

func TestDeployUndeployed(t *testing.T) {
	deployer, repo, catalog := newDeployFixture(t)
	createTrack(t, repo, "First", "batch-1")
	createTrack(t, repo, "Second", "batch-1")

	result, err := deployer.DeployUndeployed(context.Background())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if result.Deployed != 2 || result.Skipped != 0 || result.Failed != 0 {
		t.Errorf("Expected 2 deployed, got %+v", result)
	}
	if catalog.CallCount != 2 {
		t.Errorf("Expected 2 catalog upserts, got %d", catalog.CallCount)
	}

	pending, err := repo.ListUndeployed()
	if err != nil {
		t.Fatalf("Failed to list undeployed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no undeployed tracks, got %d", len(pending))
	}
}

func TestDeployIsIdempotent(t *testing.T) {
	deployer, repo, catalog := newDeployFixture(t)
	createTrack(t, repo, "First", "batch-1")

	if _, err := deployer.DeployBatch(context.Background(), "batch-1"); err != nil {
		t.Fatalf("First deploy failed: %v", err)
	}

	result, err := deployer.DeployBatch(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("Second deploy failed: %v", err)
	}
	if result.Deployed != 0 || result.Skipped != 1 {
		t.Errorf("Expected a skip on redeploy, got %+v", result)
	}
	if catalog.CallCount != 1 {
		t.Errorf("Expected catalog called once across both passes, got %d", catalog.CallCount)
	}
}

func TestDeployContinuesPastFailures(t *testing.T) {
	deployer, repo, catalog := newDeployFixture(t)
	createTrack(t, repo, "First", "batch-1")
	createTrack(t, repo, "Second", "batch-1")
	catalog.Err = errors.New("catalog unavailable")

	result, err := deployer.DeployUndeployed(context.Background())
	if err != nil {
		t.Fatalf("Deploy pass errored: %v", err)
	}
	if result.Failed != 2 || result.Deployed != 0 {
		t.Errorf("Expected 2 per-track failures, got %+v", result)
	}

	// Both rows stay undeployed and eligible for a retry pass.
	catalog.Err = nil
	retry, err := deployer.DeployUndeployed(context.Background())
	if err != nil {
		t.Fatalf("Retry pass failed: %v", err)
	}
	if retry.Deployed != 2 {
		t.Errorf("Expected retry to deploy 2 tracks, got %+v", retry)
	}
}

func TestDeployByIDsReportsUnknownTracks(t *testing.T) {
	deployer, repo, _ := newDeployFixture(t)
	track := createTrack(t, repo, "Known", "batch-1")

	result, err := deployer.DeployByIDs(context.Background(), []string{track.ID(), "missing-id"})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if result.Deployed != 1 || result.Failed != 1 {
		t.Errorf("Expected 1 deployed and 1 failed, got %+v", result)
	}
	var missingErr error
	for _, outcome := range result.Tracks {
		if outcome.TrackID == "missing-id" {
			missingErr = outcome.Err
		}
	}
	if !errors.Is(missingErr, shared.ErrTrackNotFound) {
		t.Errorf("Expected ErrTrackNotFound for unknown id, got %v", missingErr)
	}
}
