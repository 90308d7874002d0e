package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
)

// TrackDeployment is the per-track outcome of a deploy pass.
type TrackDeployment struct {
	TrackID        string
	Title          string
	CatalogTrackID string
	Skipped        bool
	Err            error
}

// DeployResult summarizes one deploy pass.
type DeployResult struct {
	Deployed int
	Skipped  int
	Failed   int
	Tracks   []TrackDeployment
}

// Deployer promotes generated tracks into the production catalog.
//
// Deployment is idempotent per track: a deployed row is never promoted twice,
// and one failing track never stops the rest of the pass.
type Deployer struct {
	catalog services.CatalogService
	tracks  *repositories.GeneratedTrackRepository
	logger  *log.Logger
}

// NewDeployer creates a Deployer with the given collaborators.
func NewDeployer(catalog services.CatalogService, tracks *repositories.GeneratedTrackRepository, logger *log.Logger) *Deployer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Deployer{catalog: catalog, tracks: tracks, logger: logger}
}

// DeployUndeployed promotes every undeployed track.
func (d *Deployer) DeployUndeployed(ctx context.Context) (*DeployResult, error) {
	pending, err := d.tracks.ListUndeployed()
	if err != nil {
		return nil, fmt.Errorf("failed to list undeployed tracks: %w", err)
	}
	return d.deploy(ctx, pending)
}

// DeployBatch promotes every track of one generation batch, skipping those
// already deployed.
func (d *Deployer) DeployBatch(ctx context.Context, batchID string) (*DeployResult, error) {
	batch, err := d.tracks.ListByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch %s: %w", batchID, err)
	}
	return d.deploy(ctx, batch)
}

// DeployByIDs promotes the named tracks. Unknown ids surface as per-track
// failures, not a pass-level error.
func (d *Deployer) DeployByIDs(ctx context.Context, ids []string) (*DeployResult, error) {
	result := &DeployResult{}
	for _, id := range ids {
		track, err := d.tracks.Get(id)
		if err != nil {
			result.Failed++
			result.Tracks = append(result.Tracks, TrackDeployment{TrackID: id, Err: err})
			continue
		}
		d.deployOne(ctx, track, result)
	}
	return result, nil
}

func (d *Deployer) deploy(ctx context.Context, pending []*models.GeneratedTrack) (*DeployResult, error) {
	result := &DeployResult{}
	for _, track := range pending {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w during deploy", shared.ErrRunCancelled)
		}
		d.deployOne(ctx, track, result)
	}

	d.logger.Info("deploy pass finished",
		"deployed", result.Deployed, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (d *Deployer) deployOne(ctx context.Context, track *models.GeneratedTrack, result *DeployResult) {
	outcome := TrackDeployment{TrackID: track.ID(), Title: track.Title()}

	if track.Deployed() {
		outcome.Skipped = true
		outcome.CatalogTrackID = track.CatalogTrackID()
		result.Skipped++
		result.Tracks = append(result.Tracks, outcome)
		return
	}

	catalogID, err := d.catalog.UpsertTrack(ctx, services.TrackMetadata{
		Title:        track.Title(),
		ForeignTitle: track.ForeignTitle(),
		AudioRef:     track.AudioRef(),
		ImageRef:     track.ImageRef(),
		Duration:     track.Duration(),
		Style:        track.Style(),
		Mood:         track.Mood(),
	})
	if err != nil {
		d.logger.Warn("catalog upsert failed", "track", track.ID(), "title", track.Title(), "err", err)
		outcome.Err = err
		result.Failed++
		result.Tracks = append(result.Tracks, outcome)
		return
	}

	// MarkDeployed guards on deployed = 0, so a concurrent pass cannot flip
	// the same row twice.
	if err := d.tracks.MarkDeployed(track.ID(), catalogID, time.Now()); err != nil {
		d.logger.Warn("failed to record deployment", "track", track.ID(), "err", err)
		outcome.Err = err
		result.Failed++
		result.Tracks = append(result.Tracks, outcome)
		return
	}

	outcome.CatalogTrackID = catalogID
	result.Deployed++
	result.Tracks = append(result.Tracks, outcome)
}
