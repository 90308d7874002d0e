package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
)

// Style and mood attributed to tracks reconstructed from externally issued
// synthesis jobs, where the original request parameters are unknown.
const (
	importedStyle = "synced"
	importedMood  = "imported"
)

// ImportResult summarizes one import pass.
type ImportResult struct {
	Imported []*models.GeneratedTrack
	Skipped  []string // job ids already known or not yet finished
	Failed   map[string]error
}

// Importer reconstructs local records for synthesis jobs that were submitted
// outside this tool, for example directly through the vendor console.
type Importer struct {
	store  *cache.Store
	audio  services.AudioService
	image  services.ImageService
	assets services.AssetService
	tracks *repositories.GeneratedTrackRepository
	logger *log.Logger

	category string
}

// ImporterOpts contains dependencies for an Importer.
type ImporterOpts struct {
	Store    *cache.Store
	Audio    services.AudioService
	Image    services.ImageService
	Assets   services.AssetService
	Tracks   *repositories.GeneratedTrackRepository
	Logger   *log.Logger
	Category string
}

// NewImporter creates an Importer with the given collaborators.
func NewImporter(opts ImporterOpts) *Importer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Category == "" {
		opts.Category = "default"
	}
	return &Importer{
		store:    opts.Store,
		audio:    opts.Audio,
		image:    opts.Image,
		assets:   opts.Assets,
		tracks:   opts.Tracks,
		logger:   opts.Logger,
		category: opts.Category,
	}
}

// ImportByJobIDs fetches each job's state once and materializes local track
// records for finished jobs. Jobs already present in the audio cache are
// skipped, as are jobs not yet in a success state; a single failing job never
// aborts the pass.
func (im *Importer) ImportByJobIDs(ctx context.Context, jobIDs []string) (*ImportResult, error) {
	known, err := im.knownJobIDs()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Failed: map[string]error{}}
	batchID := shared.GenerateID()

	for _, jobID := range jobIDs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w during import", shared.ErrRunCancelled)
		}

		if known[jobID] {
			im.logger.Debug("job already imported", "job_id", jobID)
			result.Skipped = append(result.Skipped, jobID)
			continue
		}

		state, err := im.audio.PollStatus(ctx, jobID)
		if err != nil {
			result.Failed[jobID] = err
			continue
		}
		if state.Status != services.StatusSuccess || len(state.Tracks) == 0 {
			im.logger.Info("job not finished, skipping", "job_id", jobID, "status", state.Status)
			result.Skipped = append(result.Skipped, jobID)
			continue
		}

		imported, err := im.materialize(ctx, jobID, batchID, state.Tracks)
		if err != nil {
			result.Failed[jobID] = err
			continue
		}
		result.Imported = append(result.Imported, imported...)
	}

	im.logger.Info("import finished",
		"imported", len(result.Imported), "skipped", len(result.Skipped), "failed", len(result.Failed))
	return result, nil
}

// knownJobIDs collects every job id already present in the audio cache.
func (im *Importer) knownJobIDs() (map[string]bool, error) {
	entries, err := im.store.List(cache.ServiceAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audio cache: %w", err)
	}

	known := make(map[string]bool, len(entries))
	for _, env := range entries {
		var job cache.AudioJob
		if err := json.Unmarshal(env.Payload, &job); err != nil {
			continue
		}
		if job.JobID != "" {
			known[job.JobID] = true
		}
	}
	return known, nil
}

// materialize persists local records for one finished job's tracks and
// backfills the audio cache under the job id so re-imports short-circuit.
func (im *Importer) materialize(ctx context.Context, jobID, batchID string, raw []services.RawTrack) ([]*models.GeneratedTrack, error) {
	cached := cache.AudioJob{JobID: jobID, Status: string(services.StatusSuccess)}

	var imported []*models.GeneratedTrack
	for i, track := range raw {
		title := fmt.Sprintf("Imported %s-%d", jobID, i+1)

		audioRef := track.AudioURL
		duration := track.Duration
		if im.assets != nil {
			if asset, err := im.assets.FetchAndPersist(ctx, track.AudioURL, title); err != nil {
				im.logger.Warn("audio download failed, keeping remote reference", "job_id", jobID, "err", err)
			} else {
				audioRef = asset.LocalRef
				if asset.Duration > 0 {
					duration = asset.Duration
				}
			}
		}

		imageRef := track.ImageURL
		if imageRef == "" && im.image != nil {
			url, err := im.image.GenerateCoverImage(ctx, title, im.category, importedMood, "")
			if err != nil {
				im.store.RecordUsage(cache.ServiceImage, false, 0)
				im.logger.Warn("cover synthesis failed for imported track", "job_id", jobID, "err", err)
			} else {
				im.store.RecordUsage(cache.ServiceImage, true, 1)
				imageRef = url
			}
		}

		record := models.NewGeneratedTrack(title, "", audioRef, imageRef, duration, importedStyle, importedMood, batchID, jobID)
		if err := im.tracks.Create(record); err != nil {
			return imported, fmt.Errorf("failed to persist imported track: %w", err)
		}
		imported = append(imported, record)

		cached.Tracks = append(cached.Tracks, cache.TrackAsset{
			AudioURL:   track.AudioURL,
			ImageURL:   track.ImageURL,
			LocalAudio: audioRef,
			Duration:   duration,
		})
	}

	if err := im.store.PutCompleted(cache.ServiceAudio, cache.Key(jobID), cached); err != nil {
		im.logger.Warn("failed to backfill audio cache", "job_id", jobID, "err", err)
	}

	return imported, nil
}
