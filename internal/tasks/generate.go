package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/titles"
)

// tracksPerBatch is fixed by the synthesis service: one submission yields
// exactly two tracks.
const tracksPerBatch = 2

// GenerateRequest describes one bulk generation run.
type GenerateRequest struct {
	TrackCount int    // Total tracks wanted; must be a positive even number
	Style      string // Musical style passed to synthesis
	Mood       string // Mood passed to synthesis
	Keywords   string // Optional comma-separated keyword seeds; may be empty
}

// GenerateRunResult contains everything a bulk run produced.
//
// Completed tracks survive a fatal mid-run error; callers never see an
// all-or-nothing rollback.
type GenerateRunResult struct {
	BatchID      string
	TotalBatches int
	Completed    []*models.GeneratedTrack
	ErrorMessage string
}

// generationJob is the in-memory state of one bulk run. It lives for the
// duration of Run and is discarded afterwards.
type generationJob struct {
	batchID      string
	totalBatches int
	totalTracks  int
	currentBatch int
	currentTrack int
	phase        Phase
	taskIDs      []string
	completed    []*models.GeneratedTrack
	errMessage   string
}

// GenerationEngine orchestrates bulk AI content generation.
//
// Batches run strictly sequentially: external credit budgets are easier to
// respect and progress accounting stays race-free with a single logical flow.
type GenerationEngine struct {
	store  *cache.Store
	pool   *titles.Manager
	text   services.TextService
	audio  services.AudioService
	image  services.ImageService
	assets services.AssetService
	tracks *repositories.GeneratedTrackRepository
	logger *log.Logger

	category     string
	pollInterval time.Duration
	maxAttempts  int

	// sleep is swappable so tests can run the wait phase without wall time.
	sleep func(ctx context.Context, d time.Duration) error
}

// EngineOpts contains dependencies and tuning for a GenerationEngine.
type EngineOpts struct {
	Store        *cache.Store
	Pool         *titles.Manager
	Text         services.TextService
	Audio        services.AudioService
	Image        services.ImageService
	Assets       services.AssetService
	Tracks       *repositories.GeneratedTrackRepository
	Logger       *log.Logger
	Category     string
	PollInterval time.Duration
	MaxAttempts  int
}

// NewGenerationEngine creates a generation engine with the provided collaborators.
func NewGenerationEngine(opts EngineOpts) *GenerationEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Category == "" {
		opts.Category = "default"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 60
	}

	return &GenerationEngine{
		store:        opts.Store,
		pool:         opts.Pool,
		text:         opts.Text,
		audio:        opts.Audio,
		image:        opts.Image,
		assets:       opts.Assets,
		tracks:       opts.Tracks,
		logger:       opts.Logger,
		category:     opts.Category,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *GenerationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// advance moves the job to next, enforcing the forward-only phase order, and
// emits a progress event.
func (e *GenerationEngine) advance(job *generationJob, next Phase, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if !job.phase.CanTransition(next) && job.phase != next {
		e.logger.Warn("illegal phase transition ignored", "from", job.phase, "to", next)
		return
	}
	job.phase = next
	e.sendProgress(progress, update)
}

// Run executes a full bulk generation: req.TrackCount/2 sequential batches,
// each resolving two titles, synthesizing (or reusing cached) audio,
// downloading assets best-effort, and synthesizing per-track cover images.
//
// Title or synthesis failure aborts the whole run; download and image
// failures degrade to the remote reference. The returned result always
// carries whatever tracks completed before an error.
func (e *GenerationEngine) Run(ctx context.Context, req GenerateRequest, progress chan<- ProgressUpdate) (*GenerateRunResult, error) {
	if req.TrackCount <= 0 || req.TrackCount%tracksPerBatch != 0 {
		return nil, fmt.Errorf("%w: got %d", shared.ErrInvalidTrackCount, req.TrackCount)
	}
	if e.audio == nil {
		return nil, fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	job := &generationJob{
		batchID:      shared.GenerateID(),
		totalBatches: req.TrackCount / tracksPerBatch,
		totalTracks:  req.TrackCount,
	}

	result := &GenerateRunResult{BatchID: job.batchID, TotalBatches: job.totalBatches}

	e.logger.Info("starting bulk generation",
		"batch_id", job.batchID, "tracks", req.TrackCount, "style", req.Style, "mood", req.Mood)

	for batch := 1; batch <= job.totalBatches; batch++ {
		// Cancellation is consulted between batches only, never mid-call.
		if err := ctx.Err(); err != nil {
			job.errMessage = "run cancelled"
			result.Completed = job.completed
			result.ErrorMessage = job.errMessage
			return result, fmt.Errorf("%w after %d tracks", shared.ErrRunCancelled, len(job.completed))
		}

		job.currentBatch = batch
		job.phase = PhaseTitle
		e.sendProgress(progress, titleUpdate(batch, job.totalBatches, job.totalTracks))

		pair := e.resolveTitles(ctx, req)

		if err := e.runBatch(ctx, req, job, pair, progress); err != nil {
			job.errMessage = err.Error()
			e.sendProgress(progress, errorUpdate(batch, job.totalBatches, job.currentTrack, job.totalTracks, job.errMessage))
			result.Completed = job.completed
			result.ErrorMessage = job.errMessage
			return result, err
		}
	}

	result.Completed = job.completed
	e.logger.Info("bulk generation finished", "batch_id", job.batchID, "completed", len(job.completed))
	return result, nil
}

// runBatch produces the two tracks of one batch: from the audio cache when a
// completed job exists for the first title, otherwise via a live synthesis
// round trip.
func (e *GenerationEngine) runBatch(ctx context.Context, req GenerateRequest, job *generationJob, pair [2]string, progress chan<- ProgressUpdate) error {
	audioKey := cache.Key(pair[0], req.Style, req.Mood)

	var cached cache.AudioJob
	hit, err := e.store.GetJSON(cache.ServiceAudio, audioKey, &cached)
	if err != nil {
		e.logger.Warn("audio cache read failed", "key", audioKey, "err", err)
	}

	if hit && cached.Status == string(services.StatusSuccess) && len(cached.Tracks) > 0 {
		e.logger.Info("audio cache hit, skipping synthesis", "key", audioKey, "job_id", cached.JobID)
		return e.completeFromCache(req, job, pair, cached, progress)
	}

	rawTracks, jobID, err := e.synthesize(ctx, req, job, pair[0], audioKey, progress)
	if err != nil {
		return err
	}

	for i, raw := range rawTracks {
		if i >= tracksPerBatch {
			break
		}
		title := pair[i%tracksPerBatch]
		if err := e.finishTrack(ctx, req, job, title, jobID, raw, progress); err != nil {
			return err
		}
	}

	return nil
}

// synthesize submits one job and polls it to a terminal state.
func (e *GenerationEngine) synthesize(ctx context.Context, req GenerateRequest, job *generationJob, title, audioKey string, progress chan<- ProgressUpdate) ([]services.RawTrack, string, error) {
	e.advance(job, PhaseSynth, progress, synthUpdate(job.currentBatch, job.totalBatches, job.totalTracks, title))

	jobID, err := e.audio.Submit(ctx, title, req.Style, req.Mood, true)
	if err != nil {
		e.store.RecordUsage(cache.ServiceAudio, false, 0)
		return nil, "", fmt.Errorf("%w: submit for %q: %v", shared.ErrSynthesisFailed, title, err)
	}
	job.taskIDs = append(job.taskIDs, jobID)

	pending := cache.AudioJob{
		JobID:  jobID,
		Title:  title,
		Style:  req.Style,
		Mood:   req.Mood,
		Status: string(services.StatusPending),
	}
	if err := e.store.Put(cache.ServiceAudio, audioKey, pending); err != nil {
		e.logger.Warn("failed to cache pending job", "job_id", jobID, "err", err)
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		e.advance(job, PhaseWait, progress, waitUpdate(job.currentBatch, job.totalBatches, job.totalTracks, attempt, e.maxAttempts, title))

		state, err := e.audio.PollStatus(ctx, jobID)
		if err != nil {
			e.logger.Warn("status poll failed", "job_id", jobID, "attempt", attempt, "err", err)
		} else {
			switch state.Status {
			case services.StatusSuccess:
				e.store.RecordUsage(cache.ServiceAudio, true, len(state.Tracks))
				e.cacheCompletedJob(audioKey, pending, state.Tracks)
				return state.Tracks, jobID, nil
			case services.StatusFailed:
				e.store.RecordUsage(cache.ServiceAudio, false, 0)
				return nil, "", fmt.Errorf("%w: job %s reported failure", shared.ErrSynthesisFailed, jobID)
			}
		}

		if attempt == e.maxAttempts {
			break
		}

		// Suspend between polls; cancellation lands here, never mid-request.
		if err := e.sleep(ctx, e.pollInterval); err != nil {
			return nil, "", fmt.Errorf("%w during synthesis wait", shared.ErrRunCancelled)
		}
	}

	e.store.RecordUsage(cache.ServiceAudio, false, 0)
	return nil, "", fmt.Errorf("%w: job %s still pending after %d attempts", shared.ErrSynthesisTimeout, jobID, e.maxAttempts)
}

func (e *GenerationEngine) cacheCompletedJob(audioKey string, pending cache.AudioJob, raw []services.RawTrack) {
	pending.Status = string(services.StatusSuccess)
	pending.Tracks = pending.Tracks[:0]
	for _, track := range raw {
		pending.Tracks = append(pending.Tracks, cache.TrackAsset{
			AudioURL: track.AudioURL,
			ImageURL: track.ImageURL,
			Duration: track.Duration,
		})
	}
	if err := e.store.PutCompleted(cache.ServiceAudio, audioKey, pending); err != nil {
		e.logger.Warn("failed to cache completed job", "job_id", pending.JobID, "err", err)
	}
}

// finishTrack downloads the audio, secures a cover image, and persists the
// generated track record. Both asset steps are cosmetic: on failure the
// remote reference is kept and the track still completes.
func (e *GenerationEngine) finishTrack(ctx context.Context, req GenerateRequest, job *generationJob, title, jobID string, raw services.RawTrack, progress chan<- ProgressUpdate) error {
	job.currentTrack++
	job.phase = PhaseDownload
	e.sendProgress(progress, downloadUpdate(job.currentBatch, job.totalBatches, job.currentTrack, job.totalTracks, title))

	audioRef := raw.AudioURL
	duration := raw.Duration
	if e.assets != nil {
		if asset, err := e.assets.FetchAndPersist(ctx, raw.AudioURL, title); err != nil {
			e.logger.Warn("audio download failed, keeping remote reference", "title", title, "err", err)
		} else {
			audioRef = asset.LocalRef
			if asset.Duration > 0 {
				duration = asset.Duration
			}
		}
	}

	job.phase = PhaseImage
	e.sendProgress(progress, imageUpdate(job.currentBatch, job.totalBatches, job.currentTrack, job.totalTracks, title))

	imageRef := e.coverImage(ctx, title, req, raw.ImageURL)

	record := models.NewGeneratedTrack(title, "", audioRef, imageRef, duration, req.Style, req.Mood, job.batchID, jobID)
	if e.tracks != nil {
		if err := e.tracks.Create(record); err != nil {
			return fmt.Errorf("%w: persisting %q: %v", shared.ErrGenerationFailed, title, err)
		}
	}

	job.completed = append(job.completed, record)
	job.phase = PhaseComplete
	e.sendProgress(progress, completeUpdate(job.currentBatch, job.totalBatches, job.currentTrack, job.totalTracks, title))

	// The next batch (or track) starts a fresh attempt.
	job.phase = PhaseTitle
	return nil
}

// coverImage secures a cover image for one title: cache first, then a live
// synthesis call, then the synthesis service's own thumbnail as last resort.
// Each track's image is keyed by its own title so two tracks from one
// synthesis job never collide.
func (e *GenerationEngine) coverImage(ctx context.Context, title string, req GenerateRequest, remoteFallback string) string {
	imageKey := cache.Key(title, e.category, req.Mood)

	var cachedImage cache.ImageResult
	if ok, err := e.store.GetJSON(cache.ServiceImage, imageKey, &cachedImage); err == nil && ok && cachedImage.URL != "" {
		return cachedImage.URL
	}

	if e.image == nil {
		return remoteFallback
	}

	url, err := e.image.GenerateCoverImage(ctx, title, e.category, req.Mood, req.Keywords)
	if err != nil {
		e.store.RecordUsage(cache.ServiceImage, false, 0)
		e.logger.Warn("cover synthesis failed, keeping remote reference", "title", title, "err", err)
		return remoteFallback
	}
	e.store.RecordUsage(cache.ServiceImage, true, 1)

	if err := e.store.PutCompleted(cache.ServiceImage, imageKey, cache.ImageResult{Title: title, URL: url}); err != nil {
		e.logger.Warn("failed to cache cover image", "title", title, "err", err)
	}
	return url
}

// completeFromCache yields the cached job's tracks without touching the
// synthesis service, attributing tracks positionally to the two titles.
func (e *GenerationEngine) completeFromCache(req GenerateRequest, job *generationJob, pair [2]string, cached cache.AudioJob, progress chan<- ProgressUpdate) error {
	for i, asset := range cached.Tracks {
		if i >= tracksPerBatch {
			break
		}
		title := pair[i%tracksPerBatch]

		job.currentTrack++
		audioRef := asset.LocalAudio
		if audioRef == "" {
			audioRef = asset.AudioURL
		}
		imageRef := asset.LocalImage
		if imageRef == "" {
			imageRef = asset.ImageURL
		}

		record := models.NewGeneratedTrack(title, "", audioRef, imageRef, asset.Duration, req.Style, req.Mood, job.batchID, cached.JobID)
		if e.tracks != nil {
			if err := e.tracks.Create(record); err != nil {
				return fmt.Errorf("%w: persisting cached %q: %v", shared.ErrGenerationFailed, title, err)
			}
		}

		job.completed = append(job.completed, record)
		job.phase = PhaseComplete
		e.sendProgress(progress, completeUpdate(job.currentBatch, job.totalBatches, job.currentTrack, job.totalTracks, title))
		job.phase = PhaseTitle
	}
	return nil
}
