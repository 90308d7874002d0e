package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
)

// AdminAPI serves the operator endpoints over the local database and cache.
type AdminAPI struct {
	store     *cache.Store
	tracks    *repositories.GeneratedTrackRepository
	schedules *repositories.ScheduleRepository
	deployer  *tasks.Deployer
	logger    *log.Logger
}

// NewAdminAPI creates the admin API handler. The deployer may be nil, in which
// case POST /api/deploy responds with 503.
func NewAdminAPI(store *cache.Store, tracks *repositories.GeneratedTrackRepository, schedules *repositories.ScheduleRepository, deployer *tasks.Deployer, logger *log.Logger) *AdminAPI {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AdminAPI{store: store, tracks: tracks, schedules: schedules, deployer: deployer, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (a *AdminAPI) Routes() []string {
	return []string{"/api/usage", "/api/tracks", "/api/schedules", "/api/deploy"}
}

// ServeHTTP dispatches to the endpoint handlers.
func (a *AdminAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/usage" && r.Method == http.MethodGet:
		a.handleUsage(w, r)
	case r.URL.Path == "/api/tracks" && r.Method == http.MethodGet:
		a.handleTracks(w, r)
	case r.URL.Path == "/api/schedules" && r.Method == http.MethodGet:
		a.handleListSchedules(w, r)
	case r.URL.Path == "/api/schedules" && r.Method == http.MethodPost:
		a.handleCreateSchedule(w, r)
	case r.URL.Path == "/api/deploy" && r.Method == http.MethodPost:
		a.handleDeploy(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *AdminAPI) handleUsage(w http.ResponseWriter, r *http.Request) {
	summary, err := a.store.Usage()
	if err != nil {
		a.logger.Error("failed to read usage ledger", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read usage ledger")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// trackView is the wire form of a generated track.
type trackView struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	ForeignTitle   string     `json:"foreign_title,omitempty"`
	AudioRef       string     `json:"audio_ref"`
	ImageRef       string     `json:"image_ref,omitempty"`
	Duration       int        `json:"duration"`
	Style          string     `json:"style"`
	Mood           string     `json:"mood"`
	BatchID        string     `json:"batch_id"`
	JobID          string     `json:"job_id,omitempty"`
	Deployed       bool       `json:"deployed"`
	DeployedAt     *time.Time `json:"deployed_at,omitempty"`
	CatalogTrackID string     `json:"catalog_track_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toTrackView(track *models.GeneratedTrack) trackView {
	return trackView{
		ID:             track.ID(),
		Title:          track.Title(),
		ForeignTitle:   track.ForeignTitle(),
		AudioRef:       track.AudioRef(),
		ImageRef:       track.ImageRef(),
		Duration:       track.Duration(),
		Style:          track.Style(),
		Mood:           track.Mood(),
		BatchID:        track.BatchID(),
		JobID:          track.JobID(),
		Deployed:       track.Deployed(),
		DeployedAt:     track.DeployedAt(),
		CatalogTrackID: track.CatalogTrackID(),
		CreatedAt:      track.CreatedAt(),
	}
}

func (a *AdminAPI) handleTracks(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	query := r.URL.Query()
	if batch := query.Get("batch_id"); batch != "" {
		criteria["batch_id"] = batch
	}
	if deployed := query.Get("deployed"); deployed != "" {
		criteria["deployed"] = deployed == "true" || deployed == "1"
	}

	tracks, err := a.tracks.List(criteria)
	if err != nil {
		a.logger.Error("failed to list tracks", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}

	views := make([]trackView, 0, len(tracks))
	for _, track := range tracks {
		views = append(views, toTrackView(track))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": views, "count": len(views)})
}

// scheduleView is the wire form of a schedule.
type scheduleView struct {
	ID           string     `json:"id"`
	Frequency    string     `json:"frequency"`
	IntervalDays int        `json:"interval_days"`
	RunTime      string     `json:"run_time"`
	TrackCount   int        `json:"track_count"`
	Style        string     `json:"style"`
	Mood         string     `json:"mood"`
	AutoDeploy   bool       `json:"auto_deploy"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	Active       bool       `json:"active"`
}

func toScheduleView(schedule *models.Schedule) scheduleView {
	return scheduleView{
		ID:           schedule.ID(),
		Frequency:    schedule.Frequency(),
		IntervalDays: schedule.IntervalDays(),
		RunTime:      schedule.RunTime(),
		TrackCount:   schedule.TrackCount(),
		Style:        schedule.Style(),
		Mood:         schedule.Mood(),
		AutoDeploy:   schedule.AutoDeploy(),
		NextRunAt:    schedule.NextRunAt(),
		LastRunAt:    schedule.LastRunAt(),
		Active:       schedule.Active(),
	}
}

func (a *AdminAPI) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := a.schedules.List(map[string]any{})
	if err != nil {
		a.logger.Error("failed to list schedules", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}

	views := make([]scheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		views = append(views, toScheduleView(schedule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": views, "count": len(views)})
}

type createScheduleRequest struct {
	Frequency    string `json:"frequency"`
	IntervalDays int    `json:"interval_days"`
	RunTime      string `json:"run_time"`
	TrackCount   int    `json:"track_count"`
	Style        string `json:"style"`
	Mood         string `json:"mood"`
	AutoDeploy   bool   `json:"auto_deploy"`
}

func (a *AdminAPI) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Frequency == "" {
		req.Frequency = models.FrequencyDaily
	}
	if req.IntervalDays <= 0 {
		req.IntervalDays = 1
	}

	schedule := models.NewSchedule(req.Frequency, req.IntervalDays, req.RunTime, req.TrackCount, req.Style, req.Mood, req.AutoDeploy)
	if next, err := tasks.ComputeNextRun(schedule, time.Now()); err == nil {
		schedule.SetNextRunAt(next)
	}

	if err := a.schedules.Create(schedule); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleView(schedule))
}

type deployRequest struct {
	BatchID  string   `json:"batch_id,omitempty"`
	TrackIDs []string `json:"track_ids,omitempty"`
}

func (a *AdminAPI) handleDeploy(w http.ResponseWriter, r *http.Request) {
	if a.deployer == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog service not configured")
		return
	}

	var req deployRequest
	if r.Body != nil {
		// An empty body means "deploy everything undeployed".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var result *tasks.DeployResult
	var err error
	switch {
	case len(req.TrackIDs) > 0:
		result, err = a.deployer.DeployByIDs(r.Context(), req.TrackIDs)
	case req.BatchID != "":
		result, err = a.deployer.DeployBatch(r.Context(), req.BatchID)
	default:
		result, err = a.deployer.DeployUndeployed(r.Context())
	}
	if err != nil {
		if errors.Is(err, shared.ErrRunCancelled) {
			writeError(w, http.StatusRequestTimeout, "deploy interrupted")
			return
		}
		a.logger.Error("deploy failed", "err", err)
		writeError(w, http.StatusInternalServerError, "deploy failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deployed": result.Deployed,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// Serve runs the admin API until the context is cancelled, then shuts the
// listener down gracefully.
func Serve(ctx context.Context, host string, port int, api *AdminAPI, logger *log.Logger) error {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(api)

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
