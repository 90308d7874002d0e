package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
	"github.com/soundry/soundry/internal/titles"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	text       services.TextService
	audio      services.AudioService
	image      services.ImageService
	assets     services.AssetService
	catalog    services.CatalogService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db        *sql.DB
	store     *cache.Store
	pool      *titles.Manager
	tracks    *repositories.GeneratedTrackRepository
	schedules *repositories.ScheduleRepository
	engine    *tasks.GenerationEngine
	deployer  *tasks.Deployer
	importer  *tasks.Importer
	scheduler *tasks.Scheduler
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Service overrides are optional; when left nil, each service is built from
// the config's credentials, or skipped entirely when no credentials exist.
type RunnerOpts struct {
	Config     *shared.Config
	Text       services.TextService
	Audio      services.AudioService
	Image      services.ImageService
	Assets     services.AssetService
	Catalog    services.CatalogService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	svcs := opts.Config.Services
	if opts.Text == nil && svcs.Text.APIKey != "" {
		opts.Text = services.NewTextClient(svcs.Text.BaseURL, svcs.Text.APIKey, svcs.Text.RateLimit)
	}
	if opts.Audio == nil && svcs.Audio.APIKey != "" {
		opts.Audio = services.NewAudioClient(svcs.Audio.BaseURL, svcs.Audio.APIKey, svcs.Audio.RateLimit)
	}
	if opts.Image == nil && svcs.Image.APIKey != "" {
		opts.Image = services.NewImageClient(svcs.Image.BaseURL, svcs.Image.APIKey)
	}
	if opts.Assets == nil {
		opts.Assets = services.NewAssetDownloader(opts.Config.Media.Dir, opts.HTTPClient)
	}
	if opts.Catalog == nil && svcs.Catalog.ClientID != "" && svcs.Catalog.ClientSecret != "" {
		opts.Catalog = services.NewCatalogClient(svcs.Catalog.BaseURL, svcs.Catalog.TokenURL, svcs.Catalog.ClientID, svcs.Catalog.ClientSecret)
	}

	return &Runner{
		config:     opts.Config,
		text:       opts.Text,
		audio:      opts.Audio,
		image:      opts.Image,
		assets:     opts.Assets,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, generateCommand, tuiCommand, scheduleCommand, deployCommand,
		importCommand, titlesCommand, usageCommand, cacheCommand, exportCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// bootstrap opens the database and cache store and wires the pipeline
// collaborators. Idempotent; every command that touches storage calls it.
func (r *Runner) bootstrap() error {
	if r.store != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	store, err := cache.NewStore(r.config.Cache.Path, r.logger)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to open cache store: %w", err)
	}

	r.db = db
	r.store = store
	r.pool = titles.NewManager(store, r.text, r.logger)
	r.tracks = repositories.NewGeneratedTrackRepository(db)
	r.schedules = repositories.NewScheduleRepository(db)

	gen := r.config.Generation
	r.engine = tasks.NewGenerationEngine(tasks.EngineOpts{
		Store:        store,
		Pool:         r.pool,
		Text:         r.text,
		Audio:        r.audio,
		Image:        r.image,
		Assets:       r.assets,
		Tracks:       r.tracks,
		Logger:       r.logger,
		Category:     gen.Category(),
		PollInterval: gen.PollInterval(),
		MaxAttempts:  gen.MaxAttempts(),
	})
	if r.catalog != nil {
		r.deployer = tasks.NewDeployer(r.catalog, r.tracks, r.logger)
	}
	r.importer = tasks.NewImporter(tasks.ImporterOpts{
		Store:    store,
		Audio:    r.audio,
		Image:    r.image,
		Assets:   r.assets,
		Tracks:   r.tracks,
		Logger:   r.logger,
		Category: gen.Category(),
	})
	r.scheduler = tasks.NewScheduler(r.schedules, r.engine, r.deployer, r.logger)

	return nil
}

// progressPrinter renders engine progress updates until the channel closes.
func (r *Runner) progressPrinter() chan tasks.ProgressUpdate {
	ch := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range ch {
			switch update.Phase {
			case tasks.PhaseTitle:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.PhaseSynth:
				r.writePlain("🎵 %s\n", update.Message)
			case tasks.PhaseWait:
				r.writePlain("   %s\n", update.Message)
			case tasks.PhaseDownload, tasks.PhaseImage:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.PhaseComplete:
				r.writePlain("✓ %s\n", update.Message)
			case tasks.PhaseError:
				r.writePlain("✗ %s\n", update.Message)
			}
		}
	}()
	return ch
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
