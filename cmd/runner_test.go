package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
	tu "github.com/soundry/soundry/internal/testing"
	"github.com/urfave/cli/v3"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "soundry.db")
	config.Cache.Path = filepath.Join(dir, "cache.db")
	config.Media.Dir = filepath.Join(dir, "media")
	return config
}

// newTestRunner builds a fully wired runner backed by mocks and a migrated
// temp database.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: testConfig(t),
		Text: &tu.MockTextService{Titles: []services.GeneratedTitle{
			{NativeText: "Dawn Light", ForeignText: "夜明けの光"},
			{NativeText: "Quiet Hills"},
			{NativeText: "Slow River"},
			{NativeText: "Night Garden"},
		}},
		Audio: &tu.MockAudioService{
			Statuses: []services.JobStatus{services.StatusSuccess},
			Tracks: []services.RawTrack{
				{AudioURL: "https://audio.example/a.mp3", Duration: 181},
				{AudioURL: "https://audio.example/b.mp3", Duration: 204},
			},
		},
		Image:   &tu.MockImageService{},
		Assets:  &tu.MockAssetService{},
		Catalog: &tu.MockCatalogService{},
		Output:  output,
	})

	if err := runner.bootstrap(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	t.Cleanup(func() {
		runner.store.Close()
		runner.db.Close()
	})
	if err := shared.RunMigrations(runner.db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return runner, output
}

func runCommand(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "soundry", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"soundry"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			audio := &tu.MockAudioService{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Audio:  audio,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.audio != audio {
				t.Error("expected audio service to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("skips services without credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			if runner.audio != nil {
				t.Error("expected no audio service without an API key")
			}
			if runner.catalog != nil {
				t.Error("expected no catalog service without client credentials")
			}
			if runner.assets == nil {
				t.Error("expected asset downloader regardless of credentials")
			}
		})
	})

	t.Run("bootstrap is idempotent", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		store := runner.store

		if err := runner.bootstrap(); err != nil {
			t.Fatalf("second bootstrap failed: %v", err)
		}
		if runner.store != store {
			t.Error("expected bootstrap to reuse the open store")
		}
	})
}

func TestGenerateCommand(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "generate", "--count", "2", "--style", "lofi", "--mood", "calm"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if !strings.Contains(output.String(), "Generation Complete!") {
		t.Errorf("Expected completion banner, got:\n%s", output.String())
	}

	tracks, err := runner.tracks.List(map[string]any{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("Expected 2 persisted tracks, got %d", len(tracks))
	}
}

func TestGenerateCommandRejectsOddCount(t *testing.T) {
	runner, _ := newTestRunner(t)

	err := runCommand(t, runner, "generate", "--count", "3", "--style", "lofi")
	if err == nil {
		t.Fatal("Expected error for odd track count")
	}
}

func TestGenerateCommandDeploysBatch(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "generate", "--count", "2", "--style", "lofi", "--deploy"); err != nil {
		t.Fatalf("generate --deploy failed: %v", err)
	}
	if !strings.Contains(output.String(), "Deployed 2 tracks") {
		t.Errorf("Expected deploy summary, got:\n%s", output.String())
	}
}

func TestDeployCommand(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "generate", "--count", "2", "--style", "lofi"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	output.Reset()

	if err := runCommand(t, runner, "deploy"); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	if !strings.Contains(output.String(), "Deployed: 2") {
		t.Errorf("Unexpected deploy output:\n%s", output.String())
	}

	// Second pass skips everything.
	output.Reset()
	if err := runCommand(t, runner, "deploy"); err != nil {
		t.Fatalf("repeat deploy failed: %v", err)
	}
	if !strings.Contains(output.String(), "Deployed: 0") {
		t.Errorf("Expected idempotent deploy, got:\n%s", output.String())
	}
}

func TestScheduleCommands(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "schedule", "add", "--time", "06:30", "--count", "4", "--style", "lofi"); err != nil {
		t.Fatalf("schedule add failed: %v", err)
	}
	if !strings.Contains(output.String(), "Schedule created") {
		t.Errorf("Unexpected add output:\n%s", output.String())
	}

	output.Reset()
	if err := runCommand(t, runner, "schedule", "list"); err != nil {
		t.Fatalf("schedule list failed: %v", err)
	}
	if !strings.Contains(output.String(), "daily @ 06:30") {
		t.Errorf("Unexpected list output:\n%s", output.String())
	}

	schedules, err := runner.schedules.List(map[string]any{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("Expected 1 schedule, got %d", len(schedules))
	}

	if err := runCommand(t, runner, "schedule", "remove", schedules[0].ID()); err != nil {
		t.Fatalf("schedule remove failed: %v", err)
	}
	remaining, err := runner.schedules.List(map[string]any{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected schedule removed, found %d", len(remaining))
	}
}

func TestTitlesCommands(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "titles", "replenish", "--count", "4"); err != nil {
		t.Fatalf("titles replenish failed: %v", err)
	}
	if !strings.Contains(output.String(), "Added 4 titles") {
		t.Errorf("Unexpected replenish output:\n%s", output.String())
	}

	output.Reset()
	if err := runCommand(t, runner, "titles", "status"); err != nil {
		t.Fatalf("titles status failed: %v", err)
	}
	if !strings.Contains(output.String(), "4 available / 4 total") {
		t.Errorf("Unexpected status output:\n%s", output.String())
	}
}

func TestUsageCommand(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runner.store.RecordUsage(cache.ServiceAudio, true, 2); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	if err := runCommand(t, runner, "usage", "show"); err != nil {
		t.Fatalf("usage show failed: %v", err)
	}
	if !strings.Contains(output.String(), "audio") {
		t.Errorf("Expected audio counters in output:\n%s", output.String())
	}

	output.Reset()
	if err := runCommand(t, runner, "usage", "credits"); err != nil {
		t.Fatalf("usage credits failed: %v", err)
	}
	if !strings.Contains(output.String(), "Remaining credits") {
		t.Errorf("Unexpected credits output:\n%s", output.String())
	}
}

func TestCacheCommands(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runner.store.Put(cache.ServiceAudio, cache.Key("job-1"), cache.AudioJob{JobID: "job-1"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := runCommand(t, runner, "cache", "list", "audio"); err != nil {
		t.Fatalf("cache list failed: %v", err)
	}
	if !strings.Contains(output.String(), "1 entries in \"audio\" cache") {
		t.Errorf("Unexpected list output:\n%s", output.String())
	}

	if err := runCommand(t, runner, "cache", "clear", "--service", "audio"); err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	count, err := runner.store.Count(cache.ServiceAudio)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty audio cache, got %d entries", count)
	}

	if err := runCommand(t, runner, "cache", "list", "video"); err == nil {
		t.Error("Expected error for unknown cache service")
	}
}

func TestExportCommand(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "generate", "--count", "2", "--style", "lofi"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	tracks, err := runner.tracks.List(map[string]any{})
	if err != nil || len(tracks) == 0 {
		t.Fatalf("Expected generated tracks, got %d (err %v)", len(tracks), err)
	}
	batchID := tracks[0].BatchID()

	wd := tu.MustGetwd(t)
	tu.MustChdir(t, t.TempDir())
	defer tu.MustChdir(t, wd)

	output.Reset()
	if err := runCommand(t, runner, "export", "--batch", batchID, "--format", "text", "--output", "batch.txt"); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	tu.AssertFileExists(t, "batch.txt")

	if err := runCommand(t, runner, "export", "--batch", batchID, "--format", "bogus"); err == nil {
		t.Error("Expected error for unknown format")
	}

	if err := runCommand(t, runner, "export", "--batch", "no-such-batch"); err == nil {
		t.Error("Expected error for empty batch")
	}
}

func TestSetupCommand(t *testing.T) {
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, t.TempDir())
	defer tu.MustChdir(t, wd)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output})

	if err := runCommand(t, runner, "setup", "--config", "config.toml"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, "config.toml")
	if !strings.Contains(output.String(), "Setup complete") {
		t.Errorf("Unexpected setup output:\n%s", output.String())
	}
}

func TestImportCommandRequiresJobIDs(t *testing.T) {
	runner, _ := newTestRunner(t)

	if err := runCommand(t, runner, "import"); err == nil {
		t.Error("Expected error when no job ids are given")
	}
}

func TestImportCommand(t *testing.T) {
	runner, output := newTestRunner(t)

	if err := runCommand(t, runner, "import", "job-77"); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(output.String(), "Imported: 2 tracks") {
		t.Errorf("Unexpected import output:\n%s", output.String())
	}
}
