package shared

import (
	"testing"
)

func TestRunMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	for _, table := range []string{"generated_tracks", "schedules", "generated_tracks_sequence", "schedules_sequence"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	// Re-running applied migrations is a no-op.
	if err := RunMigrations(db); err != nil {
		t.Errorf("Second RunMigrations should succeed: %v", err)
	}
}

func TestRollbackMigration(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	if err := RollbackMigration(db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='generated_tracks'").Scan(&name)
	if err == nil {
		t.Error("Expected generated_tracks dropped after rollback")
	}
}

func TestRollbackWithoutMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := createMigrationsTable(db); err != nil {
		t.Fatalf("Failed to create migrations table: %v", err)
	}
	if err := RollbackMigration(db); err == nil {
		t.Error("Expected an error with nothing to roll back")
	}
}
