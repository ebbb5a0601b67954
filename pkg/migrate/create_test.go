package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateSQLMigrationWritesValidFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "Add Shift Notes!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260301090500_add_shift_notes.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}

	if _, err := createSQLMigrationAt(dir, "add shift notes", now); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
}

func TestMigrationSlugRejectsEmptyNames(t *testing.T) {
	for _, name := range []string{"", "   ", "!!!"} {
		if _, err := migrationSlug(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "bad filename",
			files: map[string]string{"create_users.sql": "-- +goose Up\n-- +goose Down\n"},
			want:  "invalid migration filename",
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"20260301090000_a.sql": "-- +goose Up\n-- +goose Down\n",
				"20260301090000_b.sql": "-- +goose Up\n-- +goose Down\n",
			},
			want: "duplicate migration version",
		},
		{
			name:  "missing down",
			files: map[string]string{"20260301090000_a.sql": "-- +goose Up\n"},
			want:  "missing",
		},
		{
			name:  "down before up",
			files: map[string]string{"20260301090000_a.sql": "-- +goose Down\n-- +goose Up\n"},
			want:  "must precede",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, body := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
					t.Fatalf("write %s: %v", name, err)
				}
			}
			err := ValidateDir(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestMigrateRejectsMissingInputs(t *testing.T) {
	if err := Run(context.Background(), nil, DefaultDir, "up"); err == nil {
		t.Fatal("expected error for nil db")
	}
	if _, err := CurrentVersion(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
	if err := MigrateToVersion(context.Background(), nil, DefaultDir, "not-a-version"); err == nil {
		t.Fatal("expected error for malformed version")
	}
}
