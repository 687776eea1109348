package database

import (
	"path/filepath"
	"testing"

	"github.com/fountain-ink/fountain-backend/internal/drafts"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestOpenSQLiteCreatesSchema(testContext *testing.T) {
	db, err := OpenSQLite(filepath.Join(testContext.TempDir(), "fountain.db"), nil)
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	if !db.Migrator().HasTable(&drafts.DraftRow{}) {
		testContext.Fatalf("expected drafts table to exist")
	}
	if !db.Migrator().HasTable(&migrationRecord{}) {
		testContext.Fatalf("expected migrations table to exist")
	}

	var record migrationRecord
	if err := db.Where("name = ?", migrationBackfillUpdatedAt).Take(&record).Error; err != nil {
		testContext.Fatalf("expected backfill migration recorded: %v", err)
	}
}

func TestBackfillDraftUpdatedAtFillsZeroRows(testContext *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&drafts.DraftRow{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	seed := []drafts.DraftRow{
		{DocumentID: "doc-legacy", Author: "0xauthor", RecordJSON: "{}", CreatedAtSeconds: 100, UpdatedAtSeconds: 0},
		{DocumentID: "doc-current", Author: "0xauthor", RecordJSON: "{}", CreatedAtSeconds: 100, UpdatedAtSeconds: 200},
	}
	for _, row := range seed {
		if err := db.Create(&row).Error; err != nil {
			testContext.Fatalf("failed to seed row %s: %v", row.DocumentID, err)
		}
	}

	if err := applyMigrations(db, nil); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var legacy drafts.DraftRow
	if err := db.Where("document_id = ?", "doc-legacy").Take(&legacy).Error; err != nil {
		testContext.Fatalf("failed to reload legacy row: %v", err)
	}
	if legacy.UpdatedAtSeconds != 100 {
		testContext.Fatalf("expected backfill from created_at_s, got %d", legacy.UpdatedAtSeconds)
	}

	var current drafts.DraftRow
	if err := db.Where("document_id = ?", "doc-current").Take(&current).Error; err != nil {
		testContext.Fatalf("failed to reload current row: %v", err)
	}
	if current.UpdatedAtSeconds != 200 {
		testContext.Fatalf("expected untouched row to keep its timestamp, got %d", current.UpdatedAtSeconds)
	}
}

func TestApplyMigrationsIsIdempotent(testContext *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&drafts.DraftRow{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	if err := applyMigrations(db, nil); err != nil {
		testContext.Fatalf("first migration run failed: %v", err)
	}
	if err := applyMigrations(db, nil); err != nil {
		testContext.Fatalf("second migration run failed: %v", err)
	}

	var count int64
	if err := db.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count migration records: %v", err)
	}
	if count != 1 {
		testContext.Fatalf("expected one migration record, got %d", count)
	}
}
