package services

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/enrollhub/enrollment-backend/v1/models"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	migrateTestModels(t, db)
	CleanupTestData(t, db)

	return db
}

// SetupFileTestDB creates a file-backed SQLite database limited to a single
// connection. In-memory SQLite gives each pooled connection its own database,
// so tests that run service calls from multiple goroutines need this variant.
func SetupFileTestDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "enrollment.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open SQLite test database file: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB from test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	migrateTestModels(t, db)

	return db
}

func migrateTestModels(t *testing.T, db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Member{},
		&models.PlanPrice{},
		&models.SuccessStory{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
}

// CleanupTestData removes all test data from the database.
// Exported for use in handler tests.
func CleanupTestData(t *testing.T, db *gorm.DB) {
	if err := db.Exec("DELETE FROM members").Error; err != nil {
		t.Logf("Warning: failed to cleanup members: %v", err)
	}
	if err := db.Exec("DELETE FROM plan_prices").Error; err != nil {
		t.Logf("Warning: failed to cleanup plan_prices: %v", err)
	}
	if err := db.Exec("DELETE FROM success_stories").Error; err != nil {
		t.Logf("Warning: failed to cleanup success_stories: %v", err)
	}
}
