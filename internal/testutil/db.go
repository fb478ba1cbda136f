// Package testutil provides shared helpers for service and repository
// tests. Tests run against an in-memory SQLite database so they need no
// external infrastructure.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// SetupTestDB opens a fresh in-memory database with the full schema
// migrated. Each call returns an isolated database, so tests never see
// each other's rows.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DSN keeps the database alive across the pooled
	// connections gorm opens; a plain :memory: DSN would give every
	// connection its own empty database.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Challenge{},
		&domain.ContingentEmployee{},
		&domain.RouteSheet{},
		&domain.RouteSheetService{},
		&domain.Recommendation{},
		&domain.HealthImprovementPlan{},
		&domain.Doctor{},
		&domain.GeneratedDocument{},
	)
	require.NoError(t, err, "failed to migrate test schema")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}
