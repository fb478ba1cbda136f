package database_test

import (
	"testing"

	"github.com/medosmotr/examination-api/internal/database"
	"github.com/medosmotr/examination-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)

	assert.NoError(t, database.HealthCheck(db))
}

func TestHealthCheckWithStats(t *testing.T) {
	db := testutil.SetupTestDB(t)

	stats, err := database.HealthCheckWithStats(db)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 1)
}
