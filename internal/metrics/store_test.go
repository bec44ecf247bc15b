package metrics_test

import (
	"testing"

	"github.com/poolhouse/scoretable/internal/database"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementAndGetAll(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	store := metrics.New(db)

	store.Increment(metrics.KeyGamesFinalized)
	store.Increment(metrics.KeyGamesFinalized)
	store.Increment(metrics.KeyMatchesFinalized)

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, 2, all[metrics.KeyGamesFinalized])
	assert.Equal(t, 1, all[metrics.KeyMatchesFinalized])
	assert.NotContains(t, all, metrics.KeyGamesVacated)
}
