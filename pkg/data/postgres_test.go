//go:build integration

package data

import (
	"context"
	"testing"
	"time"

	"github.com/mchmarny/predictr/pkg/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("predictr"),
		postgres.WithUsername("predictr"),
		postgres.WithPassword("predictr"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgres_History(t *testing.T) {
	dsn := setupPostgres(t)
	require.True(t, IsPostgres(dsn))

	require.NoError(t, Init(dsn))
	require.NoError(t, Init(dsn))

	db, err := GetDB(dsn)
	require.NoError(t, err)
	defer db.Close()

	base := seedPredictions(t, db)

	list, err := ListPredictions(db, predict.AppInsurance, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, base.Add(2*time.Minute).Equal(list[0].CreatedAt))

	p, err := GetPrediction(db, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0].Encoded, p.Encoded)

	stats, err := GetPredictionStats(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[predict.AppExam])

	n, err := DeletePredictions(db)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
