package data

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/mchmarny/predictr/pkg/category"
	"github.com/mchmarny/predictr/pkg/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrediction(app string, n int, at time.Time) *predict.Prediction {
	return &predict.Prediction{
		ID:        fmt.Sprintf("%s-%03d", app, n),
		App:       app,
		CreatedAt: at,
		Inputs:    map[string]string{"gender": "Male", "age": "30"},
		Encoded: map[string]category.Resolution{
			"gender": {Code: 1, Source: category.SourceClassMatch},
		},
		RawValue:    1234.5 + float64(n),
		Value:       1234.5 + float64(n),
		Display:     fmt.Sprintf("Ksh.%d", n),
		ModelDigest: "00000000deadbeef",
	}
}

func seedPredictions(t *testing.T, db *sql.DB) time.Time {
	t.Helper()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, SavePrediction(db, testPrediction(predict.AppInsurance, i, base.Add(time.Duration(i)*time.Minute))))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, SavePrediction(db, testPrediction(predict.AppExam, i, base.Add(time.Duration(i)*time.Second))))
	}
	return base
}

func TestSaveAndGetPrediction(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2026, 10, 17, 8, 30, 0, 123, time.UTC)
	p := testPrediction(predict.AppInsurance, 1, at)

	require.NoError(t, SavePrediction(db, p))

	got, err := GetPrediction(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.App, got.App)
	assert.True(t, at.Equal(got.CreatedAt))
	assert.Equal(t, p.Inputs, got.Inputs)
	assert.Equal(t, p.Encoded, got.Encoded)
	assert.Equal(t, p.Value, got.Value)
	assert.Equal(t, p.Display, got.Display)
	assert.Equal(t, p.ModelDigest, got.ModelDigest)
}

func TestSavePrediction_Invalid(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SavePrediction(db, nil))
	assert.Error(t, SavePrediction(db, &predict.Prediction{}))
	assert.ErrorIs(t, SavePrediction(nil, testPrediction("x", 1, time.Now())), errDBNotInitialized)

	p := testPrediction(predict.AppExam, 1, time.Now())
	require.NoError(t, SavePrediction(db, p))
	assert.Error(t, SavePrediction(db, p), "duplicate id")
}

func TestGetPrediction_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetPrediction(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPredictions(t *testing.T) {
	db := setupTestDB(t)
	seedPredictions(t, db)

	all, err := ListPredictions(db, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "insurance-002", all[0].ID)

	ins, err := ListPredictions(db, predict.AppInsurance, 2)
	require.NoError(t, err)
	require.Len(t, ins, 2)
	assert.Equal(t, "insurance-002", ins[0].ID)
	assert.Equal(t, "insurance-001", ins[1].ID)

	exam, err := ListPredictions(db, predict.AppExam, 10)
	require.NoError(t, err)
	assert.Len(t, exam, 2)

	none, err := ListPredictions(db, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = ListPredictions(nil, "", 1)
	assert.Error(t, err)
}

func TestGetPredictionStats(t *testing.T) {
	db := setupTestDB(t)

	stats, err := GetPredictionStats(db)
	require.NoError(t, err)
	assert.Empty(t, stats)

	seedPredictions(t, db)
	stats, err = GetPredictionStats(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{predict.AppInsurance: 3, predict.AppExam: 2}, stats)
}

func TestDeletePredictions(t *testing.T) {
	db := setupTestDB(t)
	seedPredictions(t, db)

	n, err := DeletePredictions(db)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	list, err := ListPredictions(db, "", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
