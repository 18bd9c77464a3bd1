package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mchmarny/predictr/pkg/category"
	"github.com/mchmarny/predictr/pkg/predict"
)

const (
	// fixed width so that text ordering matches time ordering
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

	ListLimitDefault = 100

	insertPredictionSQL = `INSERT INTO prediction (
			id, app, created_at, inputs, encoded, raw_value, value, display, model_digest
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectPredictionColumns = `SELECT
			id, app, created_at, inputs, encoded, raw_value, value, display, model_digest
		FROM prediction`

	selectPredictionSQL = selectPredictionColumns + ` WHERE id = ?`

	selectPredictionsSQL = selectPredictionColumns + `
		WHERE app = COALESCE(?, app)
		ORDER BY created_at DESC, id
		LIMIT ?`

	selectPredictionStatsSQL = `SELECT app, COUNT(*) FROM prediction GROUP BY app ORDER BY app`

	deletePredictionsSQL = `DELETE FROM prediction`
)

// SavePrediction records p in the history.
func SavePrediction(db *sql.DB, p *predict.Prediction) error {
	if db == nil {
		return errDBNotInitialized
	}
	if p == nil || p.ID == "" || p.App == "" {
		return errors.New("prediction with id and app required")
	}

	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("marshaling inputs: %w", err)
	}
	encoded, err := json.Marshal(p.Encoded)
	if err != nil {
		return fmt.Errorf("marshaling encoded values: %w", err)
	}

	if _, err := db.Exec(rebind(db, insertPredictionSQL),
		p.ID,
		p.App,
		p.CreatedAt.UTC().Format(timeFormat),
		string(inputs),
		string(encoded),
		p.RawValue,
		p.Value,
		p.Display,
		p.ModelDigest,
	); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// GetPrediction returns the prediction with id or ErrNotFound.
func GetPrediction(db *sql.DB, id string) (*predict.Prediction, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	p, err := scanPrediction(db.QueryRow(rebind(db, selectPredictionSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("prediction %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// ListPredictions returns the most recent predictions, newest first.
// An empty app lists all apps.
func ListPredictions(db *sql.DB, app string, limit int) ([]*predict.Prediction, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = ListLimitDefault
	}

	var appArg *string
	if app != "" {
		appArg = &app
	}

	rows, err := db.Query(rebind(db, selectPredictionsSQL), appArg, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	list := make([]*predict.Prediction, 0)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	return list, nil
}

// GetPredictionStats returns the number of recorded predictions per app.
func GetPredictionStats(db *sql.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectPredictionStatsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var app string
		var count int64
		if err := rows.Scan(&app, &count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats[app] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats: %w", err)
	}
	return stats, nil
}

// DeletePredictions removes every recorded prediction and returns the count.
func DeletePredictions(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	res, err := db.Exec(deletePredictionsSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to delete predictions: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row scanner) (*predict.Prediction, error) {
	var (
		p       predict.Prediction
		created string
		inputs  string
		encoded string
	)
	if err := row.Scan(&p.ID, &p.App, &created, &inputs, &encoded, &p.RawValue, &p.Value, &p.Display, &p.ModelDigest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	p.CreatedAt = t

	if err := json.Unmarshal([]byte(inputs), &p.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshaling inputs: %w", err)
	}
	p.Encoded = make(map[string]category.Resolution)
	if err := json.Unmarshal([]byte(encoded), &p.Encoded); err != nil {
		return nil, fmt.Errorf("unmarshaling encoded values: %w", err)
	}
	return &p, nil
}
