package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mchmarny/predictr/pkg/category"
	"github.com/mchmarny/predictr/pkg/data"
	"github.com/mchmarny/predictr/pkg/predict"
)

const historyLimitMax = 1000

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps prediction errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, predict.ErrUnknownApp):
		return http.StatusNotFound
	case errors.Is(err, predict.ErrInvalidInput), errors.Is(err, category.ErrUnresolvable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func queryParamInt(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

// formValues accepts field values as JSON strings, numbers or booleans.
func formValues(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		case nil:
		default:
			return nil, fmt.Errorf("unsupported value for %s: %v", k, v)
		}
	}
	return out, nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func appsAPIHandler(reg *predict.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reg.Profiles())
	}
}

func predictAPIHandler(reg *predict.Registry, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pl, err := reg.Get(r.PathValue("app"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		var in map[string]any
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes))
		if err := dec.Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		values, err := formValues(in)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := pl.Predict(values)
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusInternalServerError {
				slog.Error("prediction failed", "app", pl.Profile().Name, "error", err)
				writeError(w, status, "prediction failed")
				return
			}
			writeError(w, status, err.Error())
			return
		}

		if err := data.SavePrediction(db, p); err != nil {
			slog.Error("failed to record prediction", "id", p.ID, "error", err)
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func historyAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app := r.URL.Query().Get("app")
		limit := min(queryParamInt(r, "limit", data.ListLimitDefault), historyLimitMax)

		list, err := data.ListPredictions(db, app, limit)
		if err != nil {
			slog.Error("failed to list predictions", "app", app, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list predictions")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
