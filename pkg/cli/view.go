package cli

import (
	"database/sql"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mchmarny/predictr/pkg/data"
	"github.com/mchmarny/predictr/pkg/predict"
)

func faviconHandler(w http.ResponseWriter, r *http.Request) {
	file, err := embedFS.ReadFile("assets/img/favicon.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err = w.Write(file); err != nil {
		slog.Error("failed to write favicon", "error", err)
	}
}

func render(w http.ResponseWriter, tmpl *template.Template, status int, name string, d map[string]any) {
	d["version"] = version
	d["commit"] = commit
	d["build_date"] = date

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, name, d); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
	}
}

func homeViewHandler(tmpl *template.Template, reg *predict.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		render(w, tmpl, http.StatusOK, "home", map[string]any{
			"apps": reg.Profiles(),
		})
	}
}

func appViewHandler(tmpl *template.Template, reg *predict.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pl, err := reg.Get(r.PathValue("app"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		p := pl.Profile()
		render(w, tmpl, http.StatusOK, "app", map[string]any{
			"app":    p,
			"values": p.Defaults(),
		})
	}
}

// appSubmitHandler predicts from the posted form and re-renders it with the
// submitted values and either the result or the error.
func appSubmitHandler(tmpl *template.Template, reg *predict.Registry, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pl, err := reg.Get(r.PathValue("app"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		p := pl.Profile()

		r.Body = http.MaxBytesReader(w, r.Body, serverMaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			render(w, tmpl, http.StatusBadRequest, "app", map[string]any{
				"app":    p,
				"values": p.Defaults(),
				"err":    "invalid form submission",
			})
			return
		}

		values := make(map[string]string, len(p.Fields))
		shown := p.Defaults()
		for _, f := range p.Fields {
			if v, ok := r.PostForm[f.Name]; ok && len(v) > 0 {
				values[f.Name] = v[0]
				shown[f.Name] = v[0]
			}
		}

		res, err := pl.Predict(values)
		if err != nil {
			status := errorStatus(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				slog.Error("prediction failed", "app", p.Name, "error", err)
				msg = "prediction failed"
			}
			render(w, tmpl, status, "app", map[string]any{
				"app":    p,
				"values": shown,
				"err":    msg,
			})
			return
		}

		if err := data.SavePrediction(db, res); err != nil {
			slog.Error("failed to record prediction", "app", p.Name, "error", err)
		}

		render(w, tmpl, http.StatusOK, "app", map[string]any{
			"app":    p,
			"values": res.Inputs,
			"result": res,
		})
	}
}
