package predict

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mchmarny/predictr/pkg/artifact"
)

var ErrUnknownApp = errors.New("unknown app")

// Registry holds the ready pipelines keyed by app name.
type Registry struct {
	pipelines map[string]*Pipeline
	order     []string
}

// LoadRegistry loads the artifacts of the named apps, or of every built-in
// app when none are named, from <dir>/<app>. Any failure is fatal.
func LoadRegistry(dir string, apps ...string) (*Registry, error) {
	if len(apps) == 0 {
		for _, p := range Profiles() {
			apps = append(apps, p.Name)
		}
	}

	r := &Registry{pipelines: make(map[string]*Pipeline, len(apps))}
	for _, name := range apps {
		p, ok := GetProfile(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownApp, name)
		}

		b, err := artifact.LoadBundle(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading %s artifacts: %w", name, err)
		}

		pl, err := NewPipeline(p, b)
		if err != nil {
			return nil, err
		}
		r.Add(pl)
		slog.Debug("app ready", "app", name, "digest", b.Digest)
	}
	return r, nil
}

// NewRegistry creates a registry from ready pipelines.
func NewRegistry(pipelines ...*Pipeline) *Registry {
	r := &Registry{pipelines: make(map[string]*Pipeline, len(pipelines))}
	for _, pl := range pipelines {
		r.Add(pl)
	}
	return r
}

// Add registers pl, replacing any pipeline for the same app.
func (r *Registry) Add(pl *Pipeline) {
	name := pl.Profile().Name
	if _, ok := r.pipelines[name]; !ok {
		r.order = append(r.order, name)
	}
	r.pipelines[name] = pl
}

func (r *Registry) Get(name string) (*Pipeline, error) {
	pl, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, name)
	}
	return pl, nil
}

// Profiles returns the registered apps in load order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pipelines[name].Profile())
	}
	return out
}
