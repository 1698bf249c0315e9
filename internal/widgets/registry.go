// Package widgets keeps one index widget per definition file and renders each
// into an HTML snapshot.
package widgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/attrs"
	"github.com/starford/autoindex/internal/autoindex"
	"github.com/starford/autoindex/internal/checksum"
	"github.com/starford/autoindex/internal/render"
	"github.com/starford/autoindex/internal/storage"
)

// Info describes a registered widget.
type Info struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Path     string `json:"path"`
	Depth    int    `json:"depth"`
	Heading  string `json:"heading"`
	Snapshot string `json:"snapshot"`
	Busy     bool   `json:"busy"`
}

type entry struct {
	def      *attrs.Definition
	checksum string
	widget   *autoindex.Widget
	sink     *render.FileSink
}

func (e *entry) info() Info {
	return Info{
		Name:     e.def.Name,
		Location: e.def.Location,
		Path:     e.widget.Path(),
		Depth:    e.widget.Depth(),
		Heading:  e.def.Heading,
		Snapshot: e.sink.Path(),
		Busy:     e.widget.Busy(),
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithRecorder records every render pass.
func WithRecorder(rec *Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// WithDefaults sets the depth and heading used when a definition omits them.
func WithDefaults(depth int, heading string) Option {
	return func(r *Registry) {
		if depth > 0 {
			r.depth = depth
		}
		if heading != "" {
			r.heading = heading
		}
	}
}

// Registry owns the widgets built from definition files.
type Registry struct {
	src      autoindex.Source
	defs     storage.Provider
	out      storage.Provider
	logger   *slog.Logger
	recorder *Recorder
	depth    int
	heading  string

	mu      sync.RWMutex
	widgets map[string]*entry
}

// New creates a registry reading definitions from defs and writing snapshots to out.
func New(src autoindex.Source, defs, out storage.Provider, opts ...Option) *Registry {
	r := &Registry{
		src:     src,
		defs:    defs,
		out:     out,
		logger:  slog.Default(),
		depth:   autoindex.DefaultDepth,
		heading: render.DefaultHeading,
		widgets: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply parses the definition at rel and creates or updates its widget,
// rendering it. Unchanged definitions are not re-rendered and return a
// zero Result.
func (r *Registry) Apply(ctx context.Context, rel string, data []byte) (autoindex.Result, error) {
	def, err := attrs.Parse(rel, data)
	if err != nil {
		return autoindex.Result{}, err
	}
	if def.Attributes.Depth == 0 {
		def.Attributes.Depth = r.depth
	}
	if def.Heading == "" {
		def.Heading = r.heading
	}
	sum := checksum.Sum(data)

	r.mu.Lock()
	e, exists := r.widgets[def.Name]
	if exists && e.checksum == sum {
		r.mu.Unlock()
		return autoindex.Result{}, nil
	}
	if !exists {
		sink := render.NewFileSink(r.out, def.Name+".html", def.Heading)
		opts := []autoindex.WidgetOption{
			autoindex.WithLocation(def.Location),
			autoindex.WithAttributes(def.Attributes),
			autoindex.WithLogger(r.logger),
		}
		if r.recorder != nil {
			rec := r.recorder
			opts = append(opts, autoindex.WithObserver(func(ctx context.Context, res autoindex.Result) {
				rec.Observe(ctx, sink.Heading(), res)
			}))
		}
		e = &entry{widget: autoindex.NewWidget(def.Name, r.src, sink, opts...), sink: sink}
		r.widgets[def.Name] = e
	}
	headingChanged := e.def != nil && e.def.Heading != def.Heading
	e.def = def
	e.checksum = sum
	r.mu.Unlock()

	if headingChanged {
		e.sink.SetHeading(def.Heading)
	}

	var res autoindex.Result
	if !exists {
		r.logger.Info("widgets: added", slog.String("widget", def.Name), slog.String("location", def.Location))
		res, err = e.widget.Connect(ctx)
	} else {
		r.logger.Info("widgets: updated", slog.String("widget", def.Name))
		res, err = e.widget.SetAttributes(ctx, def.Attributes)
	}
	if err != nil || res.Skipped {
		// Forget the checksum so the next Sync renders this definition again.
		r.mu.Lock()
		if e.checksum == sum {
			e.checksum = ""
		}
		r.mu.Unlock()
	}
	return res, err
}

// Remove drops the widget defined at rel and deletes its snapshot.
func (r *Registry) Remove(_ context.Context, rel string) error {
	return r.remove(attrs.NameFor(rel))
}

func (r *Registry) remove(name string) error {
	r.mu.Lock()
	e, ok := r.widgets[name]
	delete(r.widgets, name)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("widgets: %s: %w", name, apperr.ErrNotFound)
	}
	r.logger.Info("widgets: removed", slog.String("widget", name))
	return e.sink.Remove()
}

// Sync applies every definition on disk and removes widgets whose file is
// gone. Invalid definitions and failed renders are logged and skipped.
func (r *Registry) Sync(ctx context.Context) error {
	metas, err := r.defs.List("")
	if err != nil {
		return fmt.Errorf("widgets: list definitions: %w", err)
	}

	seen := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[attrs.NameFor(m.Path)] = struct{}{}
		r.applyFile(ctx, m.Path)
	}

	r.mu.RLock()
	var stale []string
	for name := range r.widgets {
		if _, ok := seen[name]; !ok {
			stale = append(stale, name)
		}
	}
	r.mu.RUnlock()

	for _, name := range stale {
		if err := r.remove(name); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Warn("widgets: remove stale failed", slog.String("widget", name), slog.String("error", err.Error()))
		}
	}
	return nil
}

// applyFile reads and applies one definition, logging failures.
func (r *Registry) applyFile(ctx context.Context, rel string) {
	data, err := r.defs.Read(rel)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("widgets: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		return
	}
	if _, err := r.Apply(ctx, rel, data); err != nil {
		r.logger.Warn("widgets: apply failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
}

// Render re-renders the named widget.
func (r *Registry) Render(ctx context.Context, name string) (autoindex.Result, error) {
	r.mu.RLock()
	e, ok := r.widgets[name]
	r.mu.RUnlock()
	if !ok {
		return autoindex.Result{}, fmt.Errorf("widgets: %s: %w", name, apperr.ErrNotFound)
	}
	return e.widget.Render(ctx)
}

// Get returns info for the named widget.
func (r *Registry) Get(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.widgets[name]
	if !ok {
		return Info{}, false
	}
	return e.info(), true
}

// List returns info for every widget, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.widgets))
	for _, e := range r.widgets {
		out = append(out, e.info())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
