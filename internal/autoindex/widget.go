package autoindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/autoindex/internal/apperr"
)

// DefaultDepth is used when a widget has no usable depth attribute.
const DefaultDepth = 1

// Sink receives the output of a render pass.
type Sink interface {
	// Clear resets the render target before the pipeline runs.
	Clear(ctx context.Context) error
	// Attach shows the composed index. None attaches nothing.
	Attach(ctx context.Context, g Maybe[Group]) error
}

// Attributes are the externally settable inputs of a widget.
type Attributes struct {
	// Depth is the number of descendant levels to fetch; values below 1 mean DefaultDepth.
	Depth int `json:"depth"`
	// Path is the raw page path; empty means the widget's location.
	Path string `json:"path,omitempty"`
}

// Result describes one render pass.
type Result struct {
	Widget   string        `json:"widget"`
	Path     string        `json:"path"`
	Depth    int           `json:"depth"`
	RootID   int           `json:"root_id,omitempty"`
	Rows     int           `json:"rows"`
	Fetches  int           `json:"fetches"`
	Skipped  bool          `json:"skipped"`
	Started  time.Time     `json:"started_at"`
	Duration time.Duration `json:"duration"`
	Output   Maybe[Group]  `json:"-"`
	Err      error         `json:"-"`
}

// Status classifies the result for logs and metrics.
func (r Result) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Err == nil:
		return "ok"
	case errors.Is(r.Err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "failed"
	}
}

// Observer is notified after every render pass that was not skipped.
type Observer func(ctx context.Context, res Result)

// WidgetOption configures a Widget.
type WidgetOption func(*Widget)

// WithLocation sets the ambient page path used when the path attribute is empty.
func WithLocation(location string) WidgetOption {
	return func(w *Widget) { w.location = location }
}

// WithAttributes sets the initial attributes without rendering.
func WithAttributes(a Attributes) WidgetOption {
	return func(w *Widget) { w.attrs = a }
}

// WithLogger sets the widget logger.
func WithLogger(l *slog.Logger) WidgetOption {
	return func(w *Widget) { w.logger = l }
}

// WithObserver adds an observer.
func WithObserver(o Observer) WidgetOption {
	return func(w *Widget) { w.observers = append(w.observers, o) }
}

// Widget runs the index pipeline for one render target.
//
// Render passes never overlap: a Render call made while another is in
// progress returns immediately with Result.Skipped set. Nothing is queued.
type Widget struct {
	name      string
	src       Source
	sink      Sink
	location  string
	logger    *slog.Logger
	observers []Observer

	mu    sync.Mutex // guards attrs
	attrs Attributes

	rendering atomic.Bool
}

// NewWidget creates a widget reading from src and writing to sink.
func NewWidget(name string, src Source, sink Sink, opts ...WidgetOption) *Widget {
	w := &Widget{
		name:   name,
		src:    src,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the widget name.
func (w *Widget) Name() string {
	return w.name
}

// Attributes returns the current attributes.
func (w *Widget) Attributes() Attributes {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attrs
}

// Depth returns the effective fetch depth.
func (w *Widget) Depth() int {
	d := w.Attributes().Depth
	if d < 1 {
		return DefaultDepth
	}
	return d
}

// Path returns the normalized lookup path.
func (w *Widget) Path() string {
	p := w.Attributes().Path
	if p == "" {
		p = w.location
	}
	return NormalizePath(p)
}

// Busy reports whether a render pass is in progress.
func (w *Widget) Busy() bool {
	return w.rendering.Load()
}

// Connect renders the widget for the first time.
func (w *Widget) Connect(ctx context.Context) (Result, error) {
	return w.Render(ctx)
}

// SetAttributes replaces the attributes and re-renders.
func (w *Widget) SetAttributes(ctx context.Context, a Attributes) (Result, error) {
	w.mu.Lock()
	w.attrs = a
	w.mu.Unlock()
	return w.Render(ctx)
}

// Render runs normalize → lookup → fetch → compose and attaches the result to
// the sink. On failure the sink is left cleared and the error is returned.
func (w *Widget) Render(ctx context.Context) (Result, error) {
	if !w.rendering.CompareAndSwap(false, true) {
		w.logger.Debug("widget: render skipped, already running", slog.String("widget", w.name))
		rendersTotal.WithLabelValues("skipped").Inc()
		return Result{Widget: w.name, Skipped: true}, nil
	}
	defer w.rendering.Store(false)

	res := Result{
		Widget:  w.name,
		Path:    w.Path(),
		Depth:   w.Depth(),
		Started: time.Now(),
	}
	src := &countingSource{Source: w.src}

	err := w.run(ctx, src, &res)
	res.Fetches = src.total()
	res.Duration = time.Since(res.Started)
	res.Err = err

	rendersTotal.WithLabelValues(res.Status()).Inc()
	if err == nil {
		renderDuration.Observe(res.Duration.Seconds())
		w.logger.Info("widget: rendered",
			slog.String("widget", w.name),
			slog.String("path", res.Path),
			slog.Int("depth", res.Depth),
			slog.Int("rows", res.Rows),
			slog.Int("fetches", res.Fetches),
			slog.Duration("duration", res.Duration))
	} else {
		w.logger.Warn("widget: render failed",
			slog.String("widget", w.name),
			slog.String("path", res.Path),
			slog.String("error", err.Error()))
	}

	for _, o := range w.observers {
		o(ctx, res)
	}
	return res, err
}

func (w *Widget) run(ctx context.Context, src Source, res *Result) error {
	if err := w.sink.Clear(ctx); err != nil {
		return fmt.Errorf("autoindex: clear sink: %w", err)
	}

	ref, err := LookupPage(ctx, src, res.Path)
	if err != nil {
		return err
	}
	res.RootID = ref.ID

	tree, err := FetchTree(ctx, src, ref.ID, 0, res.Depth)
	if err != nil {
		return err
	}

	out, err := NewComposer(src, res.Depth).Compose(ctx, tree, 0)
	if err != nil {
		return err
	}

	if err := w.sink.Attach(ctx, out); err != nil {
		return fmt.Errorf("autoindex: attach: %w", err)
	}
	if g, ok := out.Get(); ok {
		res.Rows = g.Rows()
	}
	res.Output = out
	return nil
}
