// Package indexservice coordinates the index pipeline, the widget registry,
// and the render log for the HTTP API, the MCP server, and the CLI.
package indexservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/attrs"
	"github.com/starford/autoindex/internal/autoindex"
	"github.com/starford/autoindex/internal/checksum"
	"github.com/starford/autoindex/internal/models"
	"github.com/starford/autoindex/internal/render"
	"github.com/starford/autoindex/internal/renderlog"
	"github.com/starford/autoindex/internal/widgets"
)

// AdHocWidget is the widget name recorded for renders that are not backed by
// a definition file.
const AdHocWidget = "adhoc"

// IndexRequest describes a one-off render.
type IndexRequest struct {
	// Location is the ambient page path used when Path is empty.
	Location string
	// Path is the raw path attribute.
	Path string
	// Depth is the raw depth attribute; empty means the configured default.
	Depth string
	// Format is the output format name; empty means HTML.
	Format string
	// Heading overrides the configured heading.
	Heading string
}

// Rendered is the encoded output of a one-off render.
type Rendered struct {
	Body        []byte
	ContentType string
	ETag        string
	Format      render.Format
	Result      autoindex.Result
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry exposes definition-backed widgets.
func WithRegistry(r *widgets.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithRenderLog exposes render history.
func WithRenderLog(l renderlog.Log) Option {
	return func(s *Service) { s.log = l }
}

// WithRecorder records one-off renders.
func WithRecorder(r *widgets.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithDefaults sets the depth and heading used when a request omits them.
func WithDefaults(depth int, heading string) Option {
	return func(s *Service) {
		if depth > 0 {
			s.depth = depth
		}
		if heading != "" {
			s.heading = heading
		}
	}
}

// WithLogger sets the logger handed to one-off widgets.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service is the application facade over the index pipeline.
type Service struct {
	src      autoindex.Source
	registry *widgets.Registry
	log      renderlog.Log
	recorder *widgets.Recorder
	logger   *slog.Logger
	depth    int
	heading  string
}

// NewService creates a service reading from src.
func NewService(src autoindex.Source, opts ...Option) *Service {
	s := &Service{
		src:     src,
		logger:  slog.Default(),
		depth:   autoindex.DefaultDepth,
		heading: render.DefaultHeading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Heading returns the configured default heading.
func (s *Service) Heading() string {
	return s.heading
}

// RenderIndex runs the pipeline once into a buffer and encodes the result.
func (s *Service) RenderIndex(ctx context.Context, req IndexRequest) (*Rendered, error) {
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	depth := s.depth
	if req.Depth != "" {
		depth = attrs.ParseDepth(req.Depth)
	}
	heading := req.Heading
	if heading == "" {
		heading = s.heading
	}

	opts := []autoindex.WidgetOption{
		autoindex.WithLocation(req.Location),
		autoindex.WithAttributes(autoindex.Attributes{Path: req.Path, Depth: depth}),
		autoindex.WithLogger(s.logger),
	}
	if s.recorder != nil {
		opts = append(opts, autoindex.WithObserver(s.recorder.Observer(heading)))
	}
	buf := render.NewBuffer()
	res, err := autoindex.NewWidget(AdHocWidget, s.src, buf, opts...).Connect(ctx)
	if err != nil {
		return nil, err
	}

	out, _ := buf.Output()
	body, err := render.Encode(format, heading, out)
	if err != nil {
		return nil, err
	}
	return &Rendered{
		Body:        body,
		ContentType: format.ContentType(),
		ETag:        checksum.ETag(body),
		Format:      format,
		Result:      res,
	}, nil
}

// LookupPage resolves a raw page path to its tree entry.
func (s *Service) LookupPage(ctx context.Context, path string) (models.PageRef, error) {
	return autoindex.LookupPage(ctx, s.src, autoindex.NormalizePath(path))
}

// ListWidgets returns the registered widgets; empty when widgets are disabled.
func (s *Service) ListWidgets() []widgets.Info {
	if s.registry == nil {
		return []widgets.Info{}
	}
	return s.registry.List()
}

// RenderWidget re-renders a registered widget.
func (s *Service) RenderWidget(ctx context.Context, name string) (autoindex.Result, error) {
	if s.registry == nil {
		return autoindex.Result{}, fmt.Errorf("widget %s: %w", name, apperr.ErrNotFound)
	}
	return s.registry.Render(ctx, name)
}

// ListRenders returns render history newest first.
func (s *Service) ListRenders(widget string, limit, offset int) ([]renderlog.Entry, int, error) {
	if s.log == nil {
		return []renderlog.Entry{}, 0, nil
	}
	entries, total, err := s.log.List(widget, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []renderlog.Entry{}
	}
	return entries, total, nil
}
