package widgets

import (
	"context"
	"log/slog"

	"github.com/starford/autoindex/internal/autoindex"
	"github.com/starford/autoindex/internal/checksum"
	"github.com/starford/autoindex/internal/render"
	"github.com/starford/autoindex/internal/renderlog"
	"github.com/starford/autoindex/internal/sse"
)

// Recorder persists render results to the render log and announces them on
// the SSE broker. Either destination may be nil.
type Recorder struct {
	log    renderlog.Log
	broker *sse.Broker
	logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(log renderlog.Log, broker *sse.Broker, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: log, broker: broker, logger: logger}
}

// Observer returns an autoindex.Observer that checksums output rendered
// under heading.
func (r *Recorder) Observer(heading string) autoindex.Observer {
	return func(ctx context.Context, res autoindex.Result) {
		r.Observe(ctx, heading, res)
	}
}

// Observe records one result. Skipped passes are ignored.
func (r *Recorder) Observe(_ context.Context, heading string, res autoindex.Result) {
	if r == nil || res.Skipped {
		return
	}
	e := EntryFor(res)
	if res.Err == nil {
		if out, err := render.HTML(heading, res.Output); err == nil {
			e.Checksum = checksum.Sum(out)
		}
	}

	if r.log != nil {
		if _, err := r.log.Record(e); err != nil {
			r.logger.Warn("renderlog: record failed",
				slog.String("widget", res.Widget),
				slog.String("error", err.Error()))
		}
	}
	if r.broker != nil {
		r.broker.PublishRender(sse.RenderEvent{
			Widget: e.Widget,
			Path:   e.Path,
			Status: e.Status,
			Rows:   e.Rows,
			Error:  e.Error,
		})
	}
}

// EntryFor converts a render result to a render log entry.
func EntryFor(res autoindex.Result) renderlog.Entry {
	e := renderlog.Entry{
		Widget:    res.Widget,
		Path:      res.Path,
		RootID:    res.RootID,
		Depth:     res.Depth,
		Rows:      res.Rows,
		Fetches:   res.Fetches,
		Status:    res.Status(),
		StartedAt: res.Started,
		Duration:  res.Duration,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	return e
}
