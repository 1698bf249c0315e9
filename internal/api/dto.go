package api

import (
	"github.com/starford/autoindex/internal/autoindex"
	"github.com/starford/autoindex/internal/renderlog"
	"github.com/starford/autoindex/internal/widgets"
)

// WidgetListResponse wraps the widget listing.
type WidgetListResponse struct {
	Widgets []widgets.Info `json:"widgets" validate:"required"`
	Total   int            `json:"total" example:"3" validate:"required"`
}

// RenderListResponse wraps paginated render history.
type RenderListResponse struct {
	Renders []renderlog.Entry `json:"renders" validate:"required"`
	Total   int               `json:"total" example:"42" validate:"required"`
}

// RenderResponse reports the outcome of an on-demand render.
type RenderResponse struct {
	Widget     string `json:"widget" example:"docs/guide"`
	Status     string `json:"status" example:"ok"`
	Skipped    bool   `json:"skipped"`
	Path       string `json:"path,omitempty" example:"docs/guide"`
	Depth      int    `json:"depth,omitempty" example:"2"`
	Rows       int    `json:"rows"`
	Fetches    int    `json:"fetches"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func newRenderResponse(res autoindex.Result, err error) RenderResponse {
	out := RenderResponse{
		Widget:     res.Widget,
		Status:     res.Status(),
		Skipped:    res.Skipped,
		Path:       res.Path,
		Depth:      res.Depth,
		Rows:       res.Rows,
		Fetches:    res.Fetches,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}
