package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/indexservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *indexservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *indexservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pagePath extracts the page location from the URL (everything after /api/index/).
// Supports encoded slashes (e.g. en%2Fdocs).
func pagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "/" + raw
	}
	return "/" + decoded
}

type indexQuery struct {
	Depth  string
	Format string
}

func (q indexQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Depth, validation.Length(0, 16)),
		validation.Field(&q.Format, validation.In("", "html", "HTML", "text", "txt", "json")),
	)
}

type pageQuery struct {
	Limit  int
	Offset int
}

func (q pageQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Limit, validation.Min(0), validation.Max(500)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

// GetIndex handles GET /api/index/*.
//
//	@Summary		Render the index below a page
//	@Tags			index
//	@Produce		html,plain,json
//	@Param			location	path		string	true	"Page the index is embedded in"
//	@Param			path		query		string	false	"Explicit root page path"
//	@Param			depth		query		string	false	"Levels to show"
//	@Param			format		query		string	false	"Output format"	Enums(html, text, json)
//	@Param			If-None-Match	header	string	false	"ETag of a previous response"
//	@Success		200
//	@Success		304
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/{location} [get]
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	iq := indexQuery{Depth: q.Get("depth"), Format: q.Get("format")}
	if err := iq.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	out, err := h.svc.RenderIndex(r.Context(), indexservice.IndexRequest{
		Location: pagePath(r),
		Path:     q.Get("path"),
		Depth:    iq.Depth,
		Format:   iq.Format,
	})
	if err != nil {
		writeServiceError(w, "render index", err)
		return
	}

	writeRendered(w, r, out)
}

// ListWidgets handles GET /api/widgets.
//
//	@Summary		List definition-backed widgets
//	@Tags			widgets
//	@Produce		json
//	@Success		200	{object}	WidgetListResponse
//	@Security		BearerAuth
//	@Router			/widgets [get]
func (h *Handler) ListWidgets(w http.ResponseWriter, _ *http.Request) {
	items := h.svc.ListWidgets()
	writeJSON(w, http.StatusOK, WidgetListResponse{Widgets: items, Total: len(items)})
}

// RenderWidget handles POST /api/widgets/{name}/render.
//
//	@Summary		Re-render a widget now
//	@Tags			widgets
//	@Produce		json
//	@Param			name	path		string	true	"Widget name"
//	@Success		200		{object}	RenderResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	RenderResponse
//	@Failure		502		{object}	RenderResponse
//	@Security		BearerAuth
//	@Router			/widgets/{name}/render [post]
func (h *Handler) RenderWidget(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	res, err := h.svc.RenderWidget(r.Context(), name)
	if err != nil && errors.Is(err, apperr.ErrNotFound) && res.Widget == "" {
		writeJSON(w, http.StatusNotFound, errorBody("widget not found"))
		return
	}
	// A render that fails still reports its result. A missing root page is
	// the widget's problem, not a missing route.
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		if status == http.StatusNotFound {
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, newRenderResponse(res, err))
}

// ListRenders handles GET /api/renders.
//
//	@Summary		Render history, newest first
//	@Tags			renders
//	@Produce		json
//	@Param			widget	query		string	false	"Filter by widget"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	RenderListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/renders [get]
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if err := (pageQuery{Limit: limit, Offset: offset}).Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	entries, total, err := h.svc.ListRenders(q.Get("widget"), limit, offset)
	if err != nil {
		slog.Error("list renders failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RenderListResponse{Renders: entries, Total: total})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		writeJSON(w, status, errorBody("page not found"))
	case http.StatusBadRequest:
		writeJSON(w, status, errorBody(err.Error()))
	case http.StatusBadGateway:
		slog.Warn(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("content tree unavailable"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
	}
}
