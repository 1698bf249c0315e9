package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/autoindex/internal/indexservice"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: json encode failed", slog.String("error", err.Error()))
	}
}

// writeRendered writes an encoded index, answering 304 when the client
// already holds the same ETag.
func writeRendered(w http.ResponseWriter, r *http.Request, out *indexservice.Rendered) {
	w.Header().Set("ETag", out.ETag)
	if etagMatches(r.Header.Get("If-None-Match"), out.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("X-Index-Rows", strconv.Itoa(out.Result.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Body); err != nil {
		slog.Debug("api: write index body", slog.String("error", err.Error()))
	}
}

// etagMatches reports whether an If-None-Match header value matches etag
// using weak comparison. The header may list several tags or be "*".
func etagMatches(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		if tag != "" && strings.TrimPrefix(tag, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
