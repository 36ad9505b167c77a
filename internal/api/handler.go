// Package api provides the HTTP handlers that form the thin controller
// surface over the job manager: submit, poll, cancel, acknowledge/abandon,
// export, and a synchronous count preview.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"placequery/internal/domain"
	"placequery/internal/export"
	"placequery/internal/job"
	"placequery/internal/sqlbuild"
)

// CountEngine is the slice of the engine the handlers use directly, outside
// the job manager: synchronous count previews and health probes.
type CountEngine interface {
	Count(ctx context.Context, query string) (int64, error)
	Version(ctx context.Context) string
	BoundRelease() string
}

// Handler serves the placequery HTTP API.
type Handler struct {
	manager   *job.Manager
	engine    CountEngine
	logger    *slog.Logger
	startTime time.Time
}

// NewHandler creates a Handler over the job manager and engine.
func NewHandler(manager *job.Manager, eng CountEngine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{manager: manager, engine: eng, logger: logger, startTime: time.Now()}
}

// submitRequest is the wire shape of a job submission: the FilterSpec plus an
// optional dataset release override.
type submitRequest struct {
	domain.FilterSpec
	Release string `json:"release,omitempty"`
}

// SubmitJob handles POST /api/v1/jobs.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	snap, err := h.manager.Start(req.FilterSpec, req.Release)
	if err != nil {
		h.logger.Warn("job submission rejected", "error", err)
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

// CurrentJob handles GET /api/v1/jobs/current. This is the poll endpoint; a
// terminal state in the snapshot is final, a status text alone is not.
func (h *Handler) CurrentJob(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Snapshot())
}

// CancelJob handles POST /api/v1/jobs/current/cancel.
func (h *Handler) CancelJob(w http.ResponseWriter, _ *http.Request) {
	if err := h.manager.Cancel(); err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, h.manager.Snapshot())
}

// ReleaseJob handles DELETE /api/v1/jobs/current: acknowledge a terminal
// outcome, or force-abandon a cancelled worker whose grace period expired.
func (h *Handler) ReleaseJob(w http.ResponseWriter, _ *http.Request) {
	err := h.manager.Acknowledge()
	if err == job.ErrNotTerminal {
		err = h.manager.Abandon()
	}
	if err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportResult handles GET /api/v1/jobs/current/export?format=...
func (h *Handler) ExportResult(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}
	result, err := h.manager.Result()
	if err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}

	encoder, err := export.For(format)
	if err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}
	data, err := encoder.Encode(result)
	if err != nil {
		h.logger.Error("export encoding failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed: "+err.Error())
		return
	}

	filename := fmt.Sprintf("places-%s.%s", time.Now().Format("20060102-150405"), encoder.Extension())
	w.Header().Set("Content-Type", encoder.MediaType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PreviewCount handles POST /api/v1/preview/count: an exact count bounded by
// the request context, never truncated by a limit.
func (h *Handler) PreviewCount(w http.ResponseWriter, r *http.Request) {
	var spec domain.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}

	count, err := h.engine.Count(r.Context(), sqlbuild.BuildCount(spec))
	if err != nil {
		h.logger.Error("count preview failed", "error", err)
		writeError(w, http.StatusBadGateway, "count query failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": count})
}

// CompileQuery handles POST /api/v1/compile: returns the compiled SQL for
// diagnostic display without executing anything.
func (h *Handler) CompileQuery(w http.ResponseWriter, r *http.Request) {
	var spec domain.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query": sqlbuild.Build(spec),
		"count": sqlbuild.BuildCount(spec),
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"duckdb_version": h.engine.Version(r.Context()),
		"bound_release":  h.engine.BoundRelease(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"code": status, "message": message})
}
