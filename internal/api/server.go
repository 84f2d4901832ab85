// Package api serves the organizer over HTTP. Scans and organize batches run
// in the background; clients poll their status endpoints.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fo-go/internal/app"
	"fo-go/internal/fo"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// Server routes HTTP requests to an FOApp.
type Server struct {
	router chi.Router
	app    *app.FOApp
	logger fo.Logger
}

// NewServer builds the router for a.
func NewServer(a *app.FOApp) *Server {
	s := &Server{
		router: chi.NewRouter(),
		app:    a,
		logger: a.Logger(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Get("/scan/status", s.handleScanStatus)

		r.Post("/organize", s.handleOrganize)
		r.Get("/organize/status", s.handleOrganizeStatus)
		r.Get("/organize/preview", s.handleOrganizePreview)

		r.Post("/cancel", s.handleCancel)

		r.Get("/duplicates", s.handleDuplicates)
		r.Post("/duplicates/mark", s.handleMarkDuplicates)
		r.Get("/duplicates/stats", s.handleDuplicateStats)

		r.Get("/files", s.handleFiles)
		r.Get("/files/{id}", s.handleFile)
		r.Post("/files/{id}/rescan", s.handleRescan)
		r.Post("/files/retry", s.handleRetry)
		r.Get("/stats", s.handleStats)

		r.Get("/operations", s.handleOperations)
		r.Get("/operations/{id}/can-revert", s.handleCanRevert)
		r.Post("/operations/{id}/revert", s.handleRevertOperation)

		r.Get("/batches/{batchID}", s.handleBatch)
		r.Get("/batches/{batchID}/revert-preview", s.handleBatchRevertPreview)
		r.Post("/batches/{batchID}/revert", s.handleRevertBatch)

		r.Get("/errors", s.handleErrors)
	})
}

type scanRequest struct {
	Path      string `json:"path"`
	Recursive *bool  `json:"recursive,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("path required"))
		return
	}
	recursive := req.Recursive == nil || *req.Recursive

	id, err := s.app.StartScan(req.Path, recursive)
	if err != nil {
		s.writeError(w, startStatus(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": id})
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.ScanStatus()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type organizeRequest struct {
	Destination string  `json:"destination"`
	DryRun      bool    `json:"dry_run"`
	FileIDs     []int64 `json:"file_ids,omitempty"`
}

func (s *Server) handleOrganize(w http.ResponseWriter, r *http.Request) {
	var req organizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.app.StartOrganize(app.OrganizeRequest{
		Destination: req.Destination,
		DryRun:      req.DryRun,
		FileIDs:     req.FileIDs,
	})
	if err != nil {
		s.writeError(w, startStatus(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"batch_id": id})
}

func (s *Server) handleOrganizeStatus(w http.ResponseWriter, r *http.Request) {
	status := s.app.OrganizeStatus()
	if status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleOrganizePreview(w http.ResponseWriter, r *http.Request) {
	dest := r.URL.Query().Get("destination")
	if dest == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("destination required"))
		return
	}
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.app.Preview(dest, ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": s.app.CancelActive()})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := s.app.FindDuplicateGroups()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": newDuplicateGroupViews(groups)})
}

func (s *Server) handleMarkDuplicates(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.MarkDuplicates(r.Context())
	if err != nil {
		s.writeError(w, startStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDuplicateStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.DuplicateStats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid offset %q", raw))
			return
		}
	}

	page, err := s.app.ListFiles(fo.FileQuery{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files":  newFileViews(page.Files),
		"total":  page.Total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	h, err := s.app.GetFileHistory(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if h == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("file %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":       newFileView(h.File),
		"operations": newOperationViews(h.Operations),
		"errors":     newErrorViews(h.Errors),
	})
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	f, err := s.app.GetFile(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if f == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("file %d not found", id))
		return
	}
	updated, err := s.app.Rescan(r.Context(), id)
	if err != nil {
		s.writeError(w, startStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newFileView(updated))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.RetryErrored(r.Context())
	if err != nil {
		s.writeError(w, startStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"requeued": n})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.CatalogStats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ops, err := s.app.GetHistory(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": newOperationViews(ops)})
}

func (s *Server) handleCanRevert(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	check, err := s.app.CanRevert(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if check == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("operation %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (s *Server) handleRevertOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	op, err := s.app.GetOperation(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if op == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("operation %d not found", id))
		return
	}
	res, err := s.app.RevertOperation(r.Context(), id)
	if err != nil {
		s.writeError(w, revertStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	ops, err := s.app.GetBatch(batchID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(ops) == 0 {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("batch %s not found", batchID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batch_id": batchID, "operations": newOperationViews(ops)})
}

func (s *Server) handleBatchRevertPreview(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	checks, err := s.app.PreviewBatchRevert(batchID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batch_id": batchID, "checks": checks})
}

func (s *Server) handleRevertBatch(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.RevertBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		s.writeError(w, startStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	errs, err := s.app.ListErrors(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"errors": newErrorViews(errs)})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// startStatus maps errors from starting an operation: a busy guard is a
// conflict, anything else a bad request.
func startStatus(err error) int {
	if errors.Is(err, app.ErrOperationActive) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func revertStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrOperationActive),
		errors.Is(err, fo.ErrAlreadyReverted),
		errors.Is(err, fo.ErrOriginalOccupied),
		errors.Is(err, fo.ErrContentModified),
		errors.Is(err, fo.ErrFileMissing):
		return http.StatusConflict
	case errors.Is(err, fo.ErrNotMoveOperation),
		errors.Is(err, fo.ErrDryRunOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
