package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hakwon-hub/academy-insight-hub/internal/application/command"
	"github.com/hakwon-hub/academy-insight-hub/internal/application/query"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS
// ══════════════════════════════════════════════════════════════════════════════

type healthResponse struct {
	Status    string         `json:"status"`
	UptimeSec int64          `json:"uptime_seconds"`
	Database  databaseHealth `json:"database"`
	Cache     cacheHealth    `json:"cache"`
}

type databaseHealth struct {
	Healthy       bool  `json:"healthy"`
	PingLatencyMs int64 `json:"ping_latency_ms"`
	TotalConns    int32 `json:"total_conns"`
	SnapshotRows  int64 `json:"snapshot_rows"`
}

type cacheHealth struct {
	Healthy bool `json:"healthy"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		UptimeSec: int64(s.Uptime().Seconds()),
	}

	if s.deps.DB != nil {
		status, err := s.deps.DB.Health(r.Context())
		if err != nil {
			resp.Status = "degraded"
		} else {
			resp.Database = databaseHealth{
				Healthy:       status.Healthy,
				PingLatencyMs: status.PingLatency.Milliseconds(),
				TotalConns:    status.TotalConns,
				SnapshotRows:  status.SnapshotRows,
			}
			if !status.Healthy {
				resp.Status = "degraded"
			}
		}
	}

	// A Redis outage degrades performance, not availability.
	if s.deps.Cache != nil {
		resp.Cache.Healthy = s.deps.Cache.Ping(r.Context()) == nil
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", "Database is unreachable")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// RISK ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type watchlistRequest struct {
	WindowDays int    `validate:"gte=0,lte=365"`
	TopK       int    `validate:"gte=0,lte=100"`
	TeacherID  string `validate:"omitempty,uuid"`
}

// handleGetWatchlist returns the per-teacher at-risk watchlists.
//
// GET /api/v1/risk/watchlist?window_days=30&top_k=5&teacher_id=...
func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	req := watchlistRequest{
		WindowDays: queryParamInt(r, "window_days", 0),
		TopK:       queryParamInt(r, "top_k", 0),
		TeacherID:  r.URL.Query().Get("teacher_id"),
	}
	if !s.validRequest(w, r, req) {
		return
	}

	result, err := s.deps.GetWatchlistHandler.Handle(r.Context(), query.GetWatchlistQuery{
		WindowDays: req.WindowDays,
		TopK:       req.TopK,
		TeacherID:  req.TeacherID,
	})
	if err != nil {
		s.writeHandlerError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

type studentAssessmentRequest struct {
	StudentID  string `validate:"required,uuid"`
	WindowDays int    `validate:"gte=0,lte=365"`
}

// handleGetStudentAssessment returns the live assessment for one student.
//
// GET /api/v1/risk/students/{id}?window_days=30
func (s *Server) handleGetStudentAssessment(w http.ResponseWriter, r *http.Request) {
	req := studentAssessmentRequest{
		StudentID:  chi.URLParam(r, "id"),
		WindowDays: queryParamInt(r, "window_days", 0),
	}
	if !s.validRequest(w, r, req) {
		return
	}

	result, err := s.deps.GetStudentAssessmentHandler.Handle(r.Context(), query.GetStudentAssessmentQuery{
		StudentID:  req.StudentID,
		WindowDays: req.WindowDays,
	})
	if err != nil {
		s.writeHandlerError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

type studentHistoryRequest struct {
	StudentID string `validate:"required,uuid"`
	Months    int    `validate:"gte=0,lte=60"`
}

// handleGetStudentHistory returns a student's snapshot trail, newest first.
//
// GET /api/v1/risk/students/{id}/history?months=12
func (s *Server) handleGetStudentHistory(w http.ResponseWriter, r *http.Request) {
	req := studentHistoryRequest{
		StudentID: chi.URLParam(r, "id"),
		Months:    queryParamInt(r, "months", 0),
	}
	if !s.validRequest(w, r, req) {
		return
	}

	result, err := s.deps.GetStudentHistoryHandler.Handle(r.Context(), query.GetStudentHistoryQuery{
		StudentID: req.StudentID,
		Months:    req.Months,
	})
	if err != nil {
		s.writeHandlerError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleGetMonthSnapshots returns the persisted snapshot set for a month,
// with the transition trend against the previous month when available.
//
// GET /api/v1/risk/snapshots/{year}/{month}
func (s *Server) handleGetMonthSnapshots(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_month", "Year and month must be numeric")
		return
	}

	result, err := s.deps.GetMonthSnapshotsHandler.Handle(r.Context(), query.GetMonthSnapshotsQuery{
		Year:  year,
		Month: month,
	})
	if err != nil {
		s.writeHandlerError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

type saveSnapshotRequest struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

// handleSaveSnapshot persists the snapshot set for the requested month,
// replacing any prior set for that month. Operator-only.
//
// POST /api/v1/risk/snapshots {"year": 2026, "month": 7}
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req saveSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	if !s.validRequest(w, r, req) {
		return
	}

	s.logger.Info("manual snapshot requested",
		logger.SnapshotMonth(fmt.Sprintf("%04d-%02d", req.Year, req.Month)),
		logger.String("request_id", getRequestID(r.Context())))

	result, err := s.deps.SaveSnapshotHandler.Handle(r.Context(), command.SaveSnapshotCommand{
		Year:  req.Year,
		Month: req.Month,
	})
	if err != nil {
		s.writeHandlerError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// FUNNEL ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type funnelRequest struct {
	TrailingMonths int `validate:"gte=0,lte=60"`
}

// handleGetFunnel returns the enrollment funnel grouped by first-contact
// cohort month and lead source.
//
// GET /api/v1/funnel/cohorts?trailing_months=12
func (s *Server) handleGetFunnel(w http.ResponseWriter, r *http.Request) {
	req := funnelRequest{
		TrailingMonths: queryParamInt(r, "trailing_months", 0),
	}
	if !s.validRequest(w, r, req) {
		return
	}

	result, err := s.deps.GetFunnelHandler.Handle(r.Context(), query.GetFunnelQuery{
		TrailingMonths: req.TrailingMonths,
	})
	if err != nil {
		s.writeHandlerError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// validRequest validates the request struct and writes a 400 on failure.
func (s *Server) validRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	err := s.validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_parameter",
			fmt.Sprintf("Parameter %q failed validation rule %q", verrs[0].Field(), verrs[0].Tag()))
		return false
	}

	writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request failed validation")
	return false
}

// writeHandlerError maps application errors onto HTTP statuses.
func (s *Server) writeHandlerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		writeJSONError(w, r, http.StatusConflict, "conflict", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsStorage(err):
		writeJSONError(w, r, http.StatusServiceUnavailable, "storage_unavailable", "Storage is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, r, http.StatusGatewayTimeout, "timeout", "Request timed out")
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

// queryParamInt extracts an integer query parameter with a default value.
func queryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
