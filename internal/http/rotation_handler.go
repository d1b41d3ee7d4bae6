package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/swimteam-scheduler/internal/application"
	"github.com/example/swimteam-scheduler/internal/dateutil"
)

type rotationService interface {
	Generate(ctx context.Context, params application.GenerateParams) ([]application.Assignment, error)
	SetFromDate(ctx context.Context, params application.SetFromDateParams) ([]application.Assignment, error)
	LeaderOn(ctx context.Context, date time.Time) (application.Leader, error)
	ListAssignments(ctx context.Context, query application.AssignmentQuery) ([]application.Assignment, error)
}

type RotationHandler struct {
	service   rotationService
	responder responder
	logger    *slog.Logger
}

func NewRotationHandler(service rotationService, logger *slog.Logger) *RotationHandler {
	base := defaultLogger(logger)
	return &RotationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RotationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RotationHandler", operation, attrs...)
}

func (h *RotationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Generate", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode generation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params, err := req.toParams()
	if err != nil {
		h.log(r.Context(), "Generate", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid generation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Generate", "start_date", req.StartDate)

	assignments, err := h.service.Generate(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "rotation generation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("assignment_count", len(assignments)).InfoContext(r.Context(), "rotation generated")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listAssignmentsResponse{Assignments: toAssignmentDTOs(assignments)})
}

func (h *RotationHandler) SetFromDate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req setFromDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetFromDate", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode re-anchor request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params, err := req.toParams()
	if err != nil {
		h.log(r.Context(), "SetFromDate", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid re-anchor request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "SetFromDate", "date", req.Date, "member_id", req.MemberID)

	assignments, err := h.service.SetFromDate(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "rotation re-anchor failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("assignment_count", len(assignments)).InfoContext(r.Context(), "rotation re-anchored")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listAssignmentsResponse{Assignments: toAssignmentDTOs(assignments)})
}

func (h *RotationHandler) Leader(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	dateValue := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateValue == "" {
		dateValue = dateutil.FormatDate(time.Now().UTC())
	}
	date, err := dateutil.ParseDate(dateValue)
	if err != nil {
		h.log(r.Context(), "Leader", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid leader date", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
		return
	}

	logger := h.log(r.Context(), "Leader", "date", dateValue)

	leader, err := h.service.LeaderOn(r.Context(), date)
	if err != nil {
		logger.ErrorContext(r.Context(), "leader lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("member_id", leader.Member.ID).InfoContext(r.Context(), "leader resolved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leaderResponse{
		Date:       dateValue,
		Member:     toMemberDTO(leader.Member),
		Assignment: toAssignmentDTO(leader.Assignment),
	})
}

func (h *RotationHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := application.AssignmentQuery{ActiveOnly: true}
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("include_inactive")), "true") {
		query.ActiveOnly = false
	}
	for param, target := range map[string]**time.Time{"from": &query.From, "to": &query.To} {
		value := strings.TrimSpace(r.URL.Query().Get(param))
		if value == "" {
			continue
		}
		date, err := dateutil.ParseDate(value)
		if err != nil {
			h.log(r.Context(), "ListAssignments", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid assignment range", "param", param, "error", err)
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
			return
		}
		*target = &date
	}

	logger := h.log(r.Context(), "ListAssignments")

	assignments, err := h.service.ListAssignments(r.Context(), query)
	if err != nil {
		logger.ErrorContext(r.Context(), "assignment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(assignments)).InfoContext(r.Context(), "assignments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAssignmentsResponse{Assignments: toAssignmentDTOs(assignments)})
}

type generateRequest struct {
	StartDate  string `json:"start_date"`
	WindowDays int    `json:"window_days"`
	HorizonEnd string `json:"horizon_end"`
}

func (r generateRequest) toParams() (application.GenerateParams, error) {
	params := application.GenerateParams{WindowDays: r.WindowDays}
	if strings.TrimSpace(r.StartDate) != "" {
		start, err := dateutil.ParseDate(r.StartDate)
		if err != nil {
			return application.GenerateParams{}, errInvalidDateParam
		}
		params.StartDate = start
	}
	if strings.TrimSpace(r.HorizonEnd) != "" {
		horizon, err := dateutil.ParseDate(r.HorizonEnd)
		if err != nil {
			return application.GenerateParams{}, errInvalidDateParam
		}
		params.HorizonEnd = horizon
	}
	return params, nil
}

type setFromDateRequest struct {
	Date       string `json:"date"`
	MemberID   int64  `json:"member_id"`
	WindowDays int    `json:"window_days"`
	HorizonEnd string `json:"horizon_end"`
}

func (r setFromDateRequest) toParams() (application.SetFromDateParams, error) {
	params := application.SetFromDateParams{MemberID: r.MemberID, WindowDays: r.WindowDays}
	if strings.TrimSpace(r.Date) != "" {
		date, err := dateutil.ParseDate(r.Date)
		if err != nil {
			return application.SetFromDateParams{}, errInvalidDateParam
		}
		params.Date = date
	}
	if strings.TrimSpace(r.HorizonEnd) != "" {
		horizon, err := dateutil.ParseDate(r.HorizonEnd)
		if err != nil {
			return application.SetFromDateParams{}, errInvalidDateParam
		}
		params.HorizonEnd = horizon
	}
	return params, nil
}

type leaderResponse struct {
	Date       string        `json:"date"`
	Member     memberDTO     `json:"member"`
	Assignment assignmentDTO `json:"assignment"`
}

type listAssignmentsResponse struct {
	Assignments []assignmentDTO `json:"assignments"`
}

type assignmentDTO struct {
	ID        int64  `json:"id"`
	MemberID  int64  `json:"member_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
}

func toAssignmentDTO(assignment application.Assignment) assignmentDTO {
	return assignmentDTO{
		ID:        assignment.ID,
		MemberID:  assignment.MemberID,
		StartDate: dateutil.FormatDate(assignment.StartDate),
		EndDate:   dateutil.FormatDate(assignment.EndDate),
		IsActive:  assignment.IsActive,
	}
}

func toAssignmentDTOs(assignments []application.Assignment) []assignmentDTO {
	if len(assignments) == 0 {
		return nil
	}
	out := make([]assignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		out = append(out, toAssignmentDTO(assignment))
	}
	return out
}
