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

type sessionService interface {
	CreateSession(ctx context.Context, input application.SessionInput) (application.Session, []application.Session, error)
	UpdateSession(ctx context.Context, id int64, input application.SessionInput) (application.Session, error)
	DeleteSession(ctx context.Context, id int64) error
	GetSession(ctx context.Context, id int64) (application.Session, error)
	ListSessionsForDate(ctx context.Context, date time.Time) ([]application.Session, error)
	ListSessionsForMonth(ctx context.Context, year int, month time.Month) ([]application.Session, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "title", req.Title)

	session, occurrences, err := h.service.CreateSession(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "session creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID, "occurrence_count", len(occurrences)).InfoContext(r.Context(), "session created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createSessionResponse{
		Session:     toSessionDTO(session),
		Occurrences: toSessionDTOs(occurrences),
	})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || sessionID < 1 {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "session_id", sessionID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Update", "session_id", sessionID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid session update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "session_id", sessionID)

	session, err := h.service.UpdateSession(r.Context(), sessionID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "session update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || sessionID < 1 {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	logger := h.log(r.Context(), "Delete", "session_id", sessionID)
	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		logger.ErrorContext(r.Context(), "session delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || sessionID < 1 {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	logger := h.log(r.Context(), "Get", "session_id", sessionID)

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session get failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

// List serves sessions for a single day via ?date=YYYY-MM-DD or a calendar
// month via ?month=YYYY-MM. The date form wins when both are present.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	var sessions []application.Session
	var err error
	switch {
	case strings.TrimSpace(r.URL.Query().Get("date")) != "":
		var date time.Time
		date, err = dateutil.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
			return
		}
		sessions, err = h.service.ListSessionsForDate(r.Context(), date)
	case strings.TrimSpace(r.URL.Query().Get("month")) != "":
		var month time.Time
		month, err = time.Parse("2006-01", strings.TrimSpace(r.URL.Query().Get("month")))
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonthParam)
			return
		}
		sessions, err = h.service.ListSessionsForMonth(r.Context(), month.Year(), month.Month())
	default:
		now := time.Now().UTC()
		sessions, err = h.service.ListSessionsForMonth(r.Context(), now.Year(), now.Month())
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(sessions)).InfoContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

type sessionRequest struct {
	Title            string `json:"title"`
	Type             string `json:"type"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Location         string `json:"location"`
	Notes            string `json:"notes"`
	IsRecurring      bool   `json:"is_recurring"`
	RecurringPattern string `json:"recurring_pattern"`
	RecurringEndDate string `json:"recurring_end_date"`
	Weekdays         []int  `json:"weekdays"`
	MaxOccurrences   int    `json:"max_occurrences"`
}

func (r sessionRequest) toInput() (application.SessionInput, error) {
	input := application.SessionInput{
		Title:            r.Title,
		Type:             r.Type,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Location:         r.Location,
		Notes:            r.Notes,
		IsRecurring:      r.IsRecurring,
		RecurringPattern: r.RecurringPattern,
		Weekdays:         r.Weekdays,
		MaxOccurrences:   r.MaxOccurrences,
	}
	if strings.TrimSpace(r.Date) != "" {
		date, err := dateutil.ParseDate(r.Date)
		if err != nil {
			return application.SessionInput{}, errInvalidDateParam
		}
		input.Date = date
	}
	if strings.TrimSpace(r.RecurringEndDate) != "" {
		end, err := dateutil.ParseDate(r.RecurringEndDate)
		if err != nil {
			return application.SessionInput{}, errInvalidDateParam
		}
		input.RecurringEndDate = &end
	}
	return input, nil
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type createSessionResponse struct {
	Session     sessionDTO   `json:"session"`
	Occurrences []sessionDTO `json:"occurrences,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Type             string `json:"type,omitempty"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	Location         string `json:"location,omitempty"`
	Notes            string `json:"notes,omitempty"`
	IsRecurring      bool   `json:"is_recurring"`
	RecurringPattern string `json:"recurring_pattern,omitempty"`
	RecurringEndDate string `json:"recurring_end_date,omitempty"`
	Weekdays         []int  `json:"weekdays,omitempty"`
	MaxOccurrences   int    `json:"max_occurrences,omitempty"`
	TemplateID       *int64 `json:"template_id,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

func toSessionDTO(session application.Session) sessionDTO {
	dto := sessionDTO{
		ID:               session.ID,
		Title:            session.Title,
		Type:             session.Type,
		Date:             dateutil.FormatDate(session.Date),
		StartTime:        session.StartTime,
		EndTime:          session.EndTime,
		Location:         session.Location,
		Notes:            session.Notes,
		IsRecurring:      session.IsRecurring,
		RecurringPattern: session.RecurringPattern,
		Weekdays:         session.Weekdays,
		MaxOccurrences:   session.MaxOccurrences,
		TemplateID:       session.TemplateID,
		CreatedAt:        session.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if session.RecurringEndDate != nil {
		dto.RecurringEndDate = dateutil.FormatDate(*session.RecurringEndDate)
	}
	return dto
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}
