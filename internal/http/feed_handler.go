package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/swimteam-scheduler/internal/application"
	"github.com/example/swimteam-scheduler/internal/dateutil"
	"github.com/example/swimteam-scheduler/internal/ics"
)

type feedSessionLister interface {
	ListSessionsForRange(ctx context.Context, from, to time.Time) ([]application.Session, error)
}

// FeedHandler serves the subscribable iCalendar feed.
type FeedHandler struct {
	roster    rosterService
	rotation  rotationService
	sessions  feedSessionLister
	builder   *ics.Builder
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewFeedHandler(roster rosterService, rotation rotationService, sessions feedSessionLister, now func() time.Time, logger *slog.Logger) *FeedHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &FeedHandler{
		roster:    roster,
		rotation:  rotation,
		sessions:  sessions,
		builder:   ics.NewBuilder(now),
		now:       now,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *FeedHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FeedHandler", operation, attrs...)
}

// Calendar renders active duty windows and upcoming sessions as iCalendar.
// The session window spans one month back and one year ahead so subscribers
// keep recent history without unbounded growth.
func (h *FeedHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.roster == nil || h.rotation == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Calendar")

	members, err := h.roster.ListMembers(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "feed member load failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	assignments, err := h.rotation.ListAssignments(r.Context(), application.AssignmentQuery{ActiveOnly: true})
	if err != nil {
		logger.ErrorContext(r.Context(), "feed assignment load failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	today := dateutil.Midnight(h.now())
	sessions, err := h.sessions.ListSessionsForRange(r.Context(), dateutil.AddMonthsClamped(today, -1), dateutil.AddMonthsClamped(today, 12))
	if err != nil {
		logger.ErrorContext(r.Context(), "feed session load failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.builder.Write(&buf, members, assignments, sessions); err != nil {
		logger.ErrorContext(r.Context(), "feed rendering failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	logger.With("event_count", len(assignments)+len(sessions)).InfoContext(r.Context(), "feed rendered")
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="swimteam.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.ErrorContext(r.Context(), "failed to write feed response", "error", err)
	}
}
