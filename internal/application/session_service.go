package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
	"github.com/example/swimteam-scheduler/internal/persistence"
	"github.com/example/swimteam-scheduler/internal/recurrence"
)

// SessionRepository captures the persistence operations needed by the session
// service.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	InsertSessions(ctx context.Context, sessions []Session) ([]Session, error)
	GetSession(ctx context.Context, id int64) (Session, error)
	ListSessionsForRange(ctx context.Context, from, to time.Time) ([]Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id int64) error
}

// SessionService manages training sessions and expands recurring templates
// into standalone occurrences at creation time.
type SessionService struct {
	sessions SessionRepository
	expander *recurrence.Expander
	now      func() time.Time
	logger   *slog.Logger
}

// NewSessionService constructs a session service with the provided
// dependencies.
func NewSessionService(sessions SessionRepository, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, now, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified
// logger.
func NewSessionServiceWithLogger(sessions SessionRepository, now func() time.Time, logger *slog.Logger) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions: sessions,
		expander: recurrence.NewExpander(now),
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// CreateSession validates input and persists the session. Recurring sessions
// additionally get their occurrences expanded and stored as standalone
// copies; an unrecognized recurrence pattern stores the template alone.
func (s *SessionService) CreateSession(ctx context.Context, input SessionInput) (session Session, occurrences []Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSession", "title", input.Title, "recurring", input.IsRecurring)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID, "occurrence_count", len(occurrences)).InfoContext(ctx, "session created")
	}()

	vErr := validateSessionInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	session = sessionFromInput(input, now)
	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}

	if !session.IsRecurring {
		return
	}

	dates, expandErr := s.expander.Expand(session.Date, ruleFromSession(session))
	if expandErr != nil {
		if errors.Is(expandErr, recurrence.ErrInvalidPattern) {
			logger.WarnContext(ctx, "unrecognized recurrence pattern, no occurrences generated", "pattern", session.RecurringPattern)
			return
		}
		err = expandErr
		return
	}
	if len(dates) == 0 {
		return
	}

	copies := make([]Session, 0, len(dates))
	for _, date := range dates {
		copies = append(copies, occurrenceFromTemplate(session, date, now))
	}
	occurrences, err = s.sessions.InsertSessions(ctx, copies)
	if err != nil {
		err = mapSessionRepoError(err)
	}
	return
}

// UpdateSession validates input and updates an existing session. Occurrences
// already materialized from a template are not regenerated.
func (s *SessionService) UpdateSession(ctx context.Context, id int64, input SessionInput) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSession", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session updated")
	}()

	vErr := validateSessionInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}

	updated := sessionFromInput(input, s.now())
	updated.ID = existing.ID
	updated.TemplateID = existing.TemplateID
	updated.CreatedAt = existing.CreatedAt

	session, err = s.sessions.UpdateSession(ctx, updated)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}
	return
}

// DeleteSession removes a session. Deleting a recurring template leaves its
// materialized occurrences in place.
func (s *SessionService) DeleteSession(ctx context.Context, id int64) (err error) {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSession", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session deleted")
	}()

	if err = s.sessions.DeleteSession(ctx, id); err != nil {
		err = mapSessionRepoError(err)
	}
	return
}

// GetSession retrieves a single session.
func (s *SessionService) GetSession(ctx context.Context, id int64) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, fmt.Errorf("session repository not configured")
	}
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return Session{}, mapSessionRepoError(err)
	}
	return session, nil
}

// ListSessionsForDate returns all sessions scheduled on the given day.
func (s *SessionService) ListSessionsForDate(ctx context.Context, date time.Time) ([]Session, error) {
	if s == nil || s.sessions == nil {
		return nil, fmt.Errorf("session repository not configured")
	}
	day := dateutil.Midnight(date)
	sessions, err := s.sessions.ListSessionsForRange(ctx, day, day)
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	return sessions, nil
}

// ListSessionsForMonth returns all sessions scheduled within the given month.
func (s *SessionService) ListSessionsForMonth(ctx context.Context, year int, month time.Month) ([]Session, error) {
	if s == nil || s.sessions == nil {
		return nil, fmt.Errorf("session repository not configured")
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := s.sessions.ListSessionsForRange(ctx, first, dateutil.EndOfMonth(first))
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	return sessions, nil
}

// ListSessionsForRange returns all sessions within the inclusive date range.
func (s *SessionService) ListSessionsForRange(ctx context.Context, from, to time.Time) ([]Session, error) {
	if s == nil || s.sessions == nil {
		return nil, fmt.Errorf("session repository not configured")
	}
	sessions, err := s.sessions.ListSessionsForRange(ctx, dateutil.Midnight(from), dateutil.Midnight(to))
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	return sessions, nil
}

func sessionFromInput(input SessionInput, now time.Time) Session {
	session := Session{
		Title:     strings.TrimSpace(input.Title),
		Type:      strings.TrimSpace(input.Type),
		Date:      dateutil.Midnight(input.Date),
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Location:  strings.TrimSpace(input.Location),
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.IsRecurring {
		session.IsRecurring = true
		session.RecurringPattern = input.RecurringPattern
		session.MaxOccurrences = input.MaxOccurrences
		if input.RecurringEndDate != nil {
			end := dateutil.Midnight(*input.RecurringEndDate)
			session.RecurringEndDate = &end
		}
		if len(input.Weekdays) > 0 {
			session.Weekdays = append([]int(nil), input.Weekdays...)
		}
	}
	return session
}

// occurrenceFromTemplate copies the template onto a concrete date with every
// recurrence field cleared, so the copy behaves like a one-off session.
func occurrenceFromTemplate(template Session, date time.Time, now time.Time) Session {
	templateID := template.ID
	return Session{
		Title:      template.Title,
		Type:       template.Type,
		Date:       date,
		StartTime:  template.StartTime,
		EndTime:    template.EndTime,
		Location:   template.Location,
		Notes:      template.Notes,
		TemplateID: &templateID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func ruleFromSession(session Session) recurrence.Rule {
	rule := recurrence.Rule{
		Pattern:        recurrence.Pattern(session.RecurringPattern),
		EndDate:        session.RecurringEndDate,
		MaxOccurrences: session.MaxOccurrences,
	}
	for _, wd := range session.Weekdays {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(wd))
	}
	return rule
}

func validateSessionInput(input SessionInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" && strings.TrimSpace(input.Type) == "" {
		vErr.add("title", "either a title or a session type is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if input.StartTime != "" && !validTimeOfDay(input.StartTime) {
		vErr.add("startTime", "start time must use the HH:MM format")
	}
	if input.EndTime != "" && !validTimeOfDay(input.EndTime) {
		vErr.add("endTime", "end time must use the HH:MM format")
	}
	if validTimeOfDay(input.StartTime) && validTimeOfDay(input.EndTime) && input.EndTime <= input.StartTime {
		vErr.add("endTime", "end time must be after start time")
	}
	if input.IsRecurring {
		if strings.TrimSpace(input.RecurringPattern) == "" {
			vErr.add("recurringPattern", "recurring sessions require a pattern")
		}
		if input.MaxOccurrences < 0 {
			vErr.add("maxOccurrences", "max occurrences must not be negative")
		}
	}
	return vErr
}

func validTimeOfDay(value string) bool {
	if value == "" {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil
}

func mapSessionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("session", "session fields violate a constraint")
		return vErr
	}
	return err
}
