package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/swimteam-scheduler/internal/persistence"
)

type sessionRepoStub struct {
	createErr error
	created   Session
	nextID    int64

	insertErr error
	inserted  []Session

	getSession Session
	getErr     error

	updateErr error
	updated   Session

	deleteErr error
	deletedID int64

	list      []Session
	listErr   error
	listFrom  time.Time
	listTo    time.Time
	listCalls int
}

func (r *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if r.createErr != nil {
		return Session{}, r.createErr
	}
	r.nextID++
	session.ID = r.nextID
	r.created = session
	return session, nil
}

func (r *sessionRepoStub) InsertSessions(ctx context.Context, sessions []Session) ([]Session, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	out := make([]Session, len(sessions))
	copy(out, sessions)
	for i := range out {
		r.nextID++
		out[i].ID = r.nextID
	}
	r.inserted = append(r.inserted, out...)
	return out, nil
}

func (r *sessionRepoStub) GetSession(ctx context.Context, id int64) (Session, error) {
	if r.getErr != nil {
		return Session{}, r.getErr
	}
	if r.getSession.ID == 0 {
		return Session{}, persistence.ErrNotFound
	}
	return r.getSession, nil
}

func (r *sessionRepoStub) ListSessionsForRange(ctx context.Context, from, to time.Time) ([]Session, error) {
	r.listCalls++
	r.listFrom = from
	r.listTo = to
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Session, len(r.list))
	copy(out, r.list)
	return out, nil
}

func (r *sessionRepoStub) UpdateSession(ctx context.Context, session Session) (Session, error) {
	if r.updateErr != nil {
		return Session{}, r.updateErr
	}
	r.updated = session
	return session, nil
}

func (r *sessionRepoStub) DeleteSession(ctx context.Context, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSessionService_CreateSession(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewSessionService(&sessionRepoStub{}, fixedClock(now))

		_, _, err := svc.CreateSession(context.Background(), SessionInput{
			Title:     "  ",
			StartTime: "25:00",
			EndTime:   "bogus",
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "date", "startTime", "endTime"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("accepts a session carrying only a type", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, fixedClock(now))

		session, _, err := svc.CreateSession(context.Background(), SessionInput{
			Type: "practice",
			Date: date(2025, time.June, 2),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if session.Title != "" || session.Type != "practice" {
			t.Fatalf("unexpected session: title=%q type=%q", session.Title, session.Type)
		}
	})

	t.Run("rejects end times before start times", func(t *testing.T) {
		svc := NewSessionService(&sessionRepoStub{}, fixedClock(now))

		_, _, err := svc.CreateSession(context.Background(), SessionInput{
			Title:     "Sprint practice",
			Date:      date(2025, time.June, 2),
			StartTime: "18:00",
			EndTime:   "17:00",
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["endTime"]; !ok {
			t.Fatalf("expected endTime validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("persists one-off sessions without occurrences", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, fixedClock(now))

		session, occurrences, err := svc.CreateSession(context.Background(), SessionInput{
			Title:     "  Sprint practice  ",
			Type:      "training",
			Date:      time.Date(2025, time.June, 2, 15, 30, 0, 0, time.UTC),
			StartTime: "18:00",
			EndTime:   "19:30",
			Location:  "Main pool",
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(occurrences) != 0 {
			t.Fatalf("expected no occurrences, got %d", len(occurrences))
		}
		if session.Title != "Sprint practice" {
			t.Fatalf("expected trimmed title, got %q", session.Title)
		}
		if !session.Date.Equal(date(2025, time.June, 2)) {
			t.Fatalf("expected date normalized to midnight, got %v", session.Date)
		}
		if !repo.created.CreatedAt.Equal(now) {
			t.Fatalf("expected creation timestamp from injected clock, got %v", repo.created.CreatedAt)
		}
	})

	t.Run("expands daily templates into standalone copies", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, fixedClock(now))

		session, occurrences, err := svc.CreateSession(context.Background(), SessionInput{
			Title:            "Morning swim",
			Date:             date(2025, time.June, 2),
			StartTime:        "06:00",
			EndTime:          "07:00",
			IsRecurring:      true,
			RecurringPattern: "daily",
			MaxOccurrences:   3,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if len(occurrences) != 3 {
			t.Fatalf("expected 3 occurrences, got %d", len(occurrences))
		}
		expected := []time.Time{date(2025, time.June, 3), date(2025, time.June, 4), date(2025, time.June, 5)}
		for i, want := range expected {
			got := occurrences[i]
			if !got.Date.Equal(want) {
				t.Fatalf("occurrence %d expected %s, got %s", i, want, got.Date)
			}
			if got.IsRecurring || got.RecurringPattern != "" || got.RecurringEndDate != nil || got.Weekdays != nil || got.MaxOccurrences != 0 {
				t.Fatalf("occurrence %d expected recurrence fields cleared, got %+v", i, got)
			}
			if got.TemplateID == nil || *got.TemplateID != session.ID {
				t.Fatalf("occurrence %d expected template reference %d, got %v", i, session.ID, got.TemplateID)
			}
			if got.Title != "Morning swim" || got.StartTime != "06:00" || got.EndTime != "07:00" {
				t.Fatalf("occurrence %d expected template attributes copied, got %+v", i, got)
			}
		}
		if !session.IsRecurring || session.RecurringPattern != "daily" {
			t.Fatalf("expected template to keep its recurrence fields, got %+v", session)
		}
	})

	t.Run("expands weekday templates in week order", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, fixedClock(now))

		_, occurrences, err := svc.CreateSession(context.Background(), SessionInput{
			Title:            "Technique drills",
			Date:             date(2025, time.June, 2),
			IsRecurring:      true,
			RecurringPattern: "weekly_by_weekdays",
			Weekdays:         []int{1, 3},
			MaxOccurrences:   2,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if len(occurrences) != 2 {
			t.Fatalf("expected 2 occurrences, got %d", len(occurrences))
		}
		if !occurrences[0].Date.Equal(date(2025, time.June, 4)) {
			t.Fatalf("expected first occurrence on 2025-06-04, got %s", occurrences[0].Date)
		}
		if !occurrences[1].Date.Equal(date(2025, time.June, 9)) {
			t.Fatalf("expected second occurrence on 2025-06-09, got %s", occurrences[1].Date)
		}
	})

	t.Run("stores the template alone on unrecognized patterns", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, fixedClock(now))

		session, occurrences, err := svc.CreateSession(context.Background(), SessionInput{
			Title:            "Open water",
			Date:             date(2025, time.June, 2),
			IsRecurring:      true,
			RecurringPattern: "fortnightly-ish",
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(occurrences) != 0 {
			t.Fatalf("expected no occurrences, got %d", len(occurrences))
		}
		if session.ID == 0 {
			t.Fatalf("expected template to be persisted")
		}
		if len(repo.inserted) != 0 {
			t.Fatalf("expected no occurrence batch, got %d rows", len(repo.inserted))
		}
	})

	t.Run("maps repository failures", func(t *testing.T) {
		repo := &sessionRepoStub{createErr: persistence.ErrConstraintViolation}
		svc := NewSessionService(repo, fixedClock(now))

		_, _, err := svc.CreateSession(context.Background(), SessionInput{
			Title: "Sprint practice",
			Date:  date(2025, time.June, 2),
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestSessionService_UpdateSession(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	t.Run("returns ErrNotFound for missing sessions", func(t *testing.T) {
		svc := NewSessionService(&sessionRepoStub{}, fixedClock(now))

		_, err := svc.UpdateSession(context.Background(), 99, SessionInput{
			Title: "Sprint practice",
			Date:  date(2025, time.June, 2),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("preserves provenance and creation time", func(t *testing.T) {
		created := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
		templateID := int64(3)
		repo := &sessionRepoStub{getSession: Session{
			ID:         7,
			Title:      "Morning swim",
			Date:       date(2025, time.June, 3),
			TemplateID: &templateID,
			CreatedAt:  created,
		}}
		svc := NewSessionService(repo, fixedClock(now))

		updated, err := svc.UpdateSession(context.Background(), 7, SessionInput{
			Title: "Morning swim (coached)",
			Date:  date(2025, time.June, 3),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.Title != "Morning swim (coached)" {
			t.Fatalf("expected updated title, got %q", updated.Title)
		}
		if updated.TemplateID == nil || *updated.TemplateID != templateID {
			t.Fatalf("expected template reference to survive updates, got %v", updated.TemplateID)
		}
		if !updated.CreatedAt.Equal(created) {
			t.Fatalf("expected creation timestamp to survive updates, got %v", updated.CreatedAt)
		}
		if !updated.UpdatedAt.Equal(now) {
			t.Fatalf("expected update timestamp from injected clock, got %v", updated.UpdatedAt)
		}
	})
}

func TestSessionService_DeleteSession(t *testing.T) {
	t.Run("propagates ErrNotFound", func(t *testing.T) {
		repo := &sessionRepoStub{deleteErr: persistence.ErrNotFound}
		svc := NewSessionService(repo, nil)

		if err := svc.DeleteSession(context.Background(), 5); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deletes sessions", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, nil)

		if err := svc.DeleteSession(context.Background(), 5); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != 5 {
			t.Fatalf("expected repository to receive ID 5, got %d", repo.deletedID)
		}
	})
}

func TestSessionService_Listing(t *testing.T) {
	t.Run("queries a single day for date listings", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, nil)

		if _, err := svc.ListSessionsForDate(context.Background(), time.Date(2025, time.June, 3, 18, 0, 0, 0, time.UTC)); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !repo.listFrom.Equal(date(2025, time.June, 3)) || !repo.listTo.Equal(date(2025, time.June, 3)) {
			t.Fatalf("expected single day range, got %s..%s", repo.listFrom, repo.listTo)
		}
	})

	t.Run("queries full calendar months", func(t *testing.T) {
		repo := &sessionRepoStub{}
		svc := NewSessionService(repo, nil)

		if _, err := svc.ListSessionsForMonth(context.Background(), 2024, time.February); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !repo.listFrom.Equal(date(2024, time.February, 1)) || !repo.listTo.Equal(date(2024, time.February, 29)) {
			t.Fatalf("expected leap February range, got %s..%s", repo.listFrom, repo.listTo)
		}
	})
}
