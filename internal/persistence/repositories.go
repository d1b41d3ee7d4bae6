package persistence

import (
	"context"
	"time"
)

// MemberRepository exposes CRUD operations for roster members.
type MemberRepository interface {
	CreateMember(ctx context.Context, member Member) (Member, error)
	UpdateMember(ctx context.Context, member Member) (Member, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	// ListMembers returns members in rotation order: position ascending, ID
	// ascending for ties.
	ListMembers(ctx context.Context) ([]Member, error)
	DeleteMember(ctx context.Context, id int64) error
}

// AssignmentFilter narrows assignment queries.
type AssignmentFilter struct {
	ActiveOnly bool
	From       *time.Time
	To         *time.Time
}

// AssignmentRepository stores duty rotation generations. Prior generations
// are deactivated, never deleted.
type AssignmentRepository interface {
	// InsertAssignments persists a generation atomically and returns the rows
	// with their assigned identities, in input order.
	InsertAssignments(ctx context.Context, assignments []Assignment) ([]Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	// ReplaceAssignmentsFrom atomically flips active assignments whose window
	// starts on or after the given date and inserts the new generation. A
	// failure leaves the prior generation untouched.
	ReplaceAssignmentsFrom(ctx context.Context, date time.Time, assignments []Assignment) ([]Assignment, error)
	// ReplaceAllAssignments atomically flips every active assignment and
	// inserts the new generation. Used by the set-from-date full reset.
	ReplaceAllAssignments(ctx context.Context, assignments []Assignment) ([]Assignment, error)
}

// SessionRepository stores training sessions, templates and occurrences
// alike.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	// InsertSessions persists a batch of occurrence rows atomically and
	// returns them with assigned identities, in input order.
	InsertSessions(ctx context.Context, sessions []Session) ([]Session, error)
	GetSession(ctx context.Context, id int64) (Session, error)
	// ListSessionsForRange returns sessions dated within [from, to], both
	// inclusive, ordered by date then start time then ID.
	ListSessionsForRange(ctx context.Context, from, to time.Time) ([]Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id int64) error
}
