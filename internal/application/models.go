package application

import "time"

// Member is a roster member exposed by the application services. Order is the
// rotation sort key; ties are broken by ID ascending.
type Member struct {
	ID        int64
	Name      string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberInput captures caller provided member fields.
type MemberInput struct {
	Name  string
	Order int
}

// Assignment is a duty window held by one member. Superseded windows keep
// their records with IsActive false.
type Assignment struct {
	ID        int64
	MemberID  int64
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is a training session: a one-off entry, a recurring template, or an
// occurrence materialized from a template.
type Session struct {
	ID               int64
	Title            string
	Type             string
	Date             time.Time
	StartTime        string
	EndTime          string
	Location         string
	Notes            string
	IsRecurring      bool
	RecurringPattern string
	RecurringEndDate *time.Time
	Weekdays         []int
	MaxOccurrences   int
	TemplateID       *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SessionInput captures caller provided session fields.
type SessionInput struct {
	Title            string
	Type             string
	Date             time.Time
	StartTime        string
	EndTime          string
	Location         string
	Notes            string
	IsRecurring      bool
	RecurringPattern string
	RecurringEndDate *time.Time
	Weekdays         []int
	MaxOccurrences   int
}

// GenerateParams wraps the data required to generate a rotation.
type GenerateParams struct {
	StartDate time.Time
	// WindowDays overrides the configured duty window length when positive.
	WindowDays int
	// HorizonEnd overrides the configured horizon when non-zero.
	HorizonEnd time.Time
}

// SetFromDateParams wraps the data required to re-anchor the rotation on a
// chosen member.
type SetFromDateParams struct {
	Date       time.Time
	MemberID   int64
	WindowDays int
	HorizonEnd time.Time
}

// Leader pairs a resolved duty assignment with the member holding it.
type Leader struct {
	Member     Member
	Assignment Assignment
}

// AssignmentQuery narrows assignment listings.
type AssignmentQuery struct {
	From       *time.Time
	To         *time.Time
	ActiveOnly bool
}
