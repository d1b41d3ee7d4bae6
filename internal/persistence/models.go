package persistence

import "time"

// Member represents a roster member stored in persistence. Position is the
// rotation sort key; ties are broken by ID.
type Member struct {
	ID        int64
	Name      string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assignment represents a duty window. Superseded generations keep their rows
// with IsActive false; rows are never deleted.
type Assignment struct {
	ID        int64
	MemberID  int64
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents a training session row: a one-off entry, a recurring
// template, or an occurrence materialized from a template. TemplateID records
// provenance on occurrences; the rows themselves are standalone copies.
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
