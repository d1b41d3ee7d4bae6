package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/swimteam-scheduler/internal/application"
	"github.com/example/swimteam-scheduler/internal/persistence"
)

var (
	memberCounter     uint64
	assignmentCounter uint64
	sessionCounter    uint64
)

var referenceTime = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the canonical baseline date, at UTC midnight, that
// duty windows and sessions are anchored around.
func ReferenceDate() time.Time {
	return time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
}

// ---------------------------- Member fixtures ----------------------------

// MemberFixture represents a deterministic roster member record.
type MemberFixture struct {
	ID        int64
	Name      string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberOption configures the generated member fixture.
type MemberOption func(*MemberFixture)

// NewMemberFixture returns a deterministic member fixture with optional
// overrides. Each call yields the next rotation slot.
func NewMemberFixture(opts ...MemberOption) MemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := MemberFixture{
		Name:      fmt.Sprintf("Member %03d", idx),
		Order:     int(idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMemberName overrides the generated name.
func WithMemberName(name string) MemberOption {
	return func(f *MemberFixture) {
		f.Name = name
	}
}

// WithMemberOrder overrides the rotation slot.
func WithMemberOrder(order int) MemberOption {
	return func(f *MemberFixture) {
		f.Order = order
	}
}

// WithMemberTimestamps sets both created and updated timestamps.
func WithMemberTimestamps(created, updated time.Time) MemberOption {
	return func(f *MemberFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Member value.
func (f MemberFixture) Persistence() persistence.Member {
	return persistence.Member{
		ID:        f.ID,
		Name:      f.Name,
		Position:  f.Order,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Application returns the fixture as an application.Member value.
func (f MemberFixture) Application() application.Member {
	return application.Member{
		ID:        f.ID,
		Name:      f.Name,
		Order:     f.Order,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// -------------------------- Assignment fixtures --------------------------

// AssignmentFixture represents a deterministic duty window record.
type AssignmentFixture struct {
	ID        int64
	MemberID  int64
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignmentOption configures the generated assignment fixture.
type AssignmentOption func(*AssignmentFixture)

// NewAssignmentFixture returns a deterministic assignment fixture. Successive
// calls tile consecutive three day windows from the reference date.
func NewAssignmentFixture(opts ...AssignmentOption) AssignmentFixture {
	idx := atomic.AddUint64(&assignmentCounter, 1)
	start := ReferenceDate().AddDate(0, 0, int(idx-1)*3)
	fixture := AssignmentFixture{
		MemberID:  int64(idx),
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
		IsActive:  true,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAssignmentMember overrides the member holding the window.
func WithAssignmentMember(memberID int64) AssignmentOption {
	return func(f *AssignmentFixture) {
		f.MemberID = memberID
	}
}

// WithAssignmentWindow overrides the inclusive window bounds.
func WithAssignmentWindow(start, end time.Time) AssignmentOption {
	return func(f *AssignmentFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// WithAssignmentActive sets the active flag.
func WithAssignmentActive(active bool) AssignmentOption {
	return func(f *AssignmentFixture) {
		f.IsActive = active
	}
}

// Persistence returns the fixture as a persistence.Assignment value.
func (f AssignmentFixture) Persistence() persistence.Assignment {
	return persistence.Assignment{
		ID:        f.ID,
		MemberID:  f.MemberID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Application returns the fixture as an application.Assignment value.
func (f AssignmentFixture) Application() application.Assignment {
	return application.Assignment{
		ID:        f.ID,
		MemberID:  f.MemberID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic training session record.
type SessionFixture struct {
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

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic one-off session fixture with
// optional overrides. Successive calls land on consecutive days.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		Title:     fmt.Sprintf("Session %03d", idx),
		Type:      "training",
		Date:      ReferenceDate().AddDate(0, 0, int(idx-1)),
		StartTime: "18:00",
		EndTime:   "19:30",
		Location:  "Main pool",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionTitle overrides the generated title.
func WithSessionTitle(title string) SessionOption {
	return func(f *SessionFixture) {
		f.Title = title
	}
}

// WithSessionDate overrides the session date.
func WithSessionDate(date time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.Date = date
	}
}

// WithSessionTimes overrides the start and end times of day.
func WithSessionTimes(start, end string) SessionOption {
	return func(f *SessionFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithSessionRecurrence marks the fixture as a recurring template.
func WithSessionRecurrence(pattern string, maxOccurrences int) SessionOption {
	return func(f *SessionFixture) {
		f.IsRecurring = true
		f.RecurringPattern = pattern
		f.MaxOccurrences = maxOccurrences
	}
}

// WithSessionWeekdays sets the designated weekdays for weekday templates.
func WithSessionWeekdays(weekdays ...int) SessionOption {
	return func(f *SessionFixture) {
		f.Weekdays = weekdays
	}
}

// WithSessionTemplate marks the fixture as an occurrence of a template.
func WithSessionTemplate(templateID int64) SessionOption {
	return func(f *SessionFixture) {
		f.TemplateID = &templateID
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:               f.ID,
		Title:            f.Title,
		Type:             f.Type,
		Date:             f.Date,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		Location:         f.Location,
		Notes:            f.Notes,
		IsRecurring:      f.IsRecurring,
		RecurringPattern: f.RecurringPattern,
		RecurringEndDate: f.RecurringEndDate,
		Weekdays:         f.Weekdays,
		MaxOccurrences:   f.MaxOccurrences,
		TemplateID:       f.TemplateID,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:               f.ID,
		Title:            f.Title,
		Type:             f.Type,
		Date:             f.Date,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		Location:         f.Location,
		Notes:            f.Notes,
		IsRecurring:      f.IsRecurring,
		RecurringPattern: f.RecurringPattern,
		RecurringEndDate: f.RecurringEndDate,
		Weekdays:         f.Weekdays,
		MaxOccurrences:   f.MaxOccurrences,
		TemplateID:       f.TemplateID,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}
