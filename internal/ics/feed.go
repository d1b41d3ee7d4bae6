// Package ics renders the rotation and training calendar as an iCalendar
// feed that members can subscribe to from their phones.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/example/swimteam-scheduler/internal/application"
	"github.com/example/swimteam-scheduler/internal/dateutil"
	"github.com/example/swimteam-scheduler/internal/recurrence"
)

const defaultProductID = "-//swimteam-scheduler//EN"

// feedNamespace seeds the deterministic event UIDs so repeated feed fetches
// produce stable identifiers.
var feedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("swimteam-scheduler/calendar"))

// Builder assembles iCalendar documents from roster and session data.
type Builder struct {
	ProductID string
	now       func() time.Time
}

// NewBuilder constructs a feed builder. A nil clock falls back to time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{ProductID: defaultProductID, now: now}
}

// Build renders a calendar containing one all-day event per active duty
// window and one event per training session. Recurring templates are emitted
// with an RRULE while their materialized occurrences are skipped, so
// subscribers see each series exactly once.
func (b *Builder) Build(members []application.Member, assignments []application.Assignment, sessions []application.Session) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, b.productID())
	cal.Props.SetText(ical.PropVersion, "2.0")

	names := make(map[int64]string, len(members))
	for _, member := range members {
		names[member.ID] = member.Name
	}

	stamp := b.now().UTC()
	for _, assignment := range assignments {
		if !assignment.IsActive {
			continue
		}
		cal.Children = append(cal.Children, b.assignmentEvent(assignment, names, stamp))
	}
	for _, session := range sessions {
		if session.TemplateID != nil {
			continue
		}
		event, err := b.sessionEvent(session, stamp)
		if err != nil {
			return nil, err
		}
		cal.Children = append(cal.Children, event)
	}

	return cal, nil
}

// Write renders the calendar onto w in wire format.
func (b *Builder) Write(w io.Writer, members []application.Member, assignments []application.Assignment, sessions []application.Session) error {
	cal, err := b.Build(members, assignments, sessions)
	if err != nil {
		return err
	}
	return ical.NewEncoder(w).Encode(cal)
}

func (b *Builder) productID() string {
	if b == nil || b.ProductID == "" {
		return defaultProductID
	}
	return b.ProductID
}

func (b *Builder) assignmentEvent(assignment application.Assignment, names map[int64]string, stamp time.Time) *ical.Component {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, eventUID("assignment", assignment.ID))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	summary := fmt.Sprintf("Duty leader: member %d", assignment.MemberID)
	if name, ok := names[assignment.MemberID]; ok {
		summary = "Duty leader: " + name
	}
	event.Props.SetText(ical.PropSummary, summary)

	setDateProp(event, ical.PropDateTimeStart, assignment.StartDate)
	// DTEND is exclusive for all-day events.
	setDateProp(event, ical.PropDateTimeEnd, dateutil.AddDays(assignment.EndDate, 1))
	return event.Component
}

func (b *Builder) sessionEvent(session application.Session, stamp time.Time) (*ical.Component, error) {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, eventUID("session", session.ID))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	summary := session.Title
	if summary == "" {
		summary = session.Type
	}
	event.Props.SetText(ical.PropSummary, summary)
	if session.Location != "" {
		event.Props.SetText(ical.PropLocation, session.Location)
	}
	if session.Notes != "" {
		event.Props.SetText(ical.PropDescription, session.Notes)
	}

	start, end, allDay := sessionTimes(session)
	if allDay {
		setDateProp(event, ical.PropDateTimeStart, start)
		setDateProp(event, ical.PropDateTimeEnd, dateutil.AddDays(start, 1))
	} else {
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	}

	if session.IsRecurring {
		if value, ok := recurrenceRule(session); ok {
			prop := ical.NewProp(ical.PropRecurrenceRule)
			prop.Value = value
			event.Props.Set(prop)
		}
	}
	return event.Component, nil
}

// recurrenceRule translates a stored recurrence shape into an RFC 5545 RRULE
// value. Unrecognized patterns yield no rule, matching the expander's no-op
// behavior.
func recurrenceRule(session application.Session) (string, bool) {
	// RFC 5545 allows COUNT or UNTIL but not both.
	var option rrule.ROption
	if session.RecurringEndDate != nil {
		option.Until = session.RecurringEndDate.UTC()
	} else if session.MaxOccurrences > 0 {
		option.Count = session.MaxOccurrences
	} else {
		option.Count = recurrence.DefaultMaxOccurrences
	}

	switch recurrence.Pattern(session.RecurringPattern) {
	case recurrence.PatternDaily:
		option.Freq = rrule.DAILY
	case recurrence.PatternWeekly:
		option.Freq = rrule.WEEKLY
	case recurrence.PatternBiweekly:
		option.Freq = rrule.WEEKLY
		option.Interval = 2
	case recurrence.PatternMonthly:
		option.Freq = rrule.MONTHLY
	case recurrence.PatternWeeklyByWeekdays:
		option.Freq = rrule.WEEKLY
		for _, weekday := range session.Weekdays {
			if weekday < 0 || weekday > 6 {
				continue
			}
			option.Byweekday = append(option.Byweekday, rruleWeekdays[weekday])
		}
		if len(option.Byweekday) == 0 {
			return "", false
		}
	default:
		return "", false
	}

	rule, err := rrule.NewRRule(option)
	if err != nil {
		return "", false
	}
	return rule.OrigOptions.RRuleString(), true
}

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

func sessionTimes(session application.Session) (start, end time.Time, allDay bool) {
	day := dateutil.Midnight(session.Date)
	startClock, err := time.Parse("15:04", session.StartTime)
	if err != nil {
		return day, day, true
	}
	start = day.Add(time.Duration(startClock.Hour())*time.Hour + time.Duration(startClock.Minute())*time.Minute)
	end = start.Add(time.Hour)
	if endClock, err := time.Parse("15:04", session.EndTime); err == nil {
		candidate := day.Add(time.Duration(endClock.Hour())*time.Hour + time.Duration(endClock.Minute())*time.Minute)
		if candidate.After(start) {
			end = candidate
		}
	}
	return start, end, false
}

func eventUID(kind string, id int64) string {
	return uuid.NewSHA1(feedNamespace, []byte(fmt.Sprintf("%s/%d", kind, id))).String() + "@swimteam"
}

func setDateProp(event *ical.Event, name string, date time.Time) {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDate)
	prop.Value = date.Format("20060102")
	event.Props.Set(prop)
}
