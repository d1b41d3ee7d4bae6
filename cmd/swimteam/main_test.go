package main

import (
	"testing"
	"time"

	"github.com/example/swimteam-scheduler/internal/application"
	"github.com/example/swimteam-scheduler/internal/persistence"
)

func TestMemberMappingRoundTrip(t *testing.T) {
	created := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	member := application.Member{
		ID:        7,
		Name:      "Aoi",
		Order:     2,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}

	stored := toPersistenceMember(member)
	if stored.Position != member.Order {
		t.Fatalf("expected position %d, got %d", member.Order, stored.Position)
	}

	back := toApplicationMember(stored)
	if back != member {
		t.Fatalf("round trip changed the member: %+v", back)
	}
}

func TestSessionMappingClonesPointersAndSlices(t *testing.T) {
	endDate := time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)
	templateID := int64(11)
	session := persistence.Session{
		ID:               3,
		Title:            "Sprint drills",
		Date:             time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		StartTime:        "18:00",
		EndTime:          "19:30",
		IsRecurring:      true,
		RecurringPattern: "weekly_by_weekdays",
		RecurringEndDate: &endDate,
		Weekdays:         []int{1, 3},
		MaxOccurrences:   10,
		TemplateID:       &templateID,
	}

	mapped := toApplicationSession(session)

	session.Weekdays[0] = 5
	*session.RecurringEndDate = endDate.AddDate(1, 0, 0)
	*session.TemplateID = 99

	if mapped.Weekdays[0] != 1 {
		t.Fatalf("weekdays slice was shared, got %v", mapped.Weekdays)
	}
	if !mapped.RecurringEndDate.Equal(endDate) {
		t.Fatalf("end date pointer was shared, got %v", mapped.RecurringEndDate)
	}
	if *mapped.TemplateID != 11 {
		t.Fatalf("template pointer was shared, got %d", *mapped.TemplateID)
	}
}

func TestAssignmentQueryMapping(t *testing.T) {
	from := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	query := application.AssignmentQuery{From: &from, To: &to, ActiveOnly: true}

	filter := persistence.AssignmentFilter{
		ActiveOnly: query.ActiveOnly,
		From:       cloneTime(query.From),
		To:         cloneTime(query.To),
	}

	if !filter.ActiveOnly || filter.From == nil || filter.To == nil {
		t.Fatalf("unexpected filter: %+v", filter)
	}
	if filter.From == query.From || filter.To == query.To {
		t.Fatalf("expected cloned bounds, got shared pointers")
	}
	if !filter.From.Equal(from) || !filter.To.Equal(to) {
		t.Fatalf("bounds changed: %v..%v", filter.From, filter.To)
	}
}
