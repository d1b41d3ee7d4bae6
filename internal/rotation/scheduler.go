// Package rotation implements the leader duty rotation: a deterministic
// round-robin assignment of roster members to fixed-length, contiguous duty
// windows over a bounded horizon. The package is pure; it proposes
// assignments and leaves deactivation and persistence of prior generations
// to the caller.
package rotation

import (
	"errors"
	"sort"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
)

// DefaultWindowDays is the duty window length used when the caller does not
// configure one.
const DefaultWindowDays = 3

// Member is a roster entry eligible for duty rotation.
type Member struct {
	ID    int64
	Name  string
	Order int
}

// Assignment is one proposed duty window. Dates are UTC midnights and both
// ends are inclusive.
type Assignment struct {
	MemberID  int64
	StartDate time.Time
	EndDate   time.Time
}

var (
	// ErrEmptyRoster is returned when there is nobody to rotate.
	ErrEmptyRoster = errors.New("rotation: roster is empty")
	// ErrUnknownMember is returned when the pivot member is not on the roster.
	ErrUnknownMember = errors.New("rotation: member not on roster")
	// ErrInvalidWindow is returned when the window length or horizon is unusable.
	ErrInvalidWindow = errors.New("rotation: invalid window")
)

// SortRoster returns the roster in canonical rotation order: Order ascending,
// ID ascending for ties. Both generators snapshot this order, so callers that
// need to reason about "who comes after whom" should use it too.
func SortRoster(members []Member) []Member {
	out := make([]Member, len(members))
	copy(out, members)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].ID < out[j].ID
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// Generate tiles [start, horizonEnd] with contiguous windowDays-long duty
// windows, assigning members round-robin starting from roster position 0.
// The final window is truncated so it never extends past horizonEnd.
func Generate(roster []Member, start time.Time, windowDays int, horizonEnd time.Time) ([]Assignment, error) {
	return generate(roster, start, 0, windowDays, horizonEnd)
}

// GenerateFrom is Generate anchored on a chosen member: the first window is
// assigned to pivotMemberID and the cyclic roster order continues from its
// position. This re-derives the whole forward rotation from the pivot while
// preserving everyone else's relative order.
func GenerateFrom(roster []Member, start time.Time, pivotMemberID int64, windowDays int, horizonEnd time.Time) ([]Assignment, error) {
	ordered := SortRoster(roster)
	pivot := -1
	for i, m := range ordered {
		if m.ID == pivotMemberID {
			pivot = i
			break
		}
	}
	if pivot < 0 {
		if len(ordered) == 0 {
			return nil, ErrEmptyRoster
		}
		return nil, ErrUnknownMember
	}
	return generate(ordered, start, pivot, windowDays, horizonEnd)
}

func generate(roster []Member, start time.Time, firstIndex, windowDays int, horizonEnd time.Time) ([]Assignment, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	start = dateutil.Midnight(start)
	horizonEnd = dateutil.Midnight(horizonEnd)
	if windowDays < 1 || horizonEnd.Before(start) {
		return nil, ErrInvalidWindow
	}

	ordered := SortRoster(roster)
	assignments := make([]Assignment, 0, dateutil.DaysBetween(start, horizonEnd)/windowDays+1)

	cursor := start
	for i := firstIndex; !cursor.After(horizonEnd); i++ {
		end := dateutil.AddDays(cursor, windowDays-1)
		if end.After(horizonEnd) {
			end = horizonEnd
		}
		assignments = append(assignments, Assignment{
			MemberID:  ordered[i%len(ordered)].ID,
			StartDate: cursor,
			EndDate:   end,
		})
		cursor = dateutil.AddDays(cursor, windowDays)
	}

	return assignments, nil
}

// Resolve returns the member holding duty on the given date, searching the
// provided assignments by start date. The boolean is false when no window
// contains the date. Callers pass the currently active generation; overlap
// within it would violate the generation invariant and resolves to the
// latest-starting window.
func Resolve(assignments []Assignment, date time.Time) (int64, bool) {
	if len(assignments) == 0 {
		return 0, false
	}
	date = dateutil.Midnight(date)

	sorted := make([]Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	// First window starting after date; the candidate is the one before it.
	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].StartDate.After(date)
	})
	if idx == 0 {
		return 0, false
	}
	candidate := sorted[idx-1]
	if dateutil.Contains(candidate.StartDate, candidate.EndDate, date) {
		return candidate.MemberID, true
	}
	return 0, false
}
