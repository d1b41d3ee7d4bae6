// Package recurrence expands a recurring training-session template into the
// concrete occurrence dates its rule implies. The expander deals only in
// dates; copying template fields onto occurrence records is the session
// service's job.
package recurrence

import (
	"errors"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
)

// Pattern identifies a supported recurrence stepping mode.
type Pattern string

const (
	// PatternDaily steps one day at a time.
	PatternDaily Pattern = "daily"
	// PatternWeekly steps seven days at a time.
	PatternWeekly Pattern = "weekly"
	// PatternBiweekly steps fourteen days at a time.
	PatternBiweekly Pattern = "biweekly"
	// PatternMonthly steps one calendar month, clamping to the last day of
	// shorter target months.
	PatternMonthly Pattern = "monthly"
	// PatternWeeklyByWeekdays emits one occurrence per designated weekday per
	// week, walking Sunday-started weeks from the template's own week.
	PatternWeeklyByWeekdays Pattern = "weekly_by_weekdays"
)

// DefaultMaxOccurrences caps expansion when the rule supplies neither an end
// date nor an explicit occurrence budget. A rule with an end date and no
// budget runs to the end date instead.
const DefaultMaxOccurrences = 50

// ErrInvalidPattern indicates the recurrence pattern is not recognized.
// Callers treat it as "expand to nothing", not as a failure of session
// creation.
var ErrInvalidPattern = errors.New("recurrence: invalid pattern")

// Rule describes how a template session repeats.
type Rule struct {
	Pattern        Pattern
	EndDate        *time.Time
	MaxOccurrences int
	Weekdays       []time.Weekday
}

// Expander turns rules into occurrence dates. The injected clock anchors the
// one-year forward safety bound that keeps caller-supplied budgets from
// producing unbounded output.
type Expander struct {
	now func() time.Time
}

// NewExpander constructs an Expander. A nil clock falls back to time.Now.
func NewExpander(now func() time.Time) *Expander {
	if now == nil {
		now = time.Now
	}
	return &Expander{now: now}
}

// Expand produces the occurrence dates implied by the rule, starting after
// the template's own date (the template is never re-emitted). Expansion stops
// at the occurrence budget (defaulted only when the rule has no end date),
// the rule's end date, or one year past the current time, whichever comes
// first.
func (e *Expander) Expand(templateDate time.Time, rule Rule) ([]time.Time, error) {
	templateDate = dateutil.Midnight(templateDate)

	// Zero means "no count cap"; the end date and the safety bound still
	// terminate the walk.
	budget := rule.MaxOccurrences
	if budget <= 0 {
		budget = 0
		if rule.EndDate == nil {
			budget = DefaultMaxOccurrences
		}
	}

	var endDate time.Time
	if rule.EndDate != nil {
		endDate = dateutil.Midnight(*rule.EndDate)
	}
	safetyBound := dateutil.Midnight(e.now()).AddDate(1, 0, 0)

	switch rule.Pattern {
	case PatternDaily:
		return expandByStep(templateDate, budget, endDate, safetyBound, func(prev time.Time) time.Time {
			return dateutil.AddDays(prev, 1)
		}), nil
	case PatternWeekly:
		return expandByStep(templateDate, budget, endDate, safetyBound, func(prev time.Time) time.Time {
			return dateutil.AddDays(prev, 7)
		}), nil
	case PatternBiweekly:
		return expandByStep(templateDate, budget, endDate, safetyBound, func(prev time.Time) time.Time {
			return dateutil.AddDays(prev, 14)
		}), nil
	case PatternMonthly:
		return expandByStep(templateDate, budget, endDate, safetyBound, func(prev time.Time) time.Time {
			return dateutil.AddMonthsClamped(prev, 1)
		}), nil
	case PatternWeeklyByWeekdays:
		return expandByWeekdays(templateDate, rule.Weekdays, budget, endDate, safetyBound), nil
	default:
		return nil, ErrInvalidPattern
	}
}

// expandByStep walks forward from the template date, each candidate derived
// from the previous occurrence rather than from accumulated offsets. A zero
// budget means no count cap.
func expandByStep(templateDate time.Time, budget int, endDate, safetyBound time.Time, step func(time.Time) time.Time) []time.Time {
	occurrences := make([]time.Time, 0, budget)
	cursor := templateDate

	for budget == 0 || len(occurrences) < budget {
		cursor = step(cursor)
		if exceedsBound(cursor, endDate, safetyBound) {
			break
		}
		occurrences = append(occurrences, cursor)
	}

	return occurrences
}

// expandByWeekdays walks Sunday-started weeks from the template's week,
// visiting the requested weekdays in the order given within each week.
// Candidates on or before the template date are skipped so the template's own
// slot is never duplicated. A zero budget means no count cap.
func expandByWeekdays(templateDate time.Time, weekdays []time.Weekday, budget int, endDate, safetyBound time.Time) []time.Time {
	if len(weekdays) == 0 {
		return nil
	}

	occurrences := make([]time.Time, 0, budget)
	weekStart := dateutil.StartOfWeek(templateDate)

	for !weekStart.After(safetyBound) {
		for _, weekday := range weekdays {
			if weekday < time.Sunday || weekday > time.Saturday {
				continue
			}
			candidate := dateutil.AddDays(weekStart, int(weekday))
			if !candidate.After(templateDate) {
				continue
			}
			if exceedsBound(candidate, endDate, safetyBound) {
				return occurrences
			}
			occurrences = append(occurrences, candidate)
			if budget > 0 && len(occurrences) >= budget {
				return occurrences
			}
		}
		weekStart = dateutil.AddDays(weekStart, 7)
	}

	return occurrences
}

func exceedsBound(candidate, endDate, safetyBound time.Time) bool {
	if !endDate.IsZero() && candidate.After(endDate) {
		return true
	}
	return candidate.After(safetyBound)
}
