package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixedNow keeps the one-year safety bound far from the dates under test.
func fixedNow() time.Time {
	return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func TestExpand_Daily(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternDaily, MaxOccurrences: 3})
	require.NoError(t, err)

	// The template date itself is never re-emitted.
	want := []time.Time{
		date(2025, time.June, 3),
		date(2025, time.June, 4),
		date(2025, time.June, 5),
	}
	assert.Equal(t, want, got)
}

func TestExpand_Weekly(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternWeekly, MaxOccurrences: 2})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, time.June, 9), date(2025, time.June, 16)}, got)
}

func TestExpand_Biweekly(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternBiweekly, MaxOccurrences: 2})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, time.June, 16), date(2025, time.June, 30)}, got)
}

func TestExpand_MonthlyClampsShortMonths(t *testing.T) {
	t.Parallel()

	e := NewExpander(func() time.Time { return date(2025, time.January, 15) })
	got, err := e.Expand(date(2025, time.January, 31), Rule{Pattern: PatternMonthly, MaxOccurrences: 3})
	require.NoError(t, err)

	// Each step is computed from the previous occurrence, so the clamp to
	// February 28 carries forward instead of snapping back to the 31st.
	want := []time.Time{
		date(2025, time.February, 28),
		date(2025, time.March, 28),
		date(2025, time.April, 28),
	}
	assert.Equal(t, want, got)
}

func TestExpand_WeeklyByWeekdays(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	// 2025-06-02 is a Monday. Requesting Monday and Wednesday with a budget
	// of two yields Wednesday of the same week, then Monday of the next; the
	// template's own Monday slot is excluded.
	got, err := e.Expand(date(2025, time.June, 2), Rule{
		Pattern:        PatternWeeklyByWeekdays,
		MaxOccurrences: 2,
		Weekdays:       []time.Weekday{time.Monday, time.Wednesday},
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, time.June, 4), date(2025, time.June, 9)}, got)
}

func TestExpand_WeeklyByWeekdays_NoWeekdays(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternWeeklyByWeekdays, MaxOccurrences: 5})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_WeeklyByWeekdays_IgnoresOutOfRangeWeekday(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{
		Pattern:        PatternWeeklyByWeekdays,
		MaxOccurrences: 1,
		Weekdays:       []time.Weekday{time.Weekday(9), time.Friday},
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, time.June, 6)}, got)
}

func TestExpand_EndDateBound(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{
		Pattern:        PatternDaily,
		MaxOccurrences: 50,
		EndDate:        datePtr(date(2025, time.June, 5)),
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	for _, occ := range got {
		assert.False(t, occ.After(date(2025, time.June, 5)))
	}
}

func TestExpand_DefaultBudget(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternDaily})
	require.NoError(t, err)
	assert.Len(t, got, DefaultMaxOccurrences)
}

func TestExpand_EndDateWithoutBudgetRunsToEndDate(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	end := date(2025, time.August, 30)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternDaily, EndDate: &end})
	require.NoError(t, err)

	// June 3 through August 30, every day; the 50-occurrence default must
	// not kick in when an explicit end date bounds the rule.
	assert.Len(t, got, 89)
	assert.Equal(t, date(2025, time.June, 3), got[0])
	assert.Equal(t, end, got[len(got)-1])
}

func TestExpand_EndDateWithoutBudgetStopsAtSafetyBound(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	end := date(2030, time.January, 1)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternWeeklyByWeekdays, EndDate: &end, Weekdays: []time.Weekday{time.Monday}})
	require.NoError(t, err)

	require.NotEmpty(t, got)
	assert.Greater(t, len(got), DefaultMaxOccurrences)
	assert.False(t, got[len(got)-1].After(date(2026, time.June, 1)))
}

func TestExpand_SafetyBound(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	// A huge caller-supplied budget must still stop one year out.
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: PatternDaily, MaxOccurrences: 100000})
	require.NoError(t, err)

	require.NotEmpty(t, got)
	bound := date(2026, time.June, 1)
	assert.False(t, got[len(got)-1].After(bound))
	assert.Less(t, len(got), 400)
}

func TestExpand_InvalidPattern(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(date(2025, time.June, 2), Rule{Pattern: Pattern("fortnightly-ish")})
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Nil(t, got)
}

func TestExpand_NormalizesTemplateTime(t *testing.T) {
	t.Parallel()

	e := NewExpander(fixedNow)
	got, err := e.Expand(time.Date(2025, time.June, 2, 17, 45, 0, 0, time.UTC), Rule{Pattern: PatternDaily, MaxOccurrences: 1})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, time.June, 3)}, got)
}
