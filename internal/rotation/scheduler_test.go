package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func roster3() []Member {
	return []Member{
		{ID: 1, Name: "Aoi", Order: 1},
		{ID: 2, Name: "Ben", Order: 2},
		{ID: 3, Name: "Chika", Order: 3},
	}
}

func TestSortRoster(t *testing.T) {
	t.Parallel()

	members := []Member{
		{ID: 9, Name: "late", Order: 2},
		{ID: 4, Name: "tie-low-id", Order: 1},
		{ID: 7, Name: "tie-high-id", Order: 1},
	}
	sorted := SortRoster(members)

	require.Len(t, sorted, 3)
	assert.Equal(t, int64(4), sorted[0].ID)
	assert.Equal(t, int64(7), sorted[1].ID)
	assert.Equal(t, int64(9), sorted[2].ID)
	// Input slice untouched.
	assert.Equal(t, int64(9), members[0].ID)
}

func TestGenerate_TilesHorizon(t *testing.T) {
	t.Parallel()

	got, err := Generate(roster3(), date(2025, time.June, 2), 3, date(2025, time.June, 11))
	require.NoError(t, err)

	want := []Assignment{
		{MemberID: 1, StartDate: date(2025, time.June, 2), EndDate: date(2025, time.June, 4)},
		{MemberID: 2, StartDate: date(2025, time.June, 5), EndDate: date(2025, time.June, 7)},
		{MemberID: 3, StartDate: date(2025, time.June, 8), EndDate: date(2025, time.June, 10)},
		// Final window truncated to the horizon end.
		{MemberID: 1, StartDate: date(2025, time.June, 11), EndDate: date(2025, time.June, 11)},
	}
	assert.Equal(t, want, got)
}

func TestGenerate_CoverageInvariant(t *testing.T) {
	t.Parallel()

	start := date(2025, time.January, 1)
	horizon := date(2025, time.July, 1)
	got, err := Generate(roster3(), start, 3, horizon)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, start, got[0].StartDate)
	assert.Equal(t, horizon, got[len(got)-1].EndDate)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].EndDate.AddDate(0, 0, 1), got[i].StartDate,
			"window %d must begin the day after window %d ends", i, i-1)
	}
	for _, a := range got {
		assert.False(t, a.EndDate.Before(a.StartDate))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := Generate(roster3(), date(2025, time.June, 2), 3, date(2025, time.December, 2))
	require.NoError(t, err)
	second, err := Generate(roster3(), date(2025, time.June, 2), 3, date(2025, time.December, 2))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_CyclicFairness(t *testing.T) {
	t.Parallel()

	// 12 windows of 3 days over a 3-person roster: 4 each.
	start := date(2025, time.June, 1)
	horizon := start.AddDate(0, 0, 12*3-1)
	got, err := Generate(roster3(), start, 3, horizon)
	require.NoError(t, err)
	require.Len(t, got, 12)

	counts := map[int64]int{}
	for _, a := range got {
		counts[a.MemberID]++
	}
	assert.Equal(t, map[int64]int{1: 4, 2: 4, 3: 4}, counts)
}

func TestGenerate_SingleMemberRoster(t *testing.T) {
	t.Parallel()

	got, err := Generate([]Member{{ID: 5, Name: "solo", Order: 1}}, date(2025, time.June, 2), 3, date(2025, time.June, 10))
	require.NoError(t, err)
	for _, a := range got {
		assert.Equal(t, int64(5), a.MemberID)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	_, err := Generate(nil, date(2025, time.June, 2), 3, date(2025, time.June, 10))
	assert.ErrorIs(t, err, ErrEmptyRoster)

	_, err = Generate(roster3(), date(2025, time.June, 2), 0, date(2025, time.June, 10))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Generate(roster3(), date(2025, time.June, 10), 3, date(2025, time.June, 2))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestGenerateFrom_PivotCorrectness(t *testing.T) {
	t.Parallel()

	got, err := GenerateFrom(roster3(), date(2025, time.June, 2), 2, 3, date(2025, time.June, 13))
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Ben first, then the cyclic order continues: Chika, Aoi, Ben again.
	assert.Equal(t, int64(2), got[0].MemberID)
	assert.Equal(t, date(2025, time.June, 2), got[0].StartDate)
	assert.Equal(t, int64(3), got[1].MemberID)
	assert.Equal(t, int64(1), got[2].MemberID)
	assert.Equal(t, int64(2), got[3].MemberID)
}

func TestGenerateFrom_UnknownMember(t *testing.T) {
	t.Parallel()

	_, err := GenerateFrom(roster3(), date(2025, time.June, 2), 42, 3, date(2025, time.June, 13))
	assert.ErrorIs(t, err, ErrUnknownMember)

	_, err = GenerateFrom(nil, date(2025, time.June, 2), 42, 3, date(2025, time.June, 13))
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	assignments, err := Generate(roster3(), date(2025, time.June, 2), 3, date(2025, time.June, 11))
	require.NoError(t, err)

	tests := []struct {
		name   string
		date   time.Time
		wantID int64
		wantOK bool
	}{
		{"first day of first window", date(2025, time.June, 2), 1, true},
		{"middle of first window", date(2025, time.June, 3), 1, true},
		{"first day of second window", date(2025, time.June, 5), 2, true},
		{"truncated final window", date(2025, time.June, 11), 1, true},
		{"before the horizon", date(2025, time.June, 1), 0, false},
		{"after the horizon", date(2025, time.June, 12), 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			id, ok := Resolve(assignments, tc.date)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestResolve_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	assignments, err := Generate(roster3(), date(2025, time.June, 2), 3, date(2025, time.June, 11))
	require.NoError(t, err)

	id, ok := Resolve(assignments, time.Date(2025, time.June, 4, 23, 59, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	_, ok := Resolve(nil, date(2025, time.June, 2))
	assert.False(t, ok)
}
