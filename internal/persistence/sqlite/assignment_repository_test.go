package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/swimteam-scheduler/internal/persistence"
)

func seedMember(t *testing.T, storage *Storage, name string, position int) persistence.Member {
	t.Helper()
	member, err := storage.Members.CreateMember(context.Background(), persistence.Member{Name: name, Position: position})
	require.NoError(t, err)
	return member
}

func TestAssignmentRepository_InsertAndList(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	inserted, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-05"), EndDate: testDate(t, "2025-06-07")},
	})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.NotZero(t, inserted[0].ID)
	assert.True(t, inserted[0].IsActive)

	listed, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, testDate(t, "2025-06-02"), listed[0].StartDate)
	assert.Equal(t, testDate(t, "2025-06-04"), listed[0].EndDate)
}

func TestAssignmentRepository_InsertRejectsUnknownMember(t *testing.T) {
	storage := openTestStorage(t)

	_, err := storage.Assignments.InsertAssignments(context.Background(), []persistence.Assignment{
		{MemberID: 42, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
	})
	assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
}

func TestAssignmentRepository_InsertIsAtomic(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	_, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
		{MemberID: 42, StartDate: testDate(t, "2025-06-05"), EndDate: testDate(t, "2025-06-07")},
	})
	require.Error(t, err)

	listed, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed, "failed batch must not leave partial rows")
}

func TestAssignmentRepository_ListFilters(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	_, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-05"), EndDate: testDate(t, "2025-06-07")},
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-08"), EndDate: testDate(t, "2025-06-10")},
	})
	require.NoError(t, err)

	from := testDate(t, "2025-06-05")
	to := testDate(t, "2025-06-06")
	overlapping, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, testDate(t, "2025-06-05"), overlapping[0].StartDate)

	// A single-day range inside a window still matches that window.
	day := testDate(t, "2025-06-03")
	covering, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{From: &day, To: &day})
	require.NoError(t, err)
	require.Len(t, covering, 1)
	assert.Equal(t, testDate(t, "2025-06-02"), covering[0].StartDate)
}

func TestAssignmentRepository_ReplaceFrom(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	_, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-05"), EndDate: testDate(t, "2025-06-07")},
	})
	require.NoError(t, err)

	replacement, err := storage.Assignments.ReplaceAssignmentsFrom(ctx, testDate(t, "2025-06-05"), []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-05"), EndDate: testDate(t, "2025-06-08")},
	})
	require.NoError(t, err)
	require.Len(t, replacement, 1)
	assert.NotZero(t, replacement[0].ID)

	active, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, testDate(t, "2025-06-02"), active[0].StartDate)
	assert.Equal(t, testDate(t, "2025-06-08"), active[1].EndDate)

	// The retired window survives as history.
	all, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAssignmentRepository_ReplaceAll(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	_, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-05"), EndDate: testDate(t, "2025-06-07")},
	})
	require.NoError(t, err)

	replacement, err := storage.Assignments.ReplaceAllAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-10"), EndDate: testDate(t, "2025-06-12")},
	})
	require.NoError(t, err)
	require.Len(t, replacement, 1)

	active, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, testDate(t, "2025-06-10"), active[0].StartDate)
}

func TestAssignmentRepository_ReplaceIsAtomic(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	_, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
	})
	require.NoError(t, err)

	// A failing insert must roll back the deactivation with it.
	_, err = storage.Assignments.ReplaceAssignmentsFrom(ctx, testDate(t, "2025-06-02"), []persistence.Assignment{
		{MemberID: 42, StartDate: testDate(t, "2025-06-02"), EndDate: testDate(t, "2025-06-04")},
	})
	require.Error(t, err)

	active, err := storage.Assignments.ListAssignments(ctx, persistence.AssignmentFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1, "prior generation must stay active after a failed replacement")
	assert.Equal(t, member.ID, active[0].MemberID)
}

func TestAssignmentRepository_RejectsInvertedWindow(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()
	member := seedMember(t, storage, "Aoi", 1)

	_, err := storage.Assignments.InsertAssignments(ctx, []persistence.Assignment{
		{MemberID: member.ID, StartDate: testDate(t, "2025-06-04"), EndDate: testDate(t, "2025-06-02")},
	})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
}
