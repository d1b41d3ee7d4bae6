package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
	"github.com/example/swimteam-scheduler/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository on SQLite.
type AssignmentRepository struct {
	pool *ConnectionPool
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(pool *ConnectionPool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// InsertAssignments persists one rotation generation atomically. The rows are
// returned with their assigned IDs, in input order.
func (r *AssignmentRepository) InsertAssignments(ctx context.Context, assignments []persistence.Assignment) ([]persistence.Assignment, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var inserted []persistence.Assignment

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var txErr error
		inserted, txErr = insertAssignmentsTx(tx, assignments, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// ReplaceAssignmentsFrom retires active windows starting on or after the
// given date and persists the new generation in the same transaction, so a
// failure never leaves a coverage gap between the two steps.
func (r *AssignmentRepository) ReplaceAssignmentsFrom(ctx context.Context, date time.Time, assignments []persistence.Assignment) ([]persistence.Assignment, error) {
	now := time.Now().UTC()
	var inserted []persistence.Assignment

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, txErr := tx.Exec(
			`UPDATE assignments SET is_active = 0, updated_at = ? WHERE is_active = 1 AND start_date >= ?`,
			now.Format(time.RFC3339),
			dateutil.FormatDate(date),
		); txErr != nil {
			return mapError(txErr)
		}
		var txErr error
		inserted, txErr = insertAssignmentsTx(tx, assignments, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// ReplaceAllAssignments retires every active window and persists the new
// generation in the same transaction.
func (r *AssignmentRepository) ReplaceAllAssignments(ctx context.Context, assignments []persistence.Assignment) ([]persistence.Assignment, error) {
	now := time.Now().UTC()
	var inserted []persistence.Assignment

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, txErr := tx.Exec(
			`UPDATE assignments SET is_active = 0, updated_at = ? WHERE is_active = 1`,
			now.Format(time.RFC3339),
		); txErr != nil {
			return mapError(txErr)
		}
		var txErr error
		inserted, txErr = insertAssignmentsTx(tx, assignments, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func insertAssignmentsTx(tx *sql.Tx, assignments []persistence.Assignment, now time.Time) ([]persistence.Assignment, error) {
	inserted := make([]persistence.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		assignment.IsActive = true
		assignment.CreatedAt = now
		assignment.UpdatedAt = now

		result, err := tx.Exec(
			`INSERT INTO assignments (member_id, start_date, end_date, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			assignment.MemberID,
			dateutil.FormatDate(assignment.StartDate),
			dateutil.FormatDate(assignment.EndDate),
			now.Format(time.RFC3339),
			now.Format(time.RFC3339),
		)
		if err != nil {
			return nil, mapError(err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read inserted assignment id: %w", err)
		}
		assignment.ID = id
		inserted = append(inserted, assignment)
	}
	return inserted, nil
}

// ListAssignments returns assignments matching the filter, ordered by start
// date then ID. The From/To bounds match any window intersecting the range.
func (r *AssignmentRepository) ListAssignments(ctx context.Context, filter persistence.AssignmentFilter) ([]persistence.Assignment, error) {
	query := `SELECT id, member_id, start_date, end_date, is_active, created_at, updated_at FROM assignments`

	var conditions []string
	var args []any
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = 1")
	}
	if filter.From != nil {
		conditions = append(conditions, "end_date >= ?")
		args = append(args, dateutil.FormatDate(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "start_date <= ?")
		args = append(args, dateutil.FormatDate(*filter.To))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_date ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var assignments []persistence.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return assignments, nil
}

func scanAssignment(row rowScanner) (persistence.Assignment, error) {
	var assignment persistence.Assignment
	var startDate, endDate, createdAt, updatedAt string
	var isActive int

	if err := row.Scan(&assignment.ID, &assignment.MemberID, &startDate, &endDate, &isActive, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return persistence.Assignment{}, persistence.ErrNotFound
		}
		return persistence.Assignment{}, mapError(err)
	}
	assignment.IsActive = isActive != 0

	var err error
	if assignment.StartDate, err = dateutil.ParseDate(startDate); err != nil {
		return persistence.Assignment{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if assignment.EndDate, err = dateutil.ParseDate(endDate); err != nil {
		return persistence.Assignment{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if assignment.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Assignment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if assignment.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Assignment{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return assignment, nil
}
