package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
	"github.com/example/swimteam-scheduler/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository on SQLite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, title, type, date, start_time, end_time, location, notes,
	is_recurring, recurring_pattern, recurring_end_date, weekdays, max_occurrences, template_id,
	created_at, updated_at`

// CreateSession inserts a single session row and returns it with its ID.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	var created persistence.Session
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		inserted, err := insertSessionTx(tx, session)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return created, nil
}

// InsertSessions persists a batch of occurrence rows in one transaction,
// returning them with assigned IDs in input order.
func (r *SessionRepository) InsertSessions(ctx context.Context, sessions []persistence.Session) ([]persistence.Session, error) {
	if len(sessions) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	inserted := make([]persistence.Session, 0, len(sessions))

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, session := range sessions {
			session.CreatedAt = now
			session.UpdatedAt = now
			row, err := insertSessionTx(tx, session)
			if err != nil {
				return err
			}
			inserted = append(inserted, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func insertSessionTx(tx *sql.Tx, session persistence.Session) (persistence.Session, error) {
	weekdays, err := encodeWeekdays(session.Weekdays)
	if err != nil {
		return persistence.Session{}, err
	}

	result, err := tx.Exec(
		`INSERT INTO sessions (title, type, date, start_time, end_time, location, notes,
			is_recurring, recurring_pattern, recurring_end_date, weekdays, max_occurrences, template_id,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Title,
		session.Type,
		dateutil.FormatDate(session.Date),
		session.StartTime,
		session.EndTime,
		session.Location,
		session.Notes,
		boolToInt(session.IsRecurring),
		nullString(session.RecurringPattern),
		nullDate(session.RecurringEndDate),
		weekdays,
		nullInt(session.MaxOccurrences),
		nullInt64(session.TemplateID),
		session.CreatedAt.Format(time.RFC3339),
		session.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to read inserted session id: %w", err)
	}
	session.ID = id
	return session, nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id int64) (persistence.Session, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessionsForRange returns sessions dated within [from, to].
func (r *SessionRepository) ListSessionsForRange(ctx context.Context, from, to time.Time) ([]persistence.Session, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC, start_time ASC, id ASC`,
		dateutil.FormatDate(from),
		dateutil.FormatDate(to),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sessions, nil
}

// UpdateSession replaces the mutable fields of an existing session.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	weekdays, err := encodeWeekdays(session.Weekdays)
	if err != nil {
		return persistence.Session{}, err
	}
	session.UpdatedAt = time.Now().UTC()

	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE sessions SET title = ?, type = ?, date = ?, start_time = ?, end_time = ?, location = ?, notes = ?,
			is_recurring = ?, recurring_pattern = ?, recurring_end_date = ?, weekdays = ?, max_occurrences = ?,
			updated_at = ?
		 WHERE id = ?`,
		session.Title,
		session.Type,
		dateutil.FormatDate(session.Date),
		session.StartTime,
		session.EndTime,
		session.Location,
		session.Notes,
		boolToInt(session.IsRecurring),
		nullString(session.RecurringPattern),
		nullDate(session.RecurringEndDate),
		weekdays,
		nullInt(session.MaxOccurrences),
		session.UpdatedAt.Format(time.RFC3339),
		session.ID,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return r.GetSession(ctx, session.ID)
}

// DeleteSession removes a session row. Occurrences of a deleted template keep
// their rows; their template_id reference is cleared by the schema.
func (r *SessionRepository) DeleteSession(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var date, createdAt, updatedAt string
	var isRecurring int
	var pattern, endDate, weekdays sql.NullString
	var maxOccurrences, templateID sql.NullInt64

	err := row.Scan(
		&session.ID,
		&session.Title,
		&session.Type,
		&date,
		&session.StartTime,
		&session.EndTime,
		&session.Location,
		&session.Notes,
		&isRecurring,
		&pattern,
		&endDate,
		&weekdays,
		&maxOccurrences,
		&templateID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, mapError(err)
	}

	session.IsRecurring = isRecurring != 0
	if pattern.Valid {
		session.RecurringPattern = pattern.String
	}
	if endDate.Valid {
		parsed, err := dateutil.ParseDate(endDate.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse recurring_end_date: %w", err)
		}
		session.RecurringEndDate = &parsed
	}
	if weekdays.Valid && weekdays.String != "" {
		if err := json.Unmarshal([]byte(weekdays.String), &session.Weekdays); err != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse weekdays: %w", err)
		}
	}
	if maxOccurrences.Valid {
		session.MaxOccurrences = int(maxOccurrences.Int64)
	}
	if templateID.Valid {
		id := templateID.Int64
		session.TemplateID = &id
	}

	if session.Date, err = dateutil.ParseDate(date); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return session, nil
}

func encodeWeekdays(weekdays []int) (any, error) {
	if len(weekdays) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(weekdays)
	if err != nil {
		return nil, fmt.Errorf("failed to encode weekdays: %w", err)
	}
	return string(raw), nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullDate(v *time.Time) any {
	if v == nil {
		return nil
	}
	return dateutil.FormatDate(*v)
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
