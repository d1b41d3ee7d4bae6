package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/swimteam-scheduler/internal/persistence"
)

// MemberRepository implements persistence.MemberRepository on SQLite.
type MemberRepository struct {
	pool *ConnectionPool
}

// NewMemberRepository creates a new SQLite member repository.
func NewMemberRepository(pool *ConnectionPool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// CreateMember inserts a roster member and returns it with its assigned ID.
func (r *MemberRepository) CreateMember(ctx context.Context, member persistence.Member) (persistence.Member, error) {
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	result, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO members (name, position, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		member.Name,
		member.Position,
		member.CreatedAt.Format(time.RFC3339),
		member.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return persistence.Member{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Member{}, fmt.Errorf("failed to read inserted member id: %w", err)
	}
	member.ID = id
	return member, nil
}

// UpdateMember updates name and position of an existing member.
func (r *MemberRepository) UpdateMember(ctx context.Context, member persistence.Member) (persistence.Member, error) {
	member.UpdatedAt = time.Now().UTC()

	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE members SET name = ?, position = ?, updated_at = ? WHERE id = ?`,
		member.Name,
		member.Position,
		member.UpdatedAt.Format(time.RFC3339),
		member.ID,
	)
	if err != nil {
		return persistence.Member{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Member{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Member{}, persistence.ErrNotFound
	}

	return r.GetMember(ctx, member.ID)
}

// GetMember retrieves a member by ID.
func (r *MemberRepository) GetMember(ctx context.Context, id int64) (persistence.Member, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, position, created_at, updated_at FROM members WHERE id = ?`, id)
	return scanMember(row)
}

// ListMembers returns every member in rotation order.
func (r *MemberRepository) ListMembers(ctx context.Context) ([]persistence.Member, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, position, created_at, updated_at FROM members ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var members []persistence.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// DeleteMember removes a member. Historical assignments referencing the
// member keep their rows; deletion fails while active assignments still
// point at the member.
func (r *MemberRepository) DeleteMember(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (persistence.Member, error) {
	var member persistence.Member
	var createdAt, updatedAt string

	if err := row.Scan(&member.ID, &member.Name, &member.Position, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return persistence.Member{}, persistence.ErrNotFound
		}
		return persistence.Member{}, mapError(err)
	}

	var err error
	if member.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Member{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if member.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Member{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return member, nil
}
