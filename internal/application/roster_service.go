package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/swimteam-scheduler/internal/persistence"
)

// MemberRepository captures the persistence operations needed by the roster
// service.
type MemberRepository interface {
	CreateMember(ctx context.Context, member Member) (Member, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	UpdateMember(ctx context.Context, member Member) (Member, error)
	DeleteMember(ctx context.Context, id int64) error
	ListMembers(ctx context.Context) ([]Member, error)
}

// RosterService orchestrates validation and persistence for roster members.
type RosterService struct {
	members MemberRepository
	now     func() time.Time
	logger  *slog.Logger
}

// NewRosterService constructs a roster service with the provided dependencies.
func NewRosterService(members MemberRepository, now func() time.Time) *RosterService {
	return NewRosterServiceWithLogger(members, now, nil)
}

// NewRosterServiceWithLogger constructs a roster service with a specified logger.
func NewRosterServiceWithLogger(members MemberRepository, now func() time.Time, logger *slog.Logger) *RosterService {
	if now == nil {
		now = time.Now
	}
	return &RosterService{members: members, now: now, logger: defaultLogger(logger)}
}

func (s *RosterService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// CreateMember validates input and persists a new roster member.
func (s *RosterService) CreateMember(ctx context.Context, input MemberInput) (member Member, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateMember", "name", input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("member_id", member.ID).InfoContext(ctx, "member created")
	}()

	vErr := validateMemberInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	member = Member{
		Name:      strings.TrimSpace(input.Name),
		Order:     input.Order,
		CreatedAt: s.now(),
	}
	member.UpdatedAt = member.CreatedAt

	if s.members == nil {
		return
	}

	var persisted Member
	persisted, err = s.members.CreateMember(ctx, member)
	if err != nil {
		err = mapMemberRepoError(err)
		return
	}
	member = persisted
	return
}

// UpdateMember validates input and updates an existing member.
func (s *RosterService) UpdateMember(ctx context.Context, id int64, input MemberInput) (member Member, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.members == nil {
		err = fmt.Errorf("member repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateMember", "member_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "member updated")
	}()

	vErr := validateMemberInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing, err := s.members.GetMember(ctx, id)
	if err != nil {
		err = mapMemberRepoError(err)
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Order = input.Order
	existing.UpdatedAt = s.now()

	member, err = s.members.UpdateMember(ctx, existing)
	if err != nil {
		err = mapMemberRepoError(err)
		return
	}
	return
}

// DeleteMember removes a member from the roster. Historical assignments keep
// referencing the member; deletion is refused while active assignments do.
func (s *RosterService) DeleteMember(ctx context.Context, id int64) (err error) {
	if s == nil {
		return fmt.Errorf("RosterService is nil")
	}
	if s.members == nil {
		return fmt.Errorf("member repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteMember", "member_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "member deleted")
	}()

	if err = s.members.DeleteMember(ctx, id); err != nil {
		err = mapMemberRepoError(err)
	}
	return
}

// GetMember retrieves a single member.
func (s *RosterService) GetMember(ctx context.Context, id int64) (Member, error) {
	if s == nil || s.members == nil {
		return Member{}, fmt.Errorf("member repository not configured")
	}
	member, err := s.members.GetMember(ctx, id)
	if err != nil {
		return Member{}, mapMemberRepoError(err)
	}
	return member, nil
}

// ListMembers returns the roster in rotation order.
func (s *RosterService) ListMembers(ctx context.Context) ([]Member, error) {
	if s == nil || s.members == nil {
		return nil, fmt.Errorf("member repository not configured")
	}
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, mapMemberRepoError(err)
	}
	return members, nil
}

func validateMemberInput(input MemberInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Order < 1 {
		vErr.add("order", "order must be at least 1")
	}
	return vErr
}

func mapMemberRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("member", "member fields violate a constraint")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("member", "member is still referenced by duty assignments")
		return vErr
	}
	return err
}
