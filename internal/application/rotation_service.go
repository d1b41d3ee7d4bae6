package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
	"github.com/example/swimteam-scheduler/internal/persistence"
	"github.com/example/swimteam-scheduler/internal/rotation"
)

// AssignmentRepository captures the persistence operations needed by the
// rotation service.
type AssignmentRepository interface {
	InsertAssignments(ctx context.Context, assignments []Assignment) ([]Assignment, error)
	ListAssignments(ctx context.Context, query AssignmentQuery) ([]Assignment, error)
	// ReplaceAssignmentsFrom atomically retires active windows starting on or
	// after the date and inserts the new generation; a failure must leave the
	// prior generation untouched.
	ReplaceAssignmentsFrom(ctx context.Context, date time.Time, assignments []Assignment) ([]Assignment, error)
	// ReplaceAllAssignments atomically retires every active window and
	// inserts the new generation.
	ReplaceAllAssignments(ctx context.Context, assignments []Assignment) ([]Assignment, error)
}

// RotationServiceConfig tunes rotation generation defaults.
type RotationServiceConfig struct {
	// WindowDays is the duty window length applied when a request carries no
	// override.
	WindowDays int
	// HorizonMonths bounds how far ahead a generation reaches when a request
	// carries no explicit horizon.
	HorizonMonths int
}

func (c RotationServiceConfig) withDefaults() RotationServiceConfig {
	if c.WindowDays < 1 {
		c.WindowDays = rotation.DefaultWindowDays
	}
	if c.HorizonMonths < 1 {
		c.HorizonMonths = 6
	}
	return c
}

// RotationService owns the duty rotation: generating windows, re-anchoring
// them, and resolving the leader for a date. Mutating operations are
// serialized so concurrent generations cannot race each other between the
// roster snapshot and the replacement write.
type RotationService struct {
	members     MemberRepository
	assignments AssignmentRepository
	config      RotationServiceConfig
	now         func() time.Time
	logger      *slog.Logger

	mu    sync.Mutex
	cache *leaderCache
}

// NewRotationService constructs a rotation service with the provided
// dependencies.
func NewRotationService(members MemberRepository, assignments AssignmentRepository, config RotationServiceConfig, now func() time.Time) *RotationService {
	return NewRotationServiceWithLogger(members, assignments, config, now, nil)
}

// NewRotationServiceWithLogger constructs a rotation service with a specified
// logger.
func NewRotationServiceWithLogger(members MemberRepository, assignments AssignmentRepository, config RotationServiceConfig, now func() time.Time, logger *slog.Logger) *RotationService {
	if now == nil {
		now = time.Now
	}
	return &RotationService{
		members:     members,
		assignments: assignments,
		config:      config.withDefaults(),
		now:         now,
		logger:      defaultLogger(logger),
		cache:       newLeaderCache(0, 0, now),
	}
}

func (s *RotationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RotationService", operation, attrs...)
}

// Generate replaces the rotation from params.StartDate onward with freshly
// tiled duty windows. Windows before the start date keep their records.
func (s *RotationService) Generate(ctx context.Context, params GenerateParams) (assignments []Assignment, err error) {
	if s == nil {
		err = fmt.Errorf("RotationService is nil")
		return
	}

	start := dateutil.Midnight(params.StartDate)
	logger := s.loggerWith(ctx, "Generate", "start_date", dateutil.FormatDate(start))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate rotation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("assignment_count", len(assignments)).InfoContext(ctx, "rotation generated")
	}()

	windowDays, horizonEnd, vErr := s.resolveGenerationBounds(start, params.WindowDays, params.HorizonEnd)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return
	}

	windows, err := rotation.Generate(roster, start, windowDays, horizonEnd)
	if err != nil {
		return
	}

	assignments, err = s.persistWindows(windows, func(rows []Assignment) ([]Assignment, error) {
		return s.assignments.ReplaceAssignmentsFrom(ctx, start, rows)
	})
	return
}

// SetFromDate re-anchors the rotation so that params.MemberID holds the duty
// window starting on params.Date. The full prior rotation is deactivated.
func (s *RotationService) SetFromDate(ctx context.Context, params SetFromDateParams) (assignments []Assignment, err error) {
	if s == nil {
		err = fmt.Errorf("RotationService is nil")
		return
	}

	start := dateutil.Midnight(params.Date)
	logger := s.loggerWith(ctx, "SetFromDate", "start_date", dateutil.FormatDate(start), "member_id", params.MemberID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to re-anchor rotation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("assignment_count", len(assignments)).InfoContext(ctx, "rotation re-anchored")
	}()

	windowDays, horizonEnd, vErr := s.resolveGenerationBounds(start, params.WindowDays, params.HorizonEnd)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return
	}

	windows, err := rotation.GenerateFrom(roster, start, params.MemberID, windowDays, horizonEnd)
	if err != nil {
		return
	}

	assignments, err = s.persistWindows(windows, func(rows []Assignment) ([]Assignment, error) {
		return s.assignments.ReplaceAllAssignments(ctx, rows)
	})
	return
}

// LeaderOn resolves which member holds duty on the given date. ErrNotFound is
// returned when no active window covers the date.
func (s *RotationService) LeaderOn(ctx context.Context, date time.Time) (leader Leader, err error) {
	if s == nil {
		err = fmt.Errorf("RotationService is nil")
		return
	}

	day := dateutil.Midnight(date)
	logger := s.loggerWith(ctx, "LeaderOn", "date", dateutil.FormatDate(day))
	defer func() {
		if err != nil && !errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to resolve leader", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if cached, ok := s.cache.Get(day); ok {
		leader = cached
		return
	}

	active, err := s.assignments.ListAssignments(ctx, AssignmentQuery{ActiveOnly: true})
	if err != nil {
		err = mapAssignmentRepoError(err)
		return
	}

	windows := make([]rotation.Assignment, 0, len(active))
	for _, a := range active {
		windows = append(windows, rotation.Assignment{MemberID: a.MemberID, StartDate: a.StartDate, EndDate: a.EndDate})
	}
	memberID, ok := rotation.Resolve(windows, day)
	if !ok {
		err = ErrNotFound
		return
	}

	var covering Assignment
	for _, a := range active {
		if a.MemberID == memberID && dateutil.Contains(a.StartDate, a.EndDate, day) {
			covering = a
			break
		}
	}

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		err = mapMemberRepoError(err)
		return
	}

	leader = Leader{Member: member, Assignment: covering}
	s.cache.Store(day, leader)
	return
}

// ListAssignments returns assignments matching the query ordered by start
// date.
func (s *RotationService) ListAssignments(ctx context.Context, query AssignmentQuery) ([]Assignment, error) {
	if s == nil || s.assignments == nil {
		return nil, fmt.Errorf("assignment repository not configured")
	}
	assignments, err := s.assignments.ListAssignments(ctx, query)
	if err != nil {
		return nil, mapAssignmentRepoError(err)
	}
	return assignments, nil
}

// ExtendHorizon appends windows when the active rotation is about to run out.
// It is a no-op when no active rotation exists or the remaining coverage
// exceeds leadDays.
func (s *RotationService) ExtendHorizon(ctx context.Context, leadDays int) (appended []Assignment, err error) {
	if s == nil {
		err = fmt.Errorf("RotationService is nil")
		return
	}
	if leadDays < 1 {
		leadDays = 30
	}

	logger := s.loggerWith(ctx, "ExtendHorizon", "lead_days", leadDays)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to extend rotation horizon", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if len(appended) > 0 {
			logger.With("assignment_count", len(appended)).InfoContext(ctx, "rotation horizon extended")
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.assignments.ListAssignments(ctx, AssignmentQuery{ActiveOnly: true})
	if err != nil {
		err = mapAssignmentRepoError(err)
		return
	}
	if len(active) == 0 {
		return
	}

	last := active[0]
	for _, a := range active[1:] {
		if a.EndDate.After(last.EndDate) {
			last = a
		}
	}

	today := dateutil.Midnight(s.now())
	if dateutil.DaysBetween(today, last.EndDate) >= leadDays {
		return
	}

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return
	}
	if len(roster) == 0 {
		return
	}
	nextMemberID, ok := cyclicSuccessor(roster, last.MemberID)
	if !ok {
		err = rotation.ErrUnknownMember
		return
	}

	nextStart := dateutil.AddDays(last.EndDate, 1)
	horizonEnd := dateutil.AddDays(dateutil.AddMonthsClamped(nextStart, s.config.HorizonMonths), -1)
	windows, err := rotation.GenerateFrom(roster, nextStart, nextMemberID, s.config.WindowDays, horizonEnd)
	if err != nil {
		return
	}
	appended, err = s.insertWindows(ctx, windows)
	return
}

func (s *RotationService) resolveGenerationBounds(start time.Time, windowDays int, horizonEnd time.Time) (int, time.Time, *ValidationError) {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("startDate", "start date is required")
	}
	if windowDays == 0 {
		windowDays = s.config.WindowDays
	}
	if windowDays < 1 {
		vErr.add("windowDays", "window length must be at least 1 day")
	}
	if horizonEnd.IsZero() {
		horizonEnd = dateutil.AddDays(dateutil.AddMonthsClamped(start, s.config.HorizonMonths), -1)
	} else {
		horizonEnd = dateutil.Midnight(horizonEnd)
	}
	if !start.IsZero() && horizonEnd.Before(start) {
		vErr.add("horizonEnd", "horizon end must not precede the start date")
	}
	return windowDays, horizonEnd, vErr
}

func (s *RotationService) loadRoster(ctx context.Context) ([]rotation.Member, error) {
	if s.members == nil {
		return nil, fmt.Errorf("member repository not configured")
	}
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, mapMemberRepoError(err)
	}
	roster := make([]rotation.Member, 0, len(members))
	for _, m := range members {
		roster = append(roster, rotation.Member{ID: m.ID, Name: m.Name, Order: m.Order})
	}
	return roster, nil
}

func (s *RotationService) insertWindows(ctx context.Context, windows []rotation.Assignment) ([]Assignment, error) {
	return s.persistWindows(windows, func(rows []Assignment) ([]Assignment, error) {
		return s.assignments.InsertAssignments(ctx, rows)
	})
}

// persistWindows stamps the proposed windows and hands them to the supplied
// storage call. The leader cache is dropped on success so stale resolutions
// never outlive a generation change.
func (s *RotationService) persistWindows(windows []rotation.Assignment, store func([]Assignment) ([]Assignment, error)) ([]Assignment, error) {
	if s.assignments == nil {
		return nil, fmt.Errorf("assignment repository not configured")
	}
	rows := make([]Assignment, 0, len(windows))
	now := s.now()
	for _, w := range windows {
		rows = append(rows, Assignment{
			MemberID:  w.MemberID,
			StartDate: w.StartDate,
			EndDate:   w.EndDate,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	inserted, err := store(rows)
	if err != nil {
		return nil, mapAssignmentRepoError(err)
	}
	s.cache.Invalidate()
	return inserted, nil
}

// cyclicSuccessor returns the member that follows the given member in rotation
// order, wrapping at the end of the roster.
func cyclicSuccessor(roster []rotation.Member, memberID int64) (int64, bool) {
	ordered := rotation.SortRoster(roster)
	for i, m := range ordered {
		if m.ID == memberID {
			return ordered[(i+1)%len(ordered)].ID, true
		}
	}
	return 0, false
}

func mapAssignmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return rotation.ErrUnknownMember
	}
	return err
}
