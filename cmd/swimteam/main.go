package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/robfig/cron/v3"

	"github.com/example/swimteam-scheduler/internal/application"
	"github.com/example/swimteam-scheduler/internal/config"
	httptransport "github.com/example/swimteam-scheduler/internal/http"
	"github.com/example/swimteam-scheduler/internal/logging"
	"github.com/example/swimteam-scheduler/internal/persistence"
	"github.com/example/swimteam-scheduler/internal/persistence/sqlite"
	"github.com/example/swimteam-scheduler/internal/seed"
)

type cli struct {
	Serve serveCmd `cmd:"" default:"1" help:"Run the scheduling API server."`
	Seed  seedCmd  `cmd:"" help:"Populate an empty roster from a YAML seed file."`
}

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)

	var args cli
	kctx := kong.Parse(&args,
		kong.Name("swimteam"),
		kong.Description("Swim team duty rotation and training session scheduler."),
		kong.UsageOnError(),
	)
	if err := kctx.Run(logger); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

type serveCmd struct{}

func (c *serveCmd) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	storage, err := openStorage(ctx, cfg.SQLiteDSN)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	now := time.Now

	memberRepo := newMemberRepositoryAdapter(storage)
	assignmentRepo := newAssignmentRepositoryAdapter(storage)
	sessionRepo := newSessionRepositoryAdapter(storage)

	rosterService := application.NewRosterServiceWithLogger(memberRepo, now, logger)
	rotationService := application.NewRotationServiceWithLogger(memberRepo, assignmentRepo, application.RotationServiceConfig{
		WindowDays:    cfg.WindowDays,
		HorizonMonths: cfg.HorizonMonths,
	}, now, logger)
	sessionService := application.NewSessionServiceWithLogger(sessionRepo, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Members:    httptransport.NewMemberHandler(rosterService, logger),
		Rotation:   httptransport.NewRotationHandler(rotationService, logger),
		Sessions:   httptransport.NewSessionHandler(sessionService, logger),
		Feed:       httptransport.NewFeedHandler(rosterService, rotationService, sessionService, now, logger),
		Storage:    storage,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	maintenance := cron.New()
	if _, err := maintenance.AddFunc(cfg.MaintenanceCron, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		appended, jobErr := rotationService.ExtendHorizon(jobCtx, cfg.MaintenanceLeadDays)
		if jobErr != nil {
			logger.Error("rotation horizon maintenance failed", "error", jobErr)
			return
		}
		if len(appended) > 0 {
			logger.Info("rotation horizon extended", "windows", len(appended))
		}
	}); err != nil {
		return fmt.Errorf("schedule maintenance job: %w", err)
	}
	maintenance.Start()
	defer maintenance.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("swimteam API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

type seedCmd struct {
	File string `arg:"" type:"existingfile" help:"Path to the roster seed file."`
}

func (c *seedCmd) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	storage, err := openStorage(ctx, cfg.SQLiteDSN)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	file, err := seed.Load(c.File)
	if err != nil {
		return err
	}

	rosterService := application.NewRosterServiceWithLogger(newMemberRepositoryAdapter(storage), time.Now, logger)
	created, err := seed.Apply(ctx, rosterService, file, logger)
	if err != nil {
		return err
	}
	logger.Info("seed finished", "file", c.File, "created", created)
	return nil
}

func openStorage(ctx context.Context, dsn string) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return storage, nil
}

type memberRepositoryAdapter struct {
	repo persistence.MemberRepository
}

func newMemberRepositoryAdapter(storage *sqlite.Storage) *memberRepositoryAdapter {
	return &memberRepositoryAdapter{repo: storage.Members}
}

func (a *memberRepositoryAdapter) CreateMember(ctx context.Context, member application.Member) (application.Member, error) {
	stored, err := a.repo.CreateMember(ctx, toPersistenceMember(member))
	if err != nil {
		return application.Member{}, err
	}
	return toApplicationMember(stored), nil
}

func (a *memberRepositoryAdapter) GetMember(ctx context.Context, id int64) (application.Member, error) {
	stored, err := a.repo.GetMember(ctx, id)
	if err != nil {
		return application.Member{}, err
	}
	return toApplicationMember(stored), nil
}

func (a *memberRepositoryAdapter) UpdateMember(ctx context.Context, member application.Member) (application.Member, error) {
	stored, err := a.repo.UpdateMember(ctx, toPersistenceMember(member))
	if err != nil {
		return application.Member{}, err
	}
	return toApplicationMember(stored), nil
}

func (a *memberRepositoryAdapter) DeleteMember(ctx context.Context, id int64) error {
	return a.repo.DeleteMember(ctx, id)
}

func (a *memberRepositoryAdapter) ListMembers(ctx context.Context) ([]application.Member, error) {
	models, err := a.repo.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	members := make([]application.Member, 0, len(models))
	for _, model := range models {
		members = append(members, toApplicationMember(model))
	}
	return members, nil
}

type assignmentRepositoryAdapter struct {
	repo persistence.AssignmentRepository
}

func newAssignmentRepositoryAdapter(storage *sqlite.Storage) *assignmentRepositoryAdapter {
	return &assignmentRepositoryAdapter{repo: storage.Assignments}
}

func (a *assignmentRepositoryAdapter) InsertAssignments(ctx context.Context, assignments []application.Assignment) ([]application.Assignment, error) {
	models := make([]persistence.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		models = append(models, toPersistenceAssignment(assignment))
	}
	stored, err := a.repo.InsertAssignments(ctx, models)
	if err != nil {
		return nil, err
	}
	inserted := make([]application.Assignment, 0, len(stored))
	for _, model := range stored {
		inserted = append(inserted, toApplicationAssignment(model))
	}
	return inserted, nil
}

func (a *assignmentRepositoryAdapter) ListAssignments(ctx context.Context, query application.AssignmentQuery) ([]application.Assignment, error) {
	filter := persistence.AssignmentFilter{
		ActiveOnly: query.ActiveOnly,
		From:       cloneTime(query.From),
		To:         cloneTime(query.To),
	}
	models, err := a.repo.ListAssignments(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	assignments := make([]application.Assignment, 0, len(models))
	for _, model := range models {
		assignments = append(assignments, toApplicationAssignment(model))
	}
	return assignments, nil
}

func (a *assignmentRepositoryAdapter) ReplaceAssignmentsFrom(ctx context.Context, date time.Time, assignments []application.Assignment) ([]application.Assignment, error) {
	models := make([]persistence.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		models = append(models, toPersistenceAssignment(assignment))
	}
	stored, err := a.repo.ReplaceAssignmentsFrom(ctx, date, models)
	if err != nil {
		return nil, err
	}
	replaced := make([]application.Assignment, 0, len(stored))
	for _, model := range stored {
		replaced = append(replaced, toApplicationAssignment(model))
	}
	return replaced, nil
}

func (a *assignmentRepositoryAdapter) ReplaceAllAssignments(ctx context.Context, assignments []application.Assignment) ([]application.Assignment, error) {
	models := make([]persistence.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		models = append(models, toPersistenceAssignment(assignment))
	}
	stored, err := a.repo.ReplaceAllAssignments(ctx, models)
	if err != nil {
		return nil, err
	}
	replaced := make([]application.Assignment, 0, len(stored))
	for _, model := range stored {
		replaced = append(replaced, toApplicationAssignment(model))
	}
	return replaced, nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(storage *sqlite.Storage) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: storage.Sessions}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) InsertSessions(ctx context.Context, sessions []application.Session) ([]application.Session, error) {
	models := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		models = append(models, toPersistenceSession(session))
	}
	stored, err := a.repo.InsertSessions(ctx, models)
	if err != nil {
		return nil, err
	}
	inserted := make([]application.Session, 0, len(stored))
	for _, model := range stored {
		inserted = append(inserted, toApplicationSession(model))
	}
	return inserted, nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id int64) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) ListSessionsForRange(ctx context.Context, from, to time.Time) ([]application.Session, error) {
	models, err := a.repo.ListSessionsForRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	sessions := make([]application.Session, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toApplicationSession(model))
	}
	return sessions, nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteSession(ctx context.Context, id int64) error {
	return a.repo.DeleteSession(ctx, id)
}

func toApplicationMember(model persistence.Member) application.Member {
	return application.Member{
		ID:        model.ID,
		Name:      model.Name,
		Order:     model.Position,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceMember(member application.Member) persistence.Member {
	return persistence.Member{
		ID:        member.ID,
		Name:      member.Name,
		Position:  member.Order,
		CreatedAt: member.CreatedAt,
		UpdatedAt: member.UpdatedAt,
	}
}

func toApplicationAssignment(model persistence.Assignment) application.Assignment {
	return application.Assignment{
		ID:        model.ID,
		MemberID:  model.MemberID,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceAssignment(assignment application.Assignment) persistence.Assignment {
	return persistence.Assignment{
		ID:        assignment.ID,
		MemberID:  assignment.MemberID,
		StartDate: assignment.StartDate,
		EndDate:   assignment.EndDate,
		IsActive:  assignment.IsActive,
		CreatedAt: assignment.CreatedAt,
		UpdatedAt: assignment.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:               model.ID,
		Title:            model.Title,
		Type:             model.Type,
		Date:             model.Date,
		StartTime:        model.StartTime,
		EndTime:          model.EndTime,
		Location:         model.Location,
		Notes:            model.Notes,
		IsRecurring:      model.IsRecurring,
		RecurringPattern: model.RecurringPattern,
		RecurringEndDate: cloneTime(model.RecurringEndDate),
		Weekdays:         append([]int(nil), model.Weekdays...),
		MaxOccurrences:   model.MaxOccurrences,
		TemplateID:       cloneInt64(model.TemplateID),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:               session.ID,
		Title:            session.Title,
		Type:             session.Type,
		Date:             session.Date,
		StartTime:        session.StartTime,
		EndTime:          session.EndTime,
		Location:         session.Location,
		Notes:            session.Notes,
		IsRecurring:      session.IsRecurring,
		RecurringPattern: session.RecurringPattern,
		RecurringEndDate: cloneTime(session.RecurringEndDate),
		Weekdays:         append([]int(nil), session.Weekdays...),
		MaxOccurrences:   session.MaxOccurrences,
		TemplateID:       cloneInt64(session.TemplateID),
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
