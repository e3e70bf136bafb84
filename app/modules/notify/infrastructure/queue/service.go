package notifyqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	notifyservice "github.com/Black-And-White-Club/opsboard/app/modules/notify/application"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const metricsService = "river"

// Inserter is the part of the River client used to enqueue jobs.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Config tunes the queue.
type Config struct {
	DSN        string
	MaxWorkers int
	// ReminderLead is how long before the start a reminder fires.
	ReminderLead time.Duration
}

// Service schedules reminders and queues Discord announcements using River.
type Service struct {
	inserter Inserter
	client   *river.Client[pgx.Tx]
	pool     *pgxpool.Pool
	announce bool
	lead     time.Duration
	logger   *slog.Logger
	metrics  observability.OperationMetrics
	now      func() time.Time
}

var _ notifyservice.Sink = (*Service)(nil)

// NewService connects River to Postgres and registers the workers. A nil
// poster disables Discord announcements; reminders are still published.
func NewService(
	ctx context.Context,
	cfg Config,
	poster Poster,
	events EventSource,
	notifier *notifyservice.FanOut,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
) (*Service, error) {
	logger = logger.With(slog.String("component", "river_queue"))
	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", metricsService)

	// River requires pgx, not database/sql
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewEventReminderWorker(events, notifier, logger))
	if poster != nil {
		river.AddWorker(workers, NewDiscordNotifyWorker(poster, logger))
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	s := newService(client, cfg.ReminderLead, poster != nil, logger, metrics)
	s.client = client
	s.pool = pool

	metrics.RecordOperationSuccess(ctx, "initialize_service", metricsService)
	metrics.RecordOperationDuration(ctx, "initialize_service", metricsService, time.Since(start))
	logger.InfoContext(ctx, "Notify queue service initialized", slog.Bool("discord", poster != nil))
	return s, nil
}

func newService(inserter Inserter, lead time.Duration, announce bool, logger *slog.Logger, metrics observability.OperationMetrics) *Service {
	if lead <= 0 {
		lead = 30 * time.Minute
	}
	return &Service{
		inserter: inserter,
		announce: announce,
		lead:     lead,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Start starts the River workers.
func (s *Service) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting notify queue service")
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping notify queue service")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}

// ScheduleReminder queues a reminder ReminderLead before startsAt, or right
// away when that moment has already passed. Identical reminders are inserted
// once.
func (s *Service) ScheduleReminder(ctx context.Context, eventID uuid.UUID, startsAt time.Time) error {
	const op = "schedule_reminder"
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, op, metricsService)

	now := s.now()
	if !startsAt.After(now) {
		s.logger.InfoContext(ctx, "Event already started, skipping reminder", slog.String("event_id", eventID.String()))
		s.metrics.RecordOperationSuccess(ctx, op, metricsService)
		return nil
	}
	at := startsAt.Add(-s.lead)
	if at.Before(now) {
		at = now
	}

	res, err := s.inserter.Insert(ctx, EventReminderArgs{EventID: eventID, StartsAt: startsAt.UTC()}, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: at,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, op, metricsService)
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, op, metricsService)
	s.metrics.RecordOperationDuration(ctx, op, metricsService, time.Since(start))
	s.logger.InfoContext(ctx, "Event reminder scheduled",
		slog.String("event_id", eventID.String()),
		slog.Time("fires_at", at),
		slog.Bool("duplicate", res != nil && res.UniqueSkippedAsDuplicate),
	)
	return nil
}

// Deliver queues a Discord announcement for visible, announced changes.
func (s *Service) Deliver(ctx context.Context, n notifyservice.Notification) error {
	if !s.announce || n.Change == nil || n.Change.Hidden || !n.Change.Kind.Announced() {
		return nil
	}
	_, err := s.inserter.Insert(ctx, DiscordNotifyArgs{EventID: n.EventID, Content: n.Change.Summary()}, nil)
	if err != nil {
		return fmt.Errorf("failed to queue discord announcement: %w", err)
	}
	return nil
}
