package eventservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "EventService"

// Collaborators are the ports the service calls outside its own storage.
// Nil Notifier, Reminders, Content and Users disable the matching feature.
type Collaborators struct {
	Notifier  Notifier
	Reminders ReminderScheduler
	Content   ContentLookup
	Users     UserDirectory
	Policies  authdomain.Policies
	Clock     Clock
}

// EventService implements the Service interface.
type EventService struct {
	repo      eventdb.Repository
	notifier  Notifier
	reminders ReminderScheduler
	content   ContentLookup
	users     UserDirectory
	policies  authdomain.Policies
	clock     Clock
	parser    *StartTimeParser
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
	db        *bun.DB
}

var _ Service = (*EventService)(nil)

// NewEventService creates a new EventService.
func NewEventService(
	repo eventdb.Repository,
	collab Collaborators,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	if collab.Policies == nil {
		collab.Policies = authdomain.DefaultPolicies()
	}
	if collab.Clock == nil {
		collab.Clock = realClock{}
	}
	return &EventService{
		repo:      repo,
		notifier:  collab.Notifier,
		reminders: collab.Reminders,
		content:   collab.Content,
		users:     collab.Users,
		policies:  collab.Policies,
		clock:     collab.Clock,
		parser:    NewStartTimeParser(),
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers
// -----------------------------------------------------------------------------

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *EventService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("event_id", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("event_id", identifier),
				slog.String("error", err.Error()),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		slog.String("operation", operationName),
		slog.String("event_id", identifier),
	)

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("event_id", identifier),
			slog.String("error", wrappedErr.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			slog.String("operation", operationName),
			slog.String("event_id", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	} else {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			slog.String("operation", operationName),
			slog.String("event_id", identifier),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

var errRollback = errors.New("rollback domain failure")

// runInTx runs fn in a read-committed transaction. A failure result rolls the
// transaction back and is returned without an error.
func runInTx[S any, F any](
	s *EventService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}
	return result, err
}

func success[S any](v S) results.OperationResult[S, error] {
	return results.SuccessResult[S, error](v)
}

func failure[S any](err error) results.OperationResult[S, error] {
	return results.FailureResult[S, error](err)
}

// unwrap converts a telemetry result into the public return pair.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, errors.New("operation produced no result")
	}
	return *result.Success, nil
}
