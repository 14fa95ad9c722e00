package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/pkg/events"
	"github.com/noah-isme/obe-attainment-api/pkg/jobs"
)

// Domain event types.
const (
	EventResultsSubmitted = "results.submitted"
	EventMappingChanged   = "mapping.changed"
	EventResultModerated  = "result.moderated"
)

const eventJobType = "publish_event"

type eventQueue interface {
	Enqueue(job jobs.Job) error
}

// eventEmitter is the best-effort hook services use after a successful write.
type eventEmitter interface {
	Emit(ctx context.Context, eventType string, actorID int64, payload interface{})
}

// EventService turns domain changes into published events, delivered through the job queue when one is attached.
type EventService struct {
	publisher events.Publisher
	queue     eventQueue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventService constructs EventService. A nil publisher disables emission.
func NewEventService(publisher events.Publisher, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{publisher: publisher, metrics: metrics, logger: logger}
}

// AttachQueue routes emitted events through a retrying worker queue.
func (s *EventService) AttachQueue(queue eventQueue) {
	s.queue = queue
}

// Emit publishes an event without failing the caller; errors are logged and counted.
func (s *EventService) Emit(ctx context.Context, eventType string, actorID int64, payload interface{}) {
	if s == nil || s.publisher == nil {
		return
	}
	event, err := events.NewEvent(eventType, actorID, payload)
	if err != nil {
		s.logger.Warn("failed to build event", zap.String("type", eventType), zap.Error(err))
		s.metrics.RecordEvent(eventType, false)
		return
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: event.ID, Type: eventJobType, Payload: event})
		if err == nil {
			return
		}
		s.logger.Warn("event queue unavailable, publishing inline", zap.String("event_id", event.ID), zap.Error(err))
	}
	s.publish(context.WithoutCancel(ctx), event)
}

// Handle is the job handler delivering queued events.
func (s *EventService) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(events.Event)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.RecordEvent(event.Type, false)
		return err
	}
	s.metrics.RecordEvent(event.Type, true)
	return nil
}

func (s *EventService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_id", event.ID), zap.String("type", event.Type), zap.Error(err))
		s.metrics.RecordEvent(event.Type, false)
		return
	}
	s.metrics.RecordEvent(event.Type, true)
}
