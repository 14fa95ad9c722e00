package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/pkg/events"
	"github.com/noah-isme/obe-attainment-api/pkg/jobs"
)

type recordingPublisher struct {
	published []events.Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestEventServiceEmitInline(t *testing.T) {
	pub := &recordingPublisher{}
	metrics := NewMetricsService()
	svc := NewEventService(pub, metrics, nil)

	svc.Emit(context.Background(), EventMappingChanged, 7, map[string]int64{"mappingId": 3})
	require.Len(t, pub.published, 1)
	event := pub.published[0]
	assert.Equal(t, EventMappingChanged, event.Type)
	assert.Equal(t, int64(7), event.ActorID)
	assert.NotEmpty(t, event.ID)

	var payload map[string]int64
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, int64(3), payload["mappingId"])
	assert.Equal(t, uint64(1), metrics.Snapshot().EventsPublished)
}

func TestEventServiceQueuesAndHandles(t *testing.T) {
	pub := &recordingPublisher{}
	queue := &recordingQueue{}
	svc := NewEventService(pub, nil, nil)
	svc.AttachQueue(queue)

	svc.Emit(context.Background(), EventResultsSubmitted, 5, map[string]int{"count": 2})
	require.Len(t, queue.jobs, 1)
	assert.Empty(t, pub.published)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))
	require.Len(t, pub.published, 1)
	assert.Equal(t, queue.jobs[0].ID, pub.published[0].ID)

	assert.Error(t, svc.Handle(context.Background(), jobs.Job{ID: "bad", Payload: "nope"}))
}

func TestEventServiceFallsBackWhenQueueFull(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewEventService(pub, nil, nil)
	svc.AttachQueue(&recordingQueue{err: errors.New("queue full")})

	svc.Emit(context.Background(), EventResultModerated, 5, nil)
	assert.Len(t, pub.published, 1)
}

func TestEventServiceHandleReportsPublishFailure(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewEventService(&recordingPublisher{err: errors.New("broker down")}, metrics, nil)
	event, err := events.NewEvent(EventMappingChanged, 1, nil)
	require.NoError(t, err)

	assert.Error(t, svc.Handle(context.Background(), jobs.Job{ID: event.ID, Payload: event}))
	assert.Equal(t, uint64(1), metrics.Snapshot().EventsFailed)
}

func TestNilEventServiceIsNoop(t *testing.T) {
	var svc *EventService
	assert.NotPanics(t, func() { svc.Emit(context.Background(), EventMappingChanged, 1, nil) })
	assert.NotPanics(t, func() { NewEventService(nil, nil, nil).Emit(context.Background(), EventMappingChanged, 1, nil) })
}
