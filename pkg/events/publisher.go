package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the envelope published for every domain change.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	ActorID    int64           `json:"actor_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into a fresh event.
func NewEvent(eventType string, actorID int64, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		Payload:    raw,
	}, nil
}

// Publisher delivers events to a topic derived from the event type.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Config selects the Watermill backend.
type Config struct {
	KafkaBrokers []string
	TopicPrefix  string
	Logger       *zap.Logger
}

// WatermillPublisher publishes events through any Watermill message.Publisher.
type WatermillPublisher struct {
	publisher   message.Publisher
	topicPrefix string
	logger      *zap.Logger
}

// NewPublisher builds a Kafka publisher when brokers are configured, otherwise an in-process GoChannel.
func NewPublisher(cfg Config) (*WatermillPublisher, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	adapter := NewZapAdapter(cfg.Logger)

	var pub message.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, adapter)
		if err != nil {
			return nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		pub = kafkaPub
	} else {
		pub = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, adapter)
	}

	return NewWatermillPublisher(pub, cfg.TopicPrefix, cfg.Logger), nil
}

// NewWatermillPublisher wraps an existing Watermill publisher.
func NewWatermillPublisher(pub message.Publisher, topicPrefix string, logger *zap.Logger) *WatermillPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatermillPublisher{publisher: pub, topicPrefix: topicPrefix, logger: logger}
}

// Topic returns the fully-qualified topic for an event type.
func (p *WatermillPublisher) Topic(eventType string) string {
	if p.topicPrefix == "" {
		return eventType
	}
	return p.topicPrefix + "." + eventType
}

// Publish marshals the event and hands it to Watermill.
func (p *WatermillPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	msg := message.NewMessage(event.ID, body)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("occurred_at", event.OccurredAt.Format(time.RFC3339))

	topic := p.Topic(event.Type)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.ID, topic, err)
	}
	p.logger.Debug("event published", zap.String("event_id", event.ID), zap.String("topic", topic))
	return nil
}

// Close releases the underlying publisher.
func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
