package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Event types emitted by the services.
const (
	StudentRegistered = "student.registered"
	StudentLoggedIn   = "student.logged_in"
	CourseCreated     = "course.created"
	CourseDeleted     = "course.deleted"
)

// Event is the JSON message body. It never carries credentials.
type Event struct {
	Type       string    `json:"type"`
	StudentID  string    `json:"studentId"`
	CourseID   string    `json:"courseId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Emitter records domain events. Emit is best-effort: it never fails the
// operation that triggered it.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// NoopEmitter drops every event.
type NoopEmitter struct{}

func (NoopEmitter) Emit(context.Context, Event) {}

// DefaultPublishTimeout bounds how long Emit waits for the broker.
const DefaultPublishTimeout = 2 * time.Second

// PublisherEmitter serializes events and hands them to a Publisher, logging
// failures.
type PublisherEmitter struct {
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
	timeout   time.Duration
}

func NewPublisherEmitter(publisher Publisher, logger zerolog.Logger) *PublisherEmitter {
	return &PublisherEmitter{
		publisher: publisher,
		logger:    logger.With().Str("component", "events").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		timeout:   DefaultPublishTimeout,
	}
}

// WithPublishTimeout replaces DefaultPublishTimeout.
func (e *PublisherEmitter) WithPublishTimeout(d time.Duration) *PublisherEmitter {
	e.timeout = d
	return e
}

func (e *PublisherEmitter) Emit(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error().Err(err).Str("event_type", ev.Type).Msg("Failed to encode event")
		return
	}
	// Detached from the caller so a client disconnect does not drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	id, err := e.publisher.Publish(ctx, payload)
	if err != nil {
		e.logger.Warn().Err(err).Str("event_type", ev.Type).Msg("Failed to publish event")
		return
	}
	e.logger.Debug().Str("event_type", ev.Type).Str("message_id", id).Msg("Event published")
}
