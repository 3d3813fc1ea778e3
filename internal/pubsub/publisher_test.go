package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	ps "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.payloads = append(p.payloads, payload)
	return "msg-1", nil
}

func TestNewPublisherRequiresTopic(t *testing.T) {
	_, err := NewPublisher(context.Background(), "test-project", "")
	assert.Error(t, err)
}

func TestPublisherEmitterEncodesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	em := NewPublisherEmitter(pub, zerolog.Nop())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	em.now = func() time.Time { return at }

	em.Emit(context.Background(), Event{Type: CourseCreated, StudentID: "s-1", CourseID: "c-1"})

	require.Len(t, pub.payloads, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "course.created", got["type"])
	assert.Equal(t, "s-1", got["studentId"])
	assert.Equal(t, "c-1", got["courseId"])
	assert.Equal(t, "2026-03-01T12:00:00Z", got["occurredAt"])
}

func TestPublisherEmitterOmitsEmptyCourseID(t *testing.T) {
	pub := &recordingPublisher{}
	NewPublisherEmitter(pub, zerolog.Nop()).Emit(context.Background(), Event{Type: StudentRegistered, StudentID: "s-1"})

	require.Len(t, pub.payloads, 1)
	assert.NotContains(t, string(pub.payloads[0]), "courseId")
}

func TestPublisherEmitterLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	pub := &recordingPublisher{err: errors.New("unavailable")}
	em := NewPublisherEmitter(pub, zerolog.New(&buf))

	assert.NotPanics(t, func() {
		em.Emit(context.Background(), Event{Type: StudentLoggedIn, StudentID: "s-1"})
	})
	assert.Contains(t, buf.String(), "Failed to publish event")
	assert.Contains(t, buf.String(), "student.logged_in")
}

// stalledPublisher blocks until its context ends, like an unreachable broker.
type stalledPublisher struct {
	parentErr error
}

func (p *stalledPublisher) Publish(ctx context.Context, _ []byte) (string, error) {
	p.parentErr = ctx.Err()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPublisherEmitterBoundsStalledPublish(t *testing.T) {
	var buf bytes.Buffer
	pub := &stalledPublisher{}
	em := NewPublisherEmitter(pub, zerolog.New(&buf)).WithPublishTimeout(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	em.Emit(ctx, Event{Type: StudentRegistered, StudentID: "s-1"})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, buf.String(), "Failed to publish event")
}

func TestPublisherEmitterIgnoresCallerCancellation(t *testing.T) {
	pub := &stalledPublisher{}
	em := NewPublisherEmitter(pub, zerolog.Nop()).WithPublishTimeout(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	em.Emit(ctx, Event{Type: CourseDeleted, StudentID: "s-1", CourseID: "c-1"})

	assert.NoError(t, pub.parentErr)
}

func TestPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	topicName := "scms-events-test"

	admin, err := ps.NewClient(ctx, "test-project")
	require.NoError(t, err)
	defer admin.Close()

	topic, err := admin.CreateTopic(ctx, topicName)
	require.NoError(t, err)
	sub, err := admin.CreateSubscription(ctx, "scms-events-test-sub", ps.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	pub, err := NewPublisher(ctx, "test-project", topicName)
	require.NoError(t, err)
	defer pub.Close()

	msgID, err := pub.Publish(ctx, []byte("hello-emulator"))
	require.NoError(t, err)
	require.NotEmpty(t, msgID)

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c := make(chan []byte, 1)
	go func() {
		sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			c <- m.Data
			m.Ack()
			cancel()
		})
	}()

	select {
	case data := <-c:
		assert.Equal(t, "hello-emulator", string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
