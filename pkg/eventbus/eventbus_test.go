package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type submittedEvent struct {
	submissionID string
}

type otherEvent struct {
	submissionID string
}

func TestPublisher_Publish_NoMatchingSubscribers(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *submittedEvent) {
		t.Error("should not be called")
	})
	publisher.Publish(&otherEvent{submissionID: "s1"})

	output := logBuffer.String()
	require.NotEmpty(t, output)
	require.True(t, strings.Contains(output, "no matching subscribers"), "got: %q", output)
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())
	var got string
	publisher.Subscribe(func(e *submittedEvent) {
		got = e.submissionID
	})
	publisher.Publish(&submittedEvent{submissionID: "s42"})
	require.Equal(t, "s42", got)
}

func TestPublisher_HandlerPanicDoesNotStopOthers(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *submittedEvent) {
		panic("boom")
	})
	called := false
	publisher.Subscribe(func(e *submittedEvent) {
		called = true
	})

	publisher.Publish(&submittedEvent{submissionID: "s1"})
	require.True(t, called)
	require.Contains(t, logBuffer.String(), "panicked")
}

func TestPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())
	handler := func(e *submittedEvent) {}
	publisher.Subscribe(handler)
	require.Equal(t, 1, publisher.SubscribersCount())
	publisher.Unsubscribe(handler)
	require.Equal(t, 0, publisher.SubscribersCount())
}
