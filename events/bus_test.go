package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	first, cancelFirst := bus.SubscribeProgress()
	defer cancelFirst()
	second, cancelSecond := bus.SubscribeProgress()
	defer cancelSecond()

	event := ProgressEvent{SessionID: "s1", Completed: 2, Total: 5, Remaining: 3, Timestamp: time.Now()}
	bus.PublishProgress(event)

	for _, ch := range []<-chan ProgressEvent{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, "s1", got.SessionID)
			assert.Equal(t, 2, got.Completed)
			assert.Equal(t, 3, got.Remaining)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBusPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	go func() {
		bus.PublishTranscription(TranscriptionEvent{SessionID: "s1", Text: "hello"})
		bus.PublishError(ErrorEvent{SessionID: "s1", Task: "evaluation", Message: "boom"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.SubscribeTranscription()
	defer cancel()

	// Fill the buffer past capacity; publish must never block.
	for i := 0; i < subscriberBuffer+5; i++ {
		bus.PublishTranscription(TranscriptionEvent{SessionID: "s1", Text: "t"})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			assert.Equal(t, subscriberBuffer, received)
			return
		}
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.SubscribeErrors()
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic or deliver.
	bus.PublishError(ErrorEvent{SessionID: "s1", Task: "evaluation"})
}

func TestBusTopicsAreIndependent(t *testing.T) {
	bus := NewBus()

	progress, cancelProgress := bus.SubscribeProgress()
	defer cancelProgress()

	bus.PublishTranscription(TranscriptionEvent{SessionID: "s1"})

	select {
	case <-progress:
		t.Fatal("progress subscriber received a transcription event")
	case <-time.After(50 * time.Millisecond):
	}
}
