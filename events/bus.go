// Package events provides the in-process event bus for live interview push:
// one publisher and N subscribers per event kind, scoped to the process
// lifetime and injected into the services that need it.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// TranscriptionEvent carries a live transcript update for one answer
type TranscriptionEvent struct {
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	Final      bool      `json:"final"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProgressEvent carries interview progress after an answer completes
type ProgressEvent struct {
	SessionID         string    `json:"session_id"`
	Completed         int       `json:"completed"`
	Total             int       `json:"total"`
	Remaining         int       `json:"remaining"`
	InterviewComplete bool      `json:"interview_complete"`
	Timestamp         time.Time `json:"timestamp"`
}

// ErrorEvent carries a background task failure
type ErrorEvent struct {
	SessionID string    `json:"session_id"`
	Task      string    `json:"task"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// topic is one event kind's fan-out. Publish never blocks: a subscriber with
// a full buffer misses the event.
type topic[T any] struct {
	mu   sync.RWMutex
	subs map[int]chan T
	next int
}

func newTopic[T any]() *topic[T] {
	return &topic[T]{subs: make(map[int]chan T)}
}

func (t *topic[T]) subscribe(buffer int) (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	ch := make(chan T, buffer)
	t.subs[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if ch, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (t *topic[T]) publish(event T) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	dropped := 0
	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	return dropped
}

// Bus is the process-wide event bus. Construct one in main and inject it.
type Bus struct {
	transcription *topic[TranscriptionEvent]
	progress      *topic[ProgressEvent]
	errors        *topic[ErrorEvent]
}

func NewBus() *Bus {
	return &Bus{
		transcription: newTopic[TranscriptionEvent](),
		progress:      newTopic[ProgressEvent](),
		errors:        newTopic[ErrorEvent](),
	}
}

const subscriberBuffer = 16

func (b *Bus) PublishTranscription(event TranscriptionEvent) {
	if dropped := b.transcription.publish(event); dropped > 0 {
		slog.Warn("Transcription event dropped for slow subscribers", "session_id", event.SessionID, "dropped", dropped)
	}
}

func (b *Bus) PublishProgress(event ProgressEvent) {
	if dropped := b.progress.publish(event); dropped > 0 {
		slog.Warn("Progress event dropped for slow subscribers", "session_id", event.SessionID, "dropped", dropped)
	}
}

func (b *Bus) PublishError(event ErrorEvent) {
	if dropped := b.errors.publish(event); dropped > 0 {
		slog.Warn("Error event dropped for slow subscribers", "session_id", event.SessionID, "dropped", dropped)
	}
}

// SubscribeTranscription registers a transcription subscriber. The returned
// cancel func closes the channel and must be called exactly once.
func (b *Bus) SubscribeTranscription() (<-chan TranscriptionEvent, func()) {
	return b.transcription.subscribe(subscriberBuffer)
}

func (b *Bus) SubscribeProgress() (<-chan ProgressEvent, func()) {
	return b.progress.subscribe(subscriberBuffer)
}

func (b *Bus) SubscribeErrors() (<-chan ErrorEvent, func()) {
	return b.errors.subscribe(subscriberBuffer)
}
