// Package eventbus routes external intent events into the application.
// Collaborators outside the core (HTTP routes, MIDI, the audio pipeline)
// publish intents here; services subscribe and drive the runtime.
package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// EventType names a class of intent.
type EventType string

const (
	EventTypeRaveStart EventType = "rave_start"
	EventTypeRaveStop  EventType = "rave_stop"
	EventTypeApply     EventType = "apply"
	EventTypeTelemetry EventType = "telemetry"
)

// Worker pool defaults.
const (
	DefaultWorkerCount = 4
	DefaultQueueSize   = 100
)

// Event is one published intent with its loose payload.
type Event struct {
	Type EventType
	Data map[string]interface{}
}

// Handler consumes a single event.
type Handler func(Event)

// work pairs an event with the handler that will run it.
type work struct {
	event   Event
	handler Handler
}

// Bus fans published intents out to subscribers on a bounded worker pool.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler

	workQueue chan work
	wg        sync.WaitGroup

	// Shutdown signaling. Publishers hold closeMu for reading while they
	// enqueue, so Close can only shut the queue once no send is in progress.
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New returns a bus with the default pool size.
func New() *Bus {
	return NewWithConfig(DefaultWorkerCount, DefaultQueueSize)
}

// NewWithConfig returns a bus with an explicit worker count and queue depth.
func NewWithConfig(workerCount, queueSize int) *Bus {
	b := &Bus{
		handlers:  make(map[EventType][]Handler),
		workQueue: make(chan work, queueSize),
	}

	for i := 0; i < workerCount; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}

	log.Debug().Int("workers", workerCount).Int("queue_size", queueSize).Msg("Intent bus worker pool started")
	return b
}

// worker drains the queue, isolating handler panics.
func (b *Bus) worker(id int) {
	defer b.wg.Done()

	for w := range b.workQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("event_type", string(w.event.Type)).
						Int("worker", id).
						Msg("Intent handler panicked")
				}
			}()
			w.handler(w.event)
		}()
	}
}

// Subscribe attaches handler to every future event of the given type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish hands the event to every subscriber for its type. It never
// blocks; a full queue or a closed bus drops the event with a warning.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		log.Warn().Str("event_type", string(event.Type)).Msg("Intent bus closing, dropping event")
		return
	}

	for _, handler := range handlers {
		select {
		case b.workQueue <- work{event: event, handler: handler}:
		default:
			log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Intent bus queue full, dropping event")
		}
	}
}

// Close stops accepting events and waits for the workers, bounded by ctx.
func (b *Bus) Close(ctx context.Context) {
	b.closeOnce.Do(func() {
		b.closeMu.Lock()
		b.closed = true
		b.closeMu.Unlock()
		close(b.workQueue)
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Msg("Intent bus workers stopped gracefully")
	case <-ctx.Done():
		log.Warn().Msg("Intent bus shutdown timed out, some events may be lost")
	}
}
