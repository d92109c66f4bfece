// Package events is an in-process, non-blocking publish/subscribe bus for
// record lifecycle notifications.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pwaspark/pwagen/internal/logger"
)

// Event names.
const (
	PWACreated = "pwa.created"
	PWAUpdated = "pwa.updated"
	PWADeleted = "pwa.deleted"
)

// Event is one record lifecycle notification.
type Event struct {
	Name      string    `json:"event"`
	RecordID  string    `json:"record_id"`
	UserID    string    `json:"user_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler processes events. Handlers run on the bus worker goroutine and
// must not block for long.
type Handler func(event *Event)

// Publisher is the producing side of a bus.
type Publisher interface {
	Publish(event *Event)
}

const defaultBufferSize = 256

// Bus is an async pub/sub. Publish never blocks: events go to a buffered
// channel drained by a single worker, and are dropped when the buffer is
// full or the bus is stopped.
type Bus struct {
	handlers []Handler
	mu       sync.RWMutex
	eventCh  chan *Event
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	dropped  atomic.Uint64
	log      logger.Logger
}

// NewBus creates a bus with the given buffer size (<= 0 selects the
// default) and starts its worker.
func NewBus(bufferSize int, log logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		log = logger.Discard()
	}
	b := &Bus{
		eventCh: make(chan *Event, bufferSize),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		log:     log.Module("events"),
	}
	go b.processLoop()
	return b
}

// Subscribe registers a handler for every event.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues an event. Events published after Stop are discarded.
func (b *Bus) Publish(event *Event) {
	select {
	case <-b.stopCh:
		return
	default:
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case b.eventCh <- event:
	default:
		b.dropped.Add(1)
		b.log.Warn("event buffer full, dropping event",
			logger.String("event", event.Name),
			logger.String("record_id", event.RecordID))
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Stop delivers queued events, then stops the worker and waits for it.
// Safe to call multiple times.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	<-b.doneCh
}

func (b *Bus) processLoop() {
	defer close(b.doneCh)
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			for {
				select {
				case event := <-b.eventCh:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(event *Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall recovers handler panics so one bad subscriber cannot kill the
// worker.
func (b *Bus) safeCall(handler Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				logger.String("event", event.Name),
				logger.String("panic", fmt.Sprint(r)))
		}
	}()
	handler(event)
}
