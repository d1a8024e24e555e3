// Package event provides a small synchronous pub/sub dispatcher used to
// decouple the calculator engine from its observers (logging, auto-save).
package event

import (
	"fmt"
	"sync"

	"github.com/dshills/reckon/internal/engine/calc"
)

// Event is implemented by all calculator events.
type Event interface {
	EventName() string
}

// CalculationAdded is published after a calculation joins the history.
type CalculationAdded struct {
	Calculation calc.Calculation
}

func (CalculationAdded) EventName() string { return "calculation.added" }

// HistoryCleared is published after the history is emptied.
type HistoryCleared struct{}

func (HistoryCleared) EventName() string { return "history.cleared" }

// HistoryRestored is published after an undo or redo changes the history.
type HistoryRestored struct {
	// Cause is "undo" or "redo".
	Cause string
	// Entries is the history length after the restore.
	Entries int
}

func (HistoryRestored) EventName() string { return "history.restored" }

// HistorySaved is published after the history is persisted.
type HistorySaved struct {
	Path    string
	Entries int
}

func (HistorySaved) EventName() string { return "history.saved" }

// HistoryLoaded is published after persisted history replaces the live state.
type HistoryLoaded struct {
	Path    string
	Entries int
}

func (HistoryLoaded) EventName() string { return "history.loaded" }

// Handler receives published events.
type Handler func(Event)

// PanicHandler is called when a subscriber panics.
type PanicHandler func(event Event, recovered any)

// Dispatcher delivers events synchronously, in subscription order, in the
// publisher's goroutine. A panicking subscriber never takes down the
// publisher.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	onPanic  PanicHandler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler sets the handler invoked when a subscriber panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) {
		d.onPanic = h
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers a handler for the named event.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// SubscribeAll registers a handler for every event.
func (d *Dispatcher) SubscribeAll(h Handler) {
	d.Subscribe("*", h)
}

// Publish delivers an event to its subscribers and to catch-all subscribers.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[e.EventName()]...)
	handlers = append(handlers, d.handlers["*"]...)
	onPanic := d.onPanic
	d.mu.RUnlock()

	for _, h := range handlers {
		d.dispatch(e, h, onPanic)
	}
}

func (d *Dispatcher) dispatch(e Event, h Handler, onPanic PanicHandler) {
	defer func() {
		if r := recover(); r != nil {
			if onPanic != nil {
				onPanic(e, r)
			}
		}
	}()
	h(e)
}

// Describe renders an event as a short human-readable line, used by the
// logging observer.
func Describe(e Event) string {
	switch ev := e.(type) {
	case CalculationAdded:
		return fmt.Sprintf("calculation added: %s", ev.Calculation)
	case HistoryCleared:
		return "history cleared"
	case HistoryRestored:
		return fmt.Sprintf("history restored (%s), %d entries", ev.Cause, ev.Entries)
	case HistorySaved:
		return fmt.Sprintf("history saved to %s (%d entries)", ev.Path, ev.Entries)
	case HistoryLoaded:
		return fmt.Sprintf("history loaded from %s (%d entries)", ev.Path, ev.Entries)
	default:
		return e.EventName()
	}
}
