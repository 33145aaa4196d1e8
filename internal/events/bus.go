package events

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus dispatches synchronously on the publisher's goroutine, so handlers see
// the caller's context (and any transaction carried in it). Handlers run in
// subscription order; every handler runs and their errors are joined.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
	log  *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{subs: make(map[string][]Handler), log: log.With(zap.String("component", "events"))}
}

func (b *Bus) Subscribe(eventName string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e == nil {
		return nil
	}
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", zap.String("event", name))
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := b.call(ctx, name, h, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		b.log.Warn("event_handler_error", zap.String("event", name), zap.Errors("errors", errs))
		return fmt.Errorf("event %s: %w", name, errors.Join(errs...))
	}
	return nil
}

func (b *Bus) call(ctx context.Context, name string, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event_handler_panic",
				zap.String("event", name),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, e)
}

// On subscribes a handler for a concrete event type. Events of any other type
// published under the same name are rejected.
func On[T Event](s Subscriber, name string, fn func(ctx context.Context, e T) error) {
	s.Subscribe(name, func(ctx context.Context, e Event) error {
		typed, ok := e.(T)
		if !ok {
			return fmt.Errorf("event %s: unexpected payload %T", name, e)
		}
		return fn(ctx, typed)
	})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
