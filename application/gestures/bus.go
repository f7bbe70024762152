package gestures

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler handles gesture events
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow functions to be used as handlers
type HandlerFunc func(ctx context.Context, event Event) error

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Middleware wraps a handler
type Middleware func(next Handler) Handler

// Bus dispatches gesture events to their handlers by concrete type
type Bus struct {
	handlers    map[reflect.Type]Handler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewBus creates a new gesture bus
func NewBus(middlewares ...Middleware) *Bus {
	return &Bus{
		handlers:    make(map[reflect.Type]Handler),
		middlewares: middlewares,
	}
}

// Register registers a handler for an event type
func (b *Bus) Register(eventType Event, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(eventType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t.Name())
	}

	// Apply middleware in reverse order
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// RegisterAll registers one handler for every event type given
func (b *Bus) RegisterAll(handler Handler, eventTypes ...Event) error {
	for _, et := range eventTypes {
		if err := b.Register(et, handler); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch validates an event and hands it to its handler
func (b *Bus) Dispatch(ctx context.Context, event Event) error {
	if event == nil {
		return ErrNilEvent
	}
	if err := event.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(event)]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %T", ErrHandlerNotFound, event)
	}
	return handler.Handle(ctx, event)
}

// LoggingMiddleware logs gesture handling
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, event Event) error {
			eventType := reflect.TypeOf(event).Name()
			start := time.Now()

			err := next.Handle(ctx, event)
			if err != nil {
				logger.Warn("Gesture failed",
					zap.String("type", eventType),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err))
			} else {
				logger.Debug("Gesture handled",
					zap.String("type", eventType),
					zap.Duration("duration", time.Since(start)))
			}
			return err
		})
	}
}

// Errors
var (
	ErrNilEvent          = errors.New("gesture event is nil")
	ErrHandlerNotFound   = errors.New("gesture handler not found")
	ErrAlreadyRegistered = errors.New("handler already registered for gesture")
)
