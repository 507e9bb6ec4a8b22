package audit

import (
	"context"
	"sync"
	"time"

	id "geoattend/pkg/domain"
)

// Publisher captures structured audit events. Persistence goes through the
// store; sinks receive a best-effort copy. In async mode events are buffered
// on a channel and drained by a background goroutine; Close flushes the
// buffer before returning.
type Publisher struct {
	store Store
	sinks []Sink

	inbox chan Event
	done  chan struct{}
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// channel capacity. When the buffer is full, events are dropped rather than
// blocking the caller.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// WithSink registers an additional delivery target. Sink failures are
// swallowed; the store remains the source of truth.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records one event. The timestamp defaults to now when unset. In sync
// mode store errors propagate; in async mode Emit never fails and a full
// buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
		}
		return nil
	}

	return p.deliver(ctx, event)
}

func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close drains any buffered events and closes registered sinks. Safe to call
// more than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
		for _, sink := range p.sinks {
			sink.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		_ = p.deliver(context.Background(), event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event Event) error {
	err := p.store.Append(ctx, event)
	for _, sink := range p.sinks {
		_ = sink.Publish(ctx, event)
	}
	return err
}
