package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
)

// ErrBusClosed is returned by a closed MemoryEventBus.
var ErrBusClosed = errors.New("event bus is closed")

// MemoryEventBus delivers events within a single process. It backs the
// SSE stream when Redis is disabled.
type MemoryEventBus struct {
	fanout *fanout
	done   chan struct{}
	once   sync.Once
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{fanout: newFanout(), done: make(chan struct{})}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

func (b *MemoryEventBus) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.ReminderEvent) error {
	if b.closed() {
		return ErrBusClosed
	}
	n := b.fanout.broadcast(channel, event)
	log.Debug().Str("channel", channel).Str("event_id", event.ID).Int("delivered", n).Msg("Published event")
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReminderEvent, error) {
	if b.closed() {
		return nil, ErrBusClosed
	}
	eventChan, _ := b.fanout.add(channel)

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.fanout.remove(channel, eventChan)
	}()

	return eventChan, nil
}

func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.fanout.closeChannel(channel)
	return nil
}

// Close releases every subscriber.
func (b *MemoryEventBus) Close() error {
	b.once.Do(func() {
		close(b.done)
		for _, channel := range b.fanout.channels() {
			b.fanout.closeChannel(channel)
		}
	})
	return nil
}
