package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
)

func receive(t *testing.T, ch <-chan *entities.ReminderEvent) *entities.ReminderEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx, providers.EventChannelReminderUpdates)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, providers.EventChannelReminderUpdates)
	require.NoError(t, err)

	event := entities.NewReminderEvent(entities.ReminderEventCreated, "rem-1", &entities.Reminder{ID: "rem-1"})
	require.NoError(t, bus.Publish(ctx, providers.EventChannelReminderUpdates, event))

	assert.Equal(t, event.ID, receive(t, first).ID)
	assert.Equal(t, event.ID, receive(t, second).ID)
}

func TestMemoryEventBus_CancelClosesSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, providers.GetReminderChannel("rem-9"))
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryEventBus_FullSubscriberDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewMemoryEventBus()
	ctx := context.Background()

	ch, err := bus.Subscribe(ctx, providers.EventChannelReminderUpdates)
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		ev := entities.NewReminderEvent(entities.ReminderEventUpdated, "rem-1", nil)
		require.NoError(t, bus.Publish(ctx, providers.EventChannelReminderUpdates, ev))
	}
	assert.Len(t, ch, subscriberBuffer)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(ctx, providers.EventChannelReminderUpdates, entities.NewReminderEvent(entities.ReminderEventDue, "x", nil)), ErrBusClosed)
	_, err = bus.Subscribe(ctx, providers.EventChannelReminderUpdates)
	assert.ErrorIs(t, err, ErrBusClosed)
}
