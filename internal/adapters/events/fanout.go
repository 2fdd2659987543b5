package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// subscriberBuffer is the per-subscriber backlog. Slow readers lose events
// instead of stalling the publisher.
const subscriberBuffer = 100

// fanout tracks local subscriber channels per event channel.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.ReminderEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.ReminderEvent]struct{})}
}

func (f *fanout) add(channel string) (chan *entities.ReminderEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.ReminderEvent]struct{})
	}
	ch := make(chan *entities.ReminderEvent, subscriberBuffer)
	f.subscribers[channel][ch] = struct{}{}
	return ch, len(f.subscribers[channel])
}

// remove closes ch and returns how many subscribers remain on channel.
func (f *fanout) remove(channel string, ch chan *entities.ReminderEvent) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscribers, exists := f.subscribers[channel]
	if !exists {
		return 0
	}
	if _, ok := subscribers[ch]; ok {
		delete(subscribers, ch)
		close(ch)
	}
	if len(subscribers) == 0 {
		delete(f.subscribers, channel)
	}
	return len(subscribers)
}

func (f *fanout) broadcast(channel string, event *entities.ReminderEvent) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	delivered := 0
	for subscriber := range f.subscribers[channel] {
		select {
		case subscriber <- event:
			delivered++
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, skipping event")
		}
	}
	return delivered
}

func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for subscriber := range f.subscribers[channel] {
		close(subscriber)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) channels() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	channels := make([]string, 0, len(f.subscribers))
	for channel := range f.subscribers {
		channels = append(channels, channel)
	}
	return channels
}
