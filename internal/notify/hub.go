package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Hub is the in-process publish/subscribe fabric. Delivery is
// fire-and-forget: events published to a topic with no subscribers are
// dropped, and a subscriber that cannot keep up loses events rather than
// blocking the publisher. New site subscribers recover current state through
// the backfill snapshot, and guards recover revocations by re-login, which
// is what makes lossy delivery acceptable.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

type Subscription struct {
	C chan Event

	hub   *Hub
	topic string
	once  sync.Once
}

func NewHub(logger ...*zap.Logger) *Hub {
	l := zap.L().Named("notify.hub")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.hub")
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		logger: l,
	}
}

// Subscribe registers a new subscriber on the topic. The returned
// subscription holds exactly one slot until Close is called.
func (h *Hub) Subscribe(topic string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &Subscription{
		C:     make(chan Event, buffer),
		hub:   h,
		topic: topic,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscription]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	return sub
}

// Close releases the subscription slot and closes the event channel. Safe to
// call more than once; after Close no further events are delivered.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.topics[s.topic]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.hub.topics, s.topic)
			}
		}
		s.hub.mu.Unlock()
		close(s.C)
	})
}

// Publish fans the event out to every live subscriber of the topic without
// blocking. Returns the number of subscribers that received it.
func (h *Hub) Publish(topic string, e Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.topics[topic] {
		select {
		case sub.C <- e:
			delivered++
		default:
			h.logger.Warn("subscriber buffer full, dropping event",
				zap.String("topic", topic),
				zap.String("event_type", e.Type),
			)
		}
	}
	return delivered
}

// SubscriberCount is used by tests and health reporting.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
