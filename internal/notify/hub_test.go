package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	topic := SiteTopic("site-1")

	a := hub.Subscribe(topic, 4)
	defer a.Close()
	b := hub.Subscribe(topic, 4)
	defer b.Close()
	other := hub.Subscribe(SiteTopic("site-2"), 4)
	defer other.Close()

	delivered := hub.Publish(topic, AlertCreated(map[string]string{"id": "a1"}))
	assert.Equal(t, 2, delivered)

	for _, sub := range []*Subscription{a, b} {
		select {
		case e := <-sub.C:
			assert.Equal(t, EventAlertCreated, e.Type)
		default:
			t.Fatal("expected delivery")
		}
	}
	select {
	case <-other.C:
		t.Fatal("event leaked across topics")
	default:
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.Publish(SiteTopic("empty"), AlertCreated(nil)))
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub()
	topic := GuardTopic("g-1")

	sub := hub.Subscribe(topic, 1)
	defer sub.Close()

	assert.Equal(t, 1, hub.Publish(topic, SessionRevoked(2)))
	// buffer is full now; the second publish must drop, not block
	assert.Equal(t, 0, hub.Publish(topic, SessionRevoked(3)))

	e := <-sub.C
	assert.Equal(t, int64(2), *e.NewTokenVersion)
}

func TestSubscription_CloseReleasesSlot(t *testing.T) {
	hub := NewHub()
	topic := SiteTopic("site-1")

	sub := hub.Subscribe(topic, 4)
	assert.Equal(t, 1, hub.SubscriberCount(topic))

	sub.Close()
	sub.Close() // repeat close is a no-op
	assert.Equal(t, 0, hub.SubscriberCount(topic))
	assert.Equal(t, 0, hub.Publish(topic, AlertCreated(nil)))
}

func TestEvent_WireShape(t *testing.T) {
	raw, err := json.Marshal(SessionRevoked(7))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"session_revoked","newTokenVersion":7}`, string(raw))

	raw, err = json.Marshal(AlertCreated(map[string]string{"id": "a1"}))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"alert_created","alert":{"id":"a1"}}`, string(raw))
}
