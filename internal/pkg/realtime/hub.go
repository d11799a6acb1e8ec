package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const subscriberBuffer = 8

// Subscription is one open stream. C is closed on Unsubscribe.
type Subscription struct {
	C      chan Event
	userID uint
	tables map[string]struct{}
	row    uint
}

func (s *Subscription) wants(evt Event) bool {
	if len(s.tables) > 0 {
		if _, ok := s.tables[evt.Table]; !ok {
			return false
		}
	}
	return s.row == 0 || s.row == evt.RowID
}

// Hub maintains per-user subscribers on this instance.
type Hub struct {
	mu    sync.RWMutex
	users map[uint]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{users: make(map[uint]map[*Subscription]struct{})}
}

// Subscribe registers a listener for userID limited to tables (all when
// empty) and, when row is non-zero, to that row id.
func (h *Hub) Subscribe(userID uint, tables []string, row uint) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriberBuffer),
		userID: userID,
		tables: make(map[string]struct{}, len(tables)),
		row:    row,
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Subscription]struct{})
	}
	h.users[userID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is safe.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.users[sub.userID]
	if subs == nil {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.C)
	if len(subs) == 0 {
		delete(h.users, sub.userID)
	}
}

// Deliver hands evt to the matching local subscribers of userID. Full
// buffers drop the event.
func (h *Hub) Deliver(userID uint, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.users[userID] {
		if !sub.wants(evt) {
			continue
		}
		select { // non-blocking
		case sub.C <- evt:
		default:
		}
	}
}

// Publish delivers locally. It lets a Hub stand in for the Broker when the
// process runs alone.
func (h *Hub) Publish(_ context.Context, userID uint, evt Event) error {
	h.Deliver(userID, evt)
	return nil
}

// Subscribers counts the open local streams of userID.
func (h *Hub) Subscribers(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Run relays events published by any instance to local subscribers until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context, client *redis.Client) error {
	pubsub := client.PSubscribe(ctx, ChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	log.Infof("[Realtime] Listening on %s*", ChannelPrefix)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, ok := userFromChannel(msg.Channel)
			if !ok {
				continue
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Warnf("[Realtime] Dropping malformed event on %s: %v", msg.Channel, err)
				continue
			}
			h.Deliver(userID, evt)
		}
	}
}
