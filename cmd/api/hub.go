package main

import (
	"sync"

	"github.com/heloha-app/heloha/internal/chat"
)

// EntrySender defines the minimal interface the hub needs from a
// subscriber: the ability to push one appended message to it.
type EntrySender interface {
	Send(chat.Message) error
}

// subscriberQueueSize bounds how far behind a subscriber may fall before
// the hub gives up on it.
const subscriberQueueSize = 64

// RoomHub owns the shared room's runtime message log and its active
// subscribers. All commits and registrations go through one mutex, which
// is what gives subscribers the ordering contract: every subscriber sees
// the existing log first, then each append exactly once, in commit order.
// Actual sends never happen under the mutex; each subscriber drains a
// bounded queue on its own goroutine, so a slow connection cannot stall
// the room.
type RoomHub struct {
	mu     sync.Mutex
	log    []chat.Message
	subs   map[int64]chan chat.Message
	nextID int64
}

// NewRoomHub creates an empty hub.
func NewRoomHub() *RoomHub {
	return &RoomHub{subs: make(map[int64]chan chat.Message)}
}

// Seed installs the persisted log, oldest first. Called once at startup
// before the server accepts subscribers.
func (h *RoomHub) Seed(msgs []chat.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = append(h.log[:0], msgs...)
}

// Subscribe registers the sender and starts its delivery goroutine: the
// log snapshot first, then queued appends. Snapshot and registration
// happen under the same lock as Append, so a message committed
// concurrently lands in the queue exactly once: either in the snapshot or
// as a queued push, never both, never neither. A send error drops the
// subscriber. The returned id must be passed to Unsubscribe when the
// subscriber goes away.
func (h *RoomHub) Subscribe(s EntrySender) int64 {
	h.mu.Lock()
	snapshot := append([]chat.Message(nil), h.log...)
	queue := make(chan chat.Message, subscriberQueueSize)
	h.nextID++
	id := h.nextID
	h.subs[id] = queue
	h.mu.Unlock()

	go func() {
		for _, m := range snapshot {
			if err := s.Send(m); err != nil {
				h.Unsubscribe(id)
				return
			}
		}
		for m := range queue {
			if err := s.Send(m); err != nil {
				h.Unsubscribe(id)
				return
			}
		}
	}()

	return id
}

// Unsubscribe removes a previously-registered subscriber. Safe to call
// with an id that was already dropped.
func (h *RoomHub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(id)
}

// dropLocked removes a subscriber and closes its queue, which ends its
// delivery goroutine. Callers hold the mutex.
func (h *RoomHub) dropLocked(id int64) {
	queue, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(queue)
}

// Append commits a message to the room log and queues it for every
// subscriber. Delivery is best-effort per subscriber: one whose queue is
// full is dropped on the spot, and the append itself never fails.
func (h *RoomHub) Append(msg chat.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.log = append(h.log, msg)

	for id, queue := range h.subs {
		select {
		case queue <- msg:
		default:
			h.dropLocked(id)
		}
	}
}

// Len reports the number of committed messages.
func (h *RoomHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.log)
}

func (h *RoomHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
