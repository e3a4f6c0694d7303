package room

import (
	"github.com/listenroom/backend/internal/v1/bus"
	"github.com/listenroom/backend/internal/v1/types"
)

// publishToBusLocked mirrors an already-computed outbound message to any
// other process subscribed to this room. It is fire-and-forget: Publish
// degrades gracefully (breaker-open, nil service) and never blocks a
// caller holding r.mu for long, since the Redis client's own timeouts
// bound worst case. Caller must hold r.mu.
func (r *Room) publishToBusLocked(event string, payload any) {
	if r.roomBus == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.roomBus.Publish(r.ctx, string(r.Id), event, payload, instanceID); err != nil {
			// Publish already logs; nothing more to do here. A dropped
			// mirror never affects this process's own session state.
			_ = err
		}
	}()
}

// subscribeToBus starts the background listener that relays messages
// published by other processes to this room's locally connected sessions.
// It never mutates this room's own authoritative state: each room's state
// is owned by exactly one process, and the bus only extends delivery to
// sessions connected elsewhere.
func (r *Room) subscribeToBus() {
	r.roomBus.Subscribe(r.ctx, string(r.Id), &r.wg, r.handleBusEvent)
}

// handleBusEvent forwards a remote process's already-serialized message to
// every session connected to this room in the current process. Messages
// this process itself published are tagged with instanceID and skipped.
func (r *Room) handleBusEvent(msg bus.PubSubPayload) {
	if msg.SenderId == instanceID {
		return
	}

	r.mu.RLock()
	sessions := make([]types.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	for _, sess := range sessions {
		sess.Deliver(msg.Payload)
	}
}
