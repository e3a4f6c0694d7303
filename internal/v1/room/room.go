// Package room implements the per-room state machine: membership, the
// shared queue, the playback clock, skip voting, chat, and crossfade.
// A Room owns all of its mutable state; callers outside this package
// find it through the coordinator's registry (see internal/v1/coordinator).
// Where the coordinator's lock and a room's lock are both held, the
// coordinator's is taken first; room operations themselves are called
// with the coordinator's lock released.
package room

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/listenroom/backend/internal/v1/bus"
	"github.com/listenroom/backend/internal/v1/clock"
	"github.com/listenroom/backend/internal/v1/types"
	"k8s.io/utils/set"
)

const maxCrossfadeDuration = 8

// instanceID tags every message this process publishes to the room bus, so
// a room's own bus subscription can recognize and ignore its own echoes.
var instanceID = uuid.NewString()

// Room owns all mutable state for one listening session.
type Room struct {
	Id        types.RoomIdType
	Name      string
	CreatedAt int64

	mu sync.RWMutex

	hostId        types.UserIdType
	queue         []types.Track
	currentIndex  int
	playbackState types.PlaybackStateType
	startedAt     int64
	elapsed       float64

	// userOrder preserves insertion order for deterministic color
	// assignment and host migration; users is the lookup table.
	userOrder []types.UserIdType
	users     map[types.UserIdType]types.User
	sessions  map[types.UserIdType]types.Session

	skipVotes set.Set[types.UserIdType]

	crossfadeDuration float64

	clock       clock.Clock
	roomBus     *bus.Service
	onEvicted   func(types.UserIdType, types.RoomIdType)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an empty room. onEvicted is invoked by the room, outside
// its own lock, whenever a session is evicted mid-broadcast because
// delivery to it failed; the coordinator uses this to reconcile its two
// identity indices, which a Room must never touch directly. roomBus may be
// nil when cross-instance fan-out is disabled.
func New(id types.RoomIdType, name string, c clock.Clock, roomBus *bus.Service, onEvicted func(types.UserIdType, types.RoomIdType)) *Room {
	r := &Room{
		Id:            id,
		Name:          name,
		CreatedAt:     c.NowMillis(),
		currentIndex:  -1,
		playbackState: types.PlaybackStatePaused,
		userOrder:     make([]types.UserIdType, 0),
		users:         make(map[types.UserIdType]types.User),
		sessions:      make(map[types.UserIdType]types.Session),
		skipVotes:     set.New[types.UserIdType](),
		clock:         c,
		roomBus:       roomBus,
		onEvicted:     onEvicted,
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	if roomBus != nil {
		r.subscribeToBus()
	}

	return r
}

// Shutdown stops the room's background bus subscription, if any, and waits
// for in-flight bus publishes to finish.
func (r *Room) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

// Serialize produces the wire representation of the room's current state,
// computing elapsed at call time.
func (r *Room) Serialize() types.SerializedRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.serializeLocked()
}

func (r *Room) serializeLocked() types.SerializedRoom {
	users := make([]types.User, 0, len(r.userOrder))
	for _, id := range r.userOrder {
		users = append(users, r.users[id])
	}

	queue := make([]types.Track, len(r.queue))
	copy(queue, r.queue)

	return types.SerializedRoom{
		Id:                r.Id,
		Name:              r.Name,
		HostId:            r.hostId,
		Queue:             queue,
		CurrentIndex:      r.currentIndex,
		PlaybackState:     r.playbackState,
		Elapsed:           r.elapsedLocked(),
		StartedAt:         r.startedAt,
		Users:             users,
		SkipVotes:         r.skipVotes.Len(),
		SkipNeeded:        skipThreshold(len(r.userOrder)),
		CrossfadeDuration: r.crossfadeDuration,
	}
}

// elapsedLocked returns the current track position. Caller must hold r.mu.
func (r *Room) elapsedLocked() float64 {
	if r.playbackState == types.PlaybackStatePlaying {
		return float64(r.clock.NowMillis()-r.startedAt) / 1000
	}
	return r.elapsed
}

// UserCount reports the number of connected participants.
func (r *Room) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userOrder)
}

// IsEmpty reports whether the room currently has no participants.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userOrder) == 0
}

// skipThreshold computes ceil(n/2).
func skipThreshold(n int) int {
	return int(math.Ceil(float64(n) / 2))
}

// currentYoutubeIdLocked returns a pointer to the current track's YouTube ID,
// or nil when nothing is scheduled. Caller must hold r.mu (read or write).
func (r *Room) currentYoutubeIdLocked() *string {
	if r.currentIndex < 0 || r.currentIndex >= len(r.queue) {
		return nil
	}
	id := r.queue[r.currentIndex].YoutubeId
	return &id
}

// buildPlaybackSyncLocked constructs the playback:sync message reflecting
// the room's state at call time. Caller must hold r.mu.
func (r *Room) buildPlaybackSyncLocked() types.PlaybackSyncMessage {
	return types.PlaybackSyncMessage{
		Type:         types.MsgPlaybackSync,
		State:        r.playbackState,
		CurrentIndex: r.currentIndex,
		Elapsed:      r.elapsedLocked(),
		Timestamp:    r.clock.NowMillis(),
		YoutubeId:    r.currentYoutubeIdLocked(),
	}
}

func (r *Room) buildQueueUpdatedLocked() types.QueueUpdatedMessage {
	queue := make([]types.Track, len(r.queue))
	copy(queue, r.queue)
	return types.QueueUpdatedMessage{
		Type:         types.MsgQueueUpdated,
		Queue:        queue,
		CurrentIndex: r.currentIndex,
	}
}

// broadcastLocked fans payload out to every connected session except
// excludeUser (empty to exclude none), then mirrors it to any other process
// subscribed to this room over the bus. A failed deliver evicts that
// session's user from the room's own state immediately (so a subsequent
// broadcast in the same operation never targets it again) and returns the
// evicted user IDs so the caller can, after releasing r.mu, tell the
// coordinator to reconcile its identity indices. Caller must hold r.mu
// (write lock: eviction mutates room state).
func (r *Room) broadcastLocked(event string, payload any, excludeUser types.UserIdType) []types.UserIdType {
	var failed []types.UserIdType
	for userId, sess := range r.sessions {
		if userId == excludeUser {
			continue
		}
		if !sess.Deliver(payload) {
			failed = append(failed, userId)
		}
	}

	r.publishToBusLocked(event, payload)

	for _, userId := range failed {
		slog.Warn("evicting session after failed delivery", "room", r.Id, "userId", userId)
		r.leaveLocked(userId)
	}

	return failed
}

// sendToLocked delivers payload to exactly one session, evicting it on
// failure. Caller must hold r.mu. Returns true if the user was evicted.
func (r *Room) sendToLocked(userId types.UserIdType, payload any) bool {
	sess, ok := r.sessions[userId]
	if !ok {
		return false
	}
	if !sess.Deliver(payload) {
		slog.Warn("evicting session after failed delivery", "room", r.Id, "userId", userId)
		r.leaveLocked(userId)
		return true
	}
	return false
}

// notifyEvicted reports evicted users to the coordinator. Must be called
// after r.mu has been released.
func (r *Room) notifyEvicted(evicted []types.UserIdType) {
	if r.onEvicted == nil {
		return
	}
	for _, userId := range evicted {
		r.onEvicted(userId, r.Id)
	}
}
