// Package coordinator owns the room registry and the per-connection
// identity indices, and dispatches decoded inbound messages to room
// operations. It implements session.Dispatcher.
package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenroom/backend/internal/v1/bus"
	"github.com/listenroom/backend/internal/v1/clock"
	"github.com/listenroom/backend/internal/v1/ids"
	"github.com/listenroom/backend/internal/v1/metrics"
	"github.com/listenroom/backend/internal/v1/room"
	"github.com/listenroom/backend/internal/v1/session"
	"github.com/listenroom/backend/internal/v1/types"
	"github.com/listenroom/backend/internal/v1/youtube"
)

// participantKey identifies one joined session by the room and user ID it
// was assigned at join time.
type participantKey struct {
	roomId types.RoomIdType
	userId types.UserIdType
}

// Coordinator owns every active Room and the two identity indices that
// let it route a Session's disconnect or an eviction notification back to
// the right room without the room ever needing to know about sessions
// beyond its own membership. The coordinator's own lock is always taken
// before any room lock, never the reverse — see internal/v1/room.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[types.RoomIdType]*room.Room

	// sessions maps a live session to where it joined; participants is
	// its inverse, used by userEvicted (which only knows room+user, not
	// the session pointer) and by Disconnect's cleanup.
	sessions     map[*session.Session]participantKey
	participants map[participantKey]*session.Session

	clock    clock.Clock
	roomBus  *bus.Service
	resolver youtube.Resolver
}

// New constructs an empty Coordinator. roomBus may be nil to disable
// cross-instance fan-out.
func New(c clock.Clock, roomBus *bus.Service, resolver youtube.Resolver) *Coordinator {
	return &Coordinator{
		rooms:        make(map[types.RoomIdType]*room.Room),
		sessions:     make(map[*session.Session]participantKey),
		participants: make(map[participantKey]*session.Session),
		clock:        c,
		roomBus:      roomBus,
		resolver:     resolver,
	}
}

// CreateRoom allocates a fresh room with an opaque ID and the given
// (trimmed, defaulted) display name, and registers it.
func (co *Coordinator) CreateRoom(name string) *room.Room {
	co.mu.Lock()
	defer co.mu.Unlock()

	id := types.RoomIdType(ids.NewRoomId())
	r := room.New(id, room.NormalizeRoomName(name, id), co.clock, co.roomBus, co.userEvicted)
	co.rooms[id] = r

	metrics.ActiveRooms.Inc()
	slog.Info("room created", "roomId", id)
	return r
}

// GetRoom looks up a room by ID.
func (co *Coordinator) GetRoom(id types.RoomIdType) (*room.Room, bool) {
	co.mu.Lock()
	defer co.mu.Unlock()
	r, ok := co.rooms[id]
	return r, ok
}

// HandleMessage dispatches one decoded inbound message. Unrecognized
// types, messages from a session that hasn't joined yet (other than
// "join" itself), and permission-denied transitions are silently
// dropped, per the engine's error-handling contract.
func (co *Coordinator) HandleMessage(s *session.Session, msg types.InboundMessage) {
	co.mu.Lock()
	key, joined := co.sessions[s]
	co.mu.Unlock()

	if msg.Type == types.MsgJoin {
		if joined {
			return
		}
		co.handleJoin(s, msg)
		return
	}

	if !joined {
		return
	}

	r, ok := co.GetRoom(key.roomId)
	if !ok {
		return
	}

	switch msg.Type {
	case types.MsgQueueAdd:
		co.handleQueueAdd(r, key.userId, msg)
	case types.MsgQueueRemove:
		r.RemoveTrack(key.userId, types.TrackIdType(msg.TrackId))
	case types.MsgPlaybackPlay:
		r.Play()
	case types.MsgPlaybackPause:
		r.Pause()
	case types.MsgPlaybackSkip:
		r.SkipVote(key.userId)
	case types.MsgPlaybackSeek:
		r.Seek(coerceFloat(msg.Time))
	case types.MsgChatMessage:
		r.Chat(key.userId, coerceString(msg.Text))
	case types.MsgCrossfadeSet:
		r.SetCrossfade(coerceFloat(msg.Duration))
	}

	metrics.InboundMessages.WithLabelValues(msg.Type, "handled").Inc()
}

func (co *Coordinator) handleJoin(s *session.Session, msg types.InboundMessage) {
	roomId := types.RoomIdType(msg.RoomId)
	r, ok := co.GetRoom(roomId)
	if !ok {
		s.Deliver(types.RoomErrorMessage{Type: types.MsgRoomError, Message: "Room not found"})
		return
	}

	userId := types.UserIdType(ids.NewUserId())
	state, _ := r.Join(userId, msg.UserName, s)

	co.mu.Lock()
	key := participantKey{roomId: roomId, userId: userId}
	co.sessions[s] = key
	co.participants[key] = s
	co.mu.Unlock()

	metrics.RoomParticipants.WithLabelValues(string(roomId)).Set(float64(r.UserCount()))

	s.Deliver(types.RoomStateMessage{Type: types.MsgRoomState, Room: state, UserId: userId})
}

// handleQueueAdd resolves the submitted URL outside of any room lock
// (oEmbed is an outbound HTTP call; the engine itself never blocks on
// I/O) and only then mutates the queue.
func (co *Coordinator) handleQueueAdd(r *room.Room, userId types.UserIdType, msg types.InboundMessage) {
	videoId, err := co.resolver.ExtractID(msg.Url)
	if err != nil {
		co.sendError(r, userId, "Invalid YouTube URL")
		metrics.QueueOperations.WithLabelValues("add_invalid").Inc()
		return
	}

	meta := co.resolver.FetchMetadata(context.Background(), videoId)

	track := types.Track{
		Id:          room.NextTrackId(),
		YoutubeId:   meta.YoutubeId,
		Title:       meta.Title,
		Thumbnail:   meta.Thumbnail,
		AddedBy:     userId,
		AddedByName: r.UserName(userId),
	}
	r.AddTrack(track)
	metrics.QueueOperations.WithLabelValues("add").Inc()
}

// sendError delivers a room:error to one participant only.
func (co *Coordinator) sendError(r *room.Room, userId types.UserIdType, message string) {
	co.mu.Lock()
	sess, ok := co.participants[participantKey{roomId: r.Id, userId: userId}]
	co.mu.Unlock()
	if !ok {
		return
	}
	sess.Deliver(types.RoomErrorMessage{Type: types.MsgRoomError, Message: message})
}

// Disconnect removes a session's participant from its room, migrating
// host and broadcasting user:left, then destroys the room if it is now
// empty.
func (co *Coordinator) Disconnect(s *session.Session) {
	co.mu.Lock()
	key, ok := co.sessions[s]
	if ok {
		delete(co.sessions, s)
		delete(co.participants, key)
	}
	co.mu.Unlock()

	if !ok {
		return
	}

	co.leaveAndReap(key)
}

// userEvicted is invoked by a Room, outside its own lock, when a
// participant's session failed delivery mid-broadcast and was already
// removed from the room's own state. The coordinator still owns the
// identity indices, which the room must never touch directly.
func (co *Coordinator) userEvicted(userId types.UserIdType, roomId types.RoomIdType) {
	key := participantKey{roomId: roomId, userId: userId}

	co.mu.Lock()
	sess, ok := co.participants[key]
	if ok {
		delete(co.participants, key)
		delete(co.sessions, sess)
	}
	co.mu.Unlock()

	if !ok {
		return
	}

	sess.Close()
	co.reapIfEmpty(roomId)
}

// leaveAndReap runs the explicit room.Leave path (the room hasn't
// removed this user yet, unlike the eviction path) and then destroys the
// room if it is now empty.
func (co *Coordinator) leaveAndReap(key participantKey) {
	r, ok := co.GetRoom(key.roomId)
	if !ok {
		return
	}
	r.Leave(key.userId)
	metrics.RoomParticipants.WithLabelValues(string(key.roomId)).Set(float64(r.UserCount()))
	co.reapIfEmpty(key.roomId)
}

func (co *Coordinator) reapIfEmpty(roomId types.RoomIdType) {
	co.mu.Lock()
	r, ok := co.rooms[roomId]
	destroy := ok && r.IsEmpty()
	if destroy {
		delete(co.rooms, roomId)
	}
	co.mu.Unlock()

	if !destroy {
		return
	}

	r.Shutdown()
	metrics.ActiveRooms.Dec()
	metrics.RoomParticipants.DeleteLabelValues(string(roomId))
	slog.Info("room destroyed, no participants remaining", "roomId", roomId)
}

// Shutdown tears down every active room's bus subscription. Called once
// at process shutdown.
func (co *Coordinator) Shutdown() {
	co.mu.Lock()
	rooms := make([]*room.Room, 0, len(co.rooms))
	for _, r := range co.rooms {
		rooms = append(rooms, r)
	}
	co.mu.Unlock()

	for _, r := range rooms {
		r.Shutdown()
	}
}
